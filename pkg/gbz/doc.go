// Package gbz implements the GBZ message controller: the binary container
// that bundles one or more ZCL commands, each optionally timestamped and
// optionally encrypted, into a single message exchanged between a
// smart-metering gateway and a head-end.
//
// # Wire Format
//
// All GBZ fields are big-endian:
//
//	GbzMessage := ProfileId:2 ComponentCount:1 [AlertCode:2 AlertTimestamp:4]? Component*
//	Component  := Control:1 ClusterId:2 ComponentLength:2
//	              [FromDateTime:4]?                    // unencrypted only
//	              [AddlHeaderControl:1 FrameCounter:1]? // encrypted only
//	              FrameControl:1 TxSeqNum:1 CommandId:1
//	              ( CipheredLength:2 Ciphertext | Payload )
//
// ComponentLength counts every byte after the ComponentLength field.
//
// # Encoding
//
// A Creator appends commands one at a time into a Sink. Without a caller
// buffer the ListSink keeps one allocation per component and Assemble
// concatenates them; with a caller buffer the FixedBufferSink writes in
// place and rejects commands that do not fit.
//
//	c, _ := gbz.NewCreator(gbz.CreatorConfig{Type: gbz.MessageTypeCommand, MessageCode: code, Cipher: cipher})
//	defer c.Cleanup()
//	c.AppendCommand(&zcl.Command{ClusterID: zcl.ClusterPrice, CommandID: 0x00, Payload: p})
//	msg, _ := c.Assemble()
//
// # Decoding
//
//	p, _ := gbz.NewParser(data, gbz.ParserConfig{Type: gbz.MessageTypeResponse, Cipher: cipher})
//	defer p.Cleanup()
//	for p.HasNext() {
//	    cmd, err := p.NextCommand()
//	    ...
//	}
//
// Parsed payloads are Spans over the parser's buffer. They report
// ErrReleased once the parser has been cleaned up.
//
// Parsers and creators are not safe for concurrent use.
package gbz
