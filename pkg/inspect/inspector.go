package inspect

import (
	"github.com/mash-protocol/gbz-go/pkg/gbz"
)

// Inspector holds a decoded message for repeated queries.
type Inspector struct {
	header gbz.Header
	size   int
	cmds   []*gbz.ParsedCommand

	// err is the error that stopped decoding, if any.
	err error

	formatter *Formatter
}

// NewInspector decodes data. Decoding errors after a valid header are kept
// and reported by Err, so partial messages can still be inspected.
func NewInspector(data []byte, cfg gbz.ParserConfig) (*Inspector, error) {
	if _, err := gbz.DecodeHeader(data, cfg.Type); err != nil {
		return nil, err
	}
	header, cmds, err := gbz.ParseAll(data, cfg)
	return &Inspector{
		header:    header,
		size:      len(data),
		cmds:      cmds,
		err:       err,
		formatter: NewFormatter(),
	}, nil
}

// SetFormatter replaces the formatter used by Show and Summary.
func (i *Inspector) SetFormatter(f *Formatter) {
	if f != nil {
		i.formatter = f
	}
}

// Header returns the decoded header.
func (i *Inspector) Header() gbz.Header {
	return i.header
}

// Commands returns every decoded component.
func (i *Inspector) Commands() []*gbz.ParsedCommand {
	return i.cmds
}

// Err returns the error that stopped decoding, if any.
func (i *Inspector) Err() error {
	return i.err
}

// Select returns the components chosen by sel.
func (i *Inspector) Select(sel *Selector) []*gbz.ParsedCommand {
	var out []*gbz.ParsedCommand
	for _, cmd := range i.cmds {
		if sel.Matches(cmd) {
			out = append(out, cmd)
		}
	}
	return out
}

// Summary formats the whole message.
func (i *Inspector) Summary() string {
	s := i.formatter.FormatMessage(i.header, i.size, i.cmds)
	if i.err != nil {
		s += i.formatter.Indent(1, "decode stopped: "+i.err.Error()+"\n")
	}
	return s
}

// Show formats the components chosen by sel.
func (i *Inspector) Show(sel *Selector) string {
	cmds := i.Select(sel)
	if len(cmds) == 0 {
		return "  (no matching components)\n"
	}
	var s string
	for _, cmd := range cmds {
		s += i.formatter.FormatCommand(cmd)
	}
	return s
}
