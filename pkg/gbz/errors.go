package gbz

import "errors"

// Controller errors.
var (
	// ErrInvalidProfileID indicates a header whose ProfileId is not ProfileID.
	ErrInvalidProfileID = errors.New("gbz: invalid profile id")

	// ErrAllocationFailure indicates a List sink or parser copy that would
	// exceed the configured maximum message size.
	ErrAllocationFailure = errors.New("gbz: allocation failure")

	// ErrInvalidFieldCombination indicates a component that is both
	// encrypted and carries a From Date Time field.
	ErrInvalidFieldCombination = errors.New("gbz: from date time cannot be combined with encryption")

	// ErrEncryptionFailure indicates the encrypt callback failed or no
	// cipher was configured for a component that requires encryption.
	ErrEncryptionFailure = errors.New("gbz: encryption failure")

	// ErrDecryptionFailure is recorded on parsed commands whose ciphertext
	// could not be decrypted. It is never returned by NextCommand.
	ErrDecryptionFailure = errors.New("gbz: decryption failure")

	// ErrInsufficientSpace indicates the fixed buffer cannot hold the
	// header or the next component.
	ErrInsufficientSpace = errors.New("gbz: insufficient space")

	// ErrHeaderNotInitialized indicates use of a creator without a header,
	// e.g. after Cleanup.
	ErrHeaderNotInitialized = errors.New("gbz: header not initialized")
)

// Decoding errors.
var (
	ErrMessageTooShort    = errors.New("gbz: message too short")
	ErrMalformedComponent = errors.New("gbz: malformed component")
	ErrNoMoreCommands     = errors.New("gbz: no more commands")
	ErrReleased           = errors.New("gbz: parser released")
)

// Encoding errors.
var (
	ErrAlreadyAssembled   = errors.New("gbz: message already assembled")
	ErrTooManyComponents  = errors.New("gbz: too many components")
	ErrPayloadTooLarge    = errors.New("gbz: payload too large for component")
	ErrInvalidMessageType = errors.New("gbz: invalid message type")
	ErrNilCommand         = errors.New("gbz: nil command")
)

// ErrInvalidConfig indicates a parser or creator config that fails Validate.
var ErrInvalidConfig = errors.New("gbz: invalid config")
