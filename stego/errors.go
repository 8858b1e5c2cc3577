package stego

import "errors"

var (
	// ErrCapacityExceeded means the carrier has fewer samples than the
	// message needs at the configured spreading factor.
	ErrCapacityExceeded = errors.New("audio too short to embed the message, try lowering spreading factor")

	// ErrDecode means the recovered bits have no terminator or the bytes
	// before it are not valid UTF-8. Expected when extracting from unrelated
	// audio or with the wrong seed.
	ErrDecode = errors.New("failed to decode message")

	// ErrEmbedVerificationFailed means the freshly embedded message could
	// not be read back.
	ErrEmbedVerificationFailed = errors.New("unsuccessfully embed message to audio, try increasing strength factor or spreading factor")

	ErrInvalidSignal  = errors.New("invalid signal")
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidConfig  = errors.New("invalid dsss config")
)
