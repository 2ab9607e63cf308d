package scene

import "errors"

var (
	// ErrSourceUnavailable means a content source could not be retrieved.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedSource means a payload did not parse into a source.
	ErrMalformedSource = errors.New("malformed source")
	// ErrSceneNotFound means the scene key is absent from a parsed source.
	ErrSceneNotFound = errors.New("scene not found")
	// ErrMalformedChoice means a choice target has no usable scene key.
	ErrMalformedChoice = errors.New("malformed choice")
)
