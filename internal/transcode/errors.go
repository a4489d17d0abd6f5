package transcode

import (
	"fmt"

	"photovault/internal/mediatypes"
)

// Error is a typed transcoding failure. Unlike metadata extraction, codec
// errors are never silently swallowed at this layer.
type Error struct {
	MediaType mediatypes.MediaType
	Op        string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s transcode: %s: %v", e.MediaType, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func imageError(op string, err error) *Error {
	return &Error{MediaType: mediatypes.MediaTypeImage, Op: op, Err: err}
}

func videoError(op string, err error) *Error {
	return &Error{MediaType: mediatypes.MediaTypeVideo, Op: op, Err: err}
}
