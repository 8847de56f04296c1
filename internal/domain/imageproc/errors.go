package imageproc

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Image processing errors.
var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrImageTooLarge   = errors.New("image too large")
	ErrDecode          = errors.New("image could not be decoded")
	ErrTooManyPixels   = errors.New("image dimensions too large")
	ErrStaleSelection  = errors.New("selection superseded by a newer one")
)

// ImageError describes why a selected file was not accepted. It blocks the
// field it belongs to and nothing else.
type ImageError struct {
	Kind      error
	Field     string
	MIMEType  string
	SizeBytes int64
	MaxBytes  int64
	Width     int
	Height    int
	MaxPixels int64
	Cause     error
}

func (e *ImageError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrUnsupportedType):
		return fmt.Sprintf("%s: %q is not an accepted image type (use JPEG, PNG, GIF or WebP)", e.Kind, e.MIMEType)
	case errors.Is(e.Kind, ErrImageTooLarge):
		return fmt.Sprintf("%s: %s after resizing, limit is %s",
			e.Kind, humanize.IBytes(uint64(e.SizeBytes)), humanize.IBytes(uint64(e.MaxBytes)))
	case errors.Is(e.Kind, ErrTooManyPixels):
		return fmt.Sprintf("%s: %dx%d is %s pixels, limit is %s",
			e.Kind, e.Width, e.Height, humanize.Comma(int64(e.Width)*int64(e.Height)), humanize.Comma(e.MaxPixels))
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ImageError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
