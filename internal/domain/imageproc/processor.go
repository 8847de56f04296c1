// Package imageproc prepares uploaded images so they fit the remote API's
// size limit: a type check, then at most one resize and re-encode pass.
package imageproc

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // decoder registration
	"image/jpeg"
	_ "image/png" // decoder registration
	"path/filepath"
	"slices"
	"strings"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration
)

// AllowedMIMETypes are the image types accepted for upload.
var AllowedMIMETypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DefaultMaxPixels is the decode budget used when Options.MaxPixels is unset.
const DefaultMaxPixels = 40_000_000

// Options bounds the processed image. MaxPixels caps width x height of any
// image that has to be decoded.
type Options struct {
	MaxBytes     int64
	MaxDimension int
	MaxPixels    int64
	Quality      int
}

// DefaultOptions returns the limits used by the wizards.
func DefaultOptions() Options {
	return Options{
		MaxBytes:     2 << 20,
		MaxDimension: 1024,
		MaxPixels:    DefaultMaxPixels,
		Quality:      80,
	}
}

// Processor resizes and re-encodes images.
type Processor struct{}

// NewProcessor creates a Processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Process returns file unchanged when it is within opts.MaxBytes. Otherwise
// it decodes it, scales the longer side down to opts.MaxDimension, encodes
// it as JPEG at opts.Quality and checks the size once more. A result that is
// still too large is an ErrImageTooLarge error, never a silent oversize.
func (p *Processor) Process(ctx context.Context, file form.UploadedFile, opts Options) (form.UploadedFile, error) {
	mimeType := strings.ToLower(strings.TrimSpace(file.MIMEType))
	if !slices.Contains(AllowedMIMETypes, mimeType) {
		return form.UploadedFile{}, &ImageError{Kind: ErrUnsupportedType, MIMEType: file.MIMEType, SizeBytes: file.SizeBytes}
	}
	if file.SizeBytes <= opts.MaxBytes {
		return file, nil
	}
	if err := ctx.Err(); err != nil {
		return form.UploadedFile{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Original))
	if err != nil {
		return form.UploadedFile{}, &ImageError{Kind: ErrDecode, MIMEType: file.MIMEType, SizeBytes: file.SizeBytes, Cause: err}
	}
	limit := opts.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > limit {
		return form.UploadedFile{}, &ImageError{
			Kind:      ErrTooManyPixels,
			MIMEType:  file.MIMEType,
			SizeBytes: file.SizeBytes,
			Width:     cfg.Width,
			Height:    cfg.Height,
			MaxPixels: limit,
		}
	}

	src, _, err := image.Decode(bytes.NewReader(file.Original))
	if err != nil {
		return form.UploadedFile{}, &ImageError{Kind: ErrDecode, MIMEType: file.MIMEType, SizeBytes: file.SizeBytes, Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return form.UploadedFile{}, err
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha channel; transparent areas become white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: clampQuality(opts.Quality)}); err != nil {
		return form.UploadedFile{}, &ImageError{Kind: ErrDecode, MIMEType: file.MIMEType, SizeBytes: file.SizeBytes, Cause: err}
	}

	if int64(buf.Len()) > opts.MaxBytes {
		return form.UploadedFile{}, &ImageError{
			Kind:      ErrImageTooLarge,
			MIMEType:  file.MIMEType,
			SizeBytes: int64(buf.Len()),
			MaxBytes:  opts.MaxBytes,
		}
	}

	out := file
	out.Name = jpegName(file.Name)
	out.MIMEType = "image/jpeg"
	out.Resized = buf.Bytes()
	return out, nil
}

// fitWithin scales w x h so the longer side is at most limit, keeping the
// aspect ratio. Images already within the limit keep their size.
func fitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		return limit, max(nh, 1)
	}
	nw := w * limit / h
	return max(nw, 1), limit
}

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}

func jpegName(name string) string {
	if name == "" {
		return "image.jpg"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
