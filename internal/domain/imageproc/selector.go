package imageproc

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
)

// ImageProcessor is the processing step a Selector runs for each selection.
type ImageProcessor interface {
	Process(ctx context.Context, file form.UploadedFile, opts Options) (form.UploadedFile, error)
}

// Commit stores the outcome of a selection that is still the latest for its
// field. It runs under the selector's lock, so a newer selection of the same
// field cannot be stored before it returns. err is the processing error, if
// any; a non-nil return value leaves the previous preview in place.
type Commit func(file form.UploadedFile, err error) error

// Selector applies file selections with last-write-wins semantics. Each
// selection gets a token from a monotonic counter; when processing
// finishes, the result is only returned if no newer selection for the same
// field started in the meantime. Starting a selection cancels the one still
// in flight for that field.
type Selector struct {
	mu       sync.Mutex
	proc     ImageProcessor
	opts     Options
	counter  uint64
	latest   map[string]uint64
	cancels  map[string]context.CancelFunc
	previews *PreviewRegistry
}

// NewSelector creates a Selector. A nil registry gets a private one.
func NewSelector(proc ImageProcessor, opts Options, previews *PreviewRegistry) *Selector {
	if previews == nil {
		previews = NewPreviewRegistry(nil)
	}
	return &Selector{
		proc:     proc,
		opts:     opts,
		latest:   make(map[string]uint64),
		cancels:  make(map[string]context.CancelFunc),
		previews: previews,
	}
}

// Previews returns the preview registry.
func (s *Selector) Previews() *PreviewRegistry { return s.previews }

// Select processes file for field and hands the outcome to commit, which may
// be nil. It returns ErrStaleSelection when a newer selection for field
// superseded this one; commit is not called then. Processing errors are
// *ImageError values scoped to field.
func (s *Selector) Select(ctx context.Context, field string, file form.UploadedFile, commit Commit) (form.UploadedFile, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.counter++
	token := s.counter
	s.latest[field] = token
	if prev, ok := s.cancels[field]; ok {
		prev()
	}
	s.cancels[field] = cancel
	s.mu.Unlock()

	result, err := s.proc.Process(ctx, file, s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest[field] != token {
		return form.UploadedFile{}, ErrStaleSelection
	}
	delete(s.cancels, field)

	if err != nil {
		var imgErr *ImageError
		if errors.As(err, &imgErr) {
			imgErr.Field = field
		}
		if commit != nil {
			_ = commit(form.UploadedFile{}, err)
		}
		return form.UploadedFile{}, err
	}

	result.Preview = newPreviewHandle()
	if commit != nil {
		if err := commit(result, nil); err != nil {
			return form.UploadedFile{}, err
		}
	}
	s.previews.Install(field, result.Preview)
	return result, nil
}

// Reset invalidates every in-flight selection and releases all previews.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for field, cancel := range s.cancels {
		cancel()
		delete(s.cancels, field)
	}
	for field := range s.latest {
		delete(s.latest, field)
	}
	s.previews.ReleaseAll()
}
