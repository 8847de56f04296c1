package imageproc

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewRegistry tracks the preview handle created for each image field.
// Replacing a field's image releases its previous handle, so repeated
// selections never accumulate live previews.
type PreviewRegistry struct {
	mu        sync.Mutex
	live      map[string]string
	onRelease func(handle string)
}

// NewPreviewRegistry creates an empty registry. onRelease, when non-nil, is
// called with each handle as it is released.
func NewPreviewRegistry(onRelease func(handle string)) *PreviewRegistry {
	return &PreviewRegistry{
		live:      make(map[string]string),
		onRelease: onRelease,
	}
}

// Replace releases the current preview of field and creates a new one.
func (r *PreviewRegistry) Replace(field string) string {
	handle := newPreviewHandle()
	r.Install(field, handle)
	return handle
}

// Install makes handle the preview of field, releasing the previous one.
func (r *PreviewRegistry) Install(field, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked(field)
	r.live[field] = handle
}

func newPreviewHandle() string {
	return "preview://" + uuid.NewString()
}

// Handle returns the live preview of field, or "".
func (r *PreviewRegistry) Handle(field string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[field]
}

// Release drops the preview of field, if any.
func (r *PreviewRegistry) Release(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(field)
}

// ReleaseAll drops every live preview.
func (r *PreviewRegistry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for field := range r.live {
		r.releaseLocked(field)
	}
}

// Live returns the number of unreleased previews.
func (r *PreviewRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *PreviewRegistry) releaseLocked(field string) {
	handle, ok := r.live[field]
	if !ok {
		return
	}
	delete(r.live, field)
	if r.onRelease != nil {
		r.onRelease(handle)
	}
}
