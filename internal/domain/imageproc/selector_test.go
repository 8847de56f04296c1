package imageproc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedProcessor blocks each call until the test releases it, so the order
// in which selections finish can be controlled.
type gatedProcessor struct {
	mu      sync.Mutex
	started chan string
	release map[string]chan struct{}
	fail    map[string]error
}

func newGatedProcessor() *gatedProcessor {
	return &gatedProcessor{
		started: make(chan string, 8),
		release: make(map[string]chan struct{}),
		fail:    make(map[string]error),
	}
}

func (g *gatedProcessor) gate(name string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.release[name]
	if !ok {
		ch = make(chan struct{})
		g.release[name] = ch
	}
	return ch
}

func (g *gatedProcessor) Process(_ context.Context, file form.UploadedFile, _ Options) (form.UploadedFile, error) {
	ch := g.gate(file.Name)
	g.started <- file.Name
	<-ch
	g.mu.Lock()
	err := g.fail[file.Name]
	g.mu.Unlock()
	if err != nil {
		return form.UploadedFile{}, err
	}
	return file, nil
}

type passthrough struct{}

func (passthrough) Process(_ context.Context, file form.UploadedFile, _ Options) (form.UploadedFile, error) {
	return file, nil
}

func TestSelector_LatestSelectionWins(t *testing.T) {
	t.Parallel()

	proc := newGatedProcessor()
	sel := NewSelector(proc, DefaultOptions(), nil)

	type result struct {
		file form.UploadedFile
		err  error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)

	go func() {
		f, err := sel.Select(context.Background(), "photo", upload("a.png", "image/png", []byte("a")), nil)
		first <- result{f, err}
	}()
	require.Equal(t, "a.png", <-proc.started)

	go func() {
		f, err := sel.Select(context.Background(), "photo", upload("b.png", "image/png", []byte("b")), nil)
		second <- result{f, err}
	}()
	require.Equal(t, "b.png", <-proc.started)

	// The newer selection finishes first, then the older one.
	close(proc.gate("b.png"))
	r2 := <-second
	close(proc.gate("a.png"))
	r1 := <-first

	require.NoError(t, r2.err)
	assert.Equal(t, "b.png", r2.file.Name)
	assert.NotEmpty(t, r2.file.Preview)

	assert.True(t, errors.Is(r1.err, ErrStaleSelection))
	assert.Equal(t, 1, sel.Previews().Live())
	assert.Equal(t, r2.file.Preview, sel.Previews().Handle("photo"))
}

func TestSelector_FieldsAreIndependent(t *testing.T) {
	t.Parallel()

	sel := NewSelector(passthrough{}, DefaultOptions(), nil)

	a, err := sel.Select(context.Background(), "photo", upload("a.png", "image/png", []byte("a")), nil)
	require.NoError(t, err)
	b, err := sel.Select(context.Background(), "logo", upload("b.png", "image/png", []byte("b")), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Preview, b.Preview)
	assert.Equal(t, 2, sel.Previews().Live())
}

func TestSelector_ErrorIsScopedToField(t *testing.T) {
	t.Parallel()

	sel := NewSelector(NewProcessor(), DefaultOptions(), nil)
	_, err := sel.Select(context.Background(), "photo", upload("cv.pdf", "application/pdf", []byte("%PDF")), nil)
	require.Error(t, err)

	var imgErr *ImageError
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, "photo", imgErr.Field)
	assert.Zero(t, sel.Previews().Live())
}

func TestSelector_ReplacementReleasesPreviousPreview(t *testing.T) {
	t.Parallel()

	var released []string
	previews := NewPreviewRegistry(func(h string) { released = append(released, h) })
	sel := NewSelector(passthrough{}, DefaultOptions(), previews)

	var handles []string
	for i := 0; i < 5; i++ {
		f, err := sel.Select(context.Background(), "photo", upload("p.png", "image/png", []byte{byte(i)}), nil)
		require.NoError(t, err)
		handles = append(handles, f.Preview)
	}

	assert.Equal(t, 1, previews.Live())
	assert.Equal(t, handles[:4], released)

	sel.Reset()
	assert.Zero(t, previews.Live())
	assert.Equal(t, handles, released)
}

func TestPreviewRegistry_Handles(t *testing.T) {
	t.Parallel()

	r := NewPreviewRegistry(nil)
	h := r.Replace("photo")
	assert.Regexp(t, `^preview://[0-9a-f-]{36}$`, h)
	assert.Equal(t, h, r.Handle("photo"))

	r.Release("photo")
	r.Release("photo")
	assert.Empty(t, r.Handle("photo"))
	assert.Zero(t, r.Live())
}

func TestSelector_CommitRunsOnlyForLatestSelection(t *testing.T) {
	t.Parallel()

	proc := newGatedProcessor()
	sel := NewSelector(proc, DefaultOptions(), nil)

	var mu sync.Mutex
	var committed []string
	commit := func(f form.UploadedFile, err error) error {
		mu.Lock()
		defer mu.Unlock()
		committed = append(committed, f.Name)
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := sel.Select(context.Background(), "photo", upload("old.png", "image/png", []byte("o")), commit)
		done <- err
	}()
	require.Equal(t, "old.png", <-proc.started)

	close(proc.gate("new.png"))
	_, err := sel.Select(context.Background(), "photo", upload("new.png", "image/png", []byte("n")), commit)
	require.NoError(t, err)

	close(proc.gate("old.png"))
	assert.ErrorIs(t, <-done, ErrStaleSelection)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"new.png"}, committed)
}

func TestSelector_FailedCommitKeepsPreviousPreview(t *testing.T) {
	t.Parallel()

	sel := NewSelector(passthrough{}, DefaultOptions(), nil)
	first, err := sel.Select(context.Background(), "photo", upload("a.png", "image/png", []byte("a")), nil)
	require.NoError(t, err)

	refused := errors.New("busy")
	_, err = sel.Select(context.Background(), "photo", upload("b.png", "image/png", []byte("b")),
		func(form.UploadedFile, error) error { return refused })
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, first.Preview, sel.Previews().Handle("photo"))
	assert.Equal(t, 1, sel.Previews().Live())
}
