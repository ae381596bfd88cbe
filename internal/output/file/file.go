package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/tree"
)

const tmpSuffix = ".tmp"

// Option configures a file Output.
type Option func(*Output)

// WithFs sets the filesystem the artifact is written to. Default: the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *Output) { o.fs = fs }
}

// WithPerm sets the file mode of the artifact. Default: 0644.
func WithPerm(perm os.FileMode) Option {
	return func(o *Output) { o.perm = perm }
}

// Output writes the tree document to a single file. Each Write replaces the
// previous content: the document is written to a sibling temp file first and
// renamed over the target.
type Output struct {
	fs   afero.Fs
	mu   sync.Mutex
	path string
	perm os.FileMode
}

// New creates a file output targeting path. The parent directory is created
// if missing.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		fs:   afero.NewOsFs(),
		path: path,
		perm: 0o644,
	}
	for _, opt := range opts {
		opt(o)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := o.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file output: mkdir %s: %w", dir, err)
		}
	}
	return o, nil
}

// Path returns the artifact path.
func (o *Output) Path() string {
	return o.path
}

// Write encodes t and replaces the artifact with it.
func (o *Output) Write(_ context.Context, t tree.Tree) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var buf bytes.Buffer
	if err := output.Encode(&buf, t); err != nil {
		return fmt.Errorf("file output: encode: %w", err)
	}

	tmp := o.path + tmpSuffix
	if err := afero.WriteFile(o.fs, tmp, buf.Bytes(), o.perm); err != nil {
		return fmt.Errorf("file output: write %s: %w", tmp, err)
	}
	if err := o.fs.Rename(tmp, o.path); err != nil {
		o.fs.Remove(tmp) // best effort
		return fmt.Errorf("file output: rename %s: %w", o.path, err)
	}
	return nil
}

// Close is a no-op; every Write leaves a complete file behind.
func (o *Output) Close() error {
	return nil
}
