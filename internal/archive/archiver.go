package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/mailchimp-archive/internal/domain"
	"github.com/ignite/mailchimp-archive/internal/pkg/logger"
)

// Result describes one archive call.
type Result struct {
	Name     string
	Path     string // absolute
	Existing bool   // the same campaign was already archived
	Bytes    int
}

// Archiver writes campaign documents into a flat directory.
type Archiver struct {
	dir      string
	renderer *Renderer
	now      func() time.Time
}

// Option customizes an Archiver.
type Option func(*Archiver)

// WithClock overrides the download timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// NewArchiver prepares dir for writing, creating it when absent.
func NewArchiver(dir string, opts ...Option) (*Archiver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: dir, Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: abs, Err: err}
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	a := &Archiver{dir: abs, renderer: renderer, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Dir returns the absolute archive directory.
func (a *Archiver) Dir() string {
	return a.dir
}

// Archive converts html and writes it under the campaign's canonical name.
// The write is atomic and never replaces an existing file: if the name is
// taken by the same campaign the result is marked Existing, otherwise a
// CollisionError is returned.
func (a *Archiver) Archive(c domain.Campaign, listName, html string) (Result, error) {
	name := CanonicalFilename(c.SendDate, c.Subject)
	path := filepath.Join(a.dir, name)

	if res, found, err := a.lookup(c, name, path); found {
		return res, err
	}

	body, err := HTMLToMarkdown(html)
	if err != nil {
		return Result{}, fmt.Errorf("converting campaign %s: %w", c.ID, err)
	}

	doc, err := a.renderer.Render(DocumentData{
		Campaign:     c,
		ListName:     listName,
		Body:         body,
		DownloadedAt: a.now(),
	})
	if err != nil {
		return Result{}, err
	}

	if err := a.writeNew(path, []byte(doc)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return a.existing(c, name, path)
		}
		return Result{}, err
	}

	logger.Debug("archived campaign", "campaign_id", c.ID, "file", name, "bytes", len(doc))
	return Result{Name: name, Path: path, Bytes: len(doc)}, nil
}

// writeNew stages data in a temp file in the same directory and links it to
// path. Link fails with EEXIST instead of replacing, which rename would not.
func (a *Archiver) writeNew(path string, data []byte) error {
	tmp, err := os.CreateTemp(a.dir, ".mcarchive-*.tmp")
	if err != nil {
		return &IOError{Op: "create", Path: a.dir, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &IOError{Op: "sync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &IOError{Op: "chmod", Path: tmpName, Err: err}
	}

	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		return &IOError{Op: "link", Path: path, Err: err}
	}
	return nil
}

// Lookup checks whether c's canonical document is already on disk, so callers
// can skip downloading its content. found is false when the name is free; a
// file owned by another campaign is found with a CollisionError.
func (a *Archiver) Lookup(c domain.Campaign) (res Result, found bool, err error) {
	name := CanonicalFilename(c.SendDate, c.Subject)
	return a.lookup(c, name, filepath.Join(a.dir, name))
}

func (a *Archiver) lookup(c domain.Campaign, name, path string) (Result, bool, error) {
	if _, err := os.Lstat(path); err != nil {
		return Result{}, false, nil
	}
	res, err := a.existing(c, name, path)
	return res, true, err
}

func (a *Archiver) existing(c domain.Campaign, name, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	id, err := ReadCampaignID(f)
	if err != nil {
		return Result{}, &IOError{Op: "read", Path: path, Err: err}
	}
	if id != c.ID {
		return Result{}, &CollisionError{Path: path, ExistingID: id, CampaignID: c.ID}
	}
	return Result{Name: name, Path: path, Existing: true}, nil
}
