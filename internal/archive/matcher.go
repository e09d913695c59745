package archive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/mailchimp-archive/internal/domain"
)

// Markers written in place of a path when no file is matched.
const (
	MarkerNotFound    = "File not found"
	MarkerNoDirectory = "Directory not found"
)

// MatchStatus says how a lookup was resolved.
type MatchStatus int

const (
	MatchNone MatchStatus = iota
	MatchExact
	MatchPrefix
	MatchNoDirectory
)

func (s MatchStatus) String() string {
	switch s {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchNoDirectory:
		return "no_directory"
	default:
		return "none"
	}
}

// MatchResult is the outcome of looking a campaign up in the archive.
type MatchResult struct {
	Status MatchStatus
	Name   string
	Path   string // absolute; empty unless matched
}

// Found reports whether a file was matched.
func (r MatchResult) Found() bool {
	return r.Status == MatchExact || r.Status == MatchPrefix
}

// Display returns the path, or the marker explaining why there is none.
func (r MatchResult) Display() string {
	switch r.Status {
	case MatchExact, MatchPrefix:
		return r.Path
	case MatchNoDirectory:
		return MarkerNoDirectory
	default:
		return MarkerNotFound
	}
}

// Match finds the archived name for datePrefix and the canonical slug among
// names. An exact canonical name wins. Otherwise a file with the same date
// whose normalized slug equals, or is a prefix of, the canonical slug is
// accepted; the longest such slug wins and equal lengths fall back to the
// lexicographically smallest name. Input order never affects the result.
func Match(datePrefix, slug string, names []string) (string, bool) {
	if slug == "" {
		slug = fallbackSlug
	}
	canonical := datePrefix + "_" + slug + Extension

	best, bestLen := "", -1
	for _, name := range names {
		if name == canonical {
			return name, true
		}
		date, stem, ok := splitFilename(name)
		if !ok || date != datePrefix {
			continue
		}
		candidate := Slug(stem)
		if candidate == "" || !strings.HasPrefix(slug, candidate) {
			continue
		}
		n := len(candidate)
		if n > bestLen || (n == bestLen && name < best) {
			best, bestLen = name, n
		}
	}
	return best, bestLen >= 0
}

// Index is one directory listing taken at the start of a report run.
type Index struct {
	dir     string
	missing bool
	names   []string
	byDate  map[string][]string
}

// NewIndex builds an index over names as if they were listed from dir.
func NewIndex(dir string, names []string) *Index {
	idx := &Index{
		dir:    dir,
		names:  append([]string(nil), names...),
		byDate: make(map[string][]string),
	}
	sort.Strings(idx.names)
	for _, name := range idx.names {
		if date, _, ok := splitFilename(name); ok {
			idx.byDate[date] = append(idx.byDate[date], name)
		}
	}
	return idx
}

// LoadIndex lists dir once. A missing directory yields an index whose every
// lookup reports MatchNoDirectory.
func LoadIndex(dir string) (*Index, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: dir, Err: err}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Index{dir: abs, missing: true}, nil
		}
		return nil, &IOError{Op: "list", Path: abs, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return NewIndex(abs, names), nil
}

// Dir returns the indexed directory.
func (idx *Index) Dir() string {
	return idx.dir
}

// Missing reports whether the directory did not exist when listed.
func (idx *Index) Missing() bool {
	return idx.missing
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return len(idx.names)
}

// Find looks up the archived document for a campaign.
func (idx *Index) Find(c domain.Campaign) MatchResult {
	if idx.missing {
		return MatchResult{Status: MatchNoDirectory}
	}

	date := DatePrefix(c.SendDate)
	slug := Slug(c.Subject)
	name, ok := Match(date, slug, idx.byDate[date])
	if !ok {
		return MatchResult{Status: MatchNone}
	}

	status := MatchPrefix
	if name == CanonicalFilename(c.SendDate, c.Subject) {
		status = MatchExact
	}
	return MatchResult{
		Status: status,
		Name:   name,
		Path:   filepath.Join(idx.dir, name),
	}
}
