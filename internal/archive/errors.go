package archive

import (
	"errors"
	"fmt"
)

// IOError is a failure to read or write the archive directory.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("archive: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CollisionError means the canonical filename already holds a different
// campaign: two subjects collapsed to the same slug on the same day.
type CollisionError struct {
	Path       string
	ExistingID string
	CampaignID string
}

func (e *CollisionError) Error() string {
	existing := e.ExistingID
	if existing == "" {
		existing = "an unidentified document"
	}
	return fmt.Sprintf("archive: %s already holds %s, refusing to overwrite with campaign %s", e.Path, existing, e.CampaignID)
}

// IsCollision reports whether err is or wraps a CollisionError.
func IsCollision(err error) bool {
	var target *CollisionError
	return errors.As(err, &target)
}

// IsIO reports whether err is or wraps an IOError.
func IsIO(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}
