// Package id provides the opaque, lexicographically sortable identifier
// used for every entity the core stores: task templates, jobs, artifacts.
package id

import (
	"crypto/rand"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidID is returned when a textual form cannot be parsed as an ID.
var ErrInvalidID = errors.New("taskcore: invalid id")

// ID is a 128-bit ULID rendered as a 26-character Crockford base-32 string.
type ID struct {
	ulid ulid.ULID
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New generates a fresh ID. IDs generated within the same millisecond sort
// monotonically relative to one another.
func New() ID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ID{ulid: ulid.MustNew(ulid.Timestamp(time.Now()), entropy)}
}

// Parse decodes a 26-character textual ID. It fails with ErrInvalidID if s
// is not a well-formed ULID string.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.ToUpper(s))
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	return ID{ulid: u}, nil
}

// IsZero reports whether the ID is the zero value.
func (i ID) IsZero() bool { return i.ulid == (ulid.ULID{}) }

// String renders the ID as its 26-character base-32 form.
func (i ID) String() string { return i.ulid.String() }

// Time returns the ID's embedded creation timestamp.
func (i ID) Time() time.Time { return time.UnixMilli(int64(i.ulid.Time())) } //nolint:gosec // ULID timestamps fit in int64 until year 10889

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer so an ID can be bound directly in SQL calls.
func (i ID) Value() (driver.Value, error) {
	return i.String(), nil
}

// Scan implements sql.Scanner so an ID can be read directly from a row.
func (i *ID) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*i = ID{}
		return nil
	default:
		return fmt.Errorf("taskcore: cannot scan %T into ID", src)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
