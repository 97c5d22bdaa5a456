package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type scanner interface{ Scan(...any) error }

func newID() string {
	return uuid.NewString()
}

// timestamp returns the current time as it is stored: UTC, second precision.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// utc normalises an optional time to its stored form.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Second)
	return &u
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
