package uuid

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewUUID returns a random (version 4) uuid string.
func NewUUID() string {
	return uuid.New().String()
}

// IsValid reports whether s parses as a uuid.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// NewSortableID returns a ksuid: ids created later sort after earlier ones.
func NewSortableID() string {
	return ksuid.New().String()
}
