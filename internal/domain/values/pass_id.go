package values

import (
	"fmt"

	"github.com/google/uuid"
)

// PassID uniquely identifies one regeneration pass.
type PassID struct {
	value uuid.UUID
}

// NewPassID creates a new random pass ID
func NewPassID() PassID {
	return PassID{value: uuid.New()}
}

// ParsePassID parses a string into a PassID
func ParsePassID(s string) (PassID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PassID{}, fmt.Errorf("invalid pass ID: %w", err)
	}
	return PassID{value: id}, nil
}

// String returns the string representation
func (p PassID) String() string {
	return p.value.String()
}

// UUID returns the underlying uuid.UUID
func (p PassID) UUID() uuid.UUID {
	return p.value
}

// IsZero returns true if this is the zero value
func (p PassID) IsZero() bool {
	return p.value == uuid.Nil
}

// Equals checks if two PassIDs are equal
func (p PassID) Equals(other PassID) bool {
	return p.value == other.value
}

// MarshalText implements encoding.TextMarshaler
func (p PassID) MarshalText() ([]byte, error) {
	return []byte(p.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *PassID) UnmarshalText(data []byte) error {
	id, err := ParsePassID(string(data))
	if err != nil {
		return err
	}
	*p = id
	return nil
}
