package donation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	referenceMarker     = "-DN-"
	referenceTimeLayout = "20060102150405"
)

// ErrMalformedReference is returned when an external reference does not
// carry a donation id.
var ErrMalformedReference = errors.New("malformed external reference")

// NewReference builds the gateway correlation token for a donation:
// <prefix>-DN-<uuid>-<yyyymmddhhmmss>.
func NewReference(prefix string, id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s%s%s-%s", prefix, referenceMarker, id, at.UTC().Format(referenceTimeLayout))
}

// ParseReference extracts the donation id embedded by NewReference.
func ParseReference(ref string) (uuid.UUID, error) {
	idx := strings.Index(ref, referenceMarker)
	if idx < 0 {
		return uuid.Nil, ErrMalformedReference
	}
	rest := ref[idx+len(referenceMarker):]
	last := strings.LastIndex(rest, "-")
	if last < 0 {
		return uuid.Nil, ErrMalformedReference
	}
	if _, err := time.Parse(referenceTimeLayout, rest[last+1:]); err != nil {
		return uuid.Nil, ErrMalformedReference
	}
	id, err := uuid.Parse(rest[:last])
	if err != nil {
		return uuid.Nil, ErrMalformedReference
	}
	return id, nil
}
