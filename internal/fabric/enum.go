// Package fabric defines the configuration contract of a tensegrity fabric:
// the stage lifecycle, interval roles and their rest lengths, the tunable
// feature table, surface characters and the rendering palettes.
//
// Every enumeration is a small uint8 tag that is stable across process
// boundaries. Reordering variants is a breaking change for stored profiles
// and for hosts that exchange raw tags.
package fabric

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTag reports a raw tag with no corresponding variant.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrUnknownName reports a variant name that does not parse.
	ErrUnknownName = errors.New("unknown name")
	// ErrInvalidValue reports a feature value that cannot be used.
	ErrInvalidValue = errors.New("invalid value")
)

// fromTag converts a raw tag into T, failing for tags past the last variant.
func fromTag[T ~uint8](kind string, tag uint8, names []string) (T, error) {
	if int(tag) >= len(names) {
		return 0, fmt.Errorf("%s %d: %w", kind, tag, ErrInvalidTag)
	}
	return T(tag), nil
}

// parseName finds s among names, ignoring case and surrounding space.
func parseName[T ~uint8](kind, s string, names []string) (T, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("%s %q: %w", kind, s, ErrUnknownName)
}

// nameOf returns the variant name, or a diagnostic for out-of-range values.
func nameOf[T ~uint8](kind string, v T, names []string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", kind, uint8(v))
}

func marshalName[T ~uint8](kind string, v T, names []string) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("%s %d: %w", kind, uint8(v), ErrInvalidTag)
	}
	return []byte(names[v]), nil
}
