package shortlink

import (
	"errors"
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the set of characters a slug is drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Slug length bounds. nanoid's custom-alphabet reader fills its buffer in
// steps of length/5 bytes, so shorter slugs would never be produced.
const (
	MinSlugLength = 5
	MaxSlugLength = 255
)

// ErrInvalidSlugLength is returned for lengths outside [MinSlugLength, MaxSlugLength].
var ErrInvalidSlugLength = errors.New("invalid slug length")

// SlugGenerator draws a random slug.
type SlugGenerator func() string

// NewSlugGenerator returns a generator of fixed-length alphanumeric slugs.
func NewSlugGenerator(length int) (SlugGenerator, error) {
	if length < MinSlugLength || length > MaxSlugLength {
		return nil, fmt.Errorf("%w: %d, must be within %d-%d",
			ErrInvalidSlugLength, length, MinSlugLength, MaxSlugLength)
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("slug generator: %w", err)
	}

	return SlugGenerator(gen), nil
}
