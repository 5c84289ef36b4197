package application

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jxskiss/base62"
)

const (
	DefaultShortCodeLength = 8
	maxShortCodeLength     = 22 // base62 length of 16 random bytes
)

// CodeGenerator produces candidate short codes. Candidates are not checked
// against the store; callers retry on a write conflict.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator draws codes from the base62 rendering of a random
// (version 4) UUID.
type RandomCodeGenerator struct {
	length int
}

func NewRandomCodeGenerator(length int) *RandomCodeGenerator {
	if length < DefaultShortCodeLength {
		length = DefaultShortCodeLength
	}
	if length > maxShortCodeLength {
		length = maxShortCodeLength
	}
	return &RandomCodeGenerator{length: length}
}

func (g *RandomCodeGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}

	encoded := base62.EncodeToString(id[:])
	for len(encoded) < g.length {
		// Leading zero bytes shorten the encoding; pad from a second UUID.
		extra, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		encoded += base62.EncodeToString(extra[:])
	}

	return encoded[:g.length], nil
}

// GeneratorFunc adapts a function to CodeGenerator.
type GeneratorFunc func() (string, error)

func (f GeneratorFunc) Generate() (string, error) {
	return f()
}
