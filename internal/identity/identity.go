// Package identity assigns the short page identifiers that links point at.
package identity

import (
	"encoding/base32"
	"fmt"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Identifier modes.
const (
	ModeRandom        = "random"
	ModeDeterministic = "deterministic"
)

// DefaultLength is the identifier length in characters (50 bits).
const DefaultLength = 10

var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// Generator produces an identifier for a page. reference is the page's
// original filename; random generators ignore it.
type Generator interface {
	New(reference string) (string, error)
}

// New returns the generator for mode.
func New(mode string, length int) (Generator, error) {
	if length <= 0 {
		length = DefaultLength
	}
	switch mode {
	case "", ModeRandom:
		return &Random{length: length}, nil
	case ModeDeterministic:
		return &Deterministic{length: length}, nil
	default:
		return nil, fmt.Errorf("identity: unknown mode %q", mode)
	}
}

// Random draws identifiers from a v4 UUID.
type Random struct {
	length int
}

// New returns a fresh random identifier.
func (r *Random) New(string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("identity: random: %w", err)
	}
	return encode(id, r.length), nil
}

// Deterministic derives the identifier from the page reference, so a page
// keeps its identifier across runs over the same export.
type Deterministic struct {
	length int
}

// New returns the identifier for reference.
func (d *Deterministic) New(reference string) (string, error) {
	key := strings.TrimSpace(reference)
	if key == "" {
		return "", fmt.Errorf("identity: empty reference")
	}
	key = "wikimd:page:" + key
	id, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || id == uuid.Nil {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
	}
	return encode(id, d.length), nil
}

func encode(id uuid.UUID, length int) string {
	s := strings.ToLower(encoding.EncodeToString(id[:]))
	if length < len(s) {
		s = s[:length]
	}
	return s
}
