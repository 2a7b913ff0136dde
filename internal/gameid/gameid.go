// Package gameid generates sortable game identifiers: a UUIDv7 encoded as
// 26 characters of Crockford base32, so lexicographic order is creation order.
package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// New returns a fresh game id. Ids created later sort later.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does.
		panic(fmt.Sprintf("gameid: %v", err))
	}
	return encode(id)
}

// encode packs the 128-bit uuid into 26 base32 characters, 5 bits at a time.
// The first character carries only 3 significant bits, so it is always 0-7.
func encode(id uuid.UUID) string {
	var b strings.Builder
	b.Grow(26)
	for i := 0; i < 26; i++ {
		bit := i*5 - 2
		var v byte
		switch {
		case bit < 0:
			v = id[0] >> 5
		case bit%8 <= 3:
			v = id[bit/8] >> (3 - bit%8)
		default:
			v = id[bit/8] << (bit%8 - 3)
			if bit/8+1 < len(id) {
				v |= id[bit/8+1] >> (11 - bit%8)
			}
		}
		b.WriteByte(alphabet[v&0x1f])
	}
	return b.String()
}

// Validate reports whether id is a well-formed game id.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game id must be 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game id first character must be 0-7, got %q", id[0])
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(alphabet, rune(id[i])) {
			return fmt.Errorf("invalid character %q at position %d", id[i], i)
		}
	}
	return nil
}
