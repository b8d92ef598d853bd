package transactions

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

const (
	maxPlaceholderBlock = 1_000_000
	maxPlaceholderFee   = 0.01
)

// Placeholders synthesizes display values for fields the upstream did not supply.
// The values are cosmetic and carry no meaning on chain.
type Placeholders interface {
	Hash() string
	Block() string
	Fee() string
}

// RandomPlaceholders draws placeholder values from the runtime's random source.
// It is safe for concurrent use.
type RandomPlaceholders struct{}

// NewRandomPlaceholders returns the default placeholder generator.
func NewRandomPlaceholders() RandomPlaceholders {
	return RandomPlaceholders{}
}

// Hash returns "0x" followed by 8 hex characters and a "..." suffix.
func (RandomPlaceholders) Hash() string {
	return fmt.Sprintf("0x%08x...", rand.Uint32())
}

// Block returns a decimal block number in [0, 1000000).
func (RandomPlaceholders) Block() string {
	return strconv.Itoa(rand.IntN(maxPlaceholderBlock))
}

// Fee returns a value in [0, 0.01) with 6 decimal digits.
func (RandomPlaceholders) Fee() string {
	return strconv.FormatFloat(rand.Float64()*maxPlaceholderFee, 'f', 6, 64)
}

// counting wraps a Placeholders and reports every synthesized field.
type counting struct {
	next   Placeholders
	record func(field string)
}

// WithRecorder returns a Placeholders that calls record with the field name
// ("hash", "block" or "fee") each time a value is synthesized.
func WithRecorder(p Placeholders, record func(field string)) Placeholders {
	if record == nil {
		return p
	}
	return &counting{next: p, record: record}
}

func (c *counting) Hash() string {
	c.record("hash")
	return c.next.Hash()
}

func (c *counting) Block() string {
	c.record("block")
	return c.next.Block()
}

func (c *counting) Fee() string {
	c.record("fee")
	return c.next.Fee()
}
