package transactions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingInteger = regexp.MustCompile(`^[+-]?[0-9]+`)

// Transaction is the frontend-facing record returned by the service.
type Transaction struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
	Hash      string  `json:"hash,omitempty"`
	Block     string  `json:"block,omitempty"`
	Fee       string  `json:"fee,omitempty"`
}

// UpstreamTransaction is a record as returned by the upstream transaction service.
// Amount and Timestamp arrive as strings; any field may also arrive as a number.
type UpstreamTransaction struct {
	From      string      `json:"from"`
	To        string      `json:"to"`
	Amount    LooseString `json:"amount"`
	Timestamp LooseString `json:"timestamp"`
	Hash      LooseString `json:"hash,omitempty"`
	Block     LooseString `json:"block,omitempty"`
	Fee       LooseString `json:"fee,omitempty"`
}

// LooseString decodes a JSON string, or a bare JSON number kept in its literal
// form. null decodes to "".
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (n *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = LooseString(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*n = LooseString(num.String())
	return nil
}

// MappingError reports an upstream record whose numeric field could not be parsed.
type MappingError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("invalid %s %q in transaction %d: %v", e.Field, e.Value, e.Index, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// Map converts upstream records into frontend records. Missing hash, block and fee
// values are filled in from p. The first record that fails to parse aborts the
// whole mapping.
func Map(records []UpstreamTransaction, p Placeholders) ([]Transaction, error) {
	out := make([]Transaction, 0, len(records))
	for i, rec := range records {
		tx, err := mapOne(rec, p)
		if err != nil {
			err.Index = i
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func mapOne(rec UpstreamTransaction, p Placeholders) (Transaction, *MappingError) {
	amount, err := parseAmount(string(rec.Amount))
	if err != nil {
		return Transaction{}, &MappingError{Field: "amount", Value: string(rec.Amount), Err: err}
	}

	timestamp, err := parseTimestamp(string(rec.Timestamp))
	if err != nil {
		return Transaction{}, &MappingError{Field: "timestamp", Value: string(rec.Timestamp), Err: err}
	}

	tx := Transaction{
		From:      rec.From,
		To:        rec.To,
		Amount:    amount,
		Timestamp: timestamp,
		Hash:      string(rec.Hash),
		Block:     string(rec.Block),
		Fee:       string(rec.Fee),
	}
	if tx.Hash == "" {
		tx.Hash = p.Hash()
	}
	if tx.Block == "" {
		tx.Block = p.Block()
	}
	if tx.Fee == "" {
		tx.Fee = p.Fee()
	}
	return tx, nil
}

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	// encoding/json cannot represent these
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

// parseTimestamp parses the leading base-10 integer of s, ignoring anything
// after it, so "1000.9" is 1000 and "1.7e9" is 1. At least one digit is required.
func parseTimestamp(s string) (int64, error) {
	prefix := leadingInteger.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return 0, fmt.Errorf("no leading integer")
	}
	return strconv.ParseInt(prefix, 10, 64)
}
