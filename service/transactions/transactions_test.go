package transactions

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedPlaceholders returns constant values so mapped records can be compared exactly.
type fixedPlaceholders struct{}

func (fixedPlaceholders) Hash() string  { return "0xffffffff..." }
func (fixedPlaceholders) Block() string { return "42" }
func (fixedPlaceholders) Fee() string   { return "0.000100" }

var placeholderHashPattern = regexp.MustCompile(`^0x[0-9a-f]{8}\.\.\.$`)

func TestMap_CoercesNumericFields(t *testing.T) {
	records := []UpstreamTransaction{
		{From: "a", To: "b", Amount: "1.5", Timestamp: "1000", Hash: "0xdead"},
	}

	got, err := Map(records, fixedPlaceholders{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "a", got[0].From)
	assert.Equal(t, "b", got[0].To)
	assert.Equal(t, 1.5, got[0].Amount)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, "0xdead", got[0].Hash)
	assert.Equal(t, "42", got[0].Block)
	assert.Equal(t, "0.000100", got[0].Fee)
}

func TestMap_KeepsUpstreamOptionalFields(t *testing.T) {
	records := []UpstreamTransaction{
		{From: "a", To: "b", Amount: "2", Timestamp: "5", Hash: "0xabc", Block: "123", Fee: "0.5"},
	}

	got, err := Map(records, fixedPlaceholders{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "0xabc", got[0].Hash)
	assert.Equal(t, "123", got[0].Block)
	assert.Equal(t, "0.5", got[0].Fee)
}

func TestMap_SynthesizesMissingFields(t *testing.T) {
	records := []UpstreamTransaction{
		{From: "a", To: "b", Amount: "1", Timestamp: "1"},
	}

	got, err := Map(records, NewRandomPlaceholders())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Regexp(t, placeholderHashPattern, got[0].Hash)
	assert.NotEmpty(t, got[0].Block)
	assert.NotEmpty(t, got[0].Fee)
}

func TestMap_Timestamps(t *testing.T) {
	tests := []struct {
		name     string
		input    LooseString
		expected int64
	}{
		{name: "integer", input: "1700000000", expected: 1700000000},
		{name: "surrounding whitespace", input: " 1000 ", expected: 1000},
		{name: "negative", input: "-5", expected: -5},
		{name: "explicit plus sign", input: "+42", expected: 42},
		{name: "fraction is ignored", input: "1000.9", expected: 1000},
		{name: "exponent is ignored", input: "1.7e9", expected: 1},
		{name: "trailing text is ignored", input: "1000abc", expected: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Map([]UpstreamTransaction{{Amount: "1", Timestamp: tt.input}}, fixedPlaceholders{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got[0].Timestamp)
		})
	}
}

func TestMap_MalformedNumbers(t *testing.T) {
	tests := []struct {
		name      string
		record    UpstreamTransaction
		wantField string
	}{
		{name: "empty amount", record: UpstreamTransaction{Amount: "", Timestamp: "1"}, wantField: "amount"},
		{name: "non-numeric amount", record: UpstreamTransaction{Amount: "lots", Timestamp: "1"}, wantField: "amount"},
		{name: "NaN amount", record: UpstreamTransaction{Amount: "NaN", Timestamp: "1"}, wantField: "amount"},
		{name: "infinite amount", record: UpstreamTransaction{Amount: "Inf", Timestamp: "1"}, wantField: "amount"},
		{name: "empty timestamp", record: UpstreamTransaction{Amount: "1", Timestamp: ""}, wantField: "timestamp"},
		{name: "non-numeric timestamp", record: UpstreamTransaction{Amount: "1", Timestamp: "yesterday"}, wantField: "timestamp"},
		{name: "no leading digits", record: UpstreamTransaction{Amount: "1", Timestamp: ".5"}, wantField: "timestamp"},
		{name: "overflowing timestamp", record: UpstreamTransaction{Amount: "1", Timestamp: "99999999999999999999"}, wantField: "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := UpstreamTransaction{Amount: "1", Timestamp: "1"}
			got, err := Map([]UpstreamTransaction{valid, tt.record}, fixedPlaceholders{})
			require.Error(t, err)
			assert.Nil(t, got)

			var mapErr *MappingError
			require.True(t, errors.As(err, &mapErr))
			assert.Equal(t, tt.wantField, mapErr.Field)
			assert.Equal(t, 1, mapErr.Index)
			assert.Contains(t, err.Error(), "transaction 1")
		})
	}
}

func TestMap_PassesThroughNumericOptionalFields(t *testing.T) {
	var rec UpstreamTransaction
	require.NoError(t, json.Unmarshal([]byte(`{"from":"a","to":"b","amount":"1","timestamp":"2","hash":77,"block":12345,"fee":0.001}`), &rec))

	got, err := Map([]UpstreamTransaction{rec}, fixedPlaceholders{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "12345", got[0].Block)
	assert.Equal(t, "0.001", got[0].Fee)
	assert.Equal(t, "77", got[0].Hash)
}

func TestMap_EmptyInput(t *testing.T) {
	got, err := Map(nil, fixedPlaceholders{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMap_IsStableForCoreFields(t *testing.T) {
	records := []UpstreamTransaction{
		{From: "a", To: "b", Amount: "3.25", Timestamp: "99"},
		{From: "c", To: "d", Amount: "0", Timestamp: "100"},
	}

	first, err := Map(records, NewRandomPlaceholders())
	require.NoError(t, err)
	second, err := Map(records, NewRandomPlaceholders())
	require.NoError(t, err)

	for i := range records {
		assert.Equal(t, first[i].From, second[i].From)
		assert.Equal(t, first[i].To, second[i].To)
		assert.Equal(t, first[i].Amount, second[i].Amount)
		assert.Equal(t, first[i].Timestamp, second[i].Timestamp)
	}
}

func TestUpstreamTransaction_Decode(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantAmount    LooseString
		wantTimestamp LooseString
		wantBlock     LooseString
		wantFee       LooseString
		wantErr       bool
	}{
		{
			name:          "string fields",
			body:          `{"from":"a","to":"b","amount":"1.5","timestamp":"1000"}`,
			wantAmount:    "1.5",
			wantTimestamp: "1000",
		},
		{
			name:          "bare numbers",
			body:          `{"from":"a","to":"b","amount":1.5,"timestamp":1000}`,
			wantAmount:    "1.5",
			wantTimestamp: "1000",
		},
		{
			name:          "null and missing fields",
			body:          `{"from":"a","to":"b","amount":null}`,
			wantAmount:    "",
			wantTimestamp: "",
		},
		{
			name:          "numeric optional fields",
			body:          `{"from":"a","to":"b","amount":"1","timestamp":"2","hash":"0xabc","block":12345,"fee":0.001}`,
			wantAmount:    "1",
			wantTimestamp: "2",
			wantBlock:     "12345",
			wantFee:       "0.001",
		},
		{
			name:    "object amount",
			body:    `{"amount":{"value":1}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec UpstreamTransaction
			err := json.Unmarshal([]byte(tt.body), &rec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, rec.Amount)
			assert.Equal(t, tt.wantTimestamp, rec.Timestamp)
			assert.Equal(t, tt.wantBlock, rec.Block)
			assert.Equal(t, tt.wantFee, rec.Fee)
		})
	}
}

func TestRandomPlaceholders(t *testing.T) {
	p := NewRandomPlaceholders()

	for i := 0; i < 500; i++ {
		assert.Regexp(t, placeholderHashPattern, p.Hash())

		block, err := strconv.Atoi(p.Block())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, block, 0)
		assert.Less(t, block, 1_000_000)

		fee := p.Fee()
		assert.Regexp(t, `^0\.0[0-9]{5}$|^0\.010000$`, fee)
		parsed, err := strconv.ParseFloat(fee, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, parsed, 0.0)
		assert.LessOrEqual(t, parsed, 0.01)
	}
}

func TestWithRecorder(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	p := WithRecorder(fixedPlaceholders{}, func(field string) {
		mu.Lock()
		defer mu.Unlock()
		counts[field]++
	})

	records := []UpstreamTransaction{
		{Amount: "1", Timestamp: "1"},
		{Amount: "1", Timestamp: "1", Hash: "0x1", Block: "7"},
	}
	got, err := Map(records, p)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, counts["hash"])
	assert.Equal(t, 1, counts["block"])
	assert.Equal(t, 2, counts["fee"])
	assert.Equal(t, "0xffffffff...", got[0].Hash)

	// nil recorder is a no-op wrapper
	assert.Equal(t, fixedPlaceholders{}, WithRecorder(fixedPlaceholders{}, nil))
}
