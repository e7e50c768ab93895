package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.5", "12.5", true},
		{"$1,234.50", "1234.5", true},
		{"HK$ 88.10", "88.1", true},
		{"(1,000.25)", "-1000.25", true},
		{"($5)", "-5", true},
		{"$(1,234)", "-1234", true},
		{"HK$(88.10)", "-88.1", true},
		{"-42", "-42", true},
		{"  7  ", "7", true},
		{"1 000", "1000", true},
		{"", "0", false},
		{"$", "0", false},
		{"N/A", "0", false},
		{"12abc", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1234.5, ParseFloat("$1,234.50"))
	assert.Equal(t, -3.0, ParseFloat("(3)"))
	assert.Equal(t, 0.0, ParseFloat("bad"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-05", want, true},
		{"2024/03/05", want, true},
		{"03/05/2024", want, true}, // month first wins
		{"25/03/2024", time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), true},
		{"2024-3-5", want, true},
		{"2024/3/5", want, true},
		{"3/5/2024", want, true}, // month first wins
		{"25/3/2024", time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), true},
		{"2024-1-5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"5/1/2024", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-05T10:30:00Z", want, true},
		{"2024-03-05 16:00:00", want, true},
		{"5 Mar 2024", want, true},
		{"Mar 5, 2024", want, true},
		{"20240305", want, true},
		{" 2024-03-05 ", want, true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2024-13-45", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "0388", NormalizeCode("388", 4))
	assert.Equal(t, "0388", NormalizeCode(" 388.0 ", 4))
	assert.Equal(t, "9988", NormalizeCode("9988.HK", 4))
	assert.Equal(t, "9988", NormalizeCode("9988.hk", 4))
	assert.Equal(t, "AAPL", NormalizeCode("aapl", 4))
	assert.Equal(t, "12345", NormalizeCode("12345", 4))
	assert.Equal(t, "388", NormalizeCode("388.HK", 0))
}
