package crud

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValuesDiffer(t *testing.T) {
	at := time.Date(2025, 5, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		old      any
		proposed any
		want     bool
	}{
		{"both nil", nil, nil, false},
		{"nil to value", nil, "x", true},
		{"value to nil", "x", nil, true},
		{"bool from integer", int64(1), true, false},
		{"bool flipped", true, false, true},
		{"decimal from text", "500", decimal.RequireFromString("500.00"), false},
		{"decimal changed", "500", decimal.RequireFromString("500.01"), true},
		{"float against int", float64(3), 3, false},
		{"numeric strings", "500", "500.00", false},
		{"numeric strings changed", "500", "500.10", true},
		{"same instant other zone", at, at.In(time.FixedZone("GST", 4*3600)), false},
		{"time from text", "2025-05-15 09:30:00+00:00", at, false},
		{"json map equal", `{"a":1,"b":[1,2]}`, map[string]any{"b": []any{1, 2}, "a": 1}, false},
		{"json map changed", `{"a":1}`, map[string]any{"a": 2}, true},
		{"trimmed strings", " abc ", "abc", false},
		{"different strings", "abc", "abd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesDiffer(tt.old, tt.proposed))
		})
	}
}

func TestBindValue(t *testing.T) {
	assert.Equal(t, `{"a":1}`, bindValue(map[string]int{"a": 1}))
	assert.Equal(t, `["x","y"]`, bindValue([]string{"x", "y"}))
	assert.Equal(t, []byte("raw"), bindValue([]byte("raw")))
	assert.Nil(t, bindValue((*decimal.Decimal)(nil)))
}
