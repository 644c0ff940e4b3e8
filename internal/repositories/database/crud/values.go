package crud

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// bindValue prepares a Go value for a driver argument. Maps and slices are
// stored as JSON text.
func bindValue(v any) any {
	switch val := v.(type) {
	case nil, string, []byte, bool, time.Time, decimal.Decimal,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return val
	case *decimal.Decimal:
		if val == nil {
			return nil
		}
		return *val
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	case json.RawMessage:
		return string(val)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return v
}

func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	case int:
		return b != 0, true
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(b))
		return p, err == nil
	}
	return false, false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(n)))
		return d, err == nil
	}
	return decimal.Zero, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// valuesDiffer compares a stored value with a proposed one. The comparison is
// type-aware so that driver representations ("1" vs true, "500" vs 500.00,
// two encodings of one instant) do not count as changes.
func valuesDiffer(old, proposed any) bool {
	if old == nil || proposed == nil {
		return !(old == nil && proposed == nil)
	}

	if pb, ok := proposed.(bool); ok {
		ob, ok := asBool(old)
		return !ok || ob != pb
	}

	if _, isBool := old.(bool); !isBool {
		pd, pok := asDecimal(proposed)
		od, ook := asDecimal(old)
		if pok && ook {
			return !pd.Equal(od)
		}
	}

	if pt, ok := asTimeStrict(proposed); ok {
		ot, ok := asTime(old)
		return !ok || !ot.Equal(pt)
	}

	switch reflect.ValueOf(proposed).Kind() {
	case reflect.Map, reflect.Slice:
		if _, isBytes := proposed.([]byte); !isBytes {
			return !jsonEqual(old, proposed)
		}
	}

	return normalizeString(old) != normalizeString(proposed)
}

func asTimeStrict(v any) (time.Time, bool) {
	switch v.(type) {
	case time.Time, *time.Time:
		return asTime(v)
	}
	return time.Time{}, false
}

func jsonEqual(old, proposed any) bool {
	var a, b any
	if err := json.Unmarshal([]byte(jsonText(old)), &a); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(jsonText(proposed)), &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func jsonText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case json.RawMessage:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func normalizeString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []byte:
		return strings.TrimSpace(string(s))
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
