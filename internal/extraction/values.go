package extraction

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var null = []byte("null")

// Amount is a monetary or numeric value. It decodes from JSON numbers and
// from strings in either "1500.50" or Brazilian "R$ 1.500,50" notation.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, null) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Amount(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return float64(a), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case float64:
		*a = Amount(v)
	case int64:
		*a = Amount(v)
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	default:
		return fmt.Errorf("amount: cannot scan %T", src)
	}
	return nil
}

func (a *Amount) scanString(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// ParseAmount parses a textual amount, accepting currency symbols and
// either '.' or ',' as the decimal separator.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "US$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")

	s = normalizeSeparators(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount: cannot parse %q", s)
	}
	return Amount(f), nil
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator
// and no grouping separators remain. With both separators present the last
// one is the decimal. A lone separator kind is grouping when it repeats; a
// single dot followed by exactly three digits after a non-zero integer part
// is grouping too ("R$ 2.000"), while a single comma is always decimal.
func normalizeSeparators(s string) string {
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")

	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0:
		if strings.Count(s, ".") > 1 || groupsThousands(s, dot) {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func groupsThousands(s string, dot int) bool {
	whole := strings.TrimLeft(s[:dot], "+-")
	if whole == "" || strings.Trim(whole, "0") == "" {
		return false
	}
	return len(s)-dot-1 == 3
}

var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"02-01-2006",
	time.RFC3339,
}

// Date is a calendar date. It decodes ISO and day-first Brazilian formats
// and always encodes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, null) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return null, nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
	case string:
		p, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = p
	case []byte:
		p, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = p
	default:
		return fmt.Errorf("date: cannot scan %T", src)
	}
	return nil
}

// ParseDate parses s against the accepted date layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("date: cannot parse %q", s)
}

// Count is a whole number that may arrive as a JSON number or string.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, null) {
		return nil
	}

	var a Amount
	if err := a.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	*c = Count(math.Round(float64(a)))
	return nil
}

func (c Count) Value() (driver.Value, error) {
	return int64(c), nil
}

func (c *Count) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*c = Count(v)
	case float64:
		*c = Count(v)
	default:
		return fmt.Errorf("count: cannot scan %T", src)
	}
	return nil
}

// Flag is a boolean that also accepts "sim"/"não" and "true"/"false" strings.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, null) {
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flag: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sim", "s", "true", "yes", "1":
		*f = true
	case "não", "nao", "n", "false", "no", "0":
		*f = false
	default:
		return fmt.Errorf("flag: cannot parse %q", s)
	}
	return nil
}

func (f Flag) Value() (driver.Value, error) {
	return bool(f), nil
}

func (f *Flag) Scan(src any) error {
	b, ok := src.(bool)
	if !ok {
		return fmt.Errorf("flag: cannot scan %T", src)
	}
	*f = Flag(b)
	return nil
}
