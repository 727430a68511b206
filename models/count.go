package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Count is a whole quantity that clients send either as a JSON number or as
// a numeric string ("5").
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	n, err := parseWhole(string(b))
	if err != nil {
		return err
	}
	*c = Count(n)
	return nil
}

// Capacity is the wire form of an attendee limit. A number or numeric string
// sets the limit; null, "", "Infinity" or an absent field mean unbounded.
type Capacity struct {
	Limit *int
}

func (c *Capacity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" || s == "" || strings.EqualFold(s, "infinity") {
		c.Limit = nil
		return nil
	}
	n, err := parseWhole(s)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("capacity: %d is negative", n)
	}
	c.Limit = &n
	return nil
}

func (c Capacity) MarshalJSON() ([]byte, error) {
	if c.Limit == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*c.Limit)
}

func parseWhole(raw string) (int, error) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(f), nil
}

// ParseLatLng parses a latitude/longitude pair stored as strings.
func ParseLatLng(lat, lng string) (float64, float64, bool) {
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	ln, err2 := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return la, ln, true
}
