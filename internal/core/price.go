// Package core holds the subscription entity and the value types it is made of.
//
// This file contains the Price type: parsing of user-entered amounts and the
// lenient decoding applied to amounts read back from storage.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidPrice  = errors.New("invalid price")
	ErrNegativePrice = errors.New("negative price")
)

// Price is an amount in naira. A Price decoded from storage may be invalid
// (NaN) when the stored value was not a number; aggregates count it as zero.
type Price float64

// groupedAmount matches an amount with comma thousands separators.
var groupedAmount = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParsePrice converts a user-entered decimal string to a Price.
//
// Examples:
//
//	ParsePrice("1200")    -> 1200, nil
//	ParsePrice(" 9.99 ")  -> 9.99, nil
//	ParsePrice("1,200")   -> 1200, nil
//	ParsePrice("1,20")    -> 0, ErrInvalidPrice
//	ParsePrice("-5")      -> 0, ErrNegativePrice
//	ParsePrice("abc")     -> 0, ErrInvalidPrice
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPrice
	}
	if strings.Contains(s, ",") {
		if !groupedAmount.MatchString(s) {
			return 0, ErrInvalidPrice
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidPrice
	}
	if f < 0 {
		return 0, ErrNegativePrice
	}
	return Price(f), nil
}

// Valid reports whether p holds a finite number.
func (p Price) Valid() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns the amount, or 0 for an invalid price.
func (p Price) Float() float64 {
	if !p.Valid() {
		return 0
	}
	return float64(p)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(p), 'f', -1, 64), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Anything else
// decodes to an invalid price instead of failing the whole document.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*p = Price(math.NaN())
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p = Price(math.NaN())
		return nil
	}
	*p = Price(f)
	return nil
}
