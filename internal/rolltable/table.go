// Package rolltable turns roll values into tile budgets.
//
// A Table looks at the trailing digits of a roll: a run of repeated digits
// ("...77") wins over a trailing palindrome ("...121"); otherwise the last
// digit's value is used.
package rolltable

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNegativeRoll is returned for rolls below zero.
var ErrNegativeRoll = errors.New("roll must not be negative")

// AdjustKind says how an Adjustment combines with the base tile count.
type AdjustKind string

const (
	AdjustAdd      AdjustKind = "add"
	AdjustMultiply AdjustKind = "multiply"
	AdjustReplace  AdjustKind = "replace"
)

// Adjustment modifies the base tiles of a matched pattern.
type Adjustment struct {
	Type  AdjustKind `json:"type"`
	Value int        `json:"value"`
}

func (a Adjustment) apply(base int) int {
	switch a.Type {
	case AdjustAdd:
		return base + a.Value
	case AdjustMultiply:
		return base * a.Value
	case AdjustReplace:
		return a.Value
	default:
		return base
	}
}

// Table is the digit-pattern budget formula.
type Table struct {
	NumberValues [10]int            `json:"number_values"` // tiles per digit 0-9
	Repeats      map[int]Adjustment `json:"repeats"`       // keyed by run length
	Palindromes  map[int]Adjustment `json:"palindromes"`   // keyed by palindrome length
	DefaultTiles int                `json:"default_tiles"` // matched length with no adjustment configured
}

// DefaultTable values every digit at 1 except 0, with neutral doubles,
// triples and 2/3-long palindromes.
func DefaultTable() *Table {
	t := &Table{
		Repeats:      map[int]Adjustment{2: {Type: AdjustAdd}, 3: {Type: AdjustAdd}},
		Palindromes:  map[int]Adjustment{2: {Type: AdjustAdd}, 3: {Type: AdjustAdd}},
		DefaultTiles: 1,
	}
	for d := 1; d <= 9; d++ {
		t.NumberValues[d] = 1
	}
	return t
}

// Parse decodes and validates a JSON table.
func Parse(data []byte) (*Table, error) {
	t := DefaultTable()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode roll table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks adjustment kinds and pattern lengths.
func (t *Table) Validate() error {
	check := func(kind string, m map[int]Adjustment) error {
		for n, a := range m {
			if n < 2 {
				return fmt.Errorf("%s length %d: must be at least 2", kind, n)
			}
			switch a.Type {
			case AdjustAdd, AdjustMultiply, AdjustReplace:
			default:
				return fmt.Errorf("%s length %d: unknown adjustment %q", kind, n, a.Type)
			}
		}
		return nil
	}
	if err := check("repeat", t.Repeats); err != nil {
		return err
	}
	return check("palindrome", t.Palindromes)
}

// ComputeTiles implements the game's TileBudgetOracle. Results below zero
// are reported as zero tiles.
func (t *Table) ComputeTiles(roll int) (int, error) {
	if roll < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeRoll, roll)
	}
	s := strconv.Itoa(roll)
	last := int(s[len(s)-1] - '0')

	if n := trailingRun(s); n >= 2 {
		adj, ok := t.Repeats[n]
		if !ok {
			return max(0, t.DefaultTiles), nil
		}
		return max(0, adj.apply(t.NumberValues[last]*n)), nil
	}
	if n := trailingPalindrome(s); n >= 2 {
		adj, ok := t.Palindromes[n]
		if !ok {
			return max(0, t.DefaultTiles), nil
		}
		return max(0, adj.apply(t.NumberValues[last]*n)), nil
	}
	return max(0, t.NumberValues[last]), nil
}

// trailingRun returns the length of the run of identical digits ending s.
func trailingRun(s string) int {
	n := 1
	for i := len(s) - 2; i >= 0 && s[i] == s[len(s)-1]; i-- {
		n++
	}
	return n
}

// trailingPalindrome returns the length of the longest palindromic suffix
// of at least 2 digits, or 0.
func trailingPalindrome(s string) int {
	for n := len(s); n >= 2; n-- {
		if isPalindrome(s[len(s)-n:]) {
			return n
		}
	}
	return 0
}

func isPalindrome(s string) bool {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		if s[i] != s[j] {
			return false
		}
	}
	return true
}
