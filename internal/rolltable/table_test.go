package rolltable

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultTable_ComputeTiles(t *testing.T) {
	tab := DefaultTable()
	cases := []struct {
		roll int
		want int
	}{
		{7, 1},      // last digit
		{10, 0},     // digit 0 is worth nothing
		{4577, 2},   // double 7: 1*2 + 0
		{1000, 0},   // triple 0: 0*3 + 0
		{12333, 3},  // triple 3
		{55555, 1},  // run of 5 has no adjustment -> default
		{34121, 3},  // palindrome "121"
		{12321, 1},  // palindrome "12321" has no adjustment -> default
		{99999, 1},  // default again
		{98, 1},     // no pattern
		{123454, 3}, // "454" palindrome
	}
	for _, c := range cases {
		got, err := tab.ComputeTiles(c.roll)
		if err != nil {
			t.Fatalf("ComputeTiles(%d): %v", c.roll, err)
		}
		if got != c.want {
			t.Fatalf("ComputeTiles(%d) = %d, want %d", c.roll, got, c.want)
		}
	}
}

func TestTable_Adjustments(t *testing.T) {
	tab := DefaultTable()
	tab.NumberValues[7] = 3
	tab.Repeats[2] = Adjustment{Type: AdjustMultiply, Value: 2}
	tab.Repeats[3] = Adjustment{Type: AdjustReplace, Value: 20}
	tab.Palindromes[3] = Adjustment{Type: AdjustAdd, Value: 4}
	tab.DefaultTiles = 9

	for roll, want := range map[int]int{
		177:   12, // (3*2)*2
		1777:  20, // replaced
		77777: 9,  // unconfigured run length
		717:   13, // 3*3 + 4
		27:    3,  // plain digit
	} {
		got, _ := tab.ComputeTiles(roll)
		if got != want {
			t.Fatalf("ComputeTiles(%d) = %d, want %d", roll, got, want)
		}
	}

	tab.Repeats[2] = Adjustment{Type: AdjustAdd, Value: -10}
	if got, _ := tab.ComputeTiles(11); got != 0 {
		t.Fatalf("negative result = %d, want 0", got)
	}
	if _, err := tab.ComputeTiles(-5); !errors.Is(err, ErrNegativeRoll) {
		t.Fatalf("err = %v", err)
	}
}

func TestParse(t *testing.T) {
	tab, err := Parse([]byte(`{"number_values":[0,2,2,2,2,2,2,2,2,2],"repeats":{"2":{"type":"multiply","value":3}},"default_tiles":4}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, _ := tab.ComputeTiles(55); got != 12 {
		t.Fatalf("ComputeTiles(55) = %d, want 12", got)
	}
	if _, err := Parse([]byte(`{"repeats":{"2":{"type":"divide","value":3}}}`)); err == nil {
		t.Fatal("unknown adjustment accepted")
	}
	if _, err := Parse([]byte(`{"palindromes":{"1":{"type":"add","value":3}}}`)); err == nil {
		t.Fatal("length-1 palindrome accepted")
	}
}

func TestRoller_InRangeAndDeterministic(t *testing.T) {
	a, b := NewRoller(42), NewRoller(42)
	for i := 0; i < 1000; i++ {
		x, y := a.Roll(), b.Roll()
		if x != y {
			t.Fatalf("roll %d: seeded rollers diverged (%d vs %d)", i, x, y)
		}
		if x < MinRoll || x > MaxRoll {
			t.Fatalf("roll %d out of range", x)
		}
	}
}

func TestScriptOracle(t *testing.T) {
	o, err := NewScriptOracle(`
		function tiles(roll) {
			var d = digits(roll);
			if (d[0] === 9) { return table(roll) * 10; }
			return d.length;
		}`, "bonus.js", nil)
	if err != nil {
		t.Fatalf("NewScriptOracle: %v", err)
	}
	if got, _ := o.ComputeTiles(12345); got != 5 {
		t.Fatalf("tiles(12345) = %d, want 5", got)
	}
	if got, _ := o.ComputeTiles(977); got != 20 {
		t.Fatalf("tiles(977) = %d, want 20", got)
	}
}

func TestScriptOracle_Errors(t *testing.T) {
	if _, err := NewScriptOracle(`var x = 1;`, "empty.js", nil); err == nil {
		t.Fatal("script without tiles() accepted")
	}
	if _, err := NewScriptOracle(`function tiles( {`, "broken.js", nil); err == nil {
		t.Fatal("syntax error accepted")
	}

	o, err := NewScriptOracle(`function tiles(r) { if (r === 1) { return undefined; } while (true) {} }`, "loop.js", nil)
	if err != nil {
		t.Fatalf("NewScriptOracle: %v", err)
	}
	if _, err := o.ComputeTiles(1); err == nil || !strings.Contains(err.Error(), "no value") {
		t.Fatalf("undefined result err = %v", err)
	}
	o.SetTimeout(50 * time.Millisecond)
	if _, err := o.ComputeTiles(2); err == nil {
		t.Fatal("runaway script not interrupted")
	}
	// The runtime stays usable after an interrupt.
	if _, err := o.ComputeTiles(1); err == nil || !strings.Contains(err.Error(), "no value") {
		t.Fatalf("after interrupt err = %v", err)
	}
}
