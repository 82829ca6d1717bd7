package game

import (
	"errors"
	"image/color"
	"testing"
)

func TestColorMatches_ZeroToleranceIsExact(t *testing.T) {
	a := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	if !ColorMatches(a, a, 0) {
		t.Fatal("identical colours should match")
	}
	b := color.NRGBA{R: 10, G: 20, B: 31, A: 255}
	if ColorMatches(a, b, 0) {
		t.Fatal("off-by-one colours should not match at tolerance 0")
	}
	// Alpha is ignored.
	c := color.NRGBA{R: 10, G: 20, B: 30, A: 0}
	if !ColorMatches(a, c, 0) {
		t.Fatal("alpha should not affect matching")
	}
}

func TestColorMatches_EuclideanBoundary(t *testing.T) {
	base := color.NRGBA{A: 255}
	onEdge := color.NRGBA{R: 6, G: 8, A: 255} // distance exactly 10
	if !ColorMatches(base, onEdge, 10) {
		t.Fatal("distance equal to tolerance should match")
	}
	past := color.NRGBA{R: 6, G: 8, B: 1, A: 255} // sqrt(101)
	if ColorMatches(base, past, 10) {
		t.Fatal("distance above tolerance should not match")
	}
}

func TestDarken_TruncatesAndKeepsAlpha(t *testing.T) {
	got := Darken(color.NRGBA{R: 200, G: 100, B: 50, A: 128}, fortifyDarken)
	want := color.NRGBA{R: 140, G: 70, B: 35, A: 128}
	if got != want {
		t.Fatalf("Darken = %v, want %v", got, want)
	}
	if got := Darken(color.NRGBA{R: 255, A: 255}, fortifyDarken); got.R != 178 {
		t.Fatalf("Darken(255) = %d, want 178", got.R)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (RGB{R: 255, G: 128, B: 0}) {
		t.Fatalf("got %v", c)
	}
	if c.Hex() != "#ff8000" {
		t.Fatalf("Hex = %q", c.Hex())
	}
	if _, err := ParseHexColor("00ff00"); err != nil {
		t.Fatalf("hash prefix should be optional: %v", err)
	}
	for _, bad := range []string{"", "#fff", "#gg0000", "#1234567"} {
		if _, err := ParseHexColor(bad); !errors.Is(err, ErrInvalidColorFormat) {
			t.Fatalf("ParseHexColor(%q) err = %v, want ErrInvalidColorFormat", bad, err)
		}
	}
}

func TestNewRGB_RangeChecked(t *testing.T) {
	if _, err := NewRGB(0, 128, 255); err != nil {
		t.Fatalf("valid colour rejected: %v", err)
	}
	if _, err := NewRGB(256, 0, 0); !errors.Is(err, ErrInvalidColorFormat) {
		t.Fatalf("256 err = %v", err)
	}
	if _, err := NewRGB(0, -1, 0); !errors.Is(err, ErrInvalidColorFormat) {
		t.Fatalf("-1 err = %v", err)
	}
	if got := (RGB{R: 1, G: 2, B: 3}).Opaque(); got.A != 255 {
		t.Fatalf("Opaque alpha = %d", got.A)
	}
}
