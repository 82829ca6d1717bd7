package game

import (
	"errors"
	"testing"
)

var (
	rgbRed   = RGB{R: 255}
	rgbBlue  = RGB{B: 255}
	rgbGreen = RGB{G: 255}
)

func TestRoster_AddValidates(t *testing.T) {
	r := NewRoster()
	p, err := r.Add("  Red  ", rgbRed, "  Empire ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.Name != "Red" || p.Faction != "Empire" {
		t.Fatalf("player = %q/%q, want trimmed fields", p.Name, p.Faction)
	}
	if _, err := r.Add("   ", rgbBlue, ""); !errors.Is(err, ErrInvalidPlayerName) {
		t.Fatalf("blank name err = %v", err)
	}
	if _, err := r.Add("RED", rgbBlue, ""); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("case duplicate err = %v", err)
	}
	b, err := r.Add("Blue", rgbBlue, "   ")
	if err != nil {
		t.Fatalf("add blue: %v", err)
	}
	if b.Faction != "" {
		t.Fatalf("blank faction = %q, want empty", b.Faction)
	}
}

func TestRoster_UnicodeCaseFolding(t *testing.T) {
	r := NewRoster()
	if _, err := r.Add("Σίσυφος", rgbRed, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.Add("ΣΊΣΥΦΟΣ", rgbBlue, ""); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("folded duplicate err = %v", err)
	}
	if p, ok := r.Get("ÉMILE"); ok {
		t.Fatalf("unexpected match %v", p)
	}
	if p, ok := r.Get("σίσυφοσ"); !ok || p.Name != "Σίσυφος" {
		t.Fatalf("lookup = %v,%v", p, ok)
	}
}

func TestRoster_EditExcludesSelf(t *testing.T) {
	r := NewRoster()
	_, _ = r.Add("Red", rgbRed, "")
	_, _ = r.Add("Blue", rgbBlue, "")
	if _, err := r.Edit("Red", "RED", rgbRed, ""); err != nil {
		t.Fatalf("recasing own name: %v", err)
	}
	if _, err := r.Edit("RED", "blue", rgbRed, ""); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("rename onto another player err = %v", err)
	}
	if _, err := r.Edit("Nobody", "X", rgbRed, ""); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown err = %v", err)
	}
}

func TestRoster_AllianceIsSymmetricAndIdempotent(t *testing.T) {
	r := NewRoster()
	a, _ := r.Add("A", rgbRed, "")
	b, _ := r.Add("B", rgbBlue, "")
	created, err := r.AddAlliance("A", "B")
	if err != nil || !created {
		t.Fatalf("first alliance = %v, %v", created, err)
	}
	if !a.IsAlly("B") || !b.IsAlly("A") {
		t.Fatal("alliance is not symmetric")
	}
	created, err = r.AddAlliance("b", "a")
	if err != nil || created {
		t.Fatalf("repeat alliance = %v, %v, want already exists", created, err)
	}
	if len(a.Allies()) != 1 || len(b.Allies()) != 1 {
		t.Fatalf("allies a=%v b=%v", a.Allies(), b.Allies())
	}
	if _, err := r.AddAlliance("A", "a"); !errors.Is(err, ErrSelfRelation) {
		t.Fatalf("self alliance err = %v", err)
	}
	if _, err := r.AddNAP("A", "Z"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown partner err = %v", err)
	}

	removed, _ := r.RemoveAlliance("B", "A")
	if !removed || a.IsAlly("B") || b.IsAlly("A") {
		t.Fatal("alliance removal not symmetric")
	}
	if removed, _ := r.RemoveAlliance("A", "B"); removed {
		t.Fatal("second removal reported a change")
	}
}

func TestRoster_RemoveAndRenameCleanRelations(t *testing.T) {
	r := NewRoster()
	a, _ := r.Add("A", rgbRed, "")
	_, _ = r.Add("B", rgbBlue, "")
	c, _ := r.Add("C", rgbGreen, "")
	_, _ = r.AddAlliance("A", "B")
	_, _ = r.AddNAP("C", "B")

	if _, err := r.Edit("B", "Bee", rgbBlue, ""); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !a.IsAlly("Bee") || a.IsAlly("B") || !c.HasNAP("Bee") {
		t.Fatalf("relations after rename: a=%v c=%v", a.Allies(), c.NAPs())
	}

	if _, err := r.Remove("bee"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(a.Allies()) != 0 || len(c.NAPs()) != 0 {
		t.Fatalf("relations after remove: a=%v c=%v", a.Allies(), c.NAPs())
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestParsePlayerSpecs(t *testing.T) {
	specs, err := ParsePlayerSpecs("Red:#ff0000, Blue:#0000FF:Navy ,")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("specs = %+v", specs)
	}
	if specs[0].Name != "Red" || specs[0].Color != rgbRed || specs[0].Faction != "" {
		t.Fatalf("first = %+v", specs[0])
	}
	if specs[1].Color != rgbBlue || specs[1].Faction != "Navy" {
		t.Fatalf("second = %+v", specs[1])
	}
	if _, err := ParsePlayerSpecs("Red"); err == nil {
		t.Fatal("missing colour accepted")
	}
	if _, err := ParsePlayerSpecs("Red:#ff00"); !errors.Is(err, ErrInvalidColorFormat) {
		t.Fatalf("bad colour err = %v", err)
	}
}
