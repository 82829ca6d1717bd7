package game

import (
	"errors"
	"testing"
)

func TestRuleSet_Defaults(t *testing.T) {
	rs, err := NewRuleSet("", "")
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	names := rs.Names()
	if len(names) != 2 || names[0] != RuleFortification || names[1] != RuleFortifiedRecapture {
		t.Fatalf("names = %v", names)
	}
	cost := rs.ClaimCost(nil)
	if n, _ := cost("", false); n != 1 {
		t.Fatalf("unclaimed cost = %d", n)
	}
	if n, _ := cost("Red", true); n != 2 {
		t.Fatalf("fortified cost = %d", n)
	}
}

func TestRuleSet_CustomCostExpressions(t *testing.T) {
	rs, err := NewRuleSet("Turn > 2 ? 1 : 0", "Fortified ? 3 : 1")
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	turn := 1
	cost := rs.ClaimCost(func() int { return turn })
	if n, _ := cost("Red", true); n != 3 {
		t.Fatalf("fortified cost = %d, want 3", n)
	}

	l := ledgerWith(map[string]int{"Red": 2})
	_, _ = l.Claim(Coord{0, 0}, "Red")
	_, _ = l.Claim(Coord{1, 0}, "Red")
	m, err := rs.Plan(RuleFortification, RuleContext{Ledger: l, Coord: Coord{0, 0}, Player: "Red", Turn: 1})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if m.Cost != 0 || m.Kind != MutateFortify || m.Darken != fortifyDarken {
		t.Fatalf("early-turn mutation = %+v", m)
	}
	m, _ = rs.Plan(RuleFortification, RuleContext{Ledger: l, Coord: Coord{1, 0}, Player: "Red", Turn: 3})
	if m.Cost != 1 {
		t.Fatalf("late-turn cost = %d, want 1", m.Cost)
	}
}

func TestRuleSet_RejectsBadExpressions(t *testing.T) {
	if _, err := NewRuleSet("Fortified +", ""); err == nil {
		t.Fatal("syntax error accepted")
	}
	if _, err := NewRuleSet("", `"two"`); err == nil {
		t.Fatal("non-integer cost accepted")
	}
	if _, err := NewRuleSet("Nope", ""); err == nil {
		t.Fatal("unknown identifier accepted")
	}
}

func TestRuleSet_ToggleAndLookup(t *testing.T) {
	rs, _ := NewRuleSet("", "")
	on, err := rs.Toggle(RuleFortifiedRecapture)
	if err != nil || on {
		t.Fatalf("toggle = %v, %v", on, err)
	}
	if n, _ := rs.ClaimCost(nil)("Red", true); n != 1 {
		t.Fatalf("recapture cost with rule off = %d, want 1", n)
	}

	if err := rs.SetActive(RuleFortification, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	l := ledgerWith(map[string]int{"Red": 1})
	_, _ = l.Claim(Coord{0, 0}, "Red")
	if _, err := rs.Plan(RuleFortification, RuleContext{Ledger: l, Coord: Coord{0, 0}, Player: "Red"}); !errors.Is(err, ErrRuleInactive) {
		t.Fatalf("inactive err = %v", err)
	}
	if _, err := rs.Get("Nuclear"); !errors.Is(err, ErrUnknownRule) {
		t.Fatalf("unknown err = %v", err)
	}
}

func TestRuleSet_FortifyPlanChecksOwnership(t *testing.T) {
	rs, _ := NewRuleSet("", "")
	l := ledgerWith(map[string]int{"Red": 1, "Blue": 1})
	_, _ = l.Claim(Coord{0, 0}, "Red")
	rc := RuleContext{Ledger: l, Coord: Coord{0, 0}, Player: "Blue"}
	if _, err := rs.Plan(RuleFortification, rc); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	rc.Coord = Coord{9, 9}
	if _, err := rs.Plan(RuleFortification, rc); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("err = %v, want ErrNotOwned", err)
	}

	rc = RuleContext{Ledger: l, Coord: Coord{0, 0}, Player: "Red"}
	m, err := rs.Plan(RuleFortification, rc)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := l.Apply(m); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !l.IsFortified(Coord{0, 0}) {
		t.Fatal("mutation did not fortify")
	}
	if _, err := rs.Plan(RuleFortification, rc); !errors.Is(err, ErrAlreadyFortified) {
		t.Fatalf("err = %v, want ErrAlreadyFortified", err)
	}
}
