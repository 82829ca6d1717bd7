package game

import (
	"errors"
	"math/rand"
	"testing"
)

func ledgerWith(budgets map[string]int) *Ledger {
	l := NewLedger(true)
	for p, n := range budgets {
		_ = l.SetBudget(p, TileBudget{Total: n, Remaining: n})
	}
	return l
}

func TestLedger_ClaimUnclaimedCostsOne(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 3})
	out, err := l.Claim(Coord{1, 1}, "Red")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if out.Cost != 1 || out.Previous != "" || out.NoOp {
		t.Fatalf("outcome = %+v", out)
	}
	if got := l.Remaining("Red"); got != 2 {
		t.Fatalf("remaining = %d, want 2", got)
	}
	if owner, ok := l.Owner(Coord{1, 1}); !ok || owner != "Red" {
		t.Fatalf("owner = %q,%v", owner, ok)
	}
}

func TestLedger_ClaimOwnTileIsNoOp(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 1})
	if _, err := l.Claim(Coord{0, 0}, "Red"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	out, err := l.Claim(Coord{0, 0}, "Red")
	if err != nil {
		t.Fatalf("second claim with zero budget should still succeed: %v", err)
	}
	if !out.NoOp || out.Cost != 0 {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestLedger_InsufficientBudgetLeavesLedgerUnchanged(t *testing.T) {
	l := ledgerWith(map[string]int{"Blue": 0})
	before := l.Clone()
	_, err := l.Claim(Coord{2, 2}, "Blue")
	if !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("err = %v, want ErrInsufficientBudget", err)
	}
	if !l.Equal(before) {
		t.Fatal("failed claim mutated the ledger")
	}
	// A player the ledger has never seen has no budget either.
	if _, err := l.Claim(Coord{2, 2}, "Ghost"); !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("unknown player err = %v", err)
	}
}

func TestLedger_CaptureRefundsPreviousOwner(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 2, "Blue": 2})
	c := Coord{4, 4}
	_, _ = l.Claim(c, "Red")
	out, err := l.Claim(c, "Blue")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if out.Previous != "Red" || out.Cost != 1 || out.Refunded != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if l.Remaining("Red") != 2 || l.Remaining("Blue") != 1 {
		t.Fatalf("remaining red=%d blue=%d", l.Remaining("Red"), l.Remaining("Blue"))
	}
}

func TestLedger_FortifiedRecaptureCostsTwo(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 1, "Blue": 3})
	c := Coord{1, 2}
	_, _ = l.Claim(c, "Red")
	if err := l.Fortify(c, "Red", 0); err != nil {
		t.Fatalf("fortify: %v", err)
	}
	if !l.IsFortified(c) {
		t.Fatal("tile should be fortified")
	}

	blueBefore := l.Remaining("Blue") + l.OwnedCount("Blue")
	out, err := l.Claim(c, "Blue")
	if err != nil {
		t.Fatalf("recapture: %v", err)
	}
	if out.Cost != 2 || out.Defortified != 1 || out.Claimed != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if l.IsFortified(c) {
		t.Fatal("recapture should clear fortification")
	}
	if got := l.OwnedCount("Blue"); got != 1 {
		t.Fatalf("blue owns %d, want 1", got)
	}
	if after := l.Remaining("Blue") + l.OwnedCount("Blue"); after != blueBefore-1 {
		t.Fatalf("blue committed budget %d -> %d, want a loss of exactly 1", blueBefore, after)
	}
	if got := l.Remaining("Red"); got != 1 {
		t.Fatalf("red remaining = %d, want refund to 1", got)
	}
}

func TestLedger_FortifiedRecaptureNeedsTwo(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 1, "Blue": 1})
	c := Coord{0, 0}
	_, _ = l.Claim(c, "Red")
	_ = l.Fortify(c, "Red", 0)
	before := l.Clone()
	if _, err := l.Claim(c, "Blue"); !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("err = %v", err)
	}
	if !l.Equal(before) {
		t.Fatal("failed recapture mutated the ledger")
	}
}

func TestLedger_ReleaseRefundsAndClearsFortification(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 1})
	c := Coord{3, 3}
	_, _ = l.Claim(c, "Red")
	_ = l.Fortify(c, "Red", 0)
	prev, ok := l.Release(c)
	if !ok || prev != "Red" {
		t.Fatalf("release = %q,%v", prev, ok)
	}
	if l.IsFortified(c) {
		t.Fatal("release should clear fortification")
	}
	if l.Remaining("Red") != 1 {
		t.Fatalf("remaining = %d, want 1", l.Remaining("Red"))
	}
	if _, ok := l.Release(c); ok {
		t.Fatal("releasing an unclaimed tile should report no owner")
	}
}

func TestLedger_FortifyRules(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 2, "Blue": 2})
	c := Coord{5, 5}
	if err := l.Fortify(c, "Red", 0); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("unowned err = %v", err)
	}
	_, _ = l.Claim(c, "Red")
	if err := l.Fortify(c, "Blue", 0); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("other owner err = %v", err)
	}
	if err := l.Fortify(c, "Red", 5); !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("expensive fortify err = %v", err)
	}
	if err := l.Fortify(c, "Red", 1); err != nil {
		t.Fatalf("fortify: %v", err)
	}
	if l.Remaining("Red") != 0 {
		t.Fatalf("fortify cost not charged: remaining %d", l.Remaining("Red"))
	}
	if err := l.Fortify(c, "Red", 0); !errors.Is(err, ErrAlreadyFortified) {
		t.Fatalf("double fortify err = %v", err)
	}
}

func TestLedger_ClaimAllIsAtomic(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 3})
	coords := []Coord{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	before := l.Clone()
	if _, err := l.ClaimAll(coords, "Red"); !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("err = %v", err)
	}
	if !l.Equal(before) {
		t.Fatal("partial ClaimAll leaked changes")
	}
	out, err := l.ClaimAll(coords[:3], "Red")
	if err != nil {
		t.Fatalf("ClaimAll: %v", err)
	}
	if out.Cost != 3 || out.Claimed != 3 {
		t.Fatalf("outcome = %+v", out)
	}
	lost := l.ReleaseAll(coords)
	if lost["Red"] != 3 || l.Remaining("Red") != 3 {
		t.Fatalf("lost=%v remaining=%d", lost, l.Remaining("Red"))
	}
}

func TestLedger_ExternalModeDoesNotGate(t *testing.T) {
	l := NewLedger(false)
	if _, err := l.Claim(Coord{0, 0}, "Red"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	out, err := l.Claim(Coord{0, 0}, "Blue")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if out.Cost != 0 || out.Refunded != 0 {
		t.Fatalf("external claims should not charge: %+v", out)
	}
	if l.Remaining("Red") != 0 || l.Remaining("Blue") != 0 {
		t.Fatal("budgets moved in external mode")
	}
}

func TestLedger_ResetTurnBudgets(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 1, "Old": 9})
	err := l.ResetTurnBudgets(map[string]Allocation{"Red": {Roll: 4455, Tiles: 6}})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := l.Budget("Red"); got != (TileBudget{Roll: 4455, Total: 6, Remaining: 6}) {
		t.Fatalf("red budget = %+v", got)
	}
	if got := l.Budget("Old"); got != (TileBudget{}) {
		t.Fatalf("players missing from the allocation keep %+v", got)
	}
	if err := l.ResetTurnBudgets(map[string]Allocation{"Red": {Tiles: -1}}); err == nil {
		t.Fatal("negative allocation accepted")
	}
}

// Budget conservation: across any sequence of claims and releases between
// players, remaining + owned stays constant for each of them.
func TestLedger_BudgetConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	players := []string{"Red", "Blue", "Green"}
	l := ledgerWith(map[string]int{"Red": 8, "Blue": 8, "Green": 8})
	committed := func(p string) int { return l.Remaining(p) + l.OwnedCount(p) }
	want := map[string]int{}
	for _, p := range players {
		want[p] = committed(p)
	}
	for step := 0; step < 500; step++ {
		c := Coord{rng.Intn(5), rng.Intn(3)}
		if rng.Intn(4) == 0 {
			l.Release(c)
		} else {
			_, err := l.Claim(c, players[rng.Intn(len(players))])
			if err != nil && !errors.Is(err, ErrInsufficientBudget) {
				t.Fatalf("step %d: %v", step, err)
			}
		}
		for _, p := range players {
			if got := committed(p); got != want[p] {
				t.Fatalf("step %d: %s committed budget %d, want %d", step, p, got, want[p])
			}
			if l.Remaining(p) < 0 {
				t.Fatalf("step %d: %s budget went negative", step, p)
			}
		}
	}
}

func TestLedger_StateRoundTrip(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 3, "Blue": 1})
	_, _ = l.Claim(Coord{1, 0}, "Red")
	_, _ = l.Claim(Coord{0, 1}, "Blue")
	_ = l.Fortify(Coord{1, 0}, "Red", 0)

	got, err := LedgerFromState(l.State())
	if err != nil {
		t.Fatalf("LedgerFromState: %v", err)
	}
	if !got.Equal(l) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got.State(), l.State())
	}
	if _, err := LedgerFromState(LedgerState{Tiles: []OwnedTile{{X: 0, Y: 0}}}); err == nil {
		t.Fatal("ownerless tile accepted")
	}
}

func TestLedger_RenameAndForget(t *testing.T) {
	l := ledgerWith(map[string]int{"Red": 3})
	_, _ = l.Claim(Coord{0, 0}, "Red")
	_, _ = l.Claim(Coord{1, 0}, "Red")
	_ = l.Fortify(Coord{0, 0}, "Red", 0)

	l.RenamePlayer("Red", "Crimson")
	if owner, _ := l.Owner(Coord{0, 0}); owner != "Crimson" {
		t.Fatalf("owner after rename = %q", owner)
	}
	if l.FortifiedCount("Crimson") != 1 || l.Remaining("Crimson") != 1 {
		t.Fatal("rename lost fortification or budget")
	}

	if n := l.ForgetPlayer("Crimson"); n != 2 {
		t.Fatalf("forgot %d tiles, want 2", n)
	}
	if l.Claimed() != 0 || l.IsFortified(Coord{0, 0}) {
		t.Fatal("forgotten player's tiles remain")
	}
}
