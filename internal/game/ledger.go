package game

import (
	"fmt"
	"maps"
	"sort"
)

// TileBudget is one player's allocation for the current turn.
type TileBudget struct {
	Roll      int // last roll value (0 when assigned without a roll)
	Total     int // tiles awarded this turn
	Remaining int // tiles still available this turn
}

// Allocation is a fresh per-turn budget handed to ResetTurnBudgets.
type Allocation struct {
	Roll  int
	Tiles int
}

// ClaimCostFunc prices a claim of one tile. fortified reports whether the
// tile is fortified by someone other than the claimant.
type ClaimCostFunc func(previous string, fortified bool) (int, error)

// DefaultClaimCost charges 1 per tile and 2 to recapture a fortified tile.
func DefaultClaimCost(_ string, fortified bool) (int, error) {
	if fortified {
		return 2, nil
	}
	return 1, nil
}

// ClaimOutcome reports what one Claim (or ClaimAll) changed.
type ClaimOutcome struct {
	Previous    string // previous owner of the tile, "" if unclaimed
	Cost        int    // budget charged to the claimant
	Refunded    int    // budget returned to previous owners
	Claimed     int    // tiles that changed hands
	Defortified int    // fortified tiles recaptured
	NoOp        bool   // claimant already owned every tile
}

// Ledger is the authoritative coordinate → owner mapping plus per-player
// budgets. Only claimed and fortified coordinates are stored; everything
// else is unclaimed.
//
// When enforce is false (external budget mode) claims are neither gated nor
// charged and budgets are informational.
type Ledger struct {
	owners    map[Coord]string
	fortified map[Coord]string
	budgets   map[string]*TileBudget
	enforce   bool
	claimCost ClaimCostFunc
}

// NewLedger returns an empty ledger.
func NewLedger(enforce bool) *Ledger {
	return &Ledger{
		owners:    make(map[Coord]string),
		fortified: make(map[Coord]string),
		budgets:   make(map[string]*TileBudget),
		enforce:   enforce,
		claimCost: DefaultClaimCost,
	}
}

// SetClaimCost replaces the claim pricing policy. nil restores the default.
func (l *Ledger) SetClaimCost(fn ClaimCostFunc) {
	if fn == nil {
		fn = DefaultClaimCost
	}
	l.claimCost = fn
}

// Enforced reports whether budgets gate claims.
func (l *Ledger) Enforced() bool { return l.enforce }

// SetEnforced switches between computed and external budget accounting.
func (l *Ledger) SetEnforced(on bool) { l.enforce = on }

// Owner returns the owner of c.
func (l *Ledger) Owner(c Coord) (string, bool) {
	p, ok := l.owners[c]
	return p, ok
}

// IsFortified reports whether c is fortified.
func (l *Ledger) IsFortified(c Coord) bool {
	_, ok := l.fortified[c]
	return ok
}

// Budget returns a copy of the player's budget (zero if none recorded).
func (l *Ledger) Budget(player string) TileBudget {
	if b, ok := l.budgets[player]; ok {
		return *b
	}
	return TileBudget{}
}

// Remaining is shorthand for Budget(player).Remaining.
func (l *Ledger) Remaining(player string) int {
	return l.Budget(player).Remaining
}

// SetBudget overwrites one player's budget.
func (l *Ledger) SetBudget(player string, b TileBudget) error {
	if b.Remaining < 0 || b.Total < 0 {
		return fmt.Errorf("budget for %q: %w", player, ErrInsufficientBudget)
	}
	nb := b
	l.budgets[player] = &nb
	return nil
}

func (l *Ledger) budget(player string) *TileBudget {
	b, ok := l.budgets[player]
	if !ok {
		b = &TileBudget{}
		l.budgets[player] = b
	}
	return b
}

// ResetTurnBudgets replaces the whole budget table with fresh allocations.
// Players absent from alloc lose their budget.
func (l *Ledger) ResetTurnBudgets(alloc map[string]Allocation) error {
	for p, a := range alloc {
		if a.Tiles < 0 {
			return fmt.Errorf("allocation for %q is negative (%d)", p, a.Tiles)
		}
	}
	l.budgets = make(map[string]*TileBudget, len(alloc))
	for p, a := range alloc {
		l.budgets[p] = &TileBudget{Roll: a.Roll, Total: a.Tiles, Remaining: a.Tiles}
	}
	return nil
}

// priceTile returns the claimant's cost for c, or ok=false when player
// already owns it.
func (l *Ledger) priceTile(c Coord, player string) (cost int, prev string, fort bool, ok bool, err error) {
	prev, owned := l.owners[c]
	if owned && prev == player {
		return 0, prev, false, false, nil
	}
	fort = owned && l.IsFortified(c)
	cost, err = l.claimCost(prev, fort)
	if err != nil {
		return 0, prev, fort, false, fmt.Errorf("price claim at %v: %w", c, err)
	}
	if cost < 0 {
		return 0, prev, fort, false, fmt.Errorf("price claim at %v: negative cost %d", c, cost)
	}
	return cost, prev, fort, true, nil
}

// transfer records c as owned by player and refunds the previous owner.
func (l *Ledger) transfer(c Coord, player, prev string, fort bool, out *ClaimOutcome) {
	if fort {
		delete(l.fortified, c)
		out.Defortified++
	}
	l.owners[c] = player
	out.Claimed++
	if prev != "" && l.enforce {
		l.budget(prev).Remaining++
		out.Refunded++
	}
}

// Claim assigns c to player. Claiming an own tile is a no-op success. With
// budgets enforced the claimant pays the policy cost (1, or 2 for a tile
// fortified by someone else) and the previous owner gets 1 back. Fails with
// ErrInsufficientBudget, leaving the ledger unchanged, if the claimant
// cannot pay.
func (l *Ledger) Claim(c Coord, player string) (ClaimOutcome, error) {
	cost, prev, fort, ok, err := l.priceTile(c, player)
	if err != nil {
		return ClaimOutcome{}, err
	}
	if !ok {
		return ClaimOutcome{Previous: prev, NoOp: true}, nil
	}
	out := ClaimOutcome{Previous: prev}
	if l.enforce {
		b := l.Budget(player)
		if b.Remaining < cost {
			return ClaimOutcome{}, fmt.Errorf("%s needs %d, has %d: %w", player, cost, b.Remaining, ErrInsufficientBudget)
		}
		l.budget(player).Remaining -= cost
		out.Cost = cost
	}
	l.transfer(c, player, prev, fort, &out)
	return out, nil
}

// ClaimAll claims every coordinate for player as one operation: either all
// of them change hands or none do.
func (l *Ledger) ClaimAll(coords []Coord, player string) (ClaimOutcome, error) {
	type pending struct {
		c    Coord
		prev string
		fort bool
	}
	var (
		todo  []pending
		total int
	)
	seen := make(map[Coord]struct{}, len(coords))
	for _, c := range coords {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cost, prev, fort, ok, err := l.priceTile(c, player)
		if err != nil {
			return ClaimOutcome{}, err
		}
		if !ok {
			continue
		}
		todo = append(todo, pending{c: c, prev: prev, fort: fort})
		total += cost
	}
	if len(todo) == 0 {
		return ClaimOutcome{NoOp: true}, nil
	}
	out := ClaimOutcome{Previous: todo[0].prev}
	if l.enforce {
		if have := l.Remaining(player); have < total {
			return ClaimOutcome{}, fmt.Errorf("%s needs %d, has %d: %w", player, total, have, ErrInsufficientBudget)
		}
		l.budget(player).Remaining -= total
		out.Cost = total
	}
	for _, p := range todo {
		l.transfer(p.c, player, p.prev, p.fort, &out)
	}
	return out, nil
}

// Release clears ownership of c, refunding its owner 1 and dropping any
// fortification. It returns the previous owner.
func (l *Ledger) Release(c Coord) (string, bool) {
	prev, ok := l.owners[c]
	if !ok {
		return "", false
	}
	delete(l.owners, c)
	delete(l.fortified, c)
	if l.enforce {
		l.budget(prev).Remaining++
	}
	return prev, true
}

// ReleaseAll releases every coordinate and returns how many tiles each
// previous owner lost.
func (l *Ledger) ReleaseAll(coords []Coord) map[string]int {
	lost := make(map[string]int)
	for _, c := range coords {
		if prev, ok := l.Release(c); ok {
			lost[prev]++
		}
	}
	return lost
}

// Fortify marks c fortified under its current owner, charging cost when
// budgets are enforced. player must own c.
func (l *Ledger) Fortify(c Coord, player string, cost int) error {
	owner, ok := l.owners[c]
	switch {
	case !ok:
		return fmt.Errorf("fortify %v: %w", c, ErrNotOwned)
	case owner != player:
		return fmt.Errorf("fortify %v (owned by %s): %w", c, owner, ErrNotOwner)
	case l.IsFortified(c):
		return fmt.Errorf("fortify %v: %w", c, ErrAlreadyFortified)
	case cost < 0:
		return fmt.Errorf("fortify %v: negative cost %d", c, cost)
	}
	if l.enforce && cost > 0 {
		if have := l.Remaining(player); have < cost {
			return fmt.Errorf("fortify %v needs %d, has %d: %w", c, cost, have, ErrInsufficientBudget)
		}
		l.budget(player).Remaining -= cost
	}
	l.fortified[c] = owner
	return nil
}

// OwnedBy returns the player's tiles sorted row-major.
func (l *Ledger) OwnedBy(player string) []Coord {
	var out []Coord
	for c, p := range l.owners {
		if p == player {
			out = append(out, c)
		}
	}
	sortCoords(out)
	return out
}

// OwnedCount returns how many tiles the player owns.
func (l *Ledger) OwnedCount(player string) int {
	n := 0
	for _, p := range l.owners {
		if p == player {
			n++
		}
	}
	return n
}

// FortifiedCount returns how many of the player's tiles are fortified.
func (l *Ledger) FortifiedCount(player string) int {
	n := 0
	for _, p := range l.fortified {
		if p == player {
			n++
		}
	}
	return n
}

// Claimed returns the number of owned coordinates across all players.
func (l *Ledger) Claimed() int { return len(l.owners) }

// ForgetPlayer returns the player's tiles to unclaimed and drops its budget.
func (l *Ledger) ForgetPlayer(player string) int {
	n := 0
	for c, p := range l.owners {
		if p == player {
			delete(l.owners, c)
			delete(l.fortified, c)
			n++
		}
	}
	delete(l.budgets, player)
	return n
}

// RenamePlayer re-keys ownership, fortifications and budget.
func (l *Ledger) RenamePlayer(from, to string) {
	if from == to {
		return
	}
	for c, p := range l.owners {
		if p == from {
			l.owners[c] = to
		}
	}
	for c, p := range l.fortified {
		if p == from {
			l.fortified[c] = to
		}
	}
	if b, ok := l.budgets[from]; ok {
		delete(l.budgets, from)
		l.budgets[to] = b
	}
}

// Clone returns a deep copy sharing only the cost policy.
func (l *Ledger) Clone() *Ledger {
	cp := &Ledger{
		owners:    maps.Clone(l.owners),
		fortified: maps.Clone(l.fortified),
		budgets:   make(map[string]*TileBudget, len(l.budgets)),
		enforce:   l.enforce,
		claimCost: l.claimCost,
	}
	for p, b := range l.budgets {
		nb := *b
		cp.budgets[p] = &nb
	}
	return cp
}

// Equal compares ownership, fortifications, budgets and enforcement.
func (l *Ledger) Equal(o *Ledger) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.enforce != o.enforce || !maps.Equal(l.owners, o.owners) || !maps.Equal(l.fortified, o.fortified) {
		return false
	}
	return maps.EqualFunc(l.budgets, o.budgets, func(a, b *TileBudget) bool { return *a == *b })
}

// OwnedTile is one serialized ledger entry.
type OwnedTile struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Owner     string `json:"owner"`
	Fortified bool   `json:"fortified,omitempty"`
}

// BudgetEntry is one serialized budget row.
type BudgetEntry struct {
	Player    string `json:"player"`
	Roll      int    `json:"roll"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
}

// LedgerState is the serializable form of a Ledger, sorted for stable output.
type LedgerState struct {
	Enforce bool          `json:"enforce"`
	Tiles   []OwnedTile   `json:"tiles"`
	Budgets []BudgetEntry `json:"budgets"`
}

// State exports the ledger.
func (l *Ledger) State() LedgerState {
	coords := make([]Coord, 0, len(l.owners))
	for c := range l.owners {
		coords = append(coords, c)
	}
	sortCoords(coords)
	st := LedgerState{Enforce: l.enforce, Tiles: make([]OwnedTile, 0, len(coords))}
	for _, c := range coords {
		st.Tiles = append(st.Tiles, OwnedTile{X: c.X, Y: c.Y, Owner: l.owners[c], Fortified: l.IsFortified(c)})
	}
	names := make([]string, 0, len(l.budgets))
	for p := range l.budgets {
		names = append(names, p)
	}
	sort.Strings(names)
	for _, p := range names {
		b := l.budgets[p]
		st.Budgets = append(st.Budgets, BudgetEntry{Player: p, Roll: b.Roll, Total: b.Total, Remaining: b.Remaining})
	}
	return st
}

// LedgerFromState rebuilds a ledger, rejecting entries that break its
// invariants.
func LedgerFromState(st LedgerState) (*Ledger, error) {
	l := NewLedger(st.Enforce)
	for _, t := range st.Tiles {
		c := Coord{X: t.X, Y: t.Y}
		if t.Owner == "" {
			return nil, fmt.Errorf("ledger tile %v has no owner", c)
		}
		if _, dup := l.owners[c]; dup {
			return nil, fmt.Errorf("ledger tile %v listed twice", c)
		}
		l.owners[c] = t.Owner
		if t.Fortified {
			l.fortified[c] = t.Owner
		}
	}
	for _, b := range st.Budgets {
		if err := l.SetBudget(b.Player, TileBudget{Roll: b.Roll, Total: b.Total, Remaining: b.Remaining}); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func sortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Y != cs[j].Y {
			return cs[i].Y < cs[j].Y
		}
		return cs[i].X < cs[j].X
	})
}
