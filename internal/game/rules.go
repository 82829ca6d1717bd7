package game

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Built-in rule names.
const (
	RuleFortification      = "Fortification"
	RuleFortifiedRecapture = "FortifiedRecapture"
)

// Default cost expressions.
const (
	DefaultFortifyCost   = "0"
	DefaultRecaptureCost = "Fortified ? 2 : 1"
)

// CostEnv is the environment rule cost expressions are evaluated against.
type CostEnv struct {
	Fortified    bool // tile is fortified
	Owned        bool // tile has an owner
	OwnedByActor bool // the acting player owns the tile
	Remaining    int  // acting player's remaining budget
	Turn         int
}

// MutationKind selects which ledger operation a Mutation performs.
type MutationKind int

const (
	MutateClaim MutationKind = iota
	MutateRelease
	MutateFortify
)

func (k MutationKind) String() string {
	switch k {
	case MutateClaim:
		return "claim"
	case MutateRelease:
		return "release"
	case MutateFortify:
		return "fortify"
	default:
		return fmt.Sprintf("mutation(%d)", int(k))
	}
}

// Mutation is a planned ledger change produced by a rule.
type Mutation struct {
	Kind   MutationKind
	Coord  Coord
	Player string
	Cost   int
	Darken float64 // display factor for the tile, 0 = leave colour alone
}

// Apply performs m on the ledger.
func (l *Ledger) Apply(m Mutation) error {
	switch m.Kind {
	case MutateClaim:
		_, err := l.Claim(m.Coord, m.Player)
		return err
	case MutateRelease:
		l.Release(m.Coord)
		return nil
	case MutateFortify:
		return l.Fortify(m.Coord, m.Player, m.Cost)
	default:
		return fmt.Errorf("apply %v: unknown mutation kind", m.Kind)
	}
}

// RuleContext is what a rule sees when planning.
type RuleContext struct {
	Ledger *Ledger
	Coord  Coord
	Player string
	Turn   int
}

func (rc RuleContext) env() CostEnv {
	owner, owned := rc.Ledger.Owner(rc.Coord)
	return CostEnv{
		Fortified:    rc.Ledger.IsFortified(rc.Coord),
		Owned:        owned,
		OwnedByActor: owned && owner == rc.Player,
		Remaining:    rc.Ledger.Remaining(rc.Player),
		Turn:         rc.Turn,
	}
}

// PlanFunc turns a context and its evaluated cost into a ledger mutation.
// It must not modify the ledger.
type PlanFunc func(rc RuleContext, cost int) (Mutation, error)

// Rule is a named, toggleable ledger policy.
type Rule struct {
	Name        string
	Description string
	Active      bool
	CostSrc     string      // expr source, evaluated against CostEnv
	program     *vm.Program // compiled CostSrc
	Plan        PlanFunc
}

// Cost evaluates the rule's cost expression.
func (r *Rule) Cost(env CostEnv) (int, error) {
	if r.program == nil {
		return 0, fmt.Errorf("rule %q is not compiled", r.Name)
	}
	out, err := vm.Run(r.program, env)
	if err != nil {
		return 0, fmt.Errorf("rule %q cost: %w", r.Name, err)
	}
	n, ok := out.(int)
	if !ok {
		return 0, fmt.Errorf("rule %q cost: got %T, want int", r.Name, out)
	}
	if n < 0 {
		return 0, fmt.Errorf("rule %q cost: negative result %d", r.Name, n)
	}
	return n, nil
}

// RuleSet is a registry of rules looked up by name.
type RuleSet struct {
	rules map[string]*Rule
	order []string
}

// NewRuleSet registers the built-in rules with the given cost expressions.
// Empty sources fall back to the defaults.
func NewRuleSet(fortifyCost, recaptureCost string) (*RuleSet, error) {
	if fortifyCost == "" {
		fortifyCost = DefaultFortifyCost
	}
	if recaptureCost == "" {
		recaptureCost = DefaultRecaptureCost
	}
	rs := &RuleSet{rules: make(map[string]*Rule)}
	builtins := []*Rule{
		{
			Name:        RuleFortification,
			Description: "Owners may fortify a tile; it darkens and costs more to recapture.",
			Active:      true,
			CostSrc:     fortifyCost,
			Plan:        planFortify,
		},
		{
			Name:        RuleFortifiedRecapture,
			Description: "Recapturing a fortified tile costs extra budget.",
			Active:      true,
			CostSrc:     recaptureCost,
			Plan:        planClaim,
		},
	}
	for _, r := range builtins {
		if err := rs.Register(r); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// Register compiles r's cost expression and adds it, replacing any rule of
// the same name.
func (rs *RuleSet) Register(r *Rule) error {
	prog, err := expr.Compile(r.CostSrc, expr.Env(CostEnv{}), expr.AsInt())
	if err != nil {
		return fmt.Errorf("compile rule %q: %w", r.Name, err)
	}
	r.program = prog
	if _, ok := rs.rules[r.Name]; !ok {
		rs.order = append(rs.order, r.Name)
	}
	rs.rules[r.Name] = r
	return nil
}

// Get looks a rule up by name.
func (rs *RuleSet) Get(name string) (*Rule, error) {
	r, ok := rs.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	return r, nil
}

// Names lists rules in registration order.
func (rs *RuleSet) Names() []string {
	return append([]string(nil), rs.order...)
}

// IsActive reports whether the named rule exists and is on.
func (rs *RuleSet) IsActive(name string) bool {
	r, ok := rs.rules[name]
	return ok && r.Active
}

// SetActive turns a rule on or off.
func (rs *RuleSet) SetActive(name string, on bool) error {
	r, err := rs.Get(name)
	if err != nil {
		return err
	}
	r.Active = on
	return nil
}

// Toggle flips a rule and returns its new state.
func (rs *RuleSet) Toggle(name string) (bool, error) {
	r, err := rs.Get(name)
	if err != nil {
		return false, err
	}
	r.Active = !r.Active
	return r.Active, nil
}

// Plan runs the named active rule against rc.
func (rs *RuleSet) Plan(name string, rc RuleContext) (Mutation, error) {
	r, err := rs.Get(name)
	if err != nil {
		return Mutation{}, err
	}
	if !r.Active {
		return Mutation{}, fmt.Errorf("%w: %q", ErrRuleInactive, name)
	}
	if r.Plan == nil {
		return Mutation{}, fmt.Errorf("rule %q has no planner", name)
	}
	cost, err := r.Cost(rc.env())
	if err != nil {
		return Mutation{}, err
	}
	return r.Plan(rc, cost)
}

// ClaimCost builds the ledger pricing policy from the recapture rule. With
// the rule off every claim costs 1.
func (rs *RuleSet) ClaimCost(turn func() int) ClaimCostFunc {
	return func(previous string, fortified bool) (int, error) {
		r, ok := rs.rules[RuleFortifiedRecapture]
		if !ok || !r.Active {
			return 1, nil
		}
		env := CostEnv{Fortified: fortified, Owned: previous != ""}
		if turn != nil {
			env.Turn = turn()
		}
		return r.Cost(env)
	}
}

func planFortify(rc RuleContext, cost int) (Mutation, error) {
	owner, ok := rc.Ledger.Owner(rc.Coord)
	switch {
	case !ok:
		return Mutation{}, fmt.Errorf("fortify %v: %w", rc.Coord, ErrNotOwned)
	case owner != rc.Player:
		return Mutation{}, fmt.Errorf("fortify %v (owned by %s): %w", rc.Coord, owner, ErrNotOwner)
	case rc.Ledger.IsFortified(rc.Coord):
		return Mutation{}, fmt.Errorf("fortify %v: %w", rc.Coord, ErrAlreadyFortified)
	}
	return Mutation{Kind: MutateFortify, Coord: rc.Coord, Player: rc.Player, Cost: cost, Darken: fortifyDarken}, nil
}

func planClaim(rc RuleContext, cost int) (Mutation, error) {
	return Mutation{Kind: MutateClaim, Coord: rc.Coord, Player: rc.Player, Cost: cost}, nil
}
