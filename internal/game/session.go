package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxPixels caps a single fill.
const DefaultMaxPixels = 4_000_000

// DefaultGameName is used when a session is created without a name.
const DefaultGameName = "Untitled Game"

// BudgetSource selects where per-turn budgets come from.
type BudgetSource int

const (
	// BudgetComputed rolls for every player at turn advance and gates claims.
	BudgetComputed BudgetSource = iota
	// BudgetExternal takes budgets from AssignExternalBudget; claims are not gated.
	BudgetExternal
)

func (b BudgetSource) String() string {
	if b == BudgetExternal {
		return "external"
	}
	return "application"
}

// ParseBudgetSource accepts "application"/"computed" and "external".
func ParseBudgetSource(s string) (BudgetSource, error) {
	switch s {
	case "", "application", "computed":
		return BudgetComputed, nil
	case "external":
		return BudgetExternal, nil
	}
	return BudgetComputed, fmt.Errorf("unknown roll mode %q", s)
}

// ChargePolicy selects how a claim gesture is priced.
type ChargePolicy int

const (
	// ChargePerGesture spends one budget unit per fill, whatever its size.
	ChargePerGesture ChargePolicy = iota
	// ChargePerPixel spends one unit per repainted pixel.
	ChargePerPixel
)

func (c ChargePolicy) String() string {
	if c == ChargePerPixel {
		return "pixel"
	}
	return "gesture"
}

// ParseChargePolicy accepts "gesture" and "pixel".
func ParseChargePolicy(s string) (ChargePolicy, error) {
	switch s {
	case "", "gesture":
		return ChargePerGesture, nil
	case "pixel":
		return ChargePerPixel, nil
	}
	return ChargePerGesture, fmt.Errorf("unknown budget charge %q", s)
}

// TileBudgetOracle converts a roll into a tile budget.
type TileBudgetOracle interface {
	ComputeTiles(roll int) (int, error)
}

// FixedBudget is an oracle that awards the same budget for every roll.
type FixedBudget int

// ComputeTiles implements TileBudgetOracle.
func (f FixedBudget) ComputeTiles(int) (int, error) { return int(f), nil }

// Roller produces roll values.
type Roller interface {
	Roll() int
}

// RollerFunc adapts a function to Roller.
type RollerFunc func() int

// Roll implements Roller.
func (f RollerFunc) Roll() int { return f() }

// TurnSnapshot is the raster and ledger captured at a turn advance.
type TurnSnapshot struct {
	Turn   int
	Raster *Raster
	Ledger *Ledger
}

// RollResult is one player's roll and the budget it produced.
type RollResult struct {
	Player string `json:"player"`
	Roll   int    `json:"roll"`
	Tiles  int    `json:"tiles"`
}

// RollRecord groups the rolls made during one turn.
type RollRecord struct {
	Turn    int          `json:"turn"`
	Results []RollResult `json:"results"`
}

// TurnSink receives turn snapshots and rolls as they happen.
type TurnSink interface {
	RecordTurn(ctx context.Context, sessionID string, snap TurnSnapshot) error
	RecordRolls(ctx context.Context, sessionID string, turn int, results []RollResult) error
}

// Options configures a Session.
type Options struct {
	Name          string
	Tolerance     int
	MaxPixels     int
	UndoDepth     int
	BudgetSource  BudgetSource
	Charge        ChargePolicy
	FortifyCost   string // expr source
	RecaptureCost string // expr source
	Logger        *zap.Logger
	Oracle        TileBudgetOracle
	Roller        Roller
	Sink          TurnSink
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultGameName
	}
	if o.Tolerance < 0 {
		o.Tolerance = 0
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if o.UndoDepth <= 0 {
		o.UndoDepth = DefaultUndoDepth
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Oracle == nil {
		o.Oracle = FixedBudget(1)
	}
	if o.Roller == nil {
		o.Roller = RollerFunc(func() int { return 0 })
	}
	return o
}

// Session owns the whole state of one game: rasters, ledger, undo ring,
// roster, turn history and roll history.
type Session struct {
	ID   string
	Name string

	opts Options
	log  *zap.Logger

	roster   *Roster
	raster   *Raster
	original *Raster
	ledger   *Ledger
	history  *History
	rules    *RuleSet
	events   *EventLog

	turns    []TurnSnapshot
	rolls    []RollRecord
	turn     int
	mode     Mode
	selected string
	note     string // annotation text
}

// NewSession creates an empty session with no map loaded.
func NewSession(opts Options) (*Session, error) {
	opts = opts.withDefaults()
	rules, err := NewRuleSet(opts.FortifyCost, opts.RecaptureCost)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:      uuid.NewString(),
		Name:    opts.Name,
		opts:    opts,
		roster:  NewRoster(),
		history: NewHistory(opts.UndoDepth),
		rules:   rules,
		events:  NewEventLog(),
		mode:    ModeClaim,
	}
	s.log = opts.Logger.With(zap.String("session", s.ID))
	s.ledger = s.newLedger()
	return s, nil
}

func (s *Session) newLedger() *Ledger {
	l := NewLedger(s.opts.BudgetSource == BudgetComputed)
	l.SetClaimCost(s.rules.ClaimCost(func() int { return s.turn }))
	return l
}

// Options returns the effective options.
func (s *Session) Options() Options { return s.opts }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.log }

// Roster returns the player roster.
func (s *Session) Roster() *Roster { return s.roster }

// Raster returns the current paint state, nil before a map is imported.
func (s *Session) Raster() *Raster { return s.raster }

// Original returns the map as imported.
func (s *Session) Original() *Raster { return s.original }

// Ledger returns the ownership ledger.
func (s *Session) Ledger() *Ledger { return s.ledger }

// History returns the undo ring.
func (s *Session) History() *History { return s.history }

// Rules returns the rule registry.
func (s *Session) Rules() *RuleSet { return s.rules }

// Events returns the action log.
func (s *Session) Events() *EventLog { return s.events }

// Turn returns the current turn number.
func (s *Session) Turn() int { return s.turn }

// Mode returns the current interaction mode.
func (s *Session) Mode() Mode { return s.mode }

// Selected returns the selected player's name, "" if none.
func (s *Session) Selected() string { return s.selected }

// Annotation returns the text stamped in annotate mode.
func (s *Session) Annotation() string { return s.note }

// SetAnnotation sets the text stamped in annotate mode.
func (s *Session) SetAnnotation(text string) { s.note = text }

// Turns returns the turn snapshots, oldest first.
func (s *Session) Turns() []TurnSnapshot {
	return append([]TurnSnapshot(nil), s.turns...)
}

// Rolls returns the roll history, oldest first.
func (s *Session) Rolls() []RollRecord {
	return append([]RollRecord(nil), s.rolls...)
}

// BudgetSource reports where budgets come from.
func (s *Session) BudgetSource() BudgetSource { return s.opts.BudgetSource }

// SetBudgetSource switches between computed and external budgets.
func (s *Session) SetBudgetSource(src BudgetSource) {
	s.opts.BudgetSource = src
	s.ledger.SetEnforced(src == BudgetComputed)
	s.events.Add(s.turn, "", CatRoll, "source", src.String(), 0)
}

// Frames returns the rasters of every turn snapshot followed by the current
// raster, ready for an animated export.
func (s *Session) Frames() []*Raster {
	out := make([]*Raster, 0, len(s.turns)+1)
	for _, t := range s.turns {
		out = append(out, t.Raster)
	}
	if s.raster != nil {
		out = append(out, s.raster)
	}
	return out
}

// AddPlayer validates and adds a roster entry.
func (s *Session) AddPlayer(name string, c RGB, faction string) (*Player, error) {
	p, err := s.roster.Add(name, c, faction)
	if err != nil {
		return nil, err
	}
	s.events.Add(s.turn, p.Name, CatRoster, "add", c.Hex(), 0)
	return p, nil
}

// EditPlayer updates a player. A rename carries ownership and budgets over.
func (s *Session) EditPlayer(current, name string, c RGB, faction string) error {
	old, err := s.roster.Edit(current, name, c, faction)
	if err != nil {
		return err
	}
	p, _ := s.roster.Get(name)
	if old != p.Name {
		s.ledger.RenamePlayer(old, p.Name)
		for _, cp := range s.history.Recent() {
			cp.Ledger.RenamePlayer(old, p.Name)
		}
		if s.selected == old {
			s.selected = p.Name
		}
	}
	s.events.Add(s.turn, p.Name, CatRoster, "edit", "was "+old, 0)
	return nil
}

// unpaint fills the region around each tile on r back to the imported
// map's colour.
func (s *Session) unpaint(r *Raster, tiles []Coord) {
	if r == nil || s.original == nil {
		return
	}
	for _, t := range tiles {
		if _, err := Fill(r, t, s.original.Pixel(t), s.opts.Tolerance, s.opts.MaxPixels); err != nil {
			s.log.Warn("unpaint", zap.Stringer("at", t), zap.Error(err))
		}
	}
}

// RemovePlayer deletes a player, releasing its tiles to unclaimed and
// repainting them with the imported map's colours.
func (s *Session) RemovePlayer(name string) error {
	p, err := s.roster.Remove(name)
	if err != nil {
		return err
	}
	s.unpaint(s.raster, s.ledger.OwnedBy(p.Name))
	n := s.ledger.ForgetPlayer(p.Name)
	for _, cp := range s.history.Recent() {
		s.unpaint(cp.Raster, cp.Ledger.OwnedBy(p.Name))
		cp.Ledger.ForgetPlayer(p.Name)
	}
	if s.selected == p.Name {
		s.selected = ""
	}
	s.events.Add(s.turn, p.Name, CatRoster, "remove", fmt.Sprintf("%d tiles released", n), n)
	s.log.Debug("player removed", zap.String("player", p.Name), zap.Int("tiles", n))
	return nil
}
