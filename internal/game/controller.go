package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Mode is the canvas interaction mode. It only changes on an explicit
// SetMode or ToggleMode.
type Mode int

const (
	ModeClaim Mode = iota
	ModeErase
	ModeFortify
	ModeAnnotate
	modeCount
)

var modeNames = [modeCount]string{"claim", "erase", "fortify", "annotate"}

func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a mode name back to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return ModeClaim, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ClickResult describes the outcome of one canvas interaction.
type ClickResult struct {
	Mode     Mode
	Coord    Coord  // clicked pixel
	Tile     Coord  // ledger coordinate the click resolved to
	Player   string // acting player
	Previous string // previous owner, "" if none
	Painted  int    // pixels repainted
	Cost     int    // budget spent
	NoOp     bool   // nothing changed
	Ignored  bool   // click fell outside the map
	Warning  error  // ErrFillCapReached when the fill was cut short
}

type clickHandler func(c *Controller, at Coord, res *ClickResult) error

// Controller runs user interactions against a Session.
type Controller struct {
	s        *Session
	handlers [modeCount]clickHandler
}

// NewController binds a controller to s.
func NewController(s *Session) *Controller {
	return &Controller{
		s: s,
		handlers: [modeCount]clickHandler{
			ModeClaim:    (*Controller).claim,
			ModeErase:    (*Controller).erase,
			ModeFortify:  (*Controller).fortify,
			ModeAnnotate: (*Controller).annotate,
		},
	}
}

// Session returns the controlled session.
func (c *Controller) Session() *Session { return c.s }

// SetMode switches to m.
func (c *Controller) SetMode(m Mode) error {
	if m < 0 || m >= modeCount {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	if c.s.mode != m {
		c.s.events.Add(c.s.turn, c.s.selected, CatMode, "set", m.String(), 0)
	}
	c.s.mode = m
	return nil
}

// ToggleMode flips between claim and erase. Any other mode goes to claim.
func (c *Controller) ToggleMode() Mode {
	next := ModeClaim
	if c.s.mode == ModeClaim {
		next = ModeErase
	}
	_ = c.SetMode(next)
	return next
}

// SelectPlayer makes name the acting player. "" clears the selection.
func (c *Controller) SelectPlayer(name string) error {
	if name == "" {
		c.s.selected = ""
		return nil
	}
	p, ok := c.s.roster.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
	}
	c.s.selected = p.Name
	return nil
}

// ImportMap replaces the map. Ownership and undo history start over; the
// roster, budgets and turn counter are kept.
func (c *Controller) ImportMap(ctx context.Context, r *Raster) error {
	if r == nil {
		return ErrNoMapLoaded
	}
	s := c.s
	budgets := s.ledger.State().Budgets
	s.raster = r
	s.original = r.Clone()
	s.ledger = s.newLedger()
	for _, b := range budgets {
		_ = s.ledger.SetBudget(b.Player, TileBudget{Roll: b.Roll, Total: b.Total, Remaining: b.Remaining})
	}
	s.history.Clear()
	s.turns = nil
	s.captureTurn(ctx)
	s.log.Info("map imported", zap.Int("width", r.Width()), zap.Int("height", r.Height()))
	return nil
}

// Click applies the current mode at at. Clicks outside the map are ignored.
// On error the session is left exactly as it was.
func (c *Controller) Click(at Coord) (ClickResult, error) {
	s := c.s
	res := ClickResult{Mode: s.mode, Coord: at, Tile: at, Player: s.selected}
	if s.raster == nil {
		return res, ErrNoMapLoaded
	}
	if !s.raster.InBounds(at) {
		res.Ignored = true
		return res, nil
	}
	h := c.handlers[s.mode]
	if h == nil {
		return res, fmt.Errorf("%w: %v", ErrUnknownMode, s.mode)
	}

	cp := Checkpoint{Mode: s.mode, Coord: at, Raster: s.raster.Clone(), Ledger: s.ledger.Clone()}
	if err := h(c, at, &res); err != nil {
		s.raster, s.ledger = cp.Raster, cp.Ledger
		s.log.Debug("click rejected", zap.Stringer("mode", s.mode), zap.Stringer("at", at), zap.Error(err))
		return ClickResult{Mode: res.Mode, Coord: at, Tile: at, Player: res.Player}, err
	}
	s.history.Push(cp)

	if res.Warning != nil {
		s.log.Warn("fill incomplete", zap.Stringer("at", at), zap.Int("painted", res.Painted), zap.Int("max_pixels", s.opts.MaxPixels))
	}
	s.log.Debug("click",
		zap.Stringer("mode", s.mode),
		zap.Stringer("at", at),
		zap.String("player", res.Player),
		zap.Int("painted", res.Painted),
		zap.Int("cost", res.Cost),
		zap.Int("remaining", s.ledger.Remaining(res.Player)),
	)
	return res, nil
}

// resolveTile maps a clicked pixel to the ledger coordinate that stands for
// its region: the pixel itself if recorded, else the first recorded
// coordinate in the same-colour region, else the pixel.
func (c *Controller) resolveTile(at Coord) Coord {
	return c.regionTiles(at)[0]
}

// regionTiles returns every recorded ledger coordinate inside the
// same-colour region around at, at first if it is recorded itself. A region
// with nothing recorded yields just at.
func (c *Controller) regionTiles(at Coord) []Coord {
	l := c.s.ledger
	if l.Claimed() == 0 {
		return []Coord{at}
	}
	region, _, err := Region(c.s.raster, at, c.s.opts.Tolerance, c.s.opts.MaxPixels)
	if err != nil {
		return []Coord{at}
	}
	var tiles []Coord
	if _, ok := l.Owner(at); ok {
		tiles = append(tiles, at)
	}
	for _, p := range region {
		if _, ok := l.Owner(p); ok && p != at {
			tiles = append(tiles, p)
		}
	}
	if len(tiles) == 0 {
		return []Coord{at}
	}
	return tiles
}

func (c *Controller) actingPlayer() (*Player, error) {
	if c.s.selected == "" {
		return nil, ErrNoPlayerSelected
	}
	p, ok := c.s.roster.Get(c.s.selected)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, c.s.selected)
	}
	return p, nil
}

func (c *Controller) claim(at Coord, res *ClickResult) error {
	s := c.s
	p, err := c.actingPlayer()
	if err != nil {
		return err
	}
	res.Player = p.Name
	if s.ledger.Enforced() && s.ledger.Remaining(p.Name) <= 0 {
		return fmt.Errorf("%s: %w", p.Name, ErrNoTilesLeft)
	}

	var out ClaimOutcome
	switch s.opts.Charge {
	case ChargePerPixel:
		region, _, err := Region(s.raster, at, s.opts.Tolerance, s.opts.MaxPixels)
		if err != nil {
			return err
		}
		out, err = s.ledger.ClaimAll(region, p.Name)
		if err != nil {
			return err
		}
	default:
		// Every tile recorded in the region changes hands with the repaint.
		tiles := c.regionTiles(at)
		res.Tile = tiles[0]
		out, err = s.ledger.ClaimAll(tiles, p.Name)
		if err != nil {
			return err
		}
		if out.NoOp {
			res.NoOp = true
			return nil
		}
	}
	res.Cost, res.Previous = out.Cost, out.Previous

	fr, err := Fill(s.raster, at, p.Color.Opaque(), s.opts.Tolerance, s.opts.MaxPixels)
	if err != nil {
		return err
	}
	res.Painted, res.Warning = fr.Painted, fr.Warning()
	res.NoOp = out.NoOp && fr.NoOp

	key := "claim"
	switch {
	case res.NoOp:
		key = "noop"
	case out.Previous != "" && out.Previous != p.Name:
		key = "capture"
	}
	detail := res.Tile.String()
	if key == "capture" {
		detail += " from " + out.Previous
	}
	s.events.Add(s.turn, p.Name, CatClaim, key, detail, fr.Painted)
	return nil
}

func (c *Controller) erase(at Coord, res *ClickResult) error {
	s := c.s
	if s.original == nil || !s.original.InBounds(at) {
		return fmt.Errorf("erase %v: %w", at, ErrInvalidCoordinate)
	}
	switch s.opts.Charge {
	case ChargePerPixel:
		region, _, err := Region(s.raster, at, s.opts.Tolerance, s.opts.MaxPixels)
		if err != nil {
			return err
		}
		for prev := range s.ledger.ReleaseAll(region) {
			res.Previous = prev
		}
	default:
		tiles := c.regionTiles(at)
		res.Tile = tiles[0]
		res.Previous, _ = s.ledger.Owner(res.Tile)
		s.ledger.ReleaseAll(tiles)
	}

	fr, err := Fill(s.raster, at, s.original.Pixel(at), s.opts.Tolerance, s.opts.MaxPixels)
	if err != nil {
		return err
	}
	res.Painted, res.Warning, res.NoOp = fr.Painted, fr.Warning(), fr.NoOp && res.Previous == ""
	s.events.Add(s.turn, res.Previous, CatErase, "release", res.Tile.String(), fr.Painted)
	return nil
}

func (c *Controller) fortify(at Coord, res *ClickResult) error {
	s := c.s
	p, err := c.actingPlayer()
	if err != nil {
		return err
	}
	res.Player = p.Name

	tiles := c.regionTiles(at)
	if s.opts.Charge == ChargePerPixel {
		tiles, _, err = Region(s.raster, at, s.opts.Tolerance, s.opts.MaxPixels)
		if err != nil {
			return err
		}
	}
	res.Tile = tiles[0]

	darken := 0.0
	for _, t := range tiles {
		m, err := s.rules.Plan(RuleFortification, RuleContext{Ledger: s.ledger, Coord: t, Player: p.Name, Turn: s.turn})
		if err != nil {
			return err
		}
		if err := s.ledger.Apply(m); err != nil {
			return err
		}
		res.Cost += m.Cost
		darken = m.Darken
	}
	if darken > 0 {
		fr, err := Fill(s.raster, at, Darken(s.raster.Pixel(at), darken), s.opts.Tolerance, s.opts.MaxPixels)
		if err != nil {
			return err
		}
		res.Painted, res.Warning = fr.Painted, fr.Warning()
	}
	s.events.Add(s.turn, p.Name, CatFortify, "fortify", res.Tile.String(), len(tiles))
	return nil
}

// Undo restores the raster and ledger saved before the last action.
func (c *Controller) Undo() (Checkpoint, error) {
	s := c.s
	cp, err := s.history.Pop()
	if err != nil {
		return Checkpoint{}, err
	}
	s.raster, s.ledger = cp.Raster.Clone(), cp.Ledger.Clone()
	s.ledger.SetEnforced(s.opts.BudgetSource == BudgetComputed)
	s.events.Add(s.turn, s.selected, CatUndo, cp.Mode.String(), cp.Coord.String(), 0)
	s.log.Debug("undo", zap.Stringer("mode", cp.Mode), zap.Stringer("at", cp.Coord))
	return cp, nil
}

// AdvanceTurn closes the current turn: the turn counter moves on, a turn
// snapshot is captured, undo history is dropped and, with computed budgets,
// every player is rolled for and given a fresh budget.
func (c *Controller) AdvanceTurn(ctx context.Context) (TurnSnapshot, error) {
	s := c.s
	if s.raster == nil {
		return TurnSnapshot{}, ErrNoMapLoaded
	}
	var (
		alloc   map[string]Allocation
		results []RollResult
	)
	if s.opts.BudgetSource == BudgetComputed {
		var err error
		if alloc, results, err = c.rollAll(); err != nil {
			return TurnSnapshot{}, err
		}
	}

	s.turn++
	snap := s.captureTurn(ctx)
	s.history.Clear()

	if alloc != nil {
		if err := s.ledger.ResetTurnBudgets(alloc); err != nil {
			return snap, err
		}
		s.recordRolls(ctx, results)
	}
	s.events.Add(s.turn, "", CatTurn, "advance", fmt.Sprintf("turn %d", s.turn), s.turn)
	s.log.Info("turn advanced", zap.Int("turn", s.turn), zap.Stringer("budgets", s.opts.BudgetSource))
	return snap, nil
}

// RollForAllPlayers re-rolls every player's budget for the current turn.
func (c *Controller) RollForAllPlayers(ctx context.Context) ([]RollResult, error) {
	s := c.s
	if s.opts.BudgetSource != BudgetComputed {
		return nil, ErrExternalBudget
	}
	alloc, results, err := c.rollAll()
	if err != nil {
		return nil, err
	}
	if err := s.ledger.ResetTurnBudgets(alloc); err != nil {
		return nil, err
	}
	s.recordRolls(ctx, results)
	return results, nil
}

// AssignExternalBudget records an externally rolled (roll, tiles) pair for
// one player in the current turn.
func (c *Controller) AssignExternalBudget(ctx context.Context, player string, roll, tiles int) error {
	s := c.s
	p, ok := s.roster.Get(player)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, player)
	}
	if err := s.ledger.SetBudget(p.Name, TileBudget{Roll: roll, Total: tiles, Remaining: tiles}); err != nil {
		return err
	}
	s.recordRolls(ctx, []RollResult{{Player: p.Name, Roll: roll, Tiles: tiles}})
	return nil
}

func (c *Controller) rollAll() (map[string]Allocation, []RollResult, error) {
	s := c.s
	players := s.roster.Players()
	alloc := make(map[string]Allocation, len(players))
	results := make([]RollResult, 0, len(players))
	for _, p := range players {
		roll := s.opts.Roller.Roll()
		tiles, err := s.opts.Oracle.ComputeTiles(roll)
		if err != nil {
			return nil, nil, fmt.Errorf("compute tiles for %s (roll %d): %w", p.Name, roll, err)
		}
		if tiles < 0 {
			s.log.Warn("negative tile budget clamped", zap.String("player", p.Name), zap.Int("roll", roll), zap.Int("tiles", tiles))
			tiles = 0
		}
		alloc[p.Name] = Allocation{Roll: roll, Tiles: tiles}
		results = append(results, RollResult{Player: p.Name, Roll: roll, Tiles: tiles})
	}
	return alloc, results, nil
}

// recordRolls merges results into this turn's roll record and forwards them
// to the sink.
func (s *Session) recordRolls(ctx context.Context, results []RollResult) {
	if len(results) == 0 {
		return
	}
	if n := len(s.rolls); n == 0 || s.rolls[n-1].Turn != s.turn {
		s.rolls = append(s.rolls, RollRecord{Turn: s.turn})
	}
	rec := &s.rolls[len(s.rolls)-1]
	for _, r := range results {
		replaced := false
		for i := range rec.Results {
			if rec.Results[i].Player == r.Player {
				rec.Results[i], replaced = r, true
				break
			}
		}
		if !replaced {
			rec.Results = append(rec.Results, r)
		}
		s.events.Add(s.turn, r.Player, CatRoll, "roll", fmt.Sprintf("%d -> %d tiles", r.Roll, r.Tiles), r.Tiles)
	}
	if s.opts.Sink != nil {
		if err := s.opts.Sink.RecordRolls(ctx, s.ID, s.turn, results); err != nil {
			s.log.Warn("record rolls", zap.Int("turn", s.turn), zap.Error(err))
		}
	}
}

// captureTurn appends a snapshot of the current turn and forwards it to the
// sink. Sink failures are logged, never returned.
func (s *Session) captureTurn(ctx context.Context) TurnSnapshot {
	snap := TurnSnapshot{Turn: s.turn, Raster: s.raster.Clone(), Ledger: s.ledger.Clone()}
	s.turns = append(s.turns, snap)
	if s.opts.Sink != nil {
		if err := s.opts.Sink.RecordTurn(ctx, s.ID, snap); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("record turn", zap.Int("turn", snap.Turn), zap.Error(err))
		}
	}
	return snap
}
