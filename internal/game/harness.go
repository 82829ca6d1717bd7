package game

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math/rand"
)

// Harness is a headless game builder used by tests and the headless report.
// It wraps a Session and Controller with deterministic seeding.
type Harness struct {
	Width   int
	Height  int
	Session *Session
	Ctrl    *Controller

	rng     *rand.Rand
	base    color.NRGBA
	mapgen  *MapGenConfig
	opts    Options
	players []harnessPlayer
	budgets []harnessBudget
}

type harnessPlayer struct {
	name    string
	color   RGB
	faction string
}

type harnessBudget struct {
	name  string
	tiles int
}

// harnessOptionKind controls the pass in which an option is applied.
type harnessOptionKind int

const (
	harnessOptInfra  harnessOptionKind = iota // map, seed, session options
	harnessOptPlayer                          // roster, after the map is imported
	harnessOptBudget                          // budgets, after players exist
)

// HarnessOption is a builder step applied during NewHarness.
type HarnessOption struct {
	kind harnessOptionKind
	fn   func(*Harness)
}

// WithMapSize sets the raster dimensions.
func WithMapSize(w, h int) HarnessOption {
	return HarnessOption{harnessOptInfra, func(hs *Harness) {
		hs.Width, hs.Height = w, h
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) HarnessOption {
	return HarnessOption{harnessOptInfra, func(hs *Harness) {
		hs.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- deterministic harness
	}}
}

// WithBaseColor fills the map with one colour instead of generated regions.
func WithBaseColor(c color.NRGBA) HarnessOption {
	return HarnessOption{harnessOptInfra, func(hs *Harness) {
		hs.base, hs.mapgen = c, nil
	}}
}

// WithRegions generates a Voronoi region map.
func WithRegions(cfg MapGenConfig) HarnessOption {
	return HarnessOption{harnessOptInfra, func(hs *Harness) {
		hs.mapgen = &cfg
	}}
}

// WithOptions edits the session options.
func WithOptions(edit func(*Options)) HarnessOption {
	return HarnessOption{harnessOptInfra, func(hs *Harness) {
		edit(&hs.opts)
	}}
}

// WithPlayer adds a player.
func WithPlayer(name string, c RGB) HarnessOption {
	return HarnessOption{harnessOptPlayer, func(hs *Harness) {
		hs.players = append(hs.players, harnessPlayer{name: name, color: c})
	}}
}

// WithFactionPlayer adds a player with a faction label.
func WithFactionPlayer(name string, c RGB, faction string) HarnessOption {
	return HarnessOption{harnessOptPlayer, func(hs *Harness) {
		hs.players = append(hs.players, harnessPlayer{name: name, color: c, faction: faction})
	}}
}

// WithBudget gives a player a starting budget.
func WithBudget(name string, tiles int) HarnessOption {
	return HarnessOption{harnessOptBudget, func(hs *Harness) {
		hs.budgets = append(hs.budgets, harnessBudget{name: name, tiles: tiles})
	}}
}

// NewHarness builds a session with a loaded map in ordered passes:
//  1. Infrastructure (map size, seed, options)
//  2. Session + map import
//  3. Players
//  4. Budgets
//
// It panics if the options describe an impossible setup.
func NewHarness(opts ...HarnessOption) *Harness {
	hs := &Harness{
		Width:  10,
		Height: 10,
		base:   color.NRGBA{R: 200, G: 200, B: 200, A: 255},
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- deterministic harness default
	}
	apply := func(kind harnessOptionKind) {
		for _, o := range opts {
			if o.kind == kind {
				o.fn(hs)
			}
		}
	}

	apply(harnessOptInfra)
	s, err := NewSession(hs.opts)
	if err != nil {
		panic(fmt.Sprintf("harness session: %v", err))
	}
	hs.Session = s
	hs.Ctrl = NewController(s)

	var r *Raster
	if hs.mapgen != nil {
		r = GenerateRegionMap(hs.Width, hs.Height, hs.rng, *hs.mapgen)
	} else {
		r = NewRaster(hs.Width, hs.Height, hs.base)
	}
	if err := hs.Ctrl.ImportMap(context.Background(), r); err != nil {
		panic(fmt.Sprintf("harness import: %v", err))
	}

	apply(harnessOptPlayer)
	for _, p := range hs.players {
		if _, err := s.AddPlayer(p.name, p.color, p.faction); err != nil {
			panic(fmt.Sprintf("harness player %q: %v", p.name, err))
		}
	}

	apply(harnessOptBudget)
	for _, b := range hs.budgets {
		if err := s.Ledger().SetBudget(b.name, TileBudget{Total: b.tiles, Remaining: b.tiles}); err != nil {
			panic(fmt.Sprintf("harness budget %q: %v", b.name, err))
		}
	}
	return hs
}

// RNG returns the harness random source.
func (hs *Harness) RNG() *rand.Rand { return hs.rng }

// Act selects player, switches to mode and clicks at (x,y).
func (hs *Harness) Act(mode Mode, player string, x, y int) (ClickResult, error) {
	if err := hs.Ctrl.SelectPlayer(player); err != nil {
		return ClickResult{}, err
	}
	if err := hs.Ctrl.SetMode(mode); err != nil {
		return ClickResult{}, err
	}
	return hs.Ctrl.Click(Coord{X: x, Y: y})
}

// ClaimAt claims the region at (x,y) for player.
func (hs *Harness) ClaimAt(player string, x, y int) (ClickResult, error) {
	return hs.Act(ModeClaim, player, x, y)
}

// EraseAt erases the region at (x,y).
func (hs *Harness) EraseAt(x, y int) (ClickResult, error) {
	return hs.Act(ModeErase, hs.Session.Selected(), x, y)
}

// FortifyAt fortifies player's region at (x,y).
func (hs *Harness) FortifyAt(player string, x, y int) (ClickResult, error) {
	return hs.Act(ModeFortify, player, x, y)
}

// randomCoord picks a pixel that is not border ink.
func (hs *Harness) randomCoord() Coord {
	r := hs.Session.Raster()
	for tries := 0; tries < 64; tries++ {
		c := Coord{X: hs.rng.Intn(r.Width()), Y: hs.rng.Intn(r.Height())}
		if r.Pixel(c) != borderInk {
			return c
		}
	}
	return Coord{X: hs.rng.Intn(r.Width()), Y: hs.rng.Intn(r.Height())}
}

// PlayTurn lets every player spend its budget on random claims (at most
// maxClicks each), occasionally fortifying, then advances the turn.
// Expected rejections (no budget, not owner) are skipped.
func (hs *Harness) PlayTurn(ctx context.Context, maxClicks int) (TurnSnapshot, error) {
	s := hs.Session
	for _, p := range s.Roster().Players() {
		for i := 0; i < maxClicks; i++ {
			if s.Ledger().Enforced() && s.Ledger().Remaining(p.Name) <= 0 {
				break
			}
			at := hs.randomCoord()
			mode := ModeClaim
			if owner, ok := s.Ledger().Owner(hs.Ctrl.resolveTile(at)); ok && owner == p.Name && hs.rng.Intn(4) == 0 {
				mode = ModeFortify
			}
			_, err := hs.Act(mode, p.Name, at.X, at.Y)
			if err != nil && !expectedRejection(err) {
				return TurnSnapshot{}, err
			}
		}
	}
	return hs.Ctrl.AdvanceTurn(ctx)
}

// RunTurns plays n turns.
func (hs *Harness) RunTurns(ctx context.Context, n, maxClicks int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := hs.PlayTurn(ctx, maxClicks); err != nil {
			return fmt.Errorf("turn %d: %w", hs.Session.Turn()+1, err)
		}
	}
	return nil
}

func expectedRejection(err error) bool {
	return errors.Is(err, ErrInsufficientBudget) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrNotOwned) ||
		errors.Is(err, ErrAlreadyFortified)
}
