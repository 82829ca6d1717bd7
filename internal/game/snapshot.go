package game

import (
	"fmt"
)

// PlayerState is the serialized form of a Player.
type PlayerState struct {
	Name    string   `json:"name"`
	Color   [3]int   `json:"color"`
	Faction string   `json:"faction,omitempty"`
	Allies  []string `json:"allies"`
	NAPs    []string `json:"naps"`
}

// RasterState is raw NRGBA pixel data.
type RasterState struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pix    []byte `json:"pix"`
}

// TurnState is a serialized TurnSnapshot.
type TurnState struct {
	Turn   int         `json:"turn"`
	Raster RasterState `json:"raster"`
	Ledger LedgerState `json:"ledger"`
}

// RuleState records whether a rule is switched on.
type RuleState struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SessionSnapshot is everything needed to rebuild a Session. Undo history
// is not included.
type SessionSnapshot struct {
	ID           string        `json:"id"`
	Name         string        `json:"game_name"`
	Turn         int           `json:"current_turn"`
	Mode         string        `json:"mode"`
	Selected     string        `json:"selected,omitempty"`
	BudgetSource string        `json:"roll_mode"`
	Annotation   string        `json:"annotation,omitempty"`
	Raster       *RasterState  `json:"raster,omitempty"`
	Original     *RasterState  `json:"original,omitempty"`
	Ledger       LedgerState   `json:"ledger"`
	Players      []PlayerState `json:"players"`
	Turns        []TurnState   `json:"game_states"`
	Rolls        []RollRecord  `json:"all_roll_results"`
	Rules        []RuleState   `json:"rules"`
}

func rasterState(r *Raster) *RasterState {
	if r == nil {
		return nil
	}
	return &RasterState{Width: r.Width(), Height: r.Height(), Pix: r.Pix()}
}

func (rs *RasterState) raster() (*Raster, error) {
	if rs == nil {
		return nil, nil
	}
	return RasterFromPix(rs.Width, rs.Height, rs.Pix)
}

// Snapshot exports the session.
func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ID:           s.ID,
		Name:         s.Name,
		Turn:         s.turn,
		Mode:         s.mode.String(),
		Selected:     s.selected,
		BudgetSource: s.opts.BudgetSource.String(),
		Annotation:   s.note,
		Raster:       rasterState(s.raster),
		Original:     rasterState(s.original),
		Ledger:       s.ledger.State(),
		Rolls:        s.Rolls(),
	}
	for _, p := range s.roster.Players() {
		snap.Players = append(snap.Players, PlayerState{
			Name:    p.Name,
			Color:   [3]int{int(p.Color.R), int(p.Color.G), int(p.Color.B)},
			Faction: p.Faction,
			Allies:  p.Allies(),
			NAPs:    p.NAPs(),
		})
	}
	for _, t := range s.turns {
		snap.Turns = append(snap.Turns, TurnState{Turn: t.Turn, Raster: *rasterState(t.Raster), Ledger: t.Ledger.State()})
	}
	for _, name := range s.rules.Names() {
		snap.Rules = append(snap.Rules, RuleState{Name: name, Active: s.rules.IsActive(name)})
	}
	return snap
}

// RestoreSession rebuilds a session from a snapshot. The budget source in
// the snapshot overrides opts.
func RestoreSession(snap SessionSnapshot, opts Options) (*Session, error) {
	src, err := ParseBudgetSource(snap.BudgetSource)
	if err != nil {
		return nil, err
	}
	opts.BudgetSource = src
	if snap.Name != "" {
		opts.Name = snap.Name
	}
	s, err := NewSession(opts)
	if err != nil {
		return nil, err
	}
	if snap.ID != "" {
		s.ID = snap.ID
	}
	s.turn = snap.Turn
	s.note = snap.Annotation

	for _, ps := range snap.Players {
		c, err := NewRGB(ps.Color[0], ps.Color[1], ps.Color[2])
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", ps.Name, err)
		}
		if _, err := s.roster.Add(ps.Name, c, ps.Faction); err != nil {
			return nil, fmt.Errorf("restore roster: %w", err)
		}
	}
	for _, ps := range snap.Players {
		for _, a := range ps.Allies {
			if _, err := s.roster.AddAlliance(ps.Name, a); err != nil {
				return nil, fmt.Errorf("restore alliance %s/%s: %w", ps.Name, a, err)
			}
		}
		for _, n := range ps.NAPs {
			if _, err := s.roster.AddNAP(ps.Name, n); err != nil {
				return nil, fmt.Errorf("restore nap %s/%s: %w", ps.Name, n, err)
			}
		}
	}

	if s.raster, err = snap.Raster.raster(); err != nil {
		return nil, fmt.Errorf("restore raster: %w", err)
	}
	if s.original, err = snap.Original.raster(); err != nil {
		return nil, fmt.Errorf("restore original raster: %w", err)
	}
	if s.raster != nil && s.original == nil {
		s.original = s.raster.Clone()
	}
	if s.ledger, err = s.restoreLedger(snap.Ledger); err != nil {
		return nil, err
	}
	for _, ts := range snap.Turns {
		r, err := ts.Raster.raster()
		if err != nil {
			return nil, fmt.Errorf("restore turn %d: %w", ts.Turn, err)
		}
		l, err := s.restoreLedger(ts.Ledger)
		if err != nil {
			return nil, fmt.Errorf("restore turn %d: %w", ts.Turn, err)
		}
		s.turns = append(s.turns, TurnSnapshot{Turn: ts.Turn, Raster: r, Ledger: l})
	}
	for _, rec := range snap.Rolls {
		s.rolls = append(s.rolls, RollRecord{Turn: rec.Turn, Results: append([]RollResult(nil), rec.Results...)})
	}
	for _, rs := range snap.Rules {
		if err := s.rules.SetActive(rs.Name, rs.Active); err != nil {
			return nil, err
		}
	}
	if snap.Mode != "" {
		if s.mode, err = ParseMode(snap.Mode); err != nil {
			return nil, err
		}
	}
	if snap.Selected != "" {
		if p, ok := s.roster.Get(snap.Selected); ok {
			s.selected = p.Name
		}
	}
	return s, nil
}

func (s *Session) restoreLedger(st LedgerState) (*Ledger, error) {
	l, err := LedgerFromState(st)
	if err != nil {
		return nil, fmt.Errorf("restore ledger: %w", err)
	}
	l.SetEnforced(s.opts.BudgetSource == BudgetComputed)
	l.SetClaimCost(s.rules.ClaimCost(func() int { return s.turn }))
	return l, nil
}
