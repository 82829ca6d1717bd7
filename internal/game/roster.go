package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"golang.org/x/text/cases"
)

// Player is one roster entry. Relations are always symmetric: if A lists B
// as an ally, B lists A.
type Player struct {
	Name    string
	Color   RGB
	Faction string // "" when the player has no faction

	allies mapset.Set[string]
	naps   mapset.Set[string]
}

func newPlayer(name string, c RGB, faction string) *Player {
	return &Player{
		Name:    name,
		Color:   c,
		Faction: faction,
		allies:  mapset.New[string](),
		naps:    mapset.New[string](),
	}
}

// Allies returns ally names sorted.
func (p *Player) Allies() []string { return sortedSet(p.allies) }

// NAPs returns non-aggression pact partners sorted.
func (p *Player) NAPs() []string { return sortedSet(p.naps) }

// IsAlly reports whether other is an ally.
func (p *Player) IsAlly(other string) bool { return p.allies.Has(other) }

// HasNAP reports whether a non-aggression pact with other exists.
func (p *Player) HasNAP(other string) bool { return p.naps.Has(other) }

func sortedSet(s mapset.Set[string]) []string {
	out := make([]string, 0, s.Size())
	s.Each(func(n string) { out = append(out, n) })
	sort.Strings(out)
	return out
}

// Relation selects the alliance or NAP relation set.
type Relation int

const (
	RelationAlly Relation = iota
	RelationNAP
)

func (r Relation) String() string {
	if r == RelationNAP {
		return "nap"
	}
	return "ally"
}

func (p *Player) set(r Relation) mapset.Set[string] {
	if r == RelationNAP {
		return p.naps
	}
	return p.allies
}

// Roster holds the players of a session in insertion order. Names are unique
// under Unicode case folding.
type Roster struct {
	players []*Player
	fold    cases.Caser
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{fold: cases.Fold()}
}

func (r *Roster) key(name string) string {
	return r.fold.String(name)
}

func (r *Roster) find(name string) int {
	k := r.key(strings.TrimSpace(name))
	for i, p := range r.players {
		if r.key(p.Name) == k {
			return i
		}
	}
	return -1
}

// Get finds a player by case-insensitive name.
func (r *Roster) Get(name string) (*Player, bool) {
	i := r.find(name)
	if i < 0 {
		return nil, false
	}
	return r.players[i], true
}

// Players returns the roster in insertion order.
func (r *Roster) Players() []*Player {
	return append([]*Player(nil), r.players...)
}

// Names returns player names in insertion order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.players))
	for i, p := range r.players {
		out[i] = p.Name
	}
	return out
}

// Len returns the number of players.
func (r *Roster) Len() int { return len(r.players) }

// validate trims and checks a name. exclude is the current name when editing.
func (r *Roster) validate(name, faction, exclude string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrInvalidPlayerName
	}
	if i := r.find(name); i >= 0 && (exclude == "" || r.key(r.players[i].Name) != r.key(exclude)) {
		return "", "", fmt.Errorf("%w: %q", ErrDuplicatePlayer, name)
	}
	return name, strings.TrimSpace(faction), nil
}

// Add validates and appends a player.
func (r *Roster) Add(name string, c RGB, faction string) (*Player, error) {
	name, faction, err := r.validate(name, faction, "")
	if err != nil {
		return nil, err
	}
	p := newPlayer(name, c, faction)
	r.players = append(r.players, p)
	return p, nil
}

// Edit updates a player in place and renames it in every relation set.
// It returns the previous name.
func (r *Roster) Edit(current, name string, c RGB, faction string) (string, error) {
	i := r.find(current)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlayer, current)
	}
	p := r.players[i]
	name, faction, err := r.validate(name, faction, p.Name)
	if err != nil {
		return "", err
	}
	old := p.Name
	if old != name {
		for _, o := range r.players {
			for _, rel := range []Relation{RelationAlly, RelationNAP} {
				s := o.set(rel)
				if s.Has(old) {
					s.Remove(old)
					s.Put(name)
				}
			}
		}
	}
	p.Name, p.Color, p.Faction = name, c, faction
	return old, nil
}

// Remove deletes a player and strips it from every relation set.
func (r *Roster) Remove(name string) (*Player, error) {
	i := r.find(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
	}
	p := r.players[i]
	r.players = append(r.players[:i], r.players[i+1:]...)
	for _, o := range r.players {
		o.allies.Remove(p.Name)
		o.naps.Remove(p.Name)
	}
	return p, nil
}

func (r *Roster) pair(a, b string) (*Player, *Player, error) {
	pa, ok := r.Get(a)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, a)
	}
	pb, ok := r.Get(b)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, b)
	}
	if pa == pb {
		return nil, nil, fmt.Errorf("%w: %q", ErrSelfRelation, pa.Name)
	}
	return pa, pb, nil
}

// Relate records a symmetric relation. It returns false without error when
// the relation already exists.
func (r *Roster) Relate(rel Relation, a, b string) (bool, error) {
	pa, pb, err := r.pair(a, b)
	if err != nil {
		return false, err
	}
	if pa.set(rel).Has(pb.Name) {
		return false, nil
	}
	pa.set(rel).Put(pb.Name)
	pb.set(rel).Put(pa.Name)
	return true, nil
}

// Unrelate removes a symmetric relation. It returns false when there was
// nothing to remove.
func (r *Roster) Unrelate(rel Relation, a, b string) (bool, error) {
	pa, pb, err := r.pair(a, b)
	if err != nil {
		return false, err
	}
	if !pa.set(rel).Has(pb.Name) {
		return false, nil
	}
	pa.set(rel).Remove(pb.Name)
	pb.set(rel).Remove(pa.Name)
	return true, nil
}

// AddAlliance makes a and b allies.
func (r *Roster) AddAlliance(a, b string) (bool, error) { return r.Relate(RelationAlly, a, b) }

// RemoveAlliance ends an alliance.
func (r *Roster) RemoveAlliance(a, b string) (bool, error) { return r.Unrelate(RelationAlly, a, b) }

// AddNAP records a non-aggression pact.
func (r *Roster) AddNAP(a, b string) (bool, error) { return r.Relate(RelationNAP, a, b) }

// RemoveNAP ends a non-aggression pact.
func (r *Roster) RemoveNAP(a, b string) (bool, error) { return r.Unrelate(RelationNAP, a, b) }

// PlayerSpec is a player declared on a command line as "Name:#rrggbb" or
// "Name:#rrggbb:Faction".
type PlayerSpec struct {
	Name    string
	Color   RGB
	Faction string
}

// ParsePlayerSpecs parses a comma-separated list of player specs.
func ParsePlayerSpecs(s string) ([]PlayerSpec, error) {
	var out []PlayerSpec
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("player %q: want Name:#rrggbb", item)
		}
		c, err := ParseHexColor(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", item, err)
		}
		spec := PlayerSpec{Name: strings.TrimSpace(parts[0]), Color: c}
		if len(parts) == 3 {
			spec.Faction = strings.TrimSpace(parts[2])
		}
		out = append(out, spec)
	}
	return out, nil
}
