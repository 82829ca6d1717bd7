package game

import (
	"fmt"
	"sort"
	"strings"
)

// Standing is one player's position at a point in the game.
type Standing struct {
	Player    string
	Faction   string
	Tiles     int
	Fortified int
	Roll      int
	Total     int
	Remaining int
	Allies    []string
	NAPs      []string
}

// Standings returns every roster player ranked by tiles held, then name.
func (s *Session) Standings() []Standing {
	players := s.roster.Players()
	out := make([]Standing, 0, len(players))
	for _, p := range players {
		b := s.ledger.Budget(p.Name)
		out = append(out, Standing{
			Player:    p.Name,
			Faction:   p.Faction,
			Tiles:     s.ledger.OwnedCount(p.Name),
			Fortified: s.ledger.FortifiedCount(p.Name),
			Roll:      b.Roll,
			Total:     b.Total,
			Remaining: b.Remaining,
			Allies:    p.Allies(),
			NAPs:      p.NAPs(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tiles != out[j].Tiles {
			return out[i].Tiles > out[j].Tiles
		}
		return out[i].Player < out[j].Player
	})
	return out
}

// FormatStandings renders standings as a fixed-width table.
func FormatStandings(turn int, rows []Standing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Standings at turn %d ---\n", turn)
	fmt.Fprintf(&sb, "%-3s %-14s %-10s %6s %5s %6s %6s %6s\n", "#", "player", "faction", "tiles", "fort", "roll", "total", "left")
	for i, r := range rows {
		faction := r.Faction
		if faction == "" {
			faction = "-"
		}
		fmt.Fprintf(&sb, "%-3d %-14s %-10s %6d %5d %6d %6d %6d\n",
			i+1, r.Player, faction, r.Tiles, r.Fortified, r.Roll, r.Total, r.Remaining)
		if len(r.Allies) > 0 || len(r.NAPs) > 0 {
			fmt.Fprintf(&sb, "    allies: [%s]  naps: [%s]\n", strings.Join(r.Allies, ", "), strings.Join(r.NAPs, ", "))
		}
	}
	return sb.String()
}

// FormatRolls renders the roll history, newest turn last.
func FormatRolls(records []RollRecord) string {
	var sb strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&sb, "Turn %d:\n", rec.Turn)
		for _, r := range rec.Results {
			fmt.Fprintf(&sb, "  %-14s roll %5d -> %d tiles\n", r.Player, r.Roll, r.Tiles)
		}
	}
	return sb.String()
}
