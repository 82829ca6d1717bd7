package game

import (
	"math/rand"
	"strings"
	"testing"
)

func TestStandings_RankedByTiles(t *testing.T) {
	hs := NewHarness(
		WithMapSize(30, 10),
		WithPlayer("Red", rgbRed),
		WithFactionPlayer("Blue", rgbBlue, "Sea"),
		WithBudget("Red", 1),
		WithBudget("Blue", 2),
	)
	r := hs.Session.Raster()
	for y := 0; y < 10; y++ {
		r.SetPixel(Coord{10, y}, black)
		r.SetPixel(Coord{20, y}, black)
	}
	_, _ = hs.ClaimAt("Red", 1, 1)
	_, _ = hs.ClaimAt("Blue", 15, 1)
	_, _ = hs.ClaimAt("Blue", 25, 1)

	rows := hs.Session.Standings()
	if rows[0].Player != "Blue" || rows[0].Tiles != 2 || rows[0].Remaining != 0 {
		t.Fatalf("leader = %+v", rows[0])
	}
	if rows[1].Player != "Red" || rows[1].Tiles != 1 {
		t.Fatalf("second = %+v", rows[1])
	}
	out := FormatStandings(hs.Session.Turn(), rows)
	if !strings.Contains(out, "Blue") || !strings.Contains(out, "Sea") {
		t.Fatalf("formatted standings missing rows:\n%s", out)
	}
}

func TestEventLog_RecordsActions(t *testing.T) {
	hs := NewHarness(WithPlayer("Red", rgbRed), WithPlayer("Blue", rgbBlue), WithBudget("Red", 1), WithBudget("Blue", 1))
	_, _ = hs.ClaimAt("Red", 0, 0)
	_, _ = hs.ClaimAt("Blue", 0, 0)
	ev := hs.Session.Events()
	if ev.Count(CatClaim, "claim") != 1 || ev.Count(CatClaim, "capture") != 1 {
		t.Fatalf("events:\n%s", ev.Format())
	}
	if !ev.HasEntry(CatClaim, "capture", "from Red") {
		t.Fatalf("capture detail missing:\n%s", ev.Format())
	}
	last, ok := ev.LastOf(CatClaim, "")
	if !ok || last.Player != "Blue" {
		t.Fatalf("last claim = %+v", last)
	}
	if got := len(ev.Recent(1)); got != 1 {
		t.Fatalf("Recent(1) returned %d", got)
	}
}

func TestGenerateRegionMap_DistinctRegions(t *testing.T) {
	r := GenerateRegionMap(60, 40, rand.New(rand.NewSource(4)), MapGenConfig{Regions: 8})
	colours := map[[3]uint8]bool{}
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			p := r.Pixel(Coord{x, y})
			if p == borderInk {
				continue
			}
			colours[[3]uint8{p.R, p.G, p.B}] = true
		}
	}
	if len(colours) < 2 || len(colours) > 8 {
		t.Fatalf("distinct region colours = %d", len(colours))
	}
	if countColor(r, borderInk) == 0 {
		t.Fatal("no borders drawn")
	}
}
