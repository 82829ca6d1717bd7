package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Garsondee/mapclaim/internal/archive"
	"github.com/Garsondee/mapclaim/internal/config"
	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rasterio"
	"github.com/Garsondee/mapclaim/internal/rolltable"
)

const defaultPlayers = "Red:#d83c3c,Blue:#3c5ad8,Green:#3ca04a,Gold:#d8b43c"

type runStats struct {
	runIndex  int
	seed      int64
	sessionID string
	turns     int

	claims     int
	captures   int
	fortifies  int
	noops      int
	rolls      int
	totalTiles int
	claimed    int // ledger tiles held at the end
	pixels     int // map area

	standings []game.Standing
	leader    string
}

func main() {
	var (
		runs      int
		turns     int
		clicks    int
		width     int
		height    int
		regions   int
		seedBase  int64
		seedStep  int64
		players   string
		gifDir    string
		archiveDB string
	)
	flag.IntVar(&runs, "runs", 5, "number of headless games")
	flag.IntVar(&turns, "turns", 10, "turns per game")
	flag.IntVar(&clicks, "clicks", 8, "max clicks per player per turn")
	flag.IntVar(&width, "width", 160, "generated map width")
	flag.IntVar(&height, "height", 100, "generated map height")
	flag.IntVar(&regions, "regions", game.DefaultMapGenConfig.Regions, "regions on the generated map")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&players, "players", defaultPlayers, "comma-separated Name:#rrggbb[:Faction] list")
	flag.StringVar(&gifDir, "gif", "", "directory to write one replay GIF per run")
	flag.StringVar(&archiveDB, "archive", "", "SQLite archive to record every turn into")
	flag.Parse()

	if runs <= 0 || turns <= 0 || clicks <= 0 {
		fmt.Println("error: -runs, -turns and -clicks must be > 0")
		os.Exit(2)
	}
	specs, err := game.ParsePlayerSpecs(players)
	if err != nil || len(specs) == 0 {
		fmt.Printf("error: -players: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	table, err := cfg.RollTable()
	if err != nil {
		logger.Fatal("roll table", zap.Error(err))
	}
	oracle, err := cfg.Oracle(table)
	if err != nil {
		logger.Fatal("roll oracle", zap.Error(err))
	}

	var sink game.TurnSink
	if archiveDB != "" {
		store, err := archive.Open(archiveDB)
		if err != nil {
			logger.Fatal("open archive", zap.Error(err))
		}
		defer store.Close()
		sink = store
	}

	fmt.Printf("=== Headless Claim Report ===\n")
	fmt.Printf("runs=%d turns=%d clicks=%d map=%dx%d regions=%d seed_base=%d seed_step=%d\n\n",
		runs, turns, clicks, width, height, regions, seedBase, seedStep)

	ctx := context.Background()
	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		mapgen := game.DefaultMapGenConfig
		mapgen.Regions = regions
		hs := game.NewHarness(append(playerOptions(specs),
			game.WithMapSize(width, height),
			game.WithSeed(seed),
			game.WithRegions(mapgen),
			game.WithOptions(func(o *game.Options) {
				base, _ := cfg.GameOptions()
				*o = base
				o.Name = fmt.Sprintf("headless run %d", i+1)
				o.Logger = logger
				o.Oracle = oracle
				o.Roller = rolltable.NewRoller(seed)
				o.Sink = sink
			}),
		)...)
		if _, err := hs.Ctrl.RollForAllPlayers(ctx); err != nil && !errors.Is(err, game.ErrExternalBudget) {
			logger.Fatal("opening roll", zap.Error(err))
		}
		if err := hs.RunTurns(ctx, turns, clicks); err != nil {
			logger.Fatal("run failed", zap.Int("run", i+1), zap.Error(err))
		}
		stats := collect(i+1, seed, hs.Session)
		all = append(all, stats)
		printRun(stats)

		if gifDir != "" {
			path := filepath.Join(gifDir, fmt.Sprintf("run%02d_seed%d.gif", i+1, seed))
			if err := rasterio.SaveAnimation(path, hs.Session.Frames(), rasterio.AnimationOptions{Delay: cfg.FrameDelay()}); err != nil {
				logger.Error("write replay", zap.String("path", path), zap.Error(err))
			} else {
				fmt.Printf("replay: %s\n\n", path)
			}
		}
	}

	printAggregate(all)
}

func playerOptions(specs []game.PlayerSpec) []game.HarnessOption {
	opts := make([]game.HarnessOption, 0, len(specs))
	for _, s := range specs {
		opts = append(opts, game.WithFactionPlayer(s.Name, s.Color, s.Faction))
	}
	return opts
}

func collect(runIndex int, seed int64, s *game.Session) runStats {
	ev := s.Events()
	rs := runStats{
		runIndex:  runIndex,
		seed:      seed,
		sessionID: s.ID,
		turns:     s.Turn(),
		claims:    ev.Count(game.CatClaim, "claim"),
		captures:  ev.Count(game.CatClaim, "capture"),
		noops:     ev.Count(game.CatClaim, "noop"),
		fortifies: ev.Count(game.CatFortify, ""),
		claimed:   s.Ledger().Claimed(),
		standings: s.Standings(),
	}
	if r := s.Raster(); r != nil {
		rs.pixels = r.Width() * r.Height()
	}
	for _, rec := range s.Rolls() {
		for _, r := range rec.Results {
			rs.rolls++
			rs.totalTiles += r.Tiles
		}
	}
	rs.leader, _ = leader(rs.standings)
	return rs
}

// leader returns the sole player holding the most tiles. A tie, or nobody
// holding anything, has no leader.
func leader(rows []game.Standing) (string, bool) {
	if len(rows) == 0 || rows[0].Tiles == 0 {
		return "", false
	}
	if len(rows) > 1 && rows[1].Tiles == rows[0].Tiles {
		return "", false
	}
	return rows[0].Player, true
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d session=%s) ---\n", rs.runIndex, rs.seed, rs.sessionID)
	fmt.Printf("event_totals: claim=%d capture=%d fortify=%d noop=%d\n", rs.claims, rs.captures, rs.fortifies, rs.noops)
	fmt.Printf("rolls=%d tiles_rolled=%d avg_tiles_per_roll=%.2f\n", rs.rolls, rs.totalTiles, avg(rs.totalTiles, rs.rolls))
	fmt.Printf("tiles_held=%d leader=%s\n", rs.claimed, orDash(rs.leader))
	fmt.Print(game.FormatStandings(rs.turns, rs.standings))
	fmt.Println()
}

type playerAgg struct {
	tiles     int
	fortified int
	wins      int
	runs      int
}

func aggregate(all []runStats) map[string]*playerAgg {
	aggs := map[string]*playerAgg{}
	for _, rs := range all {
		for _, st := range rs.standings {
			ag, ok := aggs[st.Player]
			if !ok {
				ag = &playerAgg{}
				aggs[st.Player] = ag
			}
			ag.tiles += st.Tiles
			ag.fortified += st.Fortified
			ag.runs++
			if st.Player == rs.leader {
				ag.wins++
			}
		}
	}
	return aggs
}

func printAggregate(all []runStats) {
	totalClaims, totalCaptures, totalFortifies, ties := 0, 0, 0, 0
	for _, rs := range all {
		totalClaims += rs.claims
		totalCaptures += rs.captures
		totalFortifies += rs.fortifies
		if rs.leader == "" {
			ties++
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d undecided=%d\n", len(all), ties)
	fmt.Printf("avg_events_per_run: claim=%.1f capture=%.1f fortify=%.1f\n",
		avg(totalClaims, len(all)), avg(totalCaptures, len(all)), avg(totalFortifies, len(all)))

	aggs := aggregate(all)
	names := make([]string, 0, len(aggs))
	for name := range aggs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := aggs[names[i]], aggs[names[j]]
		if a.wins != b.wins {
			return a.wins > b.wins
		}
		return names[i] < names[j]
	})
	fmt.Println("\n--- Player Summary ---")
	for _, name := range names {
		ag := aggs[name]
		fmt.Printf("  %-14s wins=%d avg_tiles=%.1f avg_fortified=%.1f\n",
			name, ag.wins, avg(ag.tiles, ag.runs), avg(ag.fortified, ag.runs))
	}
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
