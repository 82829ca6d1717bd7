package savefile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rolltable"
)

func playedHarness(t *testing.T) *game.Harness {
	t.Helper()
	red, _ := game.ParseHexColor("#ff0000")
	blue, _ := game.ParseHexColor("#0000ff")
	hs := game.NewHarness(
		game.WithMapSize(40, 30),
		game.WithRegions(game.DefaultMapGenConfig),
		game.WithPlayer("Red", red),
		game.WithPlayer("Blue", blue),
		game.WithOptions(func(o *game.Options) {
			o.Oracle = rolltable.DefaultTable()
			o.Roller = rolltable.NewRoller(9)
		}),
	)
	if err := hs.RunTurns(context.Background(), 3, 6); err != nil {
		t.Fatalf("RunTurns: %v", err)
	}
	return hs
}

func TestSaveLoad_RestoresSession(t *testing.T) {
	hs := playedHarness(t)
	table := rolltable.DefaultTable()
	table.DefaultTiles = 4

	path := filepath.Join(t.TempDir(), "game"+Extension)
	if err := Save(path, hs.Session, table); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, gotTable, err := Load(path, game.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotTable.DefaultTiles != 4 {
		t.Fatalf("roll table not restored: %+v", gotTable)
	}
	if got.ID != hs.Session.ID || got.Turn() != hs.Session.Turn() {
		t.Fatalf("restored id/turn = %s/%d, want %s/%d", got.ID, got.Turn(), hs.Session.ID, hs.Session.Turn())
	}
	if !got.Raster().Equal(hs.Session.Raster()) {
		t.Fatal("raster differs after load")
	}
	if !got.Ledger().Equal(hs.Session.Ledger()) {
		t.Fatal("ledger differs after load")
	}
	if len(got.Turns()) != len(hs.Session.Turns()) {
		t.Fatalf("turn history = %d, want %d", len(got.Turns()), len(hs.Session.Turns()))
	}
}

func TestDecode_RejectsForeignData(t *testing.T) {
	if _, err := Decode(strings.NewReader("plain text")); !errors.Is(err, ErrNotASave) {
		t.Fatalf("plain text err = %v", err)
	}

	snap := game.SessionSnapshot{}
	var buf bytes.Buffer
	if err := Encode(&buf, Envelope{Game: &snap}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != FileType || env.Version != CurrentVersion || env.Timestamp.IsZero() {
		t.Fatalf("envelope header = %+v", env)
	}

	if err := Encode(&buf, Envelope{}); err == nil {
		t.Fatal("envelope without game encoded")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope"+Extension), game.Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}
