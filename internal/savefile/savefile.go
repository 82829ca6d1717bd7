// Package savefile reads and writes compressed game saves.
//
// A save is a JSON envelope compressed with LZ4 frames. Version 1 files
// carry the full session snapshot and the roll table in use.
package savefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rolltable"
)

const (
	FileType       = "mapclaim_save"
	CurrentVersion = 1
	Extension      = ".mapclaim"
)

var (
	ErrNotASave           = errors.New("not a mapclaim save file")
	ErrUnsupportedVersion = errors.New("unsupported save version")
)

// Envelope is the on-disk save document.
type Envelope struct {
	Type      string                `json:"type"`
	Version   int                   `json:"version"`
	Timestamp time.Time             `json:"timestamp"`
	Game      *game.SessionSnapshot `json:"game"`
	RollTable *rolltable.Table      `json:"roll_table,omitempty"`
}

// Encode compresses env into w.
func Encode(w io.Writer, env Envelope) error {
	if env.Game == nil {
		return fmt.Errorf("encode save: missing game")
	}
	env.Type = FileType
	env.Version = CurrentVersion
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}

	zw := lz4.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(env); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode save: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush save: %w", err)
	}
	return nil
}

// Decode reads and checks an envelope from r.
func Decode(r io.Reader) (*Envelope, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(r)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotASave, err)
	}
	var env Envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotASave, err)
	}
	if env.Type != FileType || env.Game == nil {
		return nil, ErrNotASave
	}
	if env.Version < 1 || env.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.RollTable != nil {
		if err := env.RollTable.Validate(); err != nil {
			return nil, fmt.Errorf("save roll table: %w", err)
		}
	}
	return &env, nil
}

// Save writes the session (and optional roll table) to path.
func Save(path string, s *game.Session, table *rolltable.Table) error {
	snap := s.Snapshot()
	f, err := os.Create(path) // #nosec G304 -- user-chosen save path
	if err != nil {
		return err
	}
	if err := Encode(f, Envelope{Game: &snap, RollTable: table}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads a save and rebuilds the session. When the save carries a
// roll table and opts has no oracle, the table becomes the oracle.
func Load(path string, opts game.Options) (*game.Session, *rolltable.Table, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	env, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	table := env.RollTable
	if table == nil {
		table = rolltable.DefaultTable()
	}
	if opts.Oracle == nil {
		opts.Oracle = table
	}
	s, err := game.RestoreSession(*env.Game, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, table, nil
}
