// Package archive keeps every turn of every session in SQLite so games can
// be replayed after the program exits. Store implements game.TurnSink.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Garsondee/mapclaim/internal/archive/migrations"
	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rasterio"
)

// ErrNotFound is returned when a session or turn has no archived row.
var ErrNotFound = errors.New("archive record not found")

// Store provides SQLite-backed turn history.
type Store struct {
	db *sql.DB
}

// TurnSummary describes one archived turn without its pixels.
type TurnSummary struct {
	Turn       int       `json:"turn"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	OwnedTiles int       `json:"owned_tiles"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordTurn implements game.TurnSink. Re-recording a turn replaces it.
func (s *Store) RecordTurn(ctx context.Context, sessionID string, snap game.TurnSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Raster == nil || snap.Ledger == nil {
		return fmt.Errorf("turn %d: snapshot is incomplete", snap.Turn)
	}
	var png bytes.Buffer
	if err := rasterio.EncodePNG(&png, snap.Raster); err != nil {
		return fmt.Errorf("encode turn %d: %w", snap.Turn, err)
	}
	ledger, err := json.Marshal(snap.Ledger.State())
	if err != nil {
		return fmt.Errorf("marshal turn %d ledger: %w", snap.Turn, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO turns (session_id, turn, width, height, owned_tiles, png, ledger_json, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, turn) DO UPDATE SET
    width = excluded.width,
    height = excluded.height,
    owned_tiles = excluded.owned_tiles,
    png = excluded.png,
    ledger_json = excluded.ledger_json,
    recorded_at = excluded.recorded_at`,
		sessionID, snap.Turn, snap.Raster.Width(), snap.Raster.Height(), snap.Ledger.Claimed(),
		png.Bytes(), string(ledger), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert turn %d: %w", snap.Turn, err)
	}
	return nil
}

// RecordRolls implements game.TurnSink. A player's later roll in the same
// turn replaces the earlier one.
func (s *Store) RecordRolls(ctx context.Context, sessionID string, turn int, results []game.RollResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rolls: %w", err)
	}
	now := time.Now().UTC().UnixMilli()
	for _, r := range results {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO rolls (session_id, turn, player, roll, tiles, recorded_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, turn, player) DO UPDATE SET
    roll = excluded.roll,
    tiles = excluded.tiles,
    recorded_at = excluded.recorded_at`,
			sessionID, turn, r.Player, r.Roll, r.Tiles, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert roll %s/%d: %w", r.Player, turn, err)
		}
	}
	return tx.Commit()
}

// Sessions lists archived session ids, most recently active first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id FROM turns GROUP BY session_id ORDER BY MAX(recorded_at) DESC, session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListTurns returns the session's turns in order.
func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]TurnSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT turn, width, height, owned_tiles, recorded_at FROM turns
WHERE session_id = ? ORDER BY turn`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()
	var out []TurnSummary
	for rows.Next() {
		var ts TurnSummary
		var at int64
		if err := rows.Scan(&ts.Turn, &ts.Width, &ts.Height, &ts.OwnedTiles, &at); err != nil {
			return nil, err
		}
		ts.RecordedAt = time.UnixMilli(at).UTC()
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// TurnPNG returns the stored PNG bytes of one turn.
func (s *Store) TurnPNG(ctx context.Context, sessionID string, turn int) ([]byte, error) {
	var png []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT png FROM turns WHERE session_id = ? AND turn = ?`, sessionID, turn,
	).Scan(&png)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load turn %d: %w", turn, err)
	}
	return png, nil
}

// TurnImage decodes one archived turn.
func (s *Store) TurnImage(ctx context.Context, sessionID string, turn int) (*game.Raster, error) {
	png, err := s.TurnPNG(ctx, sessionID, turn)
	if err != nil {
		return nil, err
	}
	r, _, err := rasterio.Decode(bytes.NewReader(png))
	return r, err
}

// TurnLedger returns the ownership recorded for one turn.
func (s *Store) TurnLedger(ctx context.Context, sessionID string, turn int) (game.LedgerState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT ledger_json FROM turns WHERE session_id = ? AND turn = ?`, sessionID, turn,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.LedgerState{}, ErrNotFound
	}
	if err != nil {
		return game.LedgerState{}, fmt.Errorf("load turn %d ledger: %w", turn, err)
	}
	var st game.LedgerState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return game.LedgerState{}, fmt.Errorf("decode turn %d ledger: %w", turn, err)
	}
	return st, nil
}

// Frames decodes every archived turn of a session, in order.
func (s *Store) Frames(ctx context.Context, sessionID string) ([]*game.Raster, error) {
	turns, err := s.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	frames := make([]*game.Raster, 0, len(turns))
	for _, t := range turns {
		r, err := s.TurnImage(ctx, sessionID, t.Turn)
		if err != nil {
			return nil, err
		}
		frames = append(frames, r)
	}
	return frames, nil
}

// Rolls returns the roll history of a session grouped by turn.
func (s *Store) Rolls(ctx context.Context, sessionID string) ([]game.RollRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT turn, player, roll, tiles FROM rolls
WHERE session_id = ? ORDER BY turn, player`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list rolls: %w", err)
	}
	defer rows.Close()
	var out []game.RollRecord
	for rows.Next() {
		var turn int
		var r game.RollResult
		if err := rows.Scan(&turn, &r.Player, &r.Roll, &r.Tiles); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].Turn != turn {
			out = append(out, game.RollRecord{Turn: turn})
		}
		out[len(out)-1].Results = append(out[len(out)-1].Results, r)
	}
	return out, rows.Err()
}
