// Package replayhttp serves archived games over HTTP: turn lists, per-turn
// PNGs and animated GIF replays.
package replayhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Garsondee/mapclaim/internal/archive"
	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rasterio"
)

// Archive is the read side of the turn archive.
type Archive interface {
	Sessions(ctx context.Context) ([]string, error)
	ListTurns(ctx context.Context, sessionID string) ([]archive.TurnSummary, error)
	TurnPNG(ctx context.Context, sessionID string, turn int) ([]byte, error)
	Frames(ctx context.Context, sessionID string) ([]*game.Raster, error)
	Rolls(ctx context.Context, sessionID string) ([]game.RollRecord, error)
}

type handler struct {
	store Archive
	log   *zap.Logger
}

// NewRouter returns the replay API.
func NewRouter(store Archive, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{store: store, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Get("/{id}/turns", h.listTurns)
		r.Get("/{id}/turns/{turn}.png", h.turnPNG)
		r.Get("/{id}/rolls", h.listRolls)
		r.Get("/{id}/replay.gif", h.replayGIF)
	})
	return r
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.Sessions(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (h *handler) listTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.store.ListTurns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, turns)
}

func (h *handler) listRolls(w http.ResponseWriter, r *http.Request) {
	rolls, err := h.store.Rolls(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if rolls == nil {
		rolls = []game.RollRecord{}
	}
	respondJSON(w, http.StatusOK, rolls)
}

func (h *handler) turnPNG(w http.ResponseWriter, r *http.Request) {
	turn, err := strconv.Atoi(chi.URLParam(r, "turn"))
	if err != nil || turn < 0 {
		respondError(w, http.StatusBadRequest, "invalid turn")
		return
	}
	png, err := h.store.TurnPNG(r.Context(), chi.URLParam(r, "id"), turn)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// replayGIF accepts ?delay=<ms>&scale=<factor>.
func (h *handler) replayGIF(w http.ResponseWriter, r *http.Request) {
	opts := rasterio.AnimationOptions{}
	if v := r.URL.Query().Get("delay"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			respondError(w, http.StatusBadRequest, "invalid delay")
			return
		}
		opts.Delay = time.Duration(ms) * time.Millisecond
	}
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 8 {
			respondError(w, http.StatusBadRequest, "invalid scale")
			return
		}
		opts.Scale = f
	}

	frames, err := h.store.Frames(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := rasterio.EncodeAnimation(&buf, frames, opts); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, archive.ErrNotFound) || errors.Is(err, rasterio.ErrNoFrames) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	h.log.Error("replay request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
