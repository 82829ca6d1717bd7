// Package viewer is the interactive map window: the map on the left with
// pan and zoom, a side panel with players, budgets and recent events.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rasterio"
	"github.com/Garsondee/mapclaim/internal/rolltable"
	"github.com/Garsondee/mapclaim/internal/savefile"
)

const (
	borderWidth = 16
	panelWidth  = 320
	lineHeight  = 16
)

// Config carries the viewer's file locations and export settings.
type Config struct {
	Width, Height int // window size
	SavePath      string
	ExportDir     string
	FrameDelay    time.Duration
	Table         *rolltable.Table
	Logger        *zap.Logger
}

// Viewer implements ebiten.Game.
type Viewer struct {
	ctrl *game.Controller
	cfg  Config
	log  *zap.Logger

	vpW, vpH int // map viewport
	mapImg   *ebiten.Image
	dirty    bool
	cam      camera

	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool
	typing        bool   // collecting annotation text
	typed         []rune // annotation being typed
	showHelp      bool
	status        string
}

// New builds a viewer over ctrl.
func New(ctrl *game.Controller, cfg Config) *Viewer {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 800
	}
	if cfg.FrameDelay <= 0 {
		cfg.FrameDelay = rasterio.DefaultFrameDelay
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	v := &Viewer{
		ctrl:     ctrl,
		cfg:      cfg,
		log:      cfg.Logger.Named("viewer"),
		vpW:      cfg.Width - panelWidth - 2*borderWidth,
		vpH:      cfg.Height - 2*borderWidth,
		dirty:    true,
		prevKeys: make(map[ebiten.Key]bool),
		status:   "H: help",
	}
	if r := ctrl.Session().Raster(); r != nil {
		v.cam = fit(r.Width(), r.Height(), v.vpW, v.vpH)
	}
	return v
}

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run() error {
	ebiten.SetWindowSize(v.cfg.Width, v.cfg.Height)
	ebiten.SetWindowTitle("mapclaim - " + v.ctrl.Session().Name)
	return ebiten.RunGame(v)
}

// Update handles one tick of input.
func (v *Viewer) Update() error {
	if v.typing {
		v.handleTyping()
	} else {
		v.handleInput()
	}
	return nil
}

// Layout keeps a fixed logical size.
func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.cfg.Width, v.cfg.Height
}

// Draw renders the map and the side panel.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 18, G: 18, B: 22, A: 255})
	if r := v.ctrl.Session().Raster(); r != nil {
		v.upload(r)
		var op ebiten.DrawImageOptions
		op.GeoM.Translate(-v.cam.x, -v.cam.y)
		op.GeoM.Scale(v.cam.zoom, v.cam.zoom)
		op.GeoM.Translate(float64(v.vpW)/2+borderWidth, float64(v.vpH)/2+borderWidth)
		viewport := screen.SubImage(rectXYWH(borderWidth, borderWidth, v.vpW, v.vpH)).(*ebiten.Image)
		viewport.DrawImage(v.mapImg, &op)
	}
	v.drawPanel(screen, borderWidth+v.vpW+borderWidth)
}

// upload copies the raster to the GPU texture when it changed.
func (v *Viewer) upload(r *game.Raster) {
	if v.mapImg == nil || v.mapImg.Bounds().Dx() != r.Width() || v.mapImg.Bounds().Dy() != r.Height() {
		if v.mapImg != nil {
			v.mapImg.Deallocate()
		}
		v.mapImg = ebiten.NewImage(r.Width(), r.Height())
		v.dirty = true
	}
	if v.dirty {
		v.mapImg.WritePixels(r.Pix())
		v.dirty = false
	}
}

// clickMap forwards a viewport click to the controller.
func (v *Viewer) clickMap(sx, sy int) {
	if sx < borderWidth || sy < borderWidth || sx >= borderWidth+v.vpW || sy >= borderWidth+v.vpH {
		return
	}
	mx, my := v.cam.screenToMap(float64(sx-borderWidth), float64(sy-borderWidth), v.vpW, v.vpH)
	res, err := v.ctrl.Click(game.Coord{X: int(math.Floor(mx)), Y: int(math.Floor(my))})
	if err != nil {
		v.setStatus("%s: %v", v.ctrl.Session().Mode(), err)
		return
	}
	if res.Ignored {
		return
	}
	v.dirty = true
	switch {
	case res.Warning != nil:
		v.setStatus("%v", res.Warning)
	case res.NoOp:
		v.setStatus("nothing to do at %v", res.Coord)
	default:
		v.setStatus("%s %v: %d px, cost %d", res.Mode, res.Tile, res.Painted, res.Cost)
	}
}

func (v *Viewer) setStatus(format string, args ...any) {
	v.status = fmt.Sprintf(format, args...)
	v.log.Debug("status", zap.String("msg", v.status))
}

func (v *Viewer) toggleMode() {
	v.setStatus("mode: %s", v.ctrl.ToggleMode())
}

func (v *Viewer) fortifyMode() {
	if err := v.ctrl.SetMode(game.ModeFortify); err != nil {
		v.setStatus("%v", err)
		return
	}
	v.setStatus("mode: fortify")
}

func (v *Viewer) beginAnnotation() {
	v.typing = true
	v.typed = []rune(v.ctrl.Session().Annotation())
	v.setStatus("type annotation, Enter to place, Esc to cancel")
}

func (v *Viewer) selectPlayer(i int) {
	players := v.ctrl.Session().Roster().Players()
	if i >= len(players) {
		return
	}
	if err := v.ctrl.SelectPlayer(players[i].Name); err != nil {
		v.setStatus("%v", err)
		return
	}
	v.setStatus("selected %s", players[i].Name)
}

func (v *Viewer) nextTurn() {
	snap, err := v.ctrl.AdvanceTurn(context.Background())
	if err != nil {
		v.setStatus("next turn: %v", err)
		return
	}
	v.dirty = true
	v.setStatus("turn %d", snap.Turn)
}

func (v *Viewer) undo() {
	cp, err := v.ctrl.Undo()
	if err != nil {
		v.setStatus("%v", err)
		return
	}
	v.dirty = true
	v.setStatus("undid %s at %v", cp.Mode, cp.Coord)
}

func (v *Viewer) roll() {
	results, err := v.ctrl.RollForAllPlayers(context.Background())
	if err != nil {
		v.setStatus("roll: %v", err)
		return
	}
	v.setStatus("rolled for %d players", len(results))
}

func (v *Viewer) toggleBudgetSource() {
	s := v.ctrl.Session()
	next := game.BudgetExternal
	if s.BudgetSource() == game.BudgetExternal {
		next = game.BudgetComputed
	}
	s.SetBudgetSource(next)
	v.setStatus("budgets: %s", next)
}

func (v *Viewer) copyReport() {
	s := v.ctrl.Session()
	text := game.FormatStandings(s.Turn(), s.Standings()) + "\n" + game.FormatRolls(s.Rolls())
	if err := clipboard.WriteAll(text); err != nil {
		v.setStatus("clipboard: %v", err)
		return
	}
	v.setStatus("standings copied")
}

func (v *Viewer) exportPNG() {
	s := v.ctrl.Session()
	path := filepath.Join(v.cfg.ExportDir, fmt.Sprintf("%s_turn%d.png", slug(s.Name), s.Turn()))
	if err := rasterio.Save(path, s.Raster()); err != nil {
		v.setStatus("export: %v", err)
		return
	}
	v.setStatus("saved %s", path)
}

func (v *Viewer) exportGIF() {
	s := v.ctrl.Session()
	path := filepath.Join(v.cfg.ExportDir, slug(s.Name)+"_replay.gif")
	if err := rasterio.SaveAnimation(path, s.Frames(), rasterio.AnimationOptions{Delay: v.cfg.FrameDelay}); err != nil {
		v.setStatus("export: %v", err)
		return
	}
	v.setStatus("saved %s", path)
}

func (v *Viewer) save() {
	path := v.cfg.SavePath
	if path == "" {
		path = filepath.Join(v.cfg.ExportDir, slug(v.ctrl.Session().Name)+savefile.Extension)
	}
	if err := savefile.Save(path, v.ctrl.Session(), v.cfg.Table); err != nil {
		v.setStatus("save: %v", err)
		return
	}
	v.setStatus("saved %s", path)
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, s)
	if s == "" {
		return "game"
	}
	return s
}
