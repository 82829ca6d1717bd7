package viewer

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/mapclaim/internal/game"
)

// keyBinding is an edge-triggered keyboard shortcut.
type keyBinding struct {
	key  ebiten.Key
	help string
	run  func(v *Viewer)
}

var keyBindings = []keyBinding{
	{ebiten.KeyM, "M  toggle claim/erase", (*Viewer).toggleMode},
	{ebiten.KeyF, "F  fortify mode", (*Viewer).fortifyMode},
	{ebiten.KeyT, "T  annotate (type text)", (*Viewer).beginAnnotation},
	{ebiten.KeyN, "N  next turn", (*Viewer).nextTurn},
	{ebiten.KeyU, "U  undo", (*Viewer).undo},
	{ebiten.KeyR, "R  roll for all players", (*Viewer).roll},
	{ebiten.KeyB, "B  switch rolled/external budgets", (*Viewer).toggleBudgetSource},
	{ebiten.KeyC, "C  copy standings", (*Viewer).copyReport},
	{ebiten.KeyE, "E  export map PNG", (*Viewer).exportPNG},
	{ebiten.KeyG, "G  export replay GIF", (*Viewer).exportGIF},
	{ebiten.KeyS, "S  save game", (*Viewer).save},
	{ebiten.KeyH, "H  toggle this help", func(v *Viewer) { v.showHelp = !v.showHelp }},
}

var playerKeys = [...]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// handleInput processes shortcuts, camera movement and map clicks.
func (v *Viewer) handleInput() {
	currentKeys := make(map[ebiten.Key]bool, len(keyBindings)+len(playerKeys))
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !v.prevKeys[k]
	}

	for _, b := range keyBindings {
		if pressed(b.key) {
			b.run(v)
		}
	}
	for i, k := range playerKeys {
		if pressed(k) {
			v.selectPlayer(i)
		}
	}

	// Camera: arrows pan, wheel and =/- zoom.
	const panSpeed = 8.0
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		v.cam.pan(0, -panSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		v.cam.pan(0, panSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		v.cam.pan(-panSpeed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		v.cam.pan(panSpeed, 0)
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		v.cam.zoomBy(math.Pow(1.12, wy))
	}
	if pressed(ebiten.KeyEqual) {
		v.cam.zoomBy(1.25)
	}
	if pressed(ebiten.KeyMinus) {
		v.cam.zoomBy(1 / 1.25)
	}
	if r := v.ctrl.Session().Raster(); r != nil {
		v.cam.clamp(r.Width(), r.Height())
	}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if left && !v.prevMouseLeft {
		v.clickMap(ebiten.CursorPosition())
	}
	v.prevMouseLeft = left
	v.prevKeys = currentKeys
}

// handleTyping collects annotation text until Enter or Escape.
func (v *Viewer) handleTyping() {
	v.typed = ebiten.AppendInputChars(v.typed)
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(v.typed) > 0 {
		v.typed = v.typed[:len(v.typed)-1]
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		v.typing = false
		v.setStatus("annotation cancelled")
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		v.typing = false
		v.ctrl.Session().SetAnnotation(string(v.typed))
		if err := v.ctrl.SetMode(game.ModeAnnotate); err != nil {
			v.setStatus("%v", err)
			return
		}
		v.setStatus("click to place %q", string(v.typed))
	}
	// Keys held while typing must not fire shortcuts afterwards.
	for k := range v.prevKeys {
		v.prevKeys[k] = true
	}
}
