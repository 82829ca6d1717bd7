package viewer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	panelBG     = color.RGBA{R: 10, G: 12, B: 14, A: 248}
	panelTitle  = color.RGBA{R: 24, G: 30, B: 36, A: 255}
	panelRule   = color.RGBA{R: 55, G: 70, B: 85, A: 255}
	selectedRow = color.RGBA{R: 36, G: 48, B: 60, A: 200}
)

func rectXYWH(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// drawPanel renders game state on the right of the map.
func (v *Viewer) drawPanel(screen *ebiten.Image, panelX int) {
	s := v.ctrl.Session()
	h := v.cfg.Height
	vector.DrawFilledRect(screen, float32(panelX), 0, panelWidth, float32(h), panelBG, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(h), 1, panelRule, false)
	vector.DrawFilledRect(screen, float32(panelX), 0, panelWidth, 18, panelTitle, false)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  turn %d", s.Name, s.Turn()), panelX+8, 2)

	y := 24
	line := func(format string, args ...any) {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf(format, args...), panelX+8, y)
		y += lineHeight
	}
	line("mode: %s   budgets: %s", s.Mode(), s.BudgetSource())
	line("zoom: %.2fx   undo: %d", v.cam.zoom, s.History().Len())
	y += 4

	for i, p := range s.Roster().Players() {
		if p.Name == s.Selected() {
			vector.DrawFilledRect(screen, float32(panelX+2), float32(y), panelWidth-4, lineHeight, selectedRow, false)
		}
		vector.DrawFilledRect(screen, float32(panelX+8), float32(y+3), 10, 10, p.Color.Opaque(), false)
		b := s.Ledger().Budget(p.Name)
		ebitenutil.DebugPrintAt(screen,
			fmt.Sprintf("%d %-12s %4d tiles  %d/%d", i+1, p.Name, s.Ledger().OwnedCount(p.Name), b.Remaining, b.Total),
			panelX+24, y)
		y += lineHeight
	}

	y += 4
	vector.StrokeLine(screen, float32(panelX), float32(y), float32(panelX+panelWidth), float32(y), 1, panelRule, false)
	y += 4

	if v.showHelp {
		for _, b := range keyBindings {
			line("%s", b.help)
		}
		line("1-9  select player")
		line("arrows/wheel  pan and zoom")
		return
	}

	events := s.Events().Recent(max(1, (h-y-2*lineHeight)/lineHeight))
	for _, e := range events {
		line("%s", e.String())
	}

	if v.typing {
		ebitenutil.DebugPrintAt(screen, "> "+string(v.typed)+"_", panelX+8, h-2*lineHeight)
	}
	ebitenutil.DebugPrintAt(screen, v.status, panelX+8, h-lineHeight)
}
