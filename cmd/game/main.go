package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/mapclaim/internal/archive"
	"github.com/Garsondee/mapclaim/internal/config"
	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rasterio"
	"github.com/Garsondee/mapclaim/internal/savefile"
	"github.com/Garsondee/mapclaim/internal/viewer"
)

func main() {
	var (
		mapPath  string
		players  string
		loadPath string
		savePath string
		export   string
		width    int
		height   int
	)
	flag.StringVar(&mapPath, "map", "", "map image to import (png, jpeg, gif, bmp, webp); empty generates one")
	flag.StringVar(&players, "players", "Red:#d83c3c,Blue:#3c5ad8", "comma-separated Name:#rrggbb[:Faction] list")
	flag.StringVar(&loadPath, "load", "", "saved game to resume")
	flag.StringVar(&savePath, "save", "", "where S writes the save file")
	flag.StringVar(&export, "export", ".", "directory for PNG/GIF exports")
	flag.IntVar(&width, "width", 960, "generated map width")
	flag.IntVar(&height, "height", 640, "generated map height")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	table, err := cfg.RollTable()
	if err != nil {
		logger.Fatal("roll table", zap.Error(err))
	}
	opts, err := cfg.GameOptions()
	if err != nil {
		logger.Fatal("options", zap.Error(err))
	}
	opts.Logger = logger
	if opts.Oracle, err = cfg.Oracle(table); err != nil {
		logger.Fatal("roll oracle", zap.Error(err))
	}
	if cfg.ArchivePath != "" {
		store, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			logger.Fatal("open archive", zap.Error(err))
		}
		defer store.Close()
		opts.Sink = store
	}

	ctx := context.Background()
	var s *game.Session
	if loadPath != "" {
		if s, table, err = savefile.Load(loadPath, opts); err != nil {
			logger.Fatal("load game", zap.Error(err))
		}
		if savePath == "" {
			savePath = loadPath
		}
	} else {
		if s, err = newGame(ctx, opts, mapPath, players, width, height, cfg.Seed); err != nil {
			logger.Fatal("new game", zap.Error(err))
		}
	}
	logger.Info("session ready", zap.String("session", s.ID), zap.String("name", s.Name), zap.Int("turn", s.Turn()))

	v := viewer.New(game.NewController(s), viewer.Config{
		SavePath:   savePath,
		ExportDir:  export,
		FrameDelay: cfg.FrameDelay(),
		Table:      table,
		Logger:     logger,
	})
	if err := v.Run(); err != nil {
		logger.Fatal("viewer", zap.Error(err))
	}
}

func newGame(ctx context.Context, opts game.Options, mapPath, players string, w, h int, seed int64) (*game.Session, error) {
	s, err := game.NewSession(opts)
	if err != nil {
		return nil, err
	}
	specs, err := game.ParsePlayerSpecs(players)
	if err != nil {
		return nil, err
	}
	for _, p := range specs {
		if _, err := s.AddPlayer(p.Name, p.Color, p.Faction); err != nil {
			return nil, err
		}
	}

	var r *game.Raster
	if mapPath != "" {
		if r, err = rasterio.Load(mapPath); err != nil {
			return nil, err
		}
	} else {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		r = game.GenerateRegionMap(w, h, rand.New(rand.NewSource(seed)), game.DefaultMapGenConfig) // #nosec G404 -- map layout only
	}
	ctrl := game.NewController(s)
	if err := ctrl.ImportMap(ctx, r); err != nil {
		return nil, err
	}
	if len(specs) > 0 {
		if err := ctrl.SelectPlayer(specs[0].Name); err != nil {
			return nil, err
		}
	}
	if _, err := ctrl.RollForAllPlayers(ctx); err != nil && !errors.Is(err, game.ErrExternalBudget) {
		return nil, err
	}
	return s, nil
}
