package game

import (
	"errors"
	"fmt"
)

// Controller and ledger failures. Every error returned from a user action
// leaves the session untouched.
var (
	ErrNoMapLoaded        = errors.New("no map loaded")
	ErrNoPlayerSelected   = errors.New("no player selected")
	ErrInsufficientBudget = errors.New("insufficient tile budget")
	ErrInvalidCoordinate  = errors.New("coordinate outside raster")
	ErrUndoEmpty          = errors.New("no actions to undo")
	ErrInvalidColorFormat = errors.New("invalid color format")

	// ErrNoTilesLeft is the controller precheck; it is an ErrInsufficientBudget.
	ErrNoTilesLeft = fmt.Errorf("no tiles left: %w", ErrInsufficientBudget)

	ErrUnknownPlayer     = errors.New("unknown player")
	ErrDuplicatePlayer   = errors.New("player name already taken")
	ErrInvalidPlayerName = errors.New("player name cannot be empty")
	ErrSelfRelation      = errors.New("a player cannot ally with itself")
	ErrNotOwned          = errors.New("tile is not owned")
	ErrNotOwner          = errors.New("tile is owned by another player")
	ErrAlreadyFortified  = errors.New("tile is already fortified")
	ErrUnknownRule       = errors.New("unknown rule")
	ErrRuleInactive      = errors.New("rule is not active")
	ErrEmptyAnnotation   = errors.New("annotation text is empty")
	ErrUnknownMode       = errors.New("unknown mode")
	ErrExternalBudget    = errors.New("budgets are supplied externally")
)

// ErrFillCapReached is a warning: the fill stopped at its pixel cap and the
// region may be only partially painted. It is reported on results, never as
// the error return.
var ErrFillCapReached = errors.New("fill stopped at pixel cap; region may be incomplete")
