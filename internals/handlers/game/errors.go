package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMove    = errors.New("invalid move")
	ErrMalformedBoard = errors.New("malformed board")

	ErrCellOutOfRange = fmt.Errorf("%w: cell out of range", ErrInvalidMove)
	ErrCellOccupied   = fmt.Errorf("%w: cell occupied", ErrInvalidMove)
	ErrRowOutOfRange  = fmt.Errorf("%w: row out of range", ErrInvalidMove)
	ErrRowEmpty       = fmt.Errorf("%w: row has no pieces", ErrInvalidMove)
	ErrNoRowSelected  = fmt.Errorf("%w: no row selected", ErrInvalidMove)
	ErrInvalidPlayer  = fmt.Errorf("%w: invalid player", ErrInvalidMove)
	ErrNotYourTurn    = fmt.Errorf("%w: not your turn", ErrInvalidMove)
	ErrGameOver       = fmt.Errorf("%w: game over", ErrInvalidMove)
)
