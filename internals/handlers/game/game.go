package game

import (
	"fmt"
	"time"
)

// Session is one game in progress. All mutation goes through its methods,
// which check the result and pass the turn after every legal move.
type Session struct {
	ID          string
	Board       Board
	Active      Cell
	Mode        Mode
	Level       Difficulty
	Over        bool
	Winner      Cell
	SelectedRow int // -1 when no row is selected
	Moves       []string
	StartTime   time.Time
}

func NewSession(id string, mode Mode, level Difficulty) *Session {
	return &Session{
		ID:          id,
		Board:       NewBoard(),
		Active:      Human,
		Mode:        mode,
		Level:       level,
		Winner:      Empty,
		SelectedRow: -1,
		Moves:       make([]string, 0),
		StartTime:   time.Now(),
	}
}

// Tie reports a finished game without a winner
func (s *Session) Tie() bool {
	return s.Over && s.Winner == Empty
}

// ComputerTurn reports whether the computer should move now
func (s *Session) ComputerTurn() bool {
	return s.Mode == HumanVsComputer && !s.Over && s.Active == Computer
}

// Place puts the active player's mark into cell idx
func (s *Session) Place(idx int) error {
	if s.Over {
		return ErrGameOver
	}
	if err := Place(&s.Board, idx, s.Active); err != nil {
		return err
	}
	s.Moves = append(s.Moves, fmt.Sprintf("P%d:%s", idx, s.Active))
	s.SelectedRow = -1
	s.settle()
	return nil
}

// SelectRow marks a row for a later ShiftSelected
func (s *Session) SelectRow(row int) error {
	if s.Over {
		return ErrGameOver
	}
	if row < 0 || row >= Size {
		return ErrRowOutOfRange
	}
	if !RowHasPieces(s.Board, row) {
		return ErrRowEmpty
	}
	s.SelectedRow = row
	return nil
}

// ShiftSelected shifts the row chosen with SelectRow
func (s *Session) ShiftSelected() error {
	if s.SelectedRow < 0 {
		return ErrNoRowSelected
	}
	return s.Shift(s.SelectedRow)
}

// Shift rotates a row as the active player's move
func (s *Session) Shift(row int) error {
	if s.Over {
		return ErrGameOver
	}
	if err := ShiftRow(&s.Board, row); err != nil {
		return err
	}
	s.Moves = append(s.Moves, fmt.Sprintf("S%d:%s", row, s.Active))
	s.SelectedRow = -1
	s.settle()
	return nil
}

// Apply performs a computer decision for the active player
func (s *Session) Apply(d Decision) error {
	switch d.Action {
	case ActionPlace:
		return s.Place(d.Target)
	case ActionShift:
		return s.Shift(d.Target)
	}
	return fmt.Errorf("%w: unknown action %d", ErrInvalidMove, d.Action)
}

// settle records a win or tie, otherwise passes the turn.
func (s *Session) settle() {
	if w, ok := WinnerFor(s.Board, s.Active); ok {
		s.Winner, s.Over = w, true
		return
	}
	if IsFull(s.Board) {
		s.Over = true
		return
	}
	if s.Active == X {
		s.Active = O
	} else {
		s.Active = X
	}
}

// Restart discards the board and keeps id, mode and difficulty
func (s *Session) Restart() {
	*s = *NewSession(s.ID, s.Mode, s.Level)
}

// SetMode switches mode and starts a fresh game
func (s *Session) SetMode(m Mode) {
	s.Mode = m
	s.Restart()
}

// SetDifficulty switches difficulty and starts a fresh game
func (s *Session) SetDifficulty(d Difficulty) {
	s.Level = d
	s.Restart()
}
