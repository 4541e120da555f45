package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	Size  = 5
	Cells = Size * Size
	toWin = 4
)

type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// Human always plays X and moves first; the computer plays O.
const (
	Human    = X
	Computer = O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	}
	return ""
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

func (c Cell) valid() bool { return c <= O }

func (c Cell) playable() bool { return c == X || c == O }

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBoard, err)
	}
	v, err := ParseCell(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCell accepts "", "X" and "O" (case-insensitive, "_" and "." also mean empty).
func ParseCell(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "_", ".":
		return Empty, nil
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("%w: invalid cell %q", ErrMalformedBoard, s)
}

// Board holds the 25 cells in row-major order: row = i / Size, col = i % Size.
type Board [Cells]Cell

// NewBoard creates an empty board
func NewBoard() Board {
	return Board{}
}

// ParseBoard builds a board from exactly 25 cell strings
func ParseBoard(cells []string) (Board, error) {
	var b Board
	if len(cells) != Cells {
		return b, fmt.Errorf("%w: want %d cells, got %d", ErrMalformedBoard, Cells, len(cells))
	}
	for i, s := range cells {
		c, err := ParseCell(s)
		if err != nil {
			return Board{}, fmt.Errorf("cell %d: %w", i, err)
		}
		b[i] = c
	}
	return b, nil
}

// Validate rejects boards carrying cell values outside {Empty, X, O}
func Validate(b Board) error {
	for i, c := range b {
		if !c.valid() {
			return fmt.Errorf("%w: cell %d holds %d", ErrMalformedBoard, i, c)
		}
	}
	return nil
}

func (b Board) MarshalJSON() ([]byte, error) {
	out := make([]string, Cells)
	for i, c := range b {
		out[i] = c.String()
	}
	return json.Marshal(out)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var cells []string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBoard, err)
	}
	nb, err := ParseBoard(cells)
	if err != nil {
		return err
	}
	*b = nb
	return nil
}

// String renders the board as five lines with "_" for empty cells
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			v := b[r*Size+c]
			if v == Empty {
				sb.WriteByte('_')
			} else {
				sb.WriteString(v.String())
			}
		}
		if r < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Place puts p into the empty cell idx. The board is left untouched on error.
func Place(b *Board, idx int, p Cell) error {
	if idx < 0 || idx >= Cells {
		return ErrCellOutOfRange
	}
	if !p.playable() {
		return ErrInvalidPlayer
	}
	if b[idx] != Empty {
		return ErrCellOccupied
	}
	b[idx] = p
	return nil
}

// ShiftRow rotates the given row one cell to the right; the last cell wraps to the front.
func ShiftRow(b *Board, row int) error {
	if row < 0 || row >= Size {
		return ErrRowOutOfRange
	}
	if !RowHasPieces(*b, row) {
		return ErrRowEmpty
	}
	rotateRow(b, row)
	return nil
}

func rotateRow(b *Board, row int) {
	start := row * Size
	last := b[start+Size-1]
	copy(b[start+1:start+Size], b[start:start+Size-1])
	b[start] = last
}

// ApplyPlace returns a copy of b with p placed at idx
func ApplyPlace(b Board, idx int, p Cell) (Board, error) {
	nb := b
	if err := Place(&nb, idx, p); err != nil {
		return b, err
	}
	return nb, nil
}

// ApplyShift returns a copy of b with the row rotated
func ApplyShift(b Board, row int) (Board, error) {
	nb := b
	if err := ShiftRow(&nb, row); err != nil {
		return b, err
	}
	return nb, nil
}

// placed and shifted skip validation; callers only pass legal moves.
func placed(b Board, idx int, p Cell) Board {
	b[idx] = p
	return b
}

func shifted(b Board, row int) Board {
	rotateRow(&b, row)
	return b
}

// EmptyCells lists the empty indices in ascending order
func EmptyCells(b Board) []int {
	out := make([]int, 0, Cells)
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// IsFull returns whether no empty cell remains
func IsFull(b Board) bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// IsEmpty returns whether no piece has been placed
func IsEmpty(b Board) bool {
	for _, c := range b {
		if c != Empty {
			return false
		}
	}
	return true
}

// RowHasPieces reports whether any cell in the row is occupied
func RowHasPieces(b Board, row int) bool {
	start := row * Size
	for i := start; i < start+Size; i++ {
		if b[i] != Empty {
			return true
		}
	}
	return false
}

// OccupiedRows lists the rows that can be shifted
func OccupiedRows(b Board) []int {
	var rows []int
	for r := 0; r < Size; r++ {
		if RowHasPieces(b, r) {
			rows = append(rows, r)
		}
	}
	return rows
}
