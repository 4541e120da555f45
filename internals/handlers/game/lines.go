package game

// WinningLines holds every run of four consecutive cells: horizontal,
// vertical, then both diagonal directions. 28 in total.
var WinningLines = buildWinningLines()

// linesThrough[i] lists the indices into WinningLines that contain cell i.
var linesThrough = buildLinesThrough()

func buildWinningLines() [][toWin]int {
	var lines [][toWin]int
	add := func(r, c, dr, dc int) {
		var l [toWin]int
		for k := 0; k < toWin; k++ {
			l[k] = (r+k*dr)*Size + c + k*dc
		}
		lines = append(lines, l)
	}
	// horizontal
	for r := 0; r < Size; r++ {
		for c := 0; c <= Size-toWin; c++ {
			add(r, c, 0, 1)
		}
	}
	// vertical
	for c := 0; c < Size; c++ {
		for r := 0; r <= Size-toWin; r++ {
			add(r, c, 1, 0)
		}
	}
	// diagonal down-right
	for r := 0; r <= Size-toWin; r++ {
		for c := 0; c <= Size-toWin; c++ {
			add(r, c, 1, 1)
		}
	}
	// diagonal down-left
	for r := 0; r <= Size-toWin; r++ {
		for c := toWin - 1; c < Size; c++ {
			add(r, c, 1, -1)
		}
	}
	return lines
}

func buildLinesThrough() [Cells][]int {
	var out [Cells][]int
	for li, l := range WinningLines {
		for _, idx := range l {
			out[idx] = append(out[idx], li)
		}
	}
	return out
}

func lineComplete(b *Board, l [toWin]int, p Cell) bool {
	for _, idx := range l {
		if b[idx] != p {
			return false
		}
	}
	return true
}

// Winner scans the lines in order and returns the owner of the first complete one
func Winner(b Board) (Cell, bool) {
	for _, l := range WinningLines {
		p := b[l[0]]
		if p != Empty && lineComplete(&b, l, p) {
			return p, true
		}
	}
	return Empty, false
}

// HasWon reports whether p owns at least one complete line
func HasWon(b Board, p Cell) bool {
	if !p.playable() {
		return false
	}
	for _, l := range WinningLines {
		if lineComplete(&b, l, p) {
			return true
		}
	}
	return false
}

// WinnerFor resolves the rare board where a shift completes lines for both
// players: the player who just moved keeps the win.
func WinnerFor(b Board, mover Cell) (Cell, bool) {
	if HasWon(b, mover) {
		return mover, true
	}
	return Winner(b)
}

// WinsAt reports whether the piece at idx is part of a complete line
func WinsAt(b Board, idx int) bool {
	p := b[idx]
	if p == Empty {
		return false
	}
	for _, li := range linesThrough[idx] {
		if lineComplete(&b, WinningLines[li], p) {
			return true
		}
	}
	return false
}

// IsTie reports a full board without a complete line
func IsTie(b Board) bool {
	_, won := Winner(b)
	return !won && IsFull(b)
}
