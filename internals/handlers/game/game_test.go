package game

import (
	"context"
	"errors"
	"testing"
)

func TestNewSession(t *testing.T) {
	s := NewSession("abc", HumanVsComputer, Medium)
	if s.Active != Human || s.Over || s.SelectedRow != -1 || !IsEmpty(s.Board) {
		t.Fatalf("unexpected fresh session %+v", s)
	}
	if s.ComputerTurn() {
		t.Fatal("human moves first")
	}
}

func TestSessionPlaceTogglesTurn(t *testing.T) {
	s := NewSession("t", HumanVsComputer, Hard)
	if err := s.Place(12); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if s.Active != Computer || !s.ComputerTurn() {
		t.Fatalf("turn should pass to the computer, active=%v", s.Active)
	}
	if err := s.Place(12); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("want ErrCellOccupied, got %v", err)
	}
	if s.Active != Computer || len(s.Moves) != 1 {
		t.Fatal("rejected move must not change the session")
	}
}

func TestSessionWinEndsGame(t *testing.T) {
	s := NewSession("w", HumanVsHuman, Medium)
	for _, idx := range []int{0, 5, 1, 6, 2, 7} {
		if err := s.Place(idx); err != nil {
			t.Fatalf("Place(%d): %v", idx, err)
		}
	}
	if err := s.Place(3); err != nil {
		t.Fatalf("Place(3): %v", err)
	}
	if !s.Over || s.Winner != X || s.Tie() {
		t.Fatalf("X should have won: over=%v winner=%v", s.Over, s.Winner)
	}
	if err := s.Place(20); !errors.Is(err, ErrGameOver) {
		t.Fatalf("want ErrGameOver, got %v", err)
	}
	if err := s.Shift(0); !errors.Is(err, ErrGameOver) {
		t.Fatalf("want ErrGameOver, got %v", err)
	}
}

func TestSessionRowSelection(t *testing.T) {
	s := NewSession("r", HumanVsHuman, Medium)
	if err := s.ShiftSelected(); !errors.Is(err, ErrNoRowSelected) {
		t.Fatalf("want ErrNoRowSelected, got %v", err)
	}
	if err := s.SelectRow(1); !errors.Is(err, ErrRowEmpty) {
		t.Fatalf("want ErrRowEmpty, got %v", err)
	}
	if err := s.Place(9); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := s.SelectRow(1); err != nil {
		t.Fatalf("SelectRow: %v", err)
	}
	if err := s.ShiftSelected(); err != nil {
		t.Fatalf("ShiftSelected: %v", err)
	}
	if s.Board[5] != X || s.Board[9] != Empty {
		t.Fatalf("row 1 should wrap the X to the front:\n%s", s.Board)
	}
	if s.SelectedRow != -1 || s.Active != X {
		t.Fatalf("selection must clear and the turn pass back to X, active=%v", s.Active)
	}
}

func TestSessionShiftDoubleWinGoesToMover(t *testing.T) {
	s := NewSession("d", HumanVsHuman, Medium)
	s.Board = mustBoard(t,
		"XO___",
		"XO___",
		"XO___",
		"O___X",
		"_____",
	)
	s.Active = O
	if err := s.Shift(3); err != nil {
		t.Fatalf("Shift: %v", err)
	}
	if !s.Over || s.Winner != O {
		t.Fatalf("mover O should win, got over=%v winner=%v\n%s", s.Over, s.Winner, s.Board)
	}
}

func TestSessionRestartKeepsSettings(t *testing.T) {
	s := NewSession("k", HumanVsComputer, Easy)
	_ = s.Place(0)
	s.SetDifficulty(Hard)
	if s.Level != Hard || s.Mode != HumanVsComputer || !IsEmpty(s.Board) || s.Active != Human {
		t.Fatalf("SetDifficulty should restart with the new level: %+v", s)
	}
	_ = s.Place(0)
	s.SetMode(HumanVsHuman)
	if s.Mode != HumanVsHuman || !IsEmpty(s.Board) || s.ID != "k" {
		t.Fatalf("SetMode should restart: %+v", s)
	}
}

func TestSessionPlaysOutAgainstComputer(t *testing.T) {
	for _, level := range []Difficulty{Easy, Medium, Hard} {
		s := NewSession("p", HumanVsComputer, level)
		for ply := 0; ply < 120 && !s.Over; ply++ {
			if s.ComputerTurn() {
				d, err := BestMove(context.Background(), s.Board, Computer, s.Level)
				if err != nil {
					t.Fatalf("BestMove: %v", err)
				}
				if err := s.Apply(d); err != nil {
					t.Fatalf("%s: Apply(%v): %v\n%s", level, d, err, s.Board)
				}
				continue
			}
			if err := s.Apply(Fallback(s.Board)); err != nil {
				t.Fatalf("human fallback: %v", err)
			}
		}
	}
}
