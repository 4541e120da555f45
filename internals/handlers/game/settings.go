package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownMode       = errors.New("unknown game mode")
)

type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// SearchDepth is the minimax horizon in plies
func (d Difficulty) SearchDepth() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 2
	}
	return 3
}

func (d Difficulty) valid() bool { return d >= Easy && d <= Hard }

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

type Mode int

const (
	HumanVsHuman Mode = iota
	HumanVsComputer
)

// ParseMode accepts the long names and the short "pvp"/"pvc" forms
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pvp", "human-vs-human":
		return HumanVsHuman, nil
	case "pvc", "human-vs-computer":
		return HumanVsComputer, nil
	}
	return HumanVsHuman, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if m == HumanVsComputer {
		return "human-vs-computer"
	}
	return "human-vs-human"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
