package sessions

import "Tic-Tac-Shift/internals/handlers/game"

// Client message types.
const (
	MsgPlace      = "PLACE"
	MsgSelectRow  = "SELECT_ROW"
	MsgShift      = "SHIFT"
	MsgRestart    = "RESTART"
	MsgMode       = "MODE"
	MsgDifficulty = "DIFFICULTY"
)

// Server message types.
const (
	MsgGameStart   = "GAME_START"
	MsgState       = "STATE"
	MsgMove        = "MOVE"
	MsgCPUThinking = "CPU_THINKING"
	MsgGameOver    = "GAME_OVER"
	MsgError       = "ERROR"
)

// ClientMessage is anything the browser sends. Row is a pointer so SHIFT
// without a row means "shift the selected row".
type ClientMessage struct {
	Type       string `json:"type"`
	Cell       int    `json:"cell"`
	Row        *int   `json:"row,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type StateMessage struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"session_id"`
	Board       game.Board      `json:"board"`
	Active      game.Cell       `json:"active"`
	Mode        game.Mode       `json:"mode"`
	Difficulty  game.Difficulty `json:"difficulty"`
	SelectedRow int             `json:"selected_row"`
	Over        bool            `json:"over"`
	Winner      game.Cell       `json:"winner"`
	Thinking    bool            `json:"thinking"`
}

type MoveMessage struct {
	Type     string      `json:"type"`
	Player   game.Cell   `json:"player"`
	Action   game.Action `json:"action"`
	Target   int         `json:"target"`
	Rule     string      `json:"rule,omitempty"`
	Board    game.Board  `json:"board"`
	NextTurn game.Cell   `json:"next_turn"`
}

type ThinkingMessage struct {
	Type       string          `json:"type"`
	Difficulty game.Difficulty `json:"difficulty"`
}

type GameOverMessage struct {
	Type    string     `json:"type"`
	Winner  game.Cell  `json:"winner"`
	Tie     bool       `json:"tie"`
	Message string     `json:"message"`
	Board   game.Board `json:"board"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
