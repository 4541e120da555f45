package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"Tic-Tac-Shift/internals/handlers/game"
	"Tic-Tac-Shift/internals/models"
	"Tic-Tac-Shift/internals/storage"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
)

var (
	ErrComputerThinking = errors.New("computer is thinking")
	ErrUnknownMessage   = errors.New("unknown message type")
)

// Recorder persists finished games. *storage.Store satisfies it.
type Recorder interface {
	SaveGame(rec models.GameRecord) error
	RecordOutcome(username string, o storage.Outcome) error
}

type Options struct {
	DefaultMode       game.Mode
	DefaultDifficulty game.Difficulty
	ThinkingDelay     map[game.Difficulty]time.Duration
	DecisionTimeout   time.Duration
	ReconnectTimeout  time.Duration
	CacheSize         int
}

type decider func(ctx context.Context, b game.Board, me game.Cell, level game.Difficulty) (game.Decision, error)

// Manager owns every live game and the websocket connections attached to them.
type Manager struct {
	opts     Options
	rec      Recorder
	live     *lru.Cache
	upgrader websocket.Upgrader
	decide   decider
}

// liveSession is a game plus the connection currently watching it.
type liveSession struct {
	id       string
	username string

	mu           sync.Mutex // guards game, thinking, epoch, cancelExpiry
	game         *game.Session
	thinking     bool
	epoch        uint64
	cancelExpiry context.CancelFunc

	writeMu sync.Mutex // guards conn
	conn    *websocket.Conn
}

// NewManager builds a manager; rec may be nil to skip persistence
func NewManager(opts Options, rec Recorder) (*Manager, error) {
	if opts.CacheSize <= 0 {
		return nil, fmt.Errorf("session cache size must be positive, got %d", opts.CacheSize)
	}
	if opts.DecisionTimeout <= 0 {
		return nil, fmt.Errorf("decision timeout must be positive, got %v", opts.DecisionTimeout)
	}
	m := &Manager{
		opts:   opts,
		rec:    rec,
		decide: game.BestMove,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	cache, err := lru.NewWithEvict(opts.CacheSize, func(key, value interface{}) {
		ls := value.(*liveSession)
		ls.mu.Lock()
		if ls.cancelExpiry != nil {
			ls.cancelExpiry()
		}
		ls.mu.Unlock()
		log.Printf("Session %v evicted from cache", key)
	})
	if err != nil {
		return nil, fmt.Errorf("could not initialize LRU cache: %w", err)
	}
	m.live = cache
	return m, nil
}

// Len reports how many sessions can still be reattached
func (m *Manager) Len() int {
	return m.live.Len()
}

func (m *Manager) HandleGame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")
	if username == "" {
		http.Error(w, "Username required", http.StatusBadRequest)
		return
	}
	mode, level := m.opts.DefaultMode, m.opts.DefaultDifficulty
	var err error
	if v := q.Get("mode"); v != "" {
		if mode, err = game.ParseMode(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("difficulty"); v != "" {
		if level, err = game.ParseDifficulty(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	// --- RECONNECTION LOGIC ---
	if id := q.Get("session"); id != "" {
		if val, ok := m.live.Get(id); ok && val.(*liveSession).username == username {
			ls := val.(*liveSession)
			log.Printf("Player %s is reconnecting to game %s", username, ls.id)
			m.attach(ls, conn, MsgState)
			m.serve(ls, conn)
			return
		}
		log.Printf("Session %s for %s not found, starting a new game", id, username)
	}

	// --- NEW GAME LOGIC ---
	ls := &liveSession{
		id:       uuid.NewString(),
		username: username,
	}
	ls.game = game.NewSession(ls.id, mode, level)
	m.live.Add(ls.id, ls)
	log.Printf("Player %s started game %s (%s, %s)", username, ls.id, mode, level)
	m.attach(ls, conn, MsgGameStart)
	m.serve(ls, conn)
}

// attach makes conn the session's connection and sends it the full state.
func (m *Manager) attach(ls *liveSession, conn *websocket.Conn, kind string) {
	ls.writeMu.Lock()
	old := ls.conn
	ls.conn = conn
	ls.writeMu.Unlock()
	if old != nil && old != conn {
		old.Close()
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.cancelExpiry != nil {
		ls.cancelExpiry()
		ls.cancelExpiry = nil
	}
	ls.send(ls.state(kind))
}

// serve reads client messages until the connection drops.
func (m *Manager) serve(ls *liveSession, conn *websocket.Conn) {
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Player %s disconnected from game %s: %v", ls.username, ls.id, err)
			m.handleDisconnection(ls, conn)
			return
		}
		m.handleMessage(ls, msg)
	}
}

func (m *Manager) handleMessage(ls *liveSession, msg ClientMessage) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	g := ls.game

	var err error
	switch msg.Type {
	case MsgPlace:
		if err = ls.humanMayMove(); err == nil {
			player := g.Active
			if err = g.Place(msg.Cell); err == nil {
				m.afterMove(ls, player, game.Decision{Action: game.ActionPlace, Target: msg.Cell})
			}
		}
	case MsgSelectRow:
		if err = ls.humanMayMove(); err == nil {
			if msg.Row == nil {
				err = game.ErrRowOutOfRange
			} else if err = g.SelectRow(*msg.Row); err == nil {
				ls.send(ls.state(MsgState))
			}
		}
	case MsgShift:
		if err = ls.humanMayMove(); err == nil {
			player := g.Active
			row := g.SelectedRow
			if msg.Row != nil {
				row = *msg.Row
				err = g.Shift(row)
			} else {
				err = g.ShiftSelected()
			}
			if err == nil {
				m.afterMove(ls, player, game.Decision{Action: game.ActionShift, Target: row})
			}
		}
	case MsgRestart:
		g.Restart()
		ls.reset()
	case MsgMode:
		var mode game.Mode
		if mode, err = game.ParseMode(msg.Mode); err == nil {
			g.SetMode(mode)
			ls.reset()
		}
	case MsgDifficulty:
		var level game.Difficulty
		if level, err = game.ParseDifficulty(msg.Difficulty); err == nil {
			g.SetDifficulty(level)
			ls.reset()
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}

	if err != nil {
		log.Printf("Rejected %s from %s: %v", msg.Type, ls.username, err)
		ls.send(ErrorMessage{Type: MsgError, Message: err.Error()})
	}
}

// afterMove broadcasts a move that has been applied and decides what comes next.
// Caller holds ls.mu.
func (m *Manager) afterMove(ls *liveSession, player game.Cell, d game.Decision) {
	g := ls.game
	log.Printf("Game %s: %s played %s\n%s", ls.id, player, d, g.Board)
	ls.send(MoveMessage{
		Type:     MsgMove,
		Player:   player,
		Action:   d.Action,
		Target:   d.Target,
		Rule:     d.Rule,
		Board:    g.Board,
		NextTurn: g.Active,
	})
	if g.Over {
		m.finish(ls)
		return
	}
	if g.ComputerTurn() {
		m.startComputerTurn(ls)
	}
}

// startComputerTurn hands the board to a background decision. Caller holds ls.mu.
func (m *Manager) startComputerTurn(ls *liveSession) {
	ls.thinking = true
	ls.epoch++
	epoch, board, level := ls.epoch, ls.game.Board, ls.game.Level
	ls.send(ThinkingMessage{Type: MsgCPUThinking, Difficulty: level})
	go m.computerMove(ls, epoch, board, level)
}

func (m *Manager) computerMove(ls *liveSession, epoch uint64, board game.Board, level game.Difficulty) {
	if delay := m.opts.ThinkingDelay[level]; delay > 0 {
		time.Sleep(delay)
	}
	if !ls.current(epoch) {
		return
	}

	d := m.decideWithin(board, level)

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.epoch != epoch || !ls.thinking {
		log.Printf("Game %s: discarding stale decision %s", ls.id, d)
		return
	}
	ls.thinking = false
	if err := ls.game.Apply(d); err != nil {
		log.Printf("Game %s: decision %s rejected: %v", ls.id, d, err)
		d = game.Fallback(ls.game.Board)
		if err := ls.game.Apply(d); err != nil {
			log.Printf("Game %s: fallback %s rejected: %v", ls.id, d, err)
			return
		}
	}
	m.afterMove(ls, game.Computer, d)
}

// decideWithin runs the computer player under the decision watchdog. When the
// search overruns, the fallback move is played instead.
func (m *Manager) decideWithin(board game.Board, level game.Difficulty) game.Decision {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.DecisionTimeout)
	defer cancel()

	result := make(chan game.Decision, 1)
	go func() {
		d, err := m.decide(ctx, board, game.Computer, level)
		if err != nil {
			log.Printf("Decision failed: %v", err)
			d = game.Fallback(board)
		}
		result <- d
	}()

	select {
	case d := <-result:
		return d
	case <-ctx.Done():
		log.Printf("Decision exceeded %v, playing fallback", m.opts.DecisionTimeout)
		d := game.Fallback(board)
		d.Rule = game.RuleTimeout
		return d
	}
}

// finish announces the result and stores it. Caller holds ls.mu.
func (m *Manager) finish(ls *liveSession) {
	g := ls.game
	msg := GameOverMessage{
		Type:    MsgGameOver,
		Winner:  g.Winner,
		Tie:     g.Tie(),
		Message: resultMessage(g),
		Board:   g.Board,
	}
	log.Printf("Game %s ended: %s", ls.id, msg.Message)
	ls.send(msg)

	if m.rec == nil {
		return
	}
	winner := "tie"
	if !g.Tie() {
		winner = g.Winner.String()
	}
	err := m.rec.SaveGame(models.GameRecord{
		Username:   ls.username,
		Mode:       g.Mode.String(),
		Difficulty: g.Level.String(),
		Winner:     winner,
		Moves:      g.Moves,
	})
	if err != nil {
		log.Printf("Error saving game %s: %v", ls.id, err)
	}
	if g.Mode != game.HumanVsComputer {
		return
	}
	outcome := storage.OutcomeTie
	switch g.Winner {
	case game.Human:
		outcome = storage.OutcomeWin
	case game.Computer:
		outcome = storage.OutcomeLoss
	}
	if err := m.rec.RecordOutcome(ls.username, outcome); err != nil {
		log.Printf("Error updating score for %s: %v", ls.username, err)
	}
}

func resultMessage(g *game.Session) string {
	switch {
	case g.Tie():
		return "It's a tie!"
	case g.Mode == game.HumanVsComputer && g.Winner == game.Computer:
		return "CPU won with 4 in a row!"
	default:
		return fmt.Sprintf("Player %s won with 4 in a row!", g.Winner)
	}
}

// handleDisconnection keeps the game around for ReconnectTimeout so the
// player can come back to it with ?session=.
func (m *Manager) handleDisconnection(ls *liveSession, conn *websocket.Conn) {
	ls.writeMu.Lock()
	if ls.conn != conn {
		// a newer connection already took over
		ls.writeMu.Unlock()
		return
	}
	ls.conn = nil
	ls.writeMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	ls.mu.Lock()
	if ls.cancelExpiry != nil {
		ls.cancelExpiry()
	}
	ls.cancelExpiry = cancel
	ls.mu.Unlock()

	log.Printf("Game %s kept for %v waiting for %s", ls.id, m.opts.ReconnectTimeout, ls.username)

	go func() {
		timer := time.NewTimer(m.opts.ReconnectTimeout)
		defer timer.Stop()

		select {
		case <-timer.C:
			m.live.Remove(ls.id)
			log.Printf("Reconnection timeout for %s, game %s dropped", ls.username, ls.id)
		case <-ctx.Done():
			log.Printf("Timer cancelled for game %s", ls.id)
		}
	}()
}

func (ls *liveSession) humanMayMove() error {
	switch {
	case ls.game.Over:
		return game.ErrGameOver
	case ls.thinking:
		return ErrComputerThinking
	case ls.game.ComputerTurn():
		return game.ErrNotYourTurn
	}
	return nil
}

// reset invalidates any pending computer decision and resends the board.
// Caller holds ls.mu.
func (ls *liveSession) reset() {
	ls.thinking = false
	ls.epoch++
	ls.send(ls.state(MsgState))
}

func (ls *liveSession) current(epoch uint64) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.epoch == epoch && ls.thinking
}

func (ls *liveSession) state(kind string) StateMessage {
	g := ls.game
	return StateMessage{
		Type:        kind,
		SessionID:   ls.id,
		Board:       g.Board,
		Active:      g.Active,
		Mode:        g.Mode,
		Difficulty:  g.Level,
		SelectedRow: g.SelectedRow,
		Over:        g.Over,
		Winner:      g.Winner,
		Thinking:    ls.thinking,
	}
}

func (ls *liveSession) send(v any) {
	ls.writeMu.Lock()
	defer ls.writeMu.Unlock()
	if ls.conn == nil {
		return
	}
	if err := ls.conn.WriteJSON(v); err != nil {
		log.Printf("Write to %s failed: %v", ls.username, err)
	}
}
