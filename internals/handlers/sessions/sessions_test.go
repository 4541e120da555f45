package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"Tic-Tac-Shift/internals/handlers/game"
	"Tic-Tac-Shift/internals/models"
	"Tic-Tac-Shift/internals/storage"

	"github.com/gorilla/websocket"
)

// serverMessage is wide enough to decode every message the server sends.
type serverMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Board     game.Board  `json:"board"`
	Active    game.Cell   `json:"active"`
	Player    game.Cell   `json:"player"`
	Action    game.Action `json:"action"`
	Target    int         `json:"target"`
	Rule      string      `json:"rule"`
	NextTurn  game.Cell   `json:"next_turn"`
	Winner    game.Cell   `json:"winner"`
	Over      bool        `json:"over"`
	Tie       bool        `json:"tie"`
	Thinking  bool        `json:"thinking"`
	Message   string      `json:"message"`
}

type fakeRecorder struct {
	mu       sync.Mutex
	games    []models.GameRecord
	outcomes []storage.Outcome
}

func (f *fakeRecorder) SaveGame(rec models.GameRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games = append(f.games, rec)
	return nil
}

func (f *fakeRecorder) RecordOutcome(username string, o storage.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
	return nil
}

func testOptions() Options {
	return Options{
		DefaultMode:       game.HumanVsComputer,
		DefaultDifficulty: game.Medium,
		ThinkingDelay:     map[game.Difficulty]time.Duration{},
		DecisionTimeout:   3 * time.Second,
		ReconnectTimeout:  5 * time.Second,
		CacheSize:         8,
	}
}

func newTestServer(t *testing.T, m *Manager) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(m.HandleGame))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expect(t *testing.T, conn *websocket.Conn, kind string) serverMessage {
	t.Helper()
	msg := read(t, conn)
	if msg.Type != kind {
		t.Fatalf("want %s, got %+v", kind, msg)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func row(r int) *int { return &r }

func TestComputerAnswersHumanMove(t *testing.T) {
	m, err := NewManager(testOptions(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	conn := dial(t, newTestServer(t, m), "username=ada")

	start := expect(t, conn, MsgGameStart)
	if start.SessionID == "" || start.Active != game.Human || !game.IsEmpty(start.Board) {
		t.Fatalf("unexpected start %+v", start)
	}

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 12})
	mv := expect(t, conn, MsgMove)
	if mv.Player != game.X || mv.Target != 12 || mv.NextTurn != game.O {
		t.Fatalf("unexpected human move %+v", mv)
	}
	expect(t, conn, MsgCPUThinking)
	reply := expect(t, conn, MsgMove)
	if reply.Player != game.O || reply.Rule == "" || reply.NextTurn != game.X {
		t.Fatalf("unexpected computer move %+v", reply)
	}
	if n := game.Cells - len(game.EmptyCells(reply.Board)); n != 2 {
		t.Fatalf("want 2 pieces after one exchange, got %d\n%s", n, reply.Board)
	}
}

func TestHumanInputRejectedWhileThinking(t *testing.T) {
	m, _ := NewManager(testOptions(), nil)
	release := make(chan struct{})
	m.decide = func(ctx context.Context, b game.Board, me game.Cell, level game.Difficulty) (game.Decision, error) {
		<-release
		return game.Fallback(b), nil
	}
	conn := dial(t, newTestServer(t, m), "username=ada")
	expect(t, conn, MsgGameStart)

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 12})
	expect(t, conn, MsgMove)
	expect(t, conn, MsgCPUThinking)

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 0})
	if e := expect(t, conn, MsgError); !strings.Contains(e.Message, ErrComputerThinking.Error()) {
		t.Fatalf("unexpected error message %q", e.Message)
	}
	send(t, conn, ClientMessage{Type: MsgShift, Row: row(2)})
	expect(t, conn, MsgError)

	close(release)
	reply := expect(t, conn, MsgMove)
	if reply.Player != game.O || reply.Target != 0 {
		t.Fatalf("fallback should take cell 0, got %+v", reply)
	}
}

func TestWatchdogPlaysFallback(t *testing.T) {
	opts := testOptions()
	opts.DecisionTimeout = 30 * time.Millisecond
	m, _ := NewManager(opts, nil)
	release := make(chan struct{})
	defer close(release)
	m.decide = func(ctx context.Context, b game.Board, me game.Cell, level game.Difficulty) (game.Decision, error) {
		<-release
		return game.Decision{}, nil
	}
	conn := dial(t, newTestServer(t, m), "username=ada")
	expect(t, conn, MsgGameStart)

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 0})
	expect(t, conn, MsgMove)
	expect(t, conn, MsgCPUThinking)
	reply := expect(t, conn, MsgMove)
	if reply.Rule != game.RuleTimeout || reply.Action != game.ActionPlace || reply.Target != 1 {
		t.Fatalf("want timeout fallback at cell 1, got %+v", reply)
	}
}

func TestRestartDiscardsPendingDecision(t *testing.T) {
	m, _ := NewManager(testOptions(), nil)
	release := make(chan struct{})
	m.decide = func(ctx context.Context, b game.Board, me game.Cell, level game.Difficulty) (game.Decision, error) {
		<-release
		return game.Fallback(b), nil
	}
	conn := dial(t, newTestServer(t, m), "username=ada")
	expect(t, conn, MsgGameStart)

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 12})
	expect(t, conn, MsgMove)
	expect(t, conn, MsgCPUThinking)

	send(t, conn, ClientMessage{Type: MsgRestart})
	st := expect(t, conn, MsgState)
	if !game.IsEmpty(st.Board) || st.Thinking || st.Active != game.Human {
		t.Fatalf("restart should clear the board %+v", st)
	}
	close(release)

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 24})
	mv := expect(t, conn, MsgMove)
	if mv.Player != game.X || mv.Target != 24 {
		t.Fatalf("stale computer move leaked into the new game: %+v", mv)
	}
	expect(t, conn, MsgCPUThinking)
	reply := expect(t, conn, MsgMove)
	if reply.Player != game.O || reply.Board[12] != game.Empty {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestSettingsMessages(t *testing.T) {
	m, _ := NewManager(testOptions(), nil)
	conn := dial(t, newTestServer(t, m), "username=ada&mode=pvp&difficulty=easy")
	start := expect(t, conn, MsgGameStart)
	if start.Active != game.X {
		t.Fatalf("unexpected start %+v", start)
	}

	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 7})
	expect(t, conn, MsgMove)
	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 8})
	if mv := expect(t, conn, MsgMove); mv.Player != game.O {
		t.Fatalf("second player in pvp should be O: %+v", mv)
	}

	send(t, conn, ClientMessage{Type: MsgSelectRow, Row: row(1)})
	if st := expect(t, conn, MsgState); st.Active != game.X {
		t.Fatalf("selecting a row is not a move: %+v", st)
	}
	send(t, conn, ClientMessage{Type: MsgShift})
	mv := expect(t, conn, MsgMove)
	if mv.Action != game.ActionShift || mv.Target != 1 || mv.Board[5] != game.Empty || mv.Board[8] != game.X || mv.Board[9] != game.O {
		t.Fatalf("unexpected shift %+v\n%s", mv, mv.Board)
	}

	send(t, conn, ClientMessage{Type: MsgDifficulty, Difficulty: "nightmare"})
	expect(t, conn, MsgError)
	send(t, conn, ClientMessage{Type: MsgDifficulty, Difficulty: "hard"})
	if st := expect(t, conn, MsgState); !game.IsEmpty(st.Board) {
		t.Fatalf("difficulty change should restart: %+v", st)
	}
	send(t, conn, ClientMessage{Type: MsgMode, Mode: "pvc"})
	expect(t, conn, MsgState)
	send(t, conn, ClientMessage{Type: "DANCE"})
	expect(t, conn, MsgError)
}

func TestReconnectResumesGame(t *testing.T) {
	m, _ := NewManager(testOptions(), nil)
	srv := newTestServer(t, m)
	conn := dial(t, srv, "username=ada&mode=pvp")
	id := expect(t, conn, MsgGameStart).SessionID
	send(t, conn, ClientMessage{Type: MsgPlace, Cell: 12})
	expect(t, conn, MsgMove)
	conn.Close()

	again := dial(t, srv, "username=ada&session="+id)
	st := expect(t, again, MsgState)
	if st.SessionID != id || st.Board[12] != game.X || st.Active != game.O {
		t.Fatalf("reconnect should resume the game: %+v", st)
	}

	other := dial(t, srv, "username=eve&session="+id)
	if s := expect(t, other, MsgGameStart); s.SessionID == id {
		t.Fatal("another player must not take over the session")
	}
}

func TestDisconnectedSessionExpires(t *testing.T) {
	opts := testOptions()
	opts.ReconnectTimeout = 20 * time.Millisecond
	m, _ := NewManager(opts, nil)
	conn := dial(t, newTestServer(t, m), "username=ada")
	expect(t, conn, MsgGameStart)
	if m.Len() != 1 {
		t.Fatalf("want one live session, got %d", m.Len())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session should expire after the reconnect timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFinishedGameIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	m, _ := NewManager(testOptions(), rec)
	conn := dial(t, newTestServer(t, m), "username=ada&mode=pvp")
	expect(t, conn, MsgGameStart)

	for _, idx := range []int{0, 5, 1, 6, 2, 7, 3} {
		send(t, conn, ClientMessage{Type: MsgPlace, Cell: idx})
		expect(t, conn, MsgMove)
	}
	over := expect(t, conn, MsgGameOver)
	if over.Winner != game.X || over.Tie || !strings.Contains(over.Message, "X") {
		t.Fatalf("unexpected game over %+v", over)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.games) != 1 || rec.games[0].Winner != "X" || rec.games[0].Mode != "human-vs-human" || len(rec.games[0].Moves) != 7 {
		t.Fatalf("unexpected saved games %+v", rec.games)
	}
	if len(rec.outcomes) != 0 {
		t.Fatalf("pvp games must not touch the scoreboard: %v", rec.outcomes)
	}
}

func TestFinishScoresComputerGames(t *testing.T) {
	cases := []struct {
		winner game.Cell
		want   storage.Outcome
	}{
		{game.Human, storage.OutcomeWin},
		{game.Computer, storage.OutcomeLoss},
		{game.Empty, storage.OutcomeTie},
	}
	for _, tc := range cases {
		rec := &fakeRecorder{}
		m, _ := NewManager(testOptions(), rec)
		ls := &liveSession{id: "s", username: "ada", game: game.NewSession("s", game.HumanVsComputer, game.Medium)}
		ls.game.Over, ls.game.Winner = true, tc.winner
		m.finish(ls)
		if len(rec.outcomes) != 1 || rec.outcomes[0] != tc.want {
			t.Fatalf("winner %q: want outcome %v, got %v", tc.winner, tc.want, rec.outcomes)
		}
	}
}

func TestHandleGameRejectsBadQuery(t *testing.T) {
	m, _ := NewManager(testOptions(), nil)
	for _, q := range []string{"", "username=ada&difficulty=insane", "username=ada&mode=solo"} {
		rec := httptest.NewRecorder()
		m.HandleGame(rec, httptest.NewRequest(http.MethodGet, "/ws/game?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q: want 400, got %d", q, rec.Code)
		}
	}
}

func TestNewManagerValidatesOptions(t *testing.T) {
	opts := testOptions()
	opts.CacheSize = 0
	if _, err := NewManager(opts, nil); err == nil {
		t.Fatal("zero cache size should fail")
	}
	opts = testOptions()
	opts.DecisionTimeout = 0
	if _, err := NewManager(opts, nil); err == nil {
		t.Fatal("zero decision timeout should fail")
	}
}
