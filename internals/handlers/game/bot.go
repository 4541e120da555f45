package game

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

type Action int

const (
	ActionPlace Action = iota
	ActionShift
)

func (a Action) String() string {
	if a == ActionShift {
		return "shift"
	}
	return "place"
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "place":
		*a = ActionPlace
	case "shift":
		*a = ActionShift
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidMove, text)
	}
	return nil
}

// Decision is one computer action: a cell index for Place, a row for Shift.
// Score and Rule are diagnostics only.
type Decision struct {
	Action Action `json:"action"`
	Target int    `json:"target"`
	Score  int    `json:"score"`
	Rule   string `json:"rule"`
}

func (d Decision) String() string {
	return fmt.Sprintf("%s %d (rule=%s score=%d)", d.Action, d.Target, d.Rule, d.Score)
}

const (
	placementScanLimit = 15

	blockImmediateBonus = 500
	blockStrongBonus    = 100
	shiftStrongBonus    = 300

	// a best score under poorScore lets a shift add live threats
	poorScore = -50
	// under weakScore a shift that roughly keeps parity is still worth a look
	weakScore        = 20
	parityAllowance  = -5
	shiftTolerance   = 15
	randomMoveChance = 0.4
)

// Rule names reported in Decision.Rule.
const (
	RuleWin       = "win"
	RuleBlock     = "block"
	RuleShift     = "shift-tactic"
	RuleRandom    = "random"
	RuleHeuristic = "heuristic"
	RuleFallback  = "fallback"
	RuleTimeout   = "timeout"
)

type rule struct {
	name string
	pick func(*turn) (Decision, bool)
}

// policy is evaluated top to bottom; the first rule that returns a move wins.
var policy = []rule{
	{RuleWin, takeWin},
	{RuleBlock, blockThreat},
	{RuleShift, shiftTactic},
	{RuleRandom, randomMove},
	{RuleHeuristic, heuristicMove},
	{RuleFallback, fallbackMove},
}

type shiftOption struct {
	row     int
	board   Board
	threats ThreatAnalysis // opponent threats after the shift
	myWin   bool
	oppWin  bool
}

type turn struct {
	ctx        context.Context
	board      Board
	me, opp    Cell
	level      Difficulty
	rng        *rand.Rand
	empty      []int
	oppThreats ThreatAnalysis
	shifts     []shiftOption
	shiftsDone bool
}

func newTurn(ctx context.Context, b Board, me Cell, level Difficulty, rng *rand.Rand) *turn {
	return &turn{
		ctx:        ctx,
		board:      b,
		me:         me,
		opp:        me.Opponent(),
		level:      level,
		rng:        rng,
		empty:      EmptyCells(b),
		oppThreats: AnalyzeThreats(b, me.Opponent()),
	}
}

func (t *turn) shiftOptions() []shiftOption {
	if t.shiftsDone {
		return t.shifts
	}
	t.shiftsDone = true
	for _, row := range OccupiedRows(t.board) {
		nb := shifted(t.board, row)
		t.shifts = append(t.shifts, shiftOption{
			row:     row,
			board:   nb,
			threats: AnalyzeThreats(nb, t.opp),
			myWin:   HasWon(nb, t.me),
			oppWin:  HasWon(nb, t.opp),
		})
	}
	return t.shifts
}

// handsWin reports a shift that completes an opponent line on a board the
// opponent has not already won.
func (t *turn) handsWin(opt shiftOption) bool {
	return opt.oppWin && !opt.myWin && !HasWon(t.board, t.opp)
}

// BestMove picks the computer's action for me. Only a malformed board or an
// unplayable mark is an error; a context that expires mid-decision yields the
// fallback action.
func BestMove(ctx context.Context, b Board, me Cell, level Difficulty) (Decision, error) {
	seed := boardSeed(b)
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), seed))
	return bestMove(ctx, b, me, level, rng)
}

func bestMove(ctx context.Context, b Board, me Cell, level Difficulty, rng *rand.Rand) (Decision, error) {
	if err := Validate(b); err != nil {
		return Decision{}, err
	}
	if !me.playable() {
		return Decision{}, ErrInvalidPlayer
	}
	if !level.valid() {
		return Decision{}, fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(level))
	}
	t := newTurn(ctx, b, me, level, rng)
	for _, r := range policy {
		if ctx.Err() != nil {
			break
		}
		d, ok := r.pick(t)
		if ctx.Err() != nil {
			break
		}
		if ok {
			d.Rule = r.name
			return d, nil
		}
	}
	d := Fallback(b)
	d.Rule = RuleTimeout
	return d, nil
}

func takeWin(t *turn) (Decision, bool) {
	for _, idx := range t.empty {
		if WinsAt(placed(t.board, idx, t.me), idx) {
			return Decision{Action: ActionPlace, Target: idx, Score: winScore}, true
		}
	}
	return Decision{}, false
}

// blockThreat fills the gap of the first open three the opponent holds. Every
// cell where the opponent would complete a line is such a gap, and a gap is
// always empty, so the rules below only ever see an opponent without an open
// three.
func blockThreat(t *turn) (Decision, bool) {
	for _, gap := range t.oppThreats.ImmediateGaps() {
		if t.board[gap] == Empty {
			return Decision{Action: ActionPlace, Target: gap, Score: winScore - 1}, true
		}
	}
	return Decision{}, false
}

// shiftTactic looks for a shift that wins outright or takes the opponent's
// evaluation from at least liveThreeThreshold to below it.
func shiftTactic(t *turn) (Decision, bool) {
	if len(t.empty) == Cells {
		return Decision{}, false
	}
	oppEval := Evaluate(t.board, t.opp)
	for _, opt := range t.shiftOptions() {
		if opt.myWin {
			return Decision{Action: ActionShift, Target: opt.row, Score: winScore}, true
		}
		if t.handsWin(opt) {
			continue
		}
		if opt.threats.Immediate > t.oppThreats.Immediate {
			continue
		}
		shiftedEval := Evaluate(opt.board, t.opp)
		if oppEval >= liveThreeThreshold && shiftedEval < liveThreeThreshold {
			return Decision{Action: ActionShift, Target: opt.row, Score: oppEval - shiftedEval}, true
		}
	}
	return Decision{}, false
}

func randomMove(t *turn) (Decision, bool) {
	if t.level != Easy || t.rng.Float64() >= randomMoveChance {
		return Decision{}, false
	}
	rows := OccupiedRows(t.board)
	var actions []Action
	if len(t.empty) > 0 {
		actions = append(actions, ActionPlace)
	}
	if len(rows) > 0 {
		actions = append(actions, ActionShift)
	}
	if len(actions) == 0 {
		return Decision{}, false
	}
	if actions[t.rng.IntN(len(actions))] == ActionPlace {
		return Decision{Action: ActionPlace, Target: t.empty[t.rng.IntN(len(t.empty))]}, true
	}
	return Decision{Action: ActionShift, Target: rows[t.rng.IntN(len(rows))]}, true
}

type candidate struct {
	d        Decision
	found    bool
	search   int
	searched bool
}

func (c *candidate) take(d Decision) {
	c.d, c.found, c.searched = d, true, false
}

// heuristicMove scores placements statically, breaks ties with the bounded
// search, then lets row shifts replace the best placement.
func heuristicMove(t *turn) (Decision, bool) {
	var best candidate
	t.scanPlacements(&best)
	t.rescanShifts(&best)
	return best.d, best.found
}

func (t *turn) scanPlacements(best *candidate) {
	limit := len(t.empty)
	if limit > placementScanLimit {
		limit = placementScanLimit
	}
	depth := t.level.SearchDepth()
	for _, idx := range t.empty[:limit] {
		if t.ctx.Err() != nil {
			return
		}
		score := Evaluate(placed(t.board, idx, t.me), t.me)
		after := AnalyzeThreats(placed(t.board, idx, t.opp), t.opp)
		if n := after.Immediate - t.oppThreats.Immediate; n > 0 {
			score += n * blockImmediateBonus
		}
		if n := after.Strong - t.oppThreats.Strong; n > 0 {
			score += n * blockStrongBonus
		}
		d := Decision{Action: ActionPlace, Target: idx, Score: score}
		switch {
		case !best.found || score > best.d.Score:
			best.take(d)
		case score == best.d.Score && best.d.Action == ActionPlace:
			if !best.searched {
				best.search = SearchPlacement(t.ctx, t.board, best.d.Target, t.me, depth)
				best.searched = true
			}
			if v := SearchPlacement(t.ctx, t.board, idx, t.me, depth); v > best.search {
				best.take(d)
				best.search, best.searched = v, true
			}
		}
	}
}

func (t *turn) rescanShifts(best *candidate) {
	if len(t.empty) == Cells {
		return
	}
	current := Evaluate(t.board, t.me)
	for _, opt := range t.shiftOptions() {
		if t.handsWin(opt) {
			continue
		}
		if opt.threats.Immediate > t.oppThreats.Immediate {
			continue
		}
		if opt.threats.Live() > t.oppThreats.Live() && (!best.found || best.d.Score > poorScore) {
			continue
		}
		score := Evaluate(opt.board, t.me)
		improvement := score - current
		d := Decision{Action: ActionShift, Target: opt.row, Score: score}

		if n := t.oppThreats.Strong - opt.threats.Strong; n > 0 {
			d.Score += n * shiftStrongBonus
			if !best.found || d.Score > best.d.Score {
				best.take(d)
			}
			continue
		}
		weak := !best.found || best.d.Score < weakScore
		if improvement > 0 || (weak && improvement >= parityAllowance) {
			if !best.found || score > best.d.Score || (improvement > 0 && score >= best.d.Score-shiftTolerance) {
				best.take(d)
			}
		}
	}
}

func fallbackMove(t *turn) (Decision, bool) {
	return Fallback(t.board), true
}

// Fallback always yields a legal action: the first empty cell, or on a full
// board a shift of a row chosen pseudo-randomly from the board contents.
func Fallback(b Board) Decision {
	for i, c := range b {
		if c == Empty {
			return Decision{Action: ActionPlace, Target: i, Rule: RuleFallback}
		}
	}
	rows := OccupiedRows(b)
	rng := rand.New(rand.NewPCG(boardSeed(b), 0))
	return Decision{Action: ActionShift, Target: rows[rng.IntN(len(rows))], Rule: RuleFallback}
}

func boardSeed(b Board) uint64 {
	h := fnv.New64a()
	for _, c := range b {
		h.Write([]byte{byte(c)})
	}
	return h.Sum64()
}
