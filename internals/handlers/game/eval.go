package game

// Line weights. The opponent's open three costs more than our own is worth,
// so the evaluator leans towards defence.
const (
	scoreFour  = 1000
	scoreThree = 100
	scoreTwo   = 10
	scoreOne   = 1

	penaltyFour  = 1000
	penaltyThree = 150
	penaltyTwo   = 15

	// liveThreeThreshold is the evaluator score at which a player holds at
	// least one open three.
	liveThreeThreshold = scoreThree
)

func scoreLine(lc lineCount) int {
	score := 0
	switch {
	case lc.mine == 4:
		score += scoreFour
	case lc.mine == 3 && lc.empty == 1:
		score += scoreThree
	case lc.mine == 2 && lc.empty == 2:
		score += scoreTwo
	case lc.mine == 1 && lc.empty == 3:
		score += scoreOne
	}
	switch {
	case lc.theirs == 4:
		score -= penaltyFour
	case lc.theirs == 3 && lc.empty == 1:
		score -= penaltyThree
	case lc.theirs == 2 && lc.empty == 2:
		score -= penaltyTwo
	}
	return score
}

// Evaluate scores the board from p's point of view
func Evaluate(b Board, p Cell) int {
	score := 0
	for _, l := range WinningLines {
		score += scoreLine(countLine(&b, l, p))
	}
	return score
}
