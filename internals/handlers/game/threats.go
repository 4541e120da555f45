package game

type Tier int

const (
	TierImmediate Tier = iota // 3 held, 1 empty
	TierStrong                // 2 held, 2 empty
	TierWeak                  // 1 held, 3 empty
)

func (t Tier) String() string {
	switch t {
	case TierImmediate:
		return "immediate"
	case TierStrong:
		return "strong"
	case TierWeak:
		return "weak"
	}
	return "unknown"
}

// Threat is a line the player can still complete.
type Threat struct {
	Line  int   // index into WinningLines
	Tier  Tier
	Count int   // cells held by the player
	Empty []int // empty cells of the line, ascending
}

type ThreatAnalysis struct {
	Immediate int
	Strong    int
	Weak      int
	Threats   []Threat
}

// Live counts the lines that are one or two moves from completion.
func (a ThreatAnalysis) Live() int {
	return a.Immediate + a.Strong
}

// ImmediateGaps lists the empty cell of every immediate threat, in line order.
func (a ThreatAnalysis) ImmediateGaps() []int {
	var out []int
	for _, t := range a.Threats {
		if t.Tier == TierImmediate {
			out = append(out, t.Empty[0])
		}
	}
	return out
}

type lineCount struct {
	mine, theirs, empty int
}

func countLine(b *Board, l [toWin]int, p Cell) lineCount {
	var lc lineCount
	opp := p.Opponent()
	for _, idx := range l {
		switch b[idx] {
		case p:
			lc.mine++
		case opp:
			lc.theirs++
		default:
			lc.empty++
		}
	}
	return lc
}

// AnalyzeThreats classifies every line the opponent has not entered
func AnalyzeThreats(b Board, p Cell) ThreatAnalysis {
	var a ThreatAnalysis
	for li, l := range WinningLines {
		lc := countLine(&b, l, p)
		if lc.theirs > 0 {
			continue
		}
		var tier Tier
		switch lc.mine {
		case 3:
			tier = TierImmediate
			a.Immediate++
		case 2:
			tier = TierStrong
			a.Strong++
		case 1:
			tier = TierWeak
			a.Weak++
		default:
			continue
		}
		t := Threat{Line: li, Tier: tier, Count: lc.mine}
		for _, idx := range l {
			if b[idx] == Empty {
				t.Empty = append(t.Empty, idx)
			}
		}
		a.Threats = append(a.Threats, t)
	}
	return a
}
