package game

import (
	"context"
	"math"
)

const (
	winScore = 1000
	negInf   = math.MinInt32
	posInf   = math.MaxInt32
)

func terminalScore(b *Board, me Cell, ply int) (bool, int) {
	if w, ok := Winner(*b); ok {
		if w == me {
			return true, winScore - ply
		}
		return true, -winScore + ply
	}
	if IsFull(*b) {
		return true, 0
	}
	return false, 0
}

// search is a depth-bounded minimax over placements with alpha-beta pruning.
// me maximises; ply counts half-moves from the root. A cancelled context
// turns every open node into a leaf.
func search(ctx context.Context, b Board, me Cell, ply, maxDepth int, maximizing bool, alpha, beta int) int {
	if term, sc := terminalScore(&b, me, ply); term {
		return sc
	}
	if ply >= maxDepth || ctx.Err() != nil {
		return Evaluate(b, me)
	}
	if maximizing {
		best := negInf
		for _, idx := range EmptyCells(b) {
			v := search(ctx, placed(b, idx, me), me, ply+1, maxDepth, false, alpha, beta)
			if v > best {
				best = v
			}
			if best > alpha {
				alpha = best
			}
			if beta <= alpha {
				break
			}
		}
		return best
	}
	best := posInf
	opp := me.Opponent()
	for _, idx := range EmptyCells(b) {
		v := search(ctx, placed(b, idx, opp), me, ply+1, maxDepth, true, alpha, beta)
		if v < best {
			best = v
		}
		if best < beta {
			beta = best
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

// SearchPlacement scores me placing at idx, looking maxDepth plies deep in total
func SearchPlacement(ctx context.Context, b Board, idx int, me Cell, maxDepth int) int {
	return search(ctx, placed(b, idx, me), me, 1, maxDepth, false, negInf, posInf)
}
