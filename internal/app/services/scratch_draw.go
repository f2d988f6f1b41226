package services

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/models"
)

// probabilityScale is the number of decimal places a prize probability keeps.
// Weights are compared as integers after shifting by it.
const probabilityScale = 6

// drawPrize picks one prize from the eligible pool with probability
// proportional to its weight. A prize is eligible when it is not excluded,
// still below its inventory cap and carries a positive weight. Eligible prizes
// are laid out in (position, id) order and the first cumulative interval that
// contains draw(sum) wins. nil means the pool is empty and the ticket resolves
// to no prize.
//
// draw(n) must return a uniform value in [0, n).
func drawPrize(prizes []models.ScratchPrize, excluded map[uuid.UUID]bool, draw func(n int64) int64) *models.ScratchPrize {
	eligible := make([]*models.ScratchPrize, 0, len(prizes))
	for i := range prizes {
		prize := &prizes[i]
		if excluded[prize.ID] || !prize.Available() {
			continue
		}
		if prizeWeight(prize) <= 0 {
			continue
		}
		eligible = append(eligible, prize)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Position != eligible[j].Position {
			return eligible[i].Position < eligible[j].Position
		}
		return bytes.Compare(eligible[i].ID[:], eligible[j].ID[:]) < 0
	})

	var total int64
	for _, prize := range eligible {
		total += prizeWeight(prize)
	}
	if total == 0 {
		return nil
	}

	point := draw(total)
	for _, prize := range eligible {
		weight := prizeWeight(prize)
		if point < weight {
			return prize
		}
		point -= weight
	}
	return eligible[len(eligible)-1]
}

func prizeWeight(prize *models.ScratchPrize) int64 {
	return prize.Probability.Shift(probabilityScale).IntPart()
}
