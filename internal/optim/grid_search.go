package optim

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

// Objective scores one parameter set. Lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of parameter combinations.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every combination and returns the best one. Candidates
// whose objective fails are skipped; if all fail the last error is returned.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%d parameter names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	if g.Size() == 0 {
		return nil, 0, fmt.Errorf("empty search grid")
	}

	s := &search{best: math.Inf(1)}
	g.searchRecursive(ctx, 0, make(map[string]float64), objective, s)

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s.bestParams == nil {
		return nil, 0, fmt.Errorf("no candidate evaluated: %w", s.lastErr)
	}
	return s.bestParams, s.best, nil
}

type search struct {
	best       float64
	bestParams map[string]float64
	lastErr    error
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	s *search,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		val, err := objective(ctx, current)
		if err != nil {
			s.lastErr = err
			log.WithFields(log.Fields{"params": current, "error": err}).Debug("candidate skipped")
			return
		}

		log.WithFields(log.Fields{"params": current, "score": val}).Debug("candidate evaluated")
		if val < s.best {
			s.best = val
			s.bestParams = make(map[string]float64)
			for k, v := range current {
				s.bestParams[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, objective, s)
	}
}
