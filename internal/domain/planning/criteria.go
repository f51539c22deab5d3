// Package planning holds the two planning heuristics: the staged recipe
// selector used to generate meal plans and the ingredient aggregator used to
// build shopping lists. Both are pure over their inputs.
package planning

import (
	"errors"
	"fmt"
	"math"

	"github.com/foodtrack/api/internal/domain/recipe"
)

const (
	// OverFetchFactor bounds how many eligible candidates a stage reads per wanted recipe.
	OverFetchFactor = 5
	// DiversityFreePicks is how many recipes are accepted before diversity is enforced.
	DiversityFreePicks = 3
	// UnboundedTime stands in for "no time limit" in the diet-only stage.
	UnboundedTime = math.MaxInt32
)

// Stage names in relaxation order
const (
	StageStrict        = "strict"
	StageAnyDifficulty = "any-difficulty"
	StageExtendedTime  = "extended-time"
	StageDietOnly      = "diet-only"
	StageFallback      = "fallback"
)

var (
	ErrInvalidCount      = errors.New("desired recipe count must be positive")
	ErrInvalidDifficulty = errors.New("max difficulty must be EASY, MEDIUM or HARD")
	ErrInvalidMaxTime    = errors.New("max total time cannot be negative")
	ErrInvalidServings   = errors.New("servings must be positive")
	ErrNonFiniteQuantity = errors.New("aggregated quantity is not a finite number")
)

// Criteria is one eligibility filter
type Criteria struct {
	DietTypes     []recipe.DietType
	MaxDifficulty recipe.Difficulty
	MaxTotalTime  int
	Tools         []string
	StrictTools   bool
}

// Eligible reports whether r satisfies every constraint of c
func Eligible(r *recipe.Recipe, c Criteria) bool {
	if !r.HasDiet(c.DietTypes) {
		return false
	}
	if r.Difficulty().Rank() > c.MaxDifficulty.Rank() {
		return false
	}
	if r.TotalTime() > c.MaxTotalTime {
		return false
	}
	if !c.StrictTools || len(r.Tools()) == 0 {
		return true
	}
	return sharesTool(r.Tools(), c.Tools)
}

func sharesTool(required, available []string) bool {
	for _, need := range required {
		for _, have := range available {
			if need == have {
				return true
			}
		}
	}
	return false
}

// Request holds the caller's constraints for one selection
type Request struct {
	Count         int
	DietTypes     []recipe.DietType
	MaxDifficulty recipe.Difficulty
	MaxTotalTime  int
	Tools         []string
}

// Validate rejects requests no stage can serve
func (r Request) Validate() error {
	if r.Count <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, r.Count)
	}
	if !r.MaxDifficulty.IsValid() {
		return ErrInvalidDifficulty
	}
	if r.MaxTotalTime < 0 {
		return ErrInvalidMaxTime
	}
	return nil
}

// Stage is one step of the relaxation sequence
type Stage struct {
	Name     string
	Criteria Criteria
}

// Stages returns the relaxation sequence for req, strictest first. Each stage
// admits every recipe the previous one admitted.
func Stages(req Request) []Stage {
	strict := Criteria{
		DietTypes:     req.DietTypes,
		MaxDifficulty: req.MaxDifficulty,
		MaxTotalTime:  req.MaxTotalTime,
		Tools:         req.Tools,
		StrictTools:   true,
	}

	anyDifficulty := strict
	anyDifficulty.MaxDifficulty = recipe.DifficultyHard

	extendedTime := anyDifficulty
	extendedTime.MaxTotalTime = extendTime(req.MaxTotalTime)

	dietOnly := Criteria{
		DietTypes:     req.DietTypes,
		MaxDifficulty: recipe.DifficultyHard,
		MaxTotalTime:  max(UnboundedTime, extendedTime.MaxTotalTime),
	}

	return []Stage{
		{Name: StageStrict, Criteria: strict},
		{Name: StageAnyDifficulty, Criteria: anyDifficulty},
		{Name: StageExtendedTime, Criteria: extendedTime},
		{Name: StageDietOnly, Criteria: dietOnly},
	}
}

// OverFetchLimit is the candidate limit for a request of count recipes,
// saturating at math.MaxInt
func OverFetchLimit(count int) int {
	if count > math.MaxInt/OverFetchFactor {
		return math.MaxInt
	}
	return count * OverFetchFactor
}

// extendTime returns floor(minutes * 1.5) without overflowing
func extendTime(minutes int) int {
	if minutes > math.MaxInt/3 {
		return math.MaxInt
	}
	return minutes * 3 / 2
}
