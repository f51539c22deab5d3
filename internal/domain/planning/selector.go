package planning

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
)

// Catalog supplies candidate recipes to the selector
type Catalog interface {
	// FindEligible returns up to limit recipes satisfying c
	FindEligible(ctx context.Context, c Criteria, limit int) ([]*recipe.Recipe, error)
	// FindAny returns up to limit recipes ignoring every constraint
	FindAny(ctx context.Context, limit int) ([]*recipe.Recipe, error)
}

// FallbackPolicy decides what happens when no stage yields enough recipes
type FallbackPolicy string

const (
	// FallbackAnyRecipe fills the plan with arbitrary catalog recipes
	FallbackAnyRecipe FallbackPolicy = "any"
	// FallbackNone returns the diet-only stage result, possibly short
	FallbackNone FallbackPolicy = "none"
)

// ParseFallbackPolicy accepts "any" and "none"
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(s); p {
	case FallbackAnyRecipe, FallbackNone:
		return p, nil
	}
	return "", fmt.Errorf("unknown fallback policy %q", s)
}

// Result is the outcome of one selection
type Result struct {
	Recipes []*recipe.Recipe
	// Stage is the name of the stage that produced Recipes
	Stage string
	// Relaxed is true when the strict stage was not enough
	Relaxed bool
}

// Selector picks diverse recipes under staged constraint relaxation
type Selector struct {
	catalog  Catalog
	fallback FallbackPolicy

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Selector
type Option func(*Selector)

// WithRand injects the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		s.rng = rng
	}
}

// WithFallback sets the fallback policy
func WithFallback(policy FallbackPolicy) Option {
	return func(s *Selector) {
		s.fallback = policy
	}
}

// NewSelector creates a selector over catalog
func NewSelector(catalog Catalog, opts ...Option) *Selector {
	s := &Selector{
		catalog:  catalog,
		fallback: FallbackAnyRecipe,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>32|seed<<32))
	}
	return s
}

// Select runs the relaxation stages in order and returns the first stage
// result holding req.Count recipes.
func (s *Selector) Select(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	var best Result
	limit := OverFetchLimit(req.Count)
	for i, stage := range Stages(req) {
		candidates, err := s.catalog.FindEligible(ctx, stage.Criteria, limit)
		if err != nil {
			return Result{}, fmt.Errorf("stage %s: %w", stage.Name, err)
		}

		picked := pickDiverse(s.shuffle(candidates), req.Count)
		best = Result{Recipes: picked, Stage: stage.Name, Relaxed: i > 0}
		if len(picked) >= req.Count {
			return best, nil
		}
	}

	if s.fallback == FallbackNone {
		return best, nil
	}

	filler, err := s.catalog.FindAny(ctx, req.Count)
	if err != nil {
		return Result{}, fmt.Errorf("stage %s: %w", StageFallback, err)
	}
	return Result{Recipes: filler, Stage: StageFallback, Relaxed: true}, nil
}

// shuffle returns a uniformly permuted copy of recipes
func (s *Selector) shuffle(recipes []*recipe.Recipe) []*recipe.Recipe {
	shuffled := make([]*recipe.Recipe, len(recipes))
	copy(shuffled, recipes)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// diversity is the accumulator threaded through the greedy walk
type diversity struct {
	accepted         []*recipe.Recipe
	seenTags         map[string]struct{}
	seenDifficulties map[recipe.Difficulty]struct{}
}

func newDiversity(capacity int) diversity {
	return diversity{
		accepted:         make([]*recipe.Recipe, 0, capacity),
		seenTags:         make(map[string]struct{}),
		seenDifficulties: make(map[recipe.Difficulty]struct{}),
	}
}

// admit folds one candidate into the accumulator
func (d diversity) admit(r *recipe.Recipe) diversity {
	if len(d.accepted) >= DiversityFreePicks && !d.bringsNewTag(r) && !d.bringsNewDifficulty(r) {
		return d
	}

	d.accepted = append(d.accepted, r)
	for _, tag := range r.Tags() {
		d.seenTags[tag] = struct{}{}
	}
	d.seenDifficulties[r.Difficulty()] = struct{}{}
	return d
}

func (d diversity) bringsNewTag(r *recipe.Recipe) bool {
	for _, tag := range r.Tags() {
		if _, seen := d.seenTags[tag]; !seen {
			return true
		}
	}
	return false
}

func (d diversity) bringsNewDifficulty(r *recipe.Recipe) bool {
	_, seen := d.seenDifficulties[r.Difficulty()]
	return !seen
}

// pickDiverse walks candidates in order and keeps up to want recipes
func pickDiverse(candidates []*recipe.Recipe, want int) []*recipe.Recipe {
	acc := newDiversity(min(want, len(candidates)))
	for _, r := range candidates {
		if len(acc.accepted) >= want {
			break
		}
		acc = acc.admit(r)
	}
	return acc.accepted
}

// Select is the pure form of the selector over an in-memory pool
func Select(pool []*recipe.Recipe, req Request, rng *rand.Rand) ([]*recipe.Recipe, error) {
	result, err := NewSelector(Pool(pool), WithRand(rng)).Select(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return result.Recipes, nil
}

// Pool is a Catalog over a slice; candidates keep pool order
type Pool []*recipe.Recipe

// FindEligible implements Catalog
func (p Pool) FindEligible(_ context.Context, c Criteria, limit int) ([]*recipe.Recipe, error) {
	matches := make([]*recipe.Recipe, 0, min(limit, len(p)))
	for _, r := range p {
		if len(matches) >= limit {
			break
		}
		if Eligible(r, c) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}

// FindAny implements Catalog
func (p Pool) FindAny(_ context.Context, limit int) ([]*recipe.Recipe, error) {
	n := min(limit, len(p))
	out := make([]*recipe.Recipe, n)
	copy(out, p[:n])
	return out, nil
}
