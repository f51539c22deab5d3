package recipe

import (
	"fmt"

	"github.com/google/uuid"
)

// Difficulty is the ordered recipe complexity scale EASY < MEDIUM < HARD
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Difficulties lists every difficulty in rank order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Rank returns 1, 2 or 3 for EASY, MEDIUM and HARD; 0 for unknown values
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether d is a known difficulty
func (d Difficulty) IsValid() bool {
	return d.Rank() > 0
}

// AtMost returns the difficulties whose rank does not exceed d
func (d Difficulty) AtMost() []Difficulty {
	allowed := make([]Difficulty, 0, len(Difficulties))
	for _, candidate := range Difficulties {
		if candidate.Rank() <= d.Rank() {
			allowed = append(allowed, candidate)
		}
	}
	return allowed
}

// DietType is a diet a recipe satisfies
type DietType string

const (
	DietVegetarian  DietType = "VEGETARIAN"
	DietVegan       DietType = "VEGAN"
	DietPescatarian DietType = "PESCATARIAN"
)

// IsValid reports whether t is a known diet type
func (t DietType) IsValid() bool {
	switch t {
	case DietVegetarian, DietVegan, DietPescatarian:
		return true
	}
	return false
}

// Unit is a measurement unit for ingredient quantities
type Unit string

const (
	UnitGram       Unit = "G"
	UnitMilliliter Unit = "ML"
	UnitPiece      Unit = "PIECE"
	UnitTablespoon Unit = "TBSP"
	UnitTeaspoon   Unit = "TSP"
	UnitPinch      Unit = "PINCH"
	UnitClove      Unit = "CLOVE"
	UnitBunch      Unit = "BUNCH"
	UnitSlice      Unit = "SLICE"
)

// IsValid reports whether u is a known unit
func (u Unit) IsValid() bool {
	switch u {
	case UnitGram, UnitMilliliter, UnitPiece, UnitTablespoon, UnitTeaspoon,
		UnitPinch, UnitClove, UnitBunch, UnitSlice:
		return true
	}
	return false
}

// IngredientLine is one ingredient requirement of a recipe
type IngredientLine struct {
	IngredientID uuid.UUID
	Name         string
	Quantity     float64
	Unit         Unit
	Optional     bool
}

// Validate validates the ingredient line
func (l IngredientLine) Validate() error {
	if l.IngredientID == uuid.Nil {
		return ErrMissingIngredient
	}
	if l.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if !l.Unit.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, l.Unit)
	}
	return nil
}

// Step is one numbered preparation step
type Step struct {
	Number      int
	Instruction string
}

// Validate validates the step
func (s Step) Validate() error {
	if s.Number < 1 {
		return ErrInvalidStepNumber
	}
	if s.Instruction == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// Nutrition holds optional per-serving nutrition facts
type Nutrition struct {
	Calories      *int
	Carbohydrates *float64
	Fats          *float64
	Proteins      *float64
	Fibers        *float64
}
