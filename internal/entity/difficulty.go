package entity

import (
	"errors"
	"fmt"
)

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty selects the opponent tier. Easy and medium spend a budget of
// uniformly random moves before switching to exhaustive search; hard always
// searches.
type Difficulty string

// RandomMoveBudget is the number of deliberately suboptimal (random) moves
// the opponent may play in otherwise-neutral positions.
func (that Difficulty) RandomMoveBudget() int {
	switch that {
	case DifficultyEasy:
		return 2
	case DifficultyMedium:
		return 1
	default:
		return 0
	}
}

func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, raw)
	}
}
