package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// CompetencyCount is the fixed number of independently scored competencies.
	CompetencyCount = 5
	// MaxCompetencyScore bounds every competency score.
	MaxCompetencyScore = 200
	// TangentCap is the ceiling applied to competencies 2, 3 and 5 on tangential essays.
	TangentCap = 40
)

// Scores holds competency scores indexed from competency 1 at position 0.
type Scores [CompetencyCount]int

// Get returns the score for a competency numbered 1..5, or 0 for an unknown number.
func (s Scores) Get(competency int) int {
	if competency < 1 || competency > CompetencyCount {
		return 0
	}
	return s[competency-1]
}

// Set stores the score for a competency numbered 1..5. Unknown numbers are ignored.
func (s *Scores) Set(competency, score int) {
	if competency < 1 || competency > CompetencyCount {
		return
	}
	s[competency-1] = score
}

// Total is the exact sum of the five competency scores.
func (s Scores) Total() int {
	total := 0
	for _, score := range s {
		total += score
	}
	return total
}

// Map renders the scores keyed "c1".."c5".
func (s Scores) Map() map[string]int {
	out := make(map[string]int, CompetencyCount)
	for i, score := range s {
		out[CompetencyKey(i+1)] = score
	}
	return out
}

// CompetencyKey returns the "cN" key for a competency number.
func CompetencyKey(competency int) string {
	return fmt.Sprintf("c%d", competency)
}

// ParseCompetencyKey accepts "c3", "C3" or "3" and returns the competency number.
func ParseCompetencyKey(key string) (int, bool) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(key)), "c")
	number, err := strconv.Atoi(trimmed)
	if err != nil || number < 1 || number > CompetencyCount {
		return 0, false
	}
	return number, true
}

// clampScore bounds a raw score to [0, MaxCompetencyScore] before it is rounded, so values
// beyond the int range still saturate.
func clampScore(score float64) int {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > MaxCompetencyScore {
		return MaxCompetencyScore
	}
	return int(math.Round(score))
}
