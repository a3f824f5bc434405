package analyzer

import (
	"encoding/json"
	"math"
)

// Grade is a letter grade derived from a [0,100] score.
type Grade int

const (
	GradeF Grade = iota
	GradeD
	GradeC
	GradeB
	GradeA
	GradeAPlus
)

var gradeNames = [...]string{"F", "D", "C", "B", "A", "A+"}

func (g Grade) String() string {
	if g < GradeF || g > GradeAPlus {
		return gradeNames[GradeF]
	}
	return gradeNames[g]
}

func (g Grade) MarshalJSON() ([]byte, error) { return json.Marshal(g.String()) }

// GradeBand is one row of the grade table: scores at or above Min earn Grade.
type GradeBand struct {
	Min   float64
	Grade Grade
}

// GradeBands is the single grade table shared by every report section.
// Rows are ordered by descending Min and the last row starts at 0, so the
// bands partition [0,100] with no gaps.
var GradeBands = []GradeBand{
	{Min: 95, Grade: GradeAPlus},
	{Min: 85, Grade: GradeA},
	{Min: 72, Grade: GradeB},
	{Min: 60, Grade: GradeC},
	{Min: 45, Grade: GradeD},
	{Min: 0, Grade: GradeF},
}

// GradeOf maps a score onto GradeBands. Out-of-range scores clamp, NaN is F.
func GradeOf(score float64) Grade {
	score = clampScore(score)
	for _, band := range GradeBands {
		if score >= band.Min {
			return band.Grade
		}
	}
	return GradeF
}

// clampScore pins a score into [0,100]; NaN becomes 0.
func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// round2 rounds to two decimals for presentation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
