// Package progression holds the pure XP and level arithmetic. Nothing here
// performs I/O; every function is deterministic over its inputs.
package progression

import (
	"math"

	"studycore/internal/models"
)

const (
	baseAnswerXP = 10
	baseExamXP   = 50
	baseStudyXP  = 25

	deckCompletionBonus = 50
	xpPerCardStudied    = 2
	xpPerStudyMinute    = 2
	maxStudyTimeBonus   = 60

	// Practice sessions award 25% less than scored exams.
	practiceMultiplier = 0.75
)

// AnswerXP returns the XP awarded for a single answer. Wrong answers never
// award XP. currentStreak is the consecutive-correct streak the user carries
// into this answer, before it is advanced.
func AnswerXP(correct bool, difficulty models.Difficulty, currentStreak int) int {
	if !correct {
		return 0
	}
	return round(baseAnswerXP * difficultyMultiplier(difficulty) * StreakMultiplier(currentStreak))
}

func difficultyMultiplier(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyIntermediate:
		return 1.5
	case models.DifficultyAdvanced:
		return 2.0
	default:
		return 1.0
	}
}

// StreakMultiplier is a step function over the consecutive-correct streak.
func StreakMultiplier(streak int) float64 {
	switch {
	case streak >= 20:
		return 2.0
	case streak >= 10:
		return 1.5
	case streak >= 5:
		return 1.25
	case streak >= 3:
		return 1.1
	default:
		return 1.0
	}
}

// ExamCompletionXP returns the XP for a finished exam: a base award, a
// score-tier bonus, a length bonus of 10 XP per 10 questions, and a speed
// bonus that only applies at a passing score.
func ExamCompletionXP(result models.ExamResult) int {
	score := result.ScorePercent()

	xp := float64(baseExamXP)
	switch {
	case score >= 100:
		xp += 100
	case score >= 90:
		xp += 50
	case score >= 80:
		xp += 25
	}
	xp += float64(result.TotalQuestions/10) * 10

	if score >= 70 && result.DurationSeconds > 0 {
		perMinute := float64(result.TotalQuestions) / (result.DurationSeconds / 60)
		switch {
		case perMinute >= 2:
			xp += 30
		case perMinute >= 1:
			xp += 15
		}
	}

	if result.Mode == models.ModePractice {
		xp *= practiceMultiplier
	}
	return round(xp)
}

// StudySessionXP returns the XP for a finished flashcard study session.
func StudySessionXP(stats models.StudyStats) int {
	xp := float64(baseStudyXP)
	xp += float64(stats.CardsStudied * xpPerCardStudied)
	if stats.DeckCompleted() {
		xp += deckCompletionBonus
	}

	timeBonus := stats.DurationMinutes * xpPerStudyMinute
	if timeBonus > maxStudyTimeBonus {
		timeBonus = maxStudyTimeBonus
	}
	if timeBonus > 0 {
		xp += timeBonus
	}
	return round(xp)
}

// Level describes where a cumulative XP total sits on the level curve.
type Level struct {
	Level           int     `json:"level"`
	CurrentLevelXP  int     `json:"current_level_xp"`
	XPForNextLevel  int     `json:"xp_for_next_level"`
	ProgressPercent float64 `json:"progress_percent"`
}

// LevelFromXP derives the level from cumulative XP. Clearing level N costs
// N*100 XP, a triangular curve: reaching level L requires L*(L-1)*50 total.
// The function is total: negative input is treated as zero.
func LevelFromXP(totalXP int) Level {
	if totalXP < 0 {
		totalXP = 0
	}

	// Invert the triangular total with the quadratic formula instead of
	// looping, so the function cannot diverge on any input.
	// total(L) = 50*L*(L-1) <= totalXP  =>  L = floor((1+sqrt(1+XP/12.5))/2)
	level := int((1 + math.Sqrt(1+float64(totalXP)/12.5)) / 2)
	if level < 1 {
		level = 1
	}
	// Guard against floating point sitting exactly on a boundary.
	for levelFloor(level+1) <= totalXP {
		level++
	}
	for level > 1 && levelFloor(level) > totalXP {
		level--
	}

	current := totalXP - levelFloor(level)
	next := level * 100
	return Level{
		Level:           level,
		CurrentLevelXP:  current,
		XPForNextLevel:  next,
		ProgressPercent: float64(current) / float64(next) * 100,
	}
}

// levelFloor is the cumulative XP required to reach the given level.
func levelFloor(level int) int {
	return 50 * level * (level - 1)
}

// TitleForLevel maps a level to its display title band.
func TitleForLevel(level int) string {
	switch {
	case level >= 50:
		return "Grandmaster"
	case level >= 30:
		return "Master"
	case level >= 20:
		return "Expert"
	case level >= 10:
		return "Scholar"
	case level >= 5:
		return "Apprentice"
	default:
		return "Novice"
	}
}

func round(f float64) int {
	return int(math.Round(f))
}
