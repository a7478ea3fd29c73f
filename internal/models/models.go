package models

import "time"

// Mode distinguishes scored exams from practice runs.
type Mode string

const (
	ModeExam     Mode = "exam"
	ModePractice Mode = "practice"
)

// Difficulty tiers for questions.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ExamSnapshot is the durable capture of an in-progress exam session.
// At most one snapshot exists per session id; it is deleted once the
// session reaches a terminal state.
type ExamSnapshot struct {
	SessionID        string         `json:"session_id"`
	SubjectID        string         `json:"subject_id"`
	Mode             Mode           `json:"mode"`
	CursorIndex      int            `json:"cursor_index"`
	Answers          map[string]int `json:"answers"`
	FlaggedIDs       []string       `json:"flagged_ids"`
	QuestionOrder    []string       `json:"question_order"`
	RemainingSeconds int            `json:"remaining_seconds"`
	TimerRunning     bool           `json:"timer_running"`
	Revision         int64          `json:"revision"`
	StartedAt        time.Time      `json:"started_at"`
	SavedAt          time.Time      `json:"saved_at"`
	Synced           bool           `json:"synced"`
}

// StudySnapshot is the durable capture of an in-progress flashcard study
// session. Same lifecycle as ExamSnapshot.
type StudySnapshot struct {
	SessionID      string    `json:"session_id"`
	SubjectID      string    `json:"subject_id"`
	CursorIndex    int       `json:"cursor_index"`
	MarkedIDs      []string  `json:"marked_ids"`
	StudiedIndices []int     `json:"studied_indices"`
	Revision       int64     `json:"revision"`
	SavedAt        time.Time `json:"saved_at"`
}

// UserPoints is the singleton gamification ledger. Level is derived from
// TotalXP on read and never persisted.
type UserPoints struct {
	TotalXP             int `json:"total_xp"`
	TotalCorrectAnswers int `json:"total_correct_answers"`
	TotalWrongAnswers   int `json:"total_wrong_answers"`
	TotalExamsCompleted int `json:"total_exams_completed"`
	TotalStudySessions  int `json:"total_study_sessions"`
	PerfectExams        int `json:"perfect_exams"`
}

// StreakKind names the two independent streak counters.
type StreakKind string

const (
	StreakDaily          StreakKind = "daily"
	StreakCorrectAnswers StreakKind = "correct_answers"
)

// Streak holds a counter and its historical maximum. Best never decreases,
// even across a reset of Current.
type Streak struct {
	Kind       StreakKind `json:"kind"`
	Current    int        `json:"current"`
	Best       int        `json:"best"`
	LastUpdate *time.Time `json:"last_update"`
}

// AchievementUnlock records a one-time unlock. Presence means unlocked.
type AchievementUnlock struct {
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Rarity        string    `json:"rarity"`
	XPReward      int       `json:"xp_reward"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// StatsRecord is an append-only audit entry for a completed exam or study
// session. Rows are never mutated.
type StatsRecord struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	SubjectID string    `json:"subject_id"`
	Type      string    `json:"type"` // "exam" | "study"
	Payload   string    `json:"payload"`
}

// StatsFilter narrows stats-log queries.
type StatsFilter struct {
	SubjectID string
	Type      string
	Since     *time.Time
	Limit     int
}

// ExamResult summarizes a finished exam for XP calculation and auditing.
type ExamResult struct {
	SessionID       string  `json:"session_id"`
	SubjectID       string  `json:"subject_id"`
	Mode            Mode    `json:"mode"`
	TotalQuestions  int     `json:"total_questions"`
	CorrectAnswers  int     `json:"correct_answers"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ScorePercent returns the score as a percentage in [0, 100].
func (r ExamResult) ScorePercent() float64 {
	if r.TotalQuestions <= 0 {
		return 0
	}
	return float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100
}

// Perfect reports whether every question was answered correctly.
func (r ExamResult) Perfect() bool {
	return r.TotalQuestions > 0 && r.CorrectAnswers == r.TotalQuestions
}

// StudyStats summarizes a finished flashcard study session.
type StudyStats struct {
	SessionID       string  `json:"session_id"`
	SubjectID       string  `json:"subject_id"`
	CardsStudied    int     `json:"cards_studied"`
	DeckSize        int     `json:"deck_size"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// DeckCompleted reports whether every card in the deck was studied.
func (s StudyStats) DeckCompleted() bool {
	return s.DeckSize > 0 && s.CardsStudied >= s.DeckSize
}
