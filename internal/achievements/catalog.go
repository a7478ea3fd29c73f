package achievements

// Rarity tiers used by the default catalog.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// DefaultCatalog is the externally-supplied achievement table for the app.
// The engine only consumes it; nothing in the engine depends on these
// specific entries.
func DefaultCatalog() []Achievement {
	return []Achievement{
		{
			ID: "first_correct", Name: "First Steps", Category: "answers", Rarity: RarityCommon, XPReward: 10,
			Condition: func(s Stats, _ EventContext) bool { return s.TotalCorrectAnswers >= 1 },
		},
		{
			ID: "hundred_correct", Name: "Centurion", Category: "answers", Rarity: RarityRare, XPReward: 50,
			Condition: func(s Stats, _ EventContext) bool { return s.TotalCorrectAnswers >= 100 },
		},
		{
			ID: "answer_streak_10", Name: "Sharpshooter", Category: "streaks", Rarity: RarityRare, XPReward: 40,
			Condition: func(s Stats, ev EventContext) bool { return ev.AnswerStreak >= 10 || s.BestAnswerStreak >= 10 },
		},
		{
			ID: "answer_streak_25", Name: "Unstoppable", Category: "streaks", Rarity: RarityEpic, XPReward: 100,
			Condition: func(s Stats, ev EventContext) bool { return ev.AnswerStreak >= 25 || s.BestAnswerStreak >= 25 },
		},
		{
			ID: "daily_streak_3", Name: "Warming Up", Category: "streaks", Rarity: RarityCommon, XPReward: 20,
			Condition: func(s Stats, _ EventContext) bool { return s.DailyStreakCurrent >= 3 },
		},
		{
			ID: "daily_streak_7", Name: "One Full Week", Category: "streaks", Rarity: RarityRare, XPReward: 60,
			Condition: func(s Stats, _ EventContext) bool { return s.DailyStreakCurrent >= 7 },
		},
		{
			ID: "daily_streak_30", Name: "Iron Habit", Category: "streaks", Rarity: RarityLegendary, XPReward: 250,
			Condition: func(s Stats, _ EventContext) bool { return s.DailyStreakCurrent >= 30 },
		},
		{
			ID: "first_exam", Name: "Examinee", Category: "exams", Rarity: RarityCommon, XPReward: 25,
			Condition: func(s Stats, _ EventContext) bool { return s.TotalExamsCompleted >= 1 },
		},
		{
			ID: "perfect_exam", Name: "Flawless", Category: "exams", Rarity: RarityEpic, XPReward: 100,
			Condition: func(s Stats, ev EventContext) bool { return ev.PerfectExam || s.PerfectExams >= 1 },
		},
		{
			ID: "exam_veteran", Name: "Veteran", Category: "exams", Rarity: RarityRare, XPReward: 75,
			Condition: func(s Stats, _ EventContext) bool { return s.TotalExamsCompleted >= 10 },
		},
		{
			ID: "first_study", Name: "Student", Category: "study", Rarity: RarityCommon, XPReward: 15,
			Condition: func(s Stats, _ EventContext) bool { return s.TotalStudySessions >= 1 },
		},
		{
			ID: "deck_finisher", Name: "Completionist", Category: "study", Rarity: RarityRare, XPReward: 40,
			Condition: func(_ Stats, ev EventContext) bool { return ev.DeckCompleted },
		},
		{
			ID: "level_5", Name: "Apprentice", Category: "progression", Rarity: RarityCommon, XPReward: 25,
			Condition: func(s Stats, _ EventContext) bool { return s.Level >= 5 },
		},
		{
			ID: "level_10", Name: "Scholar", Category: "progression", Rarity: RarityRare, XPReward: 75,
			Condition: func(s Stats, _ EventContext) bool { return s.Level >= 10 },
		},
		{
			ID: "xp_5000", Name: "Point Hoarder", Category: "progression", Rarity: RarityEpic, XPReward: 150,
			Condition: func(s Stats, _ EventContext) bool { return s.TotalXP >= 5000 },
		},
	}
}
