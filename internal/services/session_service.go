package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"studycore/internal/autosave"
	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
)

// ExamSessionID derives the stable session id for a subject and mode. It is
// intentionally not time-based: restarting the same exam resumes the same
// snapshot instead of orphaning the old one.
func ExamSessionID(subjectID string, mode models.Mode) string {
	return subjectID + ":" + string(mode)
}

// StudySessionID derives the stable session id for a flashcard study run.
func StudySessionID(subjectID string) string {
	return subjectID + ":study"
}

// StartExamParams starts (or resumes) an exam session.
type StartExamParams struct {
	SubjectID       string      `json:"subject_id"`
	Mode            models.Mode `json:"mode"`
	QuestionOrder   []string    `json:"question_order"`
	DurationSeconds int         `json:"duration_seconds"`
}

// StartStudyParams starts (or resumes) a flashcard study session.
type StartStudyParams struct {
	SubjectID string `json:"subject_id"`
	DeckSize  int    `json:"deck_size"`
}

// examState is the live, in-memory exam session. Every mutation bumps the
// revision; snapshots carry it so a stale overlapping save can never win.
type examState struct {
	mu               sync.Mutex
	sessionID        string
	subjectID        string
	mode             models.Mode
	cursor           int
	answers          map[string]int
	flagged          map[string]bool
	questionOrder    []string
	remainingSeconds int
	timerRunning     bool
	startedAt        time.Time
	revision         int64
	engine           *autosave.Engine
}

func (st *examState) snapshot(now time.Time) *models.ExamSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.questionOrder) == 0 {
		return nil
	}
	flagged := make([]string, 0, len(st.flagged))
	for id := range st.flagged {
		flagged = append(flagged, id)
	}
	sort.Strings(flagged)
	answers := make(map[string]int, len(st.answers))
	for k, v := range st.answers {
		answers[k] = v
	}
	return &models.ExamSnapshot{
		SessionID:        st.sessionID,
		SubjectID:        st.subjectID,
		Mode:             st.mode,
		CursorIndex:      st.cursor,
		Answers:          answers,
		FlaggedIDs:       flagged,
		QuestionOrder:    append([]string(nil), st.questionOrder...),
		RemainingSeconds: st.remainingSeconds,
		TimerRunning:     st.timerRunning,
		Revision:         st.revision,
		StartedAt:        st.startedAt,
		SavedAt:          now,
		Synced:           false,
	}
}

type studyState struct {
	mu        sync.Mutex
	sessionID string
	subjectID string
	deckSize  int
	cursor    int
	marked    map[string]bool
	studied   map[int]bool
	revision  int64
	engine    *autosave.Engine
}

func (st *studyState) snapshot(now time.Time) *models.StudySnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deckSize == 0 {
		return nil
	}
	marked := make([]string, 0, len(st.marked))
	for id := range st.marked {
		marked = append(marked, id)
	}
	sort.Strings(marked)
	studied := make([]int, 0, len(st.studied))
	for i := range st.studied {
		studied = append(studied, i)
	}
	sort.Ints(studied)
	return &models.StudySnapshot{
		SessionID:      st.sessionID,
		SubjectID:      st.subjectID,
		CursorIndex:    st.cursor,
		MarkedIDs:      marked,
		StudiedIndices: studied,
		Revision:       st.revision,
		SavedAt:        now,
	}
}

// SessionService owns live exam and study sessions and one autosave engine
// per live session.
type SessionService struct {
	mu      sync.Mutex
	exams   map[string]*examState
	studies map[string]*studyState

	sessions      repository.SessionRepository
	studyRepo     repository.StudyRepository
	progression   ProgressionService
	examInterval  time.Duration
	studyInterval time.Duration
	log           *logger.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(
	sessions repository.SessionRepository,
	studyRepo repository.StudyRepository,
	prog ProgressionService,
	examInterval, studyInterval time.Duration,
) *SessionService {
	return &SessionService{
		exams:         map[string]*examState{},
		studies:       map[string]*studyState{},
		sessions:      sessions,
		studyRepo:     studyRepo,
		progression:   prog,
		examInterval:  examInterval,
		studyInterval: studyInterval,
		log:           logger.Default().WithPrefix("sessions"),
	}
}

// StartExam starts an exam session, recovering the persisted snapshot when
// one exists. Recovery only applies once the question list is known:
// recovering into an empty question set is a no-op, not an error.
func (s *SessionService) StartExam(ctx context.Context, params StartExamParams) (*models.ExamSnapshot, bool, error) {
	log := logger.FromContext(ctx)

	if params.SubjectID == "" {
		return nil, false, errors.NewValidationError("subject_id", "must not be empty")
	}
	if params.Mode != models.ModeExam && params.Mode != models.ModePractice {
		return nil, false, errors.NewValidationError("mode", "must be exam or practice")
	}

	sessionID := ExamSessionID(params.SubjectID, params.Mode)

	s.mu.Lock()
	if st, ok := s.exams[sessionID]; ok {
		s.mu.Unlock()
		log.Debug("exam session already live: session_id=%s", sessionID)
		return st.snapshot(time.Now()), false, nil
	}
	s.mu.Unlock()

	st := &examState{
		sessionID:        sessionID,
		subjectID:        params.SubjectID,
		mode:             params.Mode,
		answers:          map[string]int{},
		flagged:          map[string]bool{},
		questionOrder:    params.QuestionOrder,
		remainingSeconds: params.DurationSeconds,
		timerRunning:     true,
		startedAt:        time.Now(),
	}

	recovered := false
	if len(params.QuestionOrder) > 0 {
		snap, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			log.Warn("recovery read failed, starting fresh: %v", err)
		} else if snap != nil {
			st.cursor = snap.CursorIndex
			for k, v := range snap.Answers {
				st.answers[k] = v
			}
			for _, id := range snap.FlaggedIDs {
				st.flagged[id] = true
			}
			st.remainingSeconds = snap.RemainingSeconds
			st.timerRunning = snap.TimerRunning
			st.startedAt = snap.StartedAt
			st.revision = snap.Revision
			recovered = true
			log.Info("exam session recovered: session_id=%s cursor=%d answers=%d", sessionID, st.cursor, len(st.answers))
		}
	}

	st.engine = autosave.New(sessionID, s.examInterval,
		func() ([]byte, error) {
			// SavedAt stays zero here so an unchanged session serializes to
			// identical bytes and the engine can skip the write.
			snap := st.snapshot(time.Time{})
			if snap == nil {
				return nil, nil
			}
			return json.Marshal(snap)
		},
		func(ctx context.Context, payload []byte) error {
			var snap models.ExamSnapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				return err
			}
			snap.SavedAt = time.Now()
			return s.sessions.Put(ctx, snap)
		},
	)

	s.mu.Lock()
	s.exams[sessionID] = st
	s.mu.Unlock()

	// The engine outlives the request that started the session.
	st.engine.Start(context.Background())
	return st.snapshot(time.Now()), recovered, nil
}

// RecordExamAnswer stores an answer in the live session and routes the event
// through the progression ledger.
func (s *SessionService) RecordExamAnswer(ctx context.Context, sessionID, questionID string, choiceIndex int, ev AnswerEvent) (*AnswerOutcome, error) {
	st, err := s.exam(sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.answers[questionID] = choiceIndex
	st.revision++
	st.mu.Unlock()

	return s.progression.RecordAnswer(ctx, ev)
}

// MoveExamCursor updates navigation state.
func (s *SessionService) MoveExamCursor(sessionID string, cursor, remainingSeconds int, timerRunning bool) error {
	st, err := s.exam(sessionID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.cursor = cursor
	st.remainingSeconds = remainingSeconds
	st.timerRunning = timerRunning
	st.revision++
	st.mu.Unlock()
	return nil
}

// FlagExamQuestion toggles the review flag for a question.
func (s *SessionService) FlagExamQuestion(sessionID, questionID string, flagged bool) error {
	st, err := s.exam(sessionID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	if flagged {
		st.flagged[questionID] = true
	} else {
		delete(st.flagged, questionID)
	}
	st.revision++
	st.mu.Unlock()
	return nil
}

// SaveExamNow performs one immediate save, the page-unload path.
func (s *SessionService) SaveExamNow(ctx context.Context, sessionID string) error {
	st, err := s.exam(sessionID)
	if err != nil {
		return err
	}
	return st.engine.Flush(ctx)
}

// ExamSaveStatus reports the autosave status for the session.
func (s *SessionService) ExamSaveStatus(sessionID string) (autosave.Status, error) {
	st, err := s.exam(sessionID)
	if err != nil {
		return "", err
	}
	return st.engine.Status(), nil
}

// FinishExam tears down the live session and settles the progression ledger.
// The engine is stopped before the snapshot is deleted so a late tick cannot
// resurrect a finished session.
func (s *SessionService) FinishExam(ctx context.Context, sessionID string, result models.ExamResult) (*CompletionOutcome, error) {
	st, err := s.exam(sessionID)
	if err != nil {
		return nil, err
	}
	st.engine.Stop()

	s.mu.Lock()
	delete(s.exams, sessionID)
	s.mu.Unlock()

	result.SessionID = sessionID
	st.mu.Lock()
	result.SubjectID = st.subjectID
	result.Mode = st.mode
	st.mu.Unlock()

	return s.progression.CompleteExam(ctx, result)
}

// StartStudy starts a flashcard study session, recovering persisted progress
// when the deck is known.
func (s *SessionService) StartStudy(ctx context.Context, params StartStudyParams) (*models.StudySnapshot, bool, error) {
	log := logger.FromContext(ctx)

	if params.SubjectID == "" {
		return nil, false, errors.NewValidationError("subject_id", "must not be empty")
	}

	sessionID := StudySessionID(params.SubjectID)

	s.mu.Lock()
	if st, ok := s.studies[sessionID]; ok {
		s.mu.Unlock()
		return st.snapshot(time.Now()), false, nil
	}
	s.mu.Unlock()

	st := &studyState{
		sessionID: sessionID,
		subjectID: params.SubjectID,
		deckSize:  params.DeckSize,
		marked:    map[string]bool{},
		studied:   map[int]bool{},
	}

	recovered := false
	if params.DeckSize > 0 {
		snap, err := s.studyRepo.Get(ctx, sessionID)
		if err != nil {
			log.Warn("study recovery read failed, starting fresh: %v", err)
		} else if snap != nil {
			st.cursor = snap.CursorIndex
			for _, id := range snap.MarkedIDs {
				st.marked[id] = true
			}
			for _, i := range snap.StudiedIndices {
				st.studied[i] = true
			}
			st.revision = snap.Revision
			recovered = true
			log.Info("study session recovered: session_id=%s cursor=%d studied=%d", sessionID, st.cursor, len(st.studied))
		}
	}

	st.engine = autosave.New(sessionID, s.studyInterval,
		func() ([]byte, error) {
			snap := st.snapshot(time.Time{})
			if snap == nil {
				return nil, nil
			}
			return json.Marshal(snap)
		},
		func(ctx context.Context, payload []byte) error {
			var snap models.StudySnapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				return err
			}
			snap.SavedAt = time.Now()
			return s.studyRepo.Put(ctx, snap)
		},
	)

	s.mu.Lock()
	s.studies[sessionID] = st
	s.mu.Unlock()

	st.engine.Start(context.Background())
	return st.snapshot(time.Now()), recovered, nil
}

// RecordStudyProgress marks a card index as studied and moves the cursor.
func (s *SessionService) RecordStudyProgress(sessionID string, cardIndex int, cardID string, marked bool) error {
	st, err := s.study(sessionID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.studied[cardIndex] = true
	st.cursor = cardIndex
	if cardID != "" {
		if marked {
			st.marked[cardID] = true
		} else {
			delete(st.marked, cardID)
		}
	}
	st.revision++
	st.mu.Unlock()
	return nil
}

// SaveStudyNow performs one immediate study-session save.
func (s *SessionService) SaveStudyNow(ctx context.Context, sessionID string) error {
	st, err := s.study(sessionID)
	if err != nil {
		return err
	}
	return st.engine.Flush(ctx)
}

// FinishStudy tears down the live study session and settles the ledger.
func (s *SessionService) FinishStudy(ctx context.Context, sessionID string, stats models.StudyStats) (*CompletionOutcome, error) {
	st, err := s.study(sessionID)
	if err != nil {
		return nil, err
	}
	st.engine.Stop()

	s.mu.Lock()
	delete(s.studies, sessionID)
	s.mu.Unlock()

	stats.SessionID = sessionID
	st.mu.Lock()
	stats.SubjectID = st.subjectID
	if stats.DeckSize == 0 {
		stats.DeckSize = st.deckSize
	}
	if stats.CardsStudied == 0 {
		stats.CardsStudied = len(st.studied)
	}
	st.mu.Unlock()

	return s.progression.CompleteStudySession(ctx, stats)
}

// Shutdown flushes and stops every live engine. Called on graceful exit so
// in-progress sessions are recoverable after restart.
func (s *SessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	exams := make([]*examState, 0, len(s.exams))
	for _, st := range s.exams {
		exams = append(exams, st)
	}
	studies := make([]*studyState, 0, len(s.studies))
	for _, st := range s.studies {
		studies = append(studies, st)
	}
	s.mu.Unlock()

	for _, st := range exams {
		if err := st.engine.Flush(ctx); err != nil {
			s.log.Warn("final exam save failed: session_id=%s: %v", st.sessionID, err)
		}
		st.engine.Stop()
	}
	for _, st := range studies {
		if err := st.engine.Flush(ctx); err != nil {
			s.log.Warn("final study save failed: session_id=%s: %v", st.sessionID, err)
		}
		st.engine.Stop()
	}
	s.log.Info("session service shut down: %d exam, %d study sessions flushed", len(exams), len(studies))
}

func (s *SessionService) exam(sessionID string) (*examState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.exams[sessionID]
	if !ok {
		return nil, errors.NewNotFoundError("exam session", sessionID)
	}
	return st, nil
}

func (s *SessionService) study(sessionID string) (*studyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.studies[sessionID]
	if !ok {
		return nil, errors.NewNotFoundError("study session", sessionID)
	}
	return st, nil
}
