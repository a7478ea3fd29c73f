package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studycore/internal/models"
	"studycore/internal/services"
)

func (s *Server) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var params services.StartExamParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, r, err)
		return
	}

	snap, recovered, err := s.Sessions.StartExam(r.Context(), params)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":   snap,
		"recovered": recovered,
	})
}

func (s *Server) handleExamAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		QuestionID  string            `json:"question_id"`
		ChoiceIndex int               `json:"choice_index"`
		Correct     bool              `json:"correct"`
		Difficulty  models.Difficulty `json:"difficulty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	outcome, err := s.Sessions.RecordExamAnswer(r.Context(), sessionID, body.QuestionID, body.ChoiceIndex, services.AnswerEvent{
		Correct:    body.Correct,
		Difficulty: body.Difficulty,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleExamPosition(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		CursorIndex      int  `json:"cursor_index"`
		RemainingSeconds int  `json:"remaining_seconds"`
		TimerRunning     bool `json:"timer_running"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Sessions.MoveExamCursor(sessionID, body.CursorIndex, body.RemainingSeconds, body.TimerRunning); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExamFlag(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		QuestionID string `json:"question_id"`
		Flagged    bool   `json:"flagged"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Sessions.FlagExamQuestion(sessionID, body.QuestionID, body.Flagged); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExamSave(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.Sessions.SaveExamNow(r.Context(), sessionID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExamStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	status, err := s.Sessions.ExamSaveStatus(sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (s *Server) handleFinishExam(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var result models.ExamResult
	if err := decodeJSON(r, &result); err != nil {
		handleError(w, r, err)
		return
	}
	outcome, err := s.Sessions.FinishExam(r.Context(), sessionID, result)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleStartStudy(w http.ResponseWriter, r *http.Request) {
	var params services.StartStudyParams
	if err := decodeJSON(r, &params); err != nil {
		handleError(w, r, err)
		return
	}

	snap, recovered, err := s.Sessions.StartStudy(r.Context(), params)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":   snap,
		"recovered": recovered,
	})
}

func (s *Server) handleStudyProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		CardIndex int    `json:"card_index"`
		CardID    string `json:"card_id"`
		Marked    bool   `json:"marked"`
	}
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Sessions.RecordStudyProgress(sessionID, body.CardIndex, body.CardID, body.Marked); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStudySave(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.Sessions.SaveStudyNow(r.Context(), sessionID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinishStudy(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var stats models.StudyStats
	if err := decodeJSON(r, &stats); err != nil {
		handleError(w, r, err)
		return
	}
	outcome, err := s.Sessions.FinishStudy(r.Context(), sessionID, stats)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
