package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/exams", func(r chi.Router) {
		r.Post("/", s.handleStartExam)
		r.Post("/{sessionID}/answers", s.handleExamAnswer)
		r.Put("/{sessionID}/position", s.handleExamPosition)
		r.Post("/{sessionID}/flag", s.handleExamFlag)
		r.Post("/{sessionID}/save", s.handleExamSave)
		r.Get("/{sessionID}/status", s.handleExamStatus)
		r.Post("/{sessionID}/finish", s.handleFinishExam)
	})

	r.Route("/api/study", func(r chi.Router) {
		r.Post("/", s.handleStartStudy)
		r.Post("/{sessionID}/progress", s.handleStudyProgress)
		r.Post("/{sessionID}/save", s.handleStudySave)
		r.Post("/{sessionID}/finish", s.handleFinishStudy)
	})

	r.Get("/api/progression", s.handleProgression)
	r.Post("/api/progression/reset", s.handleResetProgression)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/sync/drain", s.handleSyncDrain)

	return r
}
