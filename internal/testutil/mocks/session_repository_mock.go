package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studycore/internal/models"
)

// MockSessionRepository is a mock implementation of repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Put(ctx context.Context, snap models.ExamSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, sessionID string) (*models.ExamSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamSnapshot), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context) ([]models.ExamSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExamSnapshot), args.Error(1)
}

func (m *MockSessionRepository) Unsynced(ctx context.Context) ([]models.ExamSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExamSnapshot), args.Error(1)
}

func (m *MockSessionRepository) MarkSynced(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
