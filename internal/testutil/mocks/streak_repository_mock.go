package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studycore/internal/models"
)

// MockStreakRepository is a mock implementation of repository.StreakRepository
type MockStreakRepository struct {
	mock.Mock
}

func (m *MockStreakRepository) Get(ctx context.Context, kind models.StreakKind) (models.Streak, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(models.Streak), args.Error(1)
}

func (m *MockStreakRepository) Upsert(ctx context.Context, streak models.Streak) error {
	args := m.Called(ctx, streak)
	return args.Error(0)
}
