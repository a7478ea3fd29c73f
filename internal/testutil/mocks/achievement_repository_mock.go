package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"studycore/internal/models"
)

// MockAchievementRepository is a mock implementation of repository.AchievementRepository
type MockAchievementRepository struct {
	mock.Mock
}

func (m *MockAchievementRepository) Unlock(ctx context.Context, unlock models.AchievementUnlock) (bool, error) {
	args := m.Called(ctx, unlock)
	return args.Bool(0), args.Error(1)
}

func (m *MockAchievementRepository) UnlockedIDs(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockAchievementRepository) List(ctx context.Context) ([]models.AchievementUnlock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AchievementUnlock), args.Error(1)
}
