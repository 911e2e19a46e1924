package service

import (
	"context"

	"github.com/beka-birhanu/reeborg-api/game"
	dmn "github.com/beka-birhanu/reeborg-api/identity"
	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Save(user *dmn.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) ByID(id uuid.UUID) (*dmn.User, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*dmn.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) ByUsername(username string) (*dmn.User, error) {
	args := m.Called(username)
	user, _ := args.Get(0).(*dmn.User)
	return user, args.Error(1)
}

type mockRunRepo struct{ mock.Mock }

func (m *mockRunRepo) Save(ctx context.Context, run *game.RunRecord) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockRunRepo) ByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]*game.RunRecord, error) {
	args := m.Called(ctx, owner, limit)
	runs, _ := args.Get(0).([]*game.RunRecord)
	return runs, args.Error(1)
}

type mockLeaderboard struct{ mock.Mock }

func (m *mockLeaderboard) Submit(ctx context.Context, member string, score float64) error {
	return m.Called(ctx, member, score).Error(0)
}

func (m *mockLeaderboard) Top(ctx context.Context, n int64) ([]i.Standing, error) {
	args := m.Called(ctx, n)
	standings, _ := args.Get(0).([]i.Standing)
	return standings, args.Error(1)
}

type mockLocker struct{ mock.Mock }

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}
