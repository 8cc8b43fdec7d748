package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/signalmesh/alertgate/internal/model"
)

// MockChannelStore is a mock implementation of ChannelStore for service tests.
type MockChannelStore struct {
	mock.Mock
}

// NewMockChannelStore creates a new instance of MockChannelStore. It registers
// a cleanup function to assert the mock's expectations.
func NewMockChannelStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChannelStore {
	m := &MockChannelStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChannelStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockChannelStore) ListActive(ctx context.Context) ([]model.Channel, error) {
	args := m.Called(ctx)
	if channels := args.Get(0); channels != nil {
		return channels.([]model.Channel), args.Error(1)
	}
	return nil, args.Error(1)
}
