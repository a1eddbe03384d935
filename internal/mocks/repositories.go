package mocks

import (
	"context"
	"sync"

	"github.com/tender-discovery-api/internal/repository"
)

// MockUserRecordRepository is an in-memory UserRecordRepository
type MockUserRecordRepository struct {
	mu       sync.Mutex
	Records  map[string]string
	GetError error
	PutError error
	PutCalls int
}

// Verify interface compliance
var _ repository.UserRecordRepository = (*MockUserRecordRepository)(nil)

func NewMockUserRecordRepository() *MockUserRecordRepository {
	return &MockUserRecordRepository{
		Records: make(map[string]string),
	}
}

func (m *MockUserRecordRepository) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return "", false, m.GetError
	}
	v, ok := m.Records[key]
	return v, ok, nil
}

func (m *MockUserRecordRepository) Put(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutError != nil {
		return m.PutError
	}
	m.Records[key] = value
	return nil
}

func (m *MockUserRecordRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records), nil
}
