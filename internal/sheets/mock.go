package sheets

import (
	"context"
	"sync"
)

// MockWriter records exported tables instead of calling the Sheets API.
type MockWriter struct {
	WriteFunc     func(ctx context.Context, table Table) (string, error)
	Tables        []Table
	SpreadsheetID string
	mu            sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{SpreadsheetID: "mock-spreadsheet"}
}

// Write records table and returns WriteFunc's result when set.
func (m *MockWriter) Write(ctx context.Context, table Table) (string, error) {
	m.mu.Lock()
	m.Tables = append(m.Tables, table)
	fn := m.WriteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, table)
	}
	return m.SpreadsheetID, nil
}

// Written returns the tables written so far.
func (m *MockWriter) Written() []Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Table(nil), m.Tables...)
}
