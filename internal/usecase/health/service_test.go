package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name     string
		db       error
		search   error
		status   Status
		dbCheck  CheckResult
		srchChck CheckResult
	}{
		{"all healthy", nil, nil, Healthy, CheckOK, CheckOK},
		{"database down", down, nil, Degraded, CheckError, CheckOK},
		{"search down", nil, down, Degraded, CheckOK, CheckError},
		{"both down", down, down, Unhealthy, CheckError, CheckError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&mockPinger{err: tt.db}, &mockPinger{err: tt.search}).Check(context.Background())
			if r.Status != tt.status {
				t.Errorf("status = %q, want %q", r.Status, tt.status)
			}
			if r.Checks["database"] != tt.dbCheck {
				t.Errorf("database = %q, want %q", r.Checks["database"], tt.dbCheck)
			}
			if r.Checks["search"] != tt.srchChck {
				t.Errorf("search = %q, want %q", r.Checks["search"], tt.srchChck)
			}
		})
	}
}

func TestCheck_NilSearch(t *testing.T) {
	r := New(&mockPinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["search"]; ok {
		t.Error("search check should be absent")
	}
}
