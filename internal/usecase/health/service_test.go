package health

import (
	"context"
	"errors"
	"testing"
)

type mockCorpus struct{ size int }

func (m mockCorpus) Len() int { return m.size }

type mockChecker struct{ err error }

func (m mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_Healthy(t *testing.T) {
	svc := New(mockCorpus{size: 5800}, mockChecker{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %q, want %q", report.Status, Healthy)
	}
	if report.CorpusSize != 5800 {
		t.Errorf("corpus size = %d, want 5800", report.CorpusSize)
	}
	if report.Checks["corpus"] != CheckOK || report.Checks["encoder"] != CheckOK {
		t.Errorf("unexpected checks: %v", report.Checks)
	}
}

func TestCheck_EncoderDown(t *testing.T) {
	svc := New(mockCorpus{size: 10}, mockChecker{err: errors.New("timeout")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status = %q, want %q", report.Status, Degraded)
	}
	if report.Checks["encoder"] != CheckError {
		t.Errorf("encoder check = %q, want %q", report.Checks["encoder"], CheckError)
	}
	if report.Checks["corpus"] != CheckOK {
		t.Errorf("corpus check = %q, want %q", report.Checks["corpus"], CheckOK)
	}
}

func TestCheck_EmptyCorpus(t *testing.T) {
	svc := New(mockCorpus{size: 0}, nil)

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status = %q, want %q", report.Status, Degraded)
	}
	if report.Checks["corpus"] != CheckError {
		t.Errorf("corpus check = %q, want %q", report.Checks["corpus"], CheckError)
	}
}

func TestCheck_NilEncoderSkipsCheck(t *testing.T) {
	svc := New(mockCorpus{size: 10}, nil)

	report := svc.Check(context.Background())
	if _, ok := report.Checks["encoder"]; ok {
		t.Error("nil encoder should not produce an encoder check")
	}
	if report.Status != Healthy {
		t.Errorf("status = %q, want %q", report.Status, Healthy)
	}
}
