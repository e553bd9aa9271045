package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	CorpusSize int
	Checks     map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus  CorpusReader
	encoder EncoderChecker
}

// New creates a Service. encoder can be nil.
func New(corpus CorpusReader, encoder EncoderChecker) *Service {
	return &Service{corpus: corpus, encoder: encoder}
}

// Check runs health checks against all components. The corpus is
// read-only process memory, so its check is simply presence.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.corpus.Len() > 0 {
		checks["corpus"] = CheckOK
	} else {
		checks["corpus"] = CheckError
	}

	if s.encoder != nil {
		if err := s.encoder.HealthCheck(ctx); err != nil {
			checks["encoder"] = CheckError
		} else {
			checks["encoder"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, CorpusSize: s.corpus.Len(), Checks: checks}
}
