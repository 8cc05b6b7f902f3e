// Package service contains application services orchestrating the domain.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/verimail/verimail/internal/metrics"
	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/verifier"
)

// Scorer produces a score result for an email address.
// *verifier.Verifier satisfies this.
type Scorer interface {
	Score(ctx context.Context, email string) verifier.Result
}

// UsageAppender appends records to the usage ledger.
// *repository.Repository satisfies this.
type UsageAppender interface {
	AppendUsageRecord(ctx context.Context, record *model.UsageRecord) error
}

// ValidationService runs the tail of the gateway pipeline for an admitted
// request: scoring, usage logging, response assembly. It holds no
// per-request state and is safe for concurrent use.
type ValidationService struct {
	scorer  Scorer
	ledger  UsageAppender
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewValidationService creates a ValidationService.
func NewValidationService(scorer Scorer, ledger UsageAppender, recorder metrics.Recorder, logger *slog.Logger) *ValidationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ValidationService{
		scorer:  scorer,
		ledger:  ledger,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Validate scores an email on behalf of an admitted request and appends one
// UsageRecord to the ledger. Scoring never fails; a ledger write failure is
// logged and counted but does not invalidate the already-computed result.
func (s *ValidationService) Validate(ctx context.Context, email, apiKeyID, clientIP string) verifier.Result {
	start := s.now()

	result := s.scorer.Score(ctx, email)

	record := &model.UsageRecord{
		ID:        ulid.Make().String(),
		Email:     email,
		APIKeyID:  apiKeyID,
		ClientIP:  clientIP,
		Timestamp: s.now().UTC(),
	}

	if err := s.ledger.AppendUsageRecord(ctx, record); err != nil {
		// The response has already been determined; prefer returning a
		// correct answer over failing the request on a logging hiccup.
		s.metrics.IncLedgerWriteFailure()
		s.logger.Error("usage ledger write failed",
			slog.String("error", err.Error()),
			slog.String("api_key_id", apiKeyID),
			slog.String("record_id", record.ID),
		)
	}

	status := "invalid"
	if result.IsValid {
		status = "valid"
	}
	s.metrics.IncValidation(status)
	s.metrics.ObserveValidationDuration(time.Since(start))

	return result
}
