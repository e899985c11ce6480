package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/riserecover/server/models"
)

// AdviceRequest is everything the generator sees about one check-in.
type AdviceRequest struct {
	Addiction string
	DaysClean int
	Symptoms  []models.SymptomRecord
	Notes     string
	Resources models.ResourceConfig
}

// SymptomSummary renders symptoms as "name (severity/10)" joined by ", ".
func (r AdviceRequest) SymptomSummary() string {
	parts := make([]string, 0, len(r.Symptoms))
	for _, s := range r.Symptoms {
		parts = append(parts, fmt.Sprintf("%s (%d/10)", s.Name, s.Severity))
	}
	return strings.Join(parts, ", ")
}

// Advisor produces guidance for a check-in.
type Advisor interface {
	Advise(ctx context.Context, req AdviceRequest) (models.Advice, error)
}

// FallbackAdvice is returned whenever generation fails.
func FallbackAdvice() models.Advice {
	return models.Advice{
		PracticalTips: []string{
			"Drink plenty of water to help flush toxins.",
			"Try 4-7-8 breathing: Inhale for 4s, hold for 7s, exhale for 8s.",
			"Take a warm bath with Epsom salts for muscle relaxation.",
		},
		Encouragement: "You're doing great, keep going!",
	}
}

// AdviceService wraps an Advisor so callers always get advice back.
type AdviceService struct {
	advisor Advisor
	timeout time.Duration
	log     *zap.Logger
}

// NewAdviceService creates an AdviceService. A nil advisor always yields the fallback.
func NewAdviceService(advisor Advisor, timeout time.Duration, log *zap.Logger) *AdviceService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdviceService{advisor: advisor, timeout: timeout, log: log}
}

// Generate never fails. The call is detached from ctx cancellation so a client that
// goes away mid-request still gets its entry recorded, but it is bounded by the timeout.
func (s *AdviceService) Generate(ctx context.Context, req AdviceRequest) models.Advice {
	if s.advisor == nil {
		return FallbackAdvice()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	advice, err := s.advisor.Advise(ctx, req)
	if err != nil {
		s.log.Warn("advice generation failed, using fallback", zap.Error(err))
		return FallbackAdvice()
	}
	return advice
}
