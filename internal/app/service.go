package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
	"github.com/paul-reitz/relate.io/internal/adapter/momentum"
	"github.com/paul-reitz/relate.io/internal/domain"
	platformerrors "github.com/paul-reitz/relate.io/internal/platform/errors"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 365
	urgentThreshold  = 4
)

// TrendsProvider serves sentiment trend aggregates, cached or not.
type TrendsProvider interface {
	SentimentTrends(ctx context.Context, advisorID int64, days int) ([]domain.TrendPoint, error)
	Invalidate(ctx context.Context, advisorID int64)
}

// Dependencies bundles everything the service needs.
type Dependencies struct {
	Advisors   domain.AdvisorRepository
	Clients    domain.ClientRepository
	Feedback   domain.FeedbackRepository
	Portfolios domain.PortfolioRepository
	Trends     TrendsProvider
	Scorer     domain.SentimentScorer
	Generator  domain.ContentGenerator
	Momentum   domain.PortfolioProvider
	Email      domain.EmailSender
	Publisher  domain.Publisher
	Clock      clockwork.Clock
}

// Service is the application layer — the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	deps Dependencies
}

func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// CreateAdvisor registers a new advisor.
func (s *Service) CreateAdvisor(ctx context.Context, email, name, firm string) (*domain.Advisor, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, platformerrors.ValidationError("email and name are required")
	}

	advisor := &domain.Advisor{Email: email, Name: name, Firm: strings.TrimSpace(firm)}
	if err := s.deps.Advisors.Create(ctx, advisor); err != nil {
		return nil, err
	}
	return advisor, nil
}

// CreateClient commits a new client and then notifies the advisor's live
// dashboards. The event is only published after the insert succeeded.
func (s *Service) CreateClient(ctx context.Context, advisorID int64, name, email, riskProfile, momentumRef string) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, platformerrors.ValidationError("client name is required")
	}
	switch riskProfile {
	case "":
		riskProfile = "balanced"
	case "conservative", "balanced", "aggressive":
	default:
		return nil, platformerrors.ValidationError("risk_profile must be conservative, balanced, or aggressive").
			WithContext("risk_profile", riskProfile)
	}

	client := &domain.Client{
		AdvisorID:   advisorID,
		Name:        name,
		Email:       strings.TrimSpace(email),
		RiskProfile: riskProfile,
		MomentumRef: strings.TrimSpace(momentumRef),
	}
	if err := s.deps.Clients.Create(ctx, client); err != nil {
		return nil, err
	}

	s.deps.Publisher.Publish(ctx, domain.ClientCreatedEvent{
		AdvisorID: advisorID,
		ClientID:  client.ID,
		Name:      client.Name,
	})
	return client, nil
}

// ListClients returns the advisor's client book.
func (s *Service) ListClients(ctx context.Context, advisorID int64) ([]domain.Client, error) {
	return s.deps.Clients.ListByAdvisor(ctx, advisorID)
}

// SubmitFeedback scores and commits a piece of client feedback, invalidates
// the advisor's trend cache, notifies live dashboards, and escalates urgent
// feedback by email. Scoring failures never block ingestion.
func (s *Service) SubmitFeedback(ctx context.Context, advisorID, clientID int64, channel, text string) (*domain.Feedback, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, platformerrors.ValidationError("feedback text is required")
	}
	if channel == "" {
		channel = "web"
	}

	client, err := s.ownedClient(ctx, advisorID, clientID)
	if err != nil {
		return nil, err
	}

	score, label, urgency, topics, err := s.deps.Scorer.Score(ctx, text)
	if err != nil {
		slog.WarnContext(ctx, "Sentiment scoring failed, storing neutral", "error", err)
		score, label, urgency, topics = 0, "neutral", 1, nil
	}

	feedback := &domain.Feedback{
		ClientID:       clientID,
		AdvisorID:      advisorID,
		Channel:        channel,
		Text:           text,
		SentimentScore: score,
		SentimentLabel: label,
		Urgency:        urgency,
		Topics:         topics,
	}
	if err := s.deps.Feedback.Create(ctx, feedback); err != nil {
		return nil, err
	}

	s.deps.Trends.Invalidate(ctx, advisorID)

	s.deps.Publisher.Publish(ctx, domain.NewFeedbackEvent{
		AdvisorID:  advisorID,
		FeedbackID: feedback.ID,
		ClientID:   clientID,
		Sentiment:  label,
		Urgency:    urgency,
		Topics:     topics,
	})

	if urgency >= urgentThreshold {
		s.escalateUrgentFeedback(ctx, advisorID, client, feedback)
	}
	return feedback, nil
}

func (s *Service) escalateUrgentFeedback(ctx context.Context, advisorID int64, client *domain.Client, feedback *domain.Feedback) {
	advisor, err := s.deps.Advisors.GetByID(ctx, advisorID)
	if err != nil {
		slog.WarnContext(ctx, "Cannot escalate urgent feedback, advisor lookup failed", "advisor_id", advisorID, "error", err)
		return
	}

	subject := fmt.Sprintf("Urgent feedback from %s", client.Name)
	body := fmt.Sprintf("Client %s left feedback with urgency %d/5 at %s:\n\n%s",
		client.Name, feedback.Urgency, s.deps.Clock.Now().Format(time.RFC1123), feedback.Text)
	if err := s.deps.Email.Send(ctx, advisor.Email, subject, body); err != nil {
		slog.WarnContext(ctx, "Failed to send urgent feedback email", "advisor_id", advisorID, "error", err)
	}
}

// SentimentTrends returns the advisor's daily sentiment aggregates.
func (s *Service) SentimentTrends(ctx context.Context, advisorID int64, days int) ([]domain.TrendPoint, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		return nil, platformerrors.ValidationError("days exceeds maximum window").WithContext("max_days", maxTrendDays)
	}
	return s.deps.Trends.SentimentTrends(ctx, advisorID, days)
}

// GetPortfolio returns a client's last synced portfolio snapshot.
func (s *Service) GetPortfolio(ctx context.Context, advisorID, clientID int64) (*domain.Portfolio, error) {
	if _, err := s.ownedClient(ctx, advisorID, clientID); err != nil {
		return nil, err
	}
	return s.deps.Portfolios.GetByClient(ctx, clientID)
}

// SyncResult summarizes one portfolio sync run.
type SyncResult struct {
	Synced  []int64 `json:"synced_client_ids"`
	Skipped []int64 `json:"skipped_client_ids"`
}

// SyncPortfolios pulls fresh portfolio snapshots for every linked client of
// the advisor. Each client syncs independently; a per-client failure skips
// that client. Dashboards are notified per committed snapshot.
func (s *Service) SyncPortfolios(ctx context.Context, advisorID int64) (*SyncResult, error) {
	linked, err := s.deps.Clients.ListLinked(ctx, advisorID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, client := range linked {
		portfolio, err := s.deps.Momentum.FetchPortfolio(ctx, client.MomentumRef)
		if err != nil {
			if errors.Is(err, momentum.ErrUnknownReference) {
				slog.InfoContext(ctx, "Skipping client with unknown partner reference",
					"client_id", client.ID, "momentum_ref", client.MomentumRef)
				metrics.MomentumSyncTotal.WithLabelValues("skipped").Inc()
			} else {
				slog.WarnContext(ctx, "Portfolio fetch failed, skipping client",
					"client_id", client.ID, "error", err)
				metrics.MomentumSyncTotal.WithLabelValues("error").Inc()
			}
			result.Skipped = append(result.Skipped, client.ID)
			continue
		}

		portfolio.ClientID = client.ID
		if err := s.deps.Portfolios.Upsert(ctx, portfolio); err != nil {
			slog.ErrorContext(ctx, "Failed to store synced portfolio",
				"client_id", client.ID, "error", err)
			metrics.MomentumSyncTotal.WithLabelValues("error").Inc()
			result.Skipped = append(result.Skipped, client.ID)
			continue
		}

		metrics.MomentumSyncTotal.WithLabelValues("synced").Inc()
		result.Synced = append(result.Synced, client.ID)

		s.deps.Publisher.Publish(ctx, domain.PortfolioSyncedEvent{
			AdvisorID: advisorID,
			ClientID:  client.ID,
		})
	}
	return result, nil
}

// IntegrationStatus reports partner and AI service availability.
type IntegrationStatus struct {
	Momentum string `json:"momentum"`
	AI       string `json:"ai"`
}

func (s *Service) GetIntegrationStatus(ctx context.Context) IntegrationStatus {
	status := IntegrationStatus{Momentum: "connected", AI: "configured"}
	if err := s.deps.Momentum.Status(ctx); err != nil {
		status.Momentum = "unavailable"
	}
	if s.deps.Generator == nil {
		status.AI = "fallback"
	}
	return status
}

// PersonalizedContent drafts client communication. When the AI service is
// unavailable it returns a plain template so the advisor always gets a
// usable draft.
func (s *Service) PersonalizedContent(ctx context.Context, advisorID, clientID int64, goal string) (string, error) {
	client, err := s.ownedClient(ctx, advisorID, clientID)
	if err != nil {
		return "", err
	}

	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", platformerrors.ValidationError("goal is required")
	}

	if s.deps.Generator != nil {
		prompt := fmt.Sprintf(
			"Draft a short, professional message from a financial advisor to client %s (risk profile: %s). Goal: %s",
			client.Name, client.RiskProfile, goal)
		draft, err := s.deps.Generator.Generate(ctx, prompt)
		if err == nil {
			return draft, nil
		}
		slog.WarnContext(ctx, "Content generation failed, using template", "error", err)
	}

	return fmt.Sprintf("Dear %s,\n\n%s\n\nKind regards", client.Name, goal), nil
}

// ownedClient loads the client and verifies it belongs to the advisor.
// Foreign clients are reported as not found, never as forbidden, so the
// endpoint does not leak other advisors' client IDs.
func (s *Service) ownedClient(ctx context.Context, advisorID, clientID int64) (*domain.Client, error) {
	client, err := s.deps.Clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.AdvisorID != advisorID {
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}
