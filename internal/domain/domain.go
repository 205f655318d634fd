// Package domain holds the core CRM types and the interfaces the adapters
// implement. It has no dependencies on transport or storage.
package domain

import (
	"context"
	"time"
)

// Advisor is a registered financial advisor.
type Advisor struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Firm      string    `json:"firm"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is a client of an advisor. MomentumRef carries the partner-side
// identifier used during portfolio sync; empty means not linked.
type Client struct {
	ID          int64     `json:"id"`
	AdvisorID   int64     `json:"advisor_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	RiskProfile string    `json:"risk_profile"`
	MomentumRef string    `json:"momentum_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Feedback is a single piece of client feedback, scored for sentiment.
// SentimentScore is in [-1, 1], Urgency in [1, 5].
type Feedback struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client_id"`
	AdvisorID      int64     `json:"advisor_id"`
	Channel        string    `json:"channel"`
	Text           string    `json:"text"`
	SentimentScore float64   `json:"sentiment_score"`
	SentimentLabel string    `json:"sentiment_label"`
	Urgency        int       `json:"urgency"`
	Topics         []string  `json:"topics"`
	CreatedAt      time.Time `json:"created_at"`
}

// Portfolio is the last synced snapshot of a client's holdings.
type Portfolio struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	TotalValue float64   `json:"total_value"`
	Currency   string    `json:"currency"`
	SyncedAt   time.Time `json:"synced_at"`
	Holdings   []Holding `json:"holdings"`
}

// Holding is a single position within a portfolio.
type Holding struct {
	ID          int64   `json:"id"`
	PortfolioID int64   `json:"portfolio_id"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Value       float64 `json:"value"`
	AssetClass  string  `json:"asset_class"`
}

// TrendPoint is one day of aggregated sentiment for an advisor's book.
type TrendPoint struct {
	Day          time.Time `json:"day"`
	AverageScore float64   `json:"average_score"`
	Count        int       `json:"count"`
}

// AdvisorRepository persists advisors.
type AdvisorRepository interface {
	Create(ctx context.Context, advisor *Advisor) error
	GetByID(ctx context.Context, id int64) (*Advisor, error)
}

// ClientRepository persists clients.
type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	GetByID(ctx context.Context, id int64) (*Client, error)
	ListByAdvisor(ctx context.Context, advisorID int64) ([]Client, error)
	ListLinked(ctx context.Context, advisorID int64) ([]Client, error)
}

// FeedbackRepository persists feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *Feedback) error
	SentimentTrends(ctx context.Context, advisorID int64, days int) ([]TrendPoint, error)
}

// PortfolioRepository persists portfolio snapshots. Upsert replaces the
// client's snapshot and its holdings in one transaction.
type PortfolioRepository interface {
	Upsert(ctx context.Context, portfolio *Portfolio) error
	GetByClient(ctx context.Context, clientID int64) (*Portfolio, error)
}

// SentimentScorer scores free-text feedback.
type SentimentScorer interface {
	Score(ctx context.Context, text string) (score float64, label string, urgency int, topics []string, err error)
}

// ContentGenerator produces personalized client communication drafts.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PortfolioProvider fetches a client's current portfolio from a partner
// platform, keyed by the partner-side reference.
type PortfolioProvider interface {
	FetchPortfolio(ctx context.Context, ref string) (*Portfolio, error)
	Status(ctx context.Context) error
}

// EmailSender delivers advisor-facing notification emails. The shipped
// implementation only logs; real delivery is a separate concern.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher delivers change events to an advisor's live dashboard
// connections. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent)
}
