package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paul-reitz/relate.io/internal/domain"
)

type FeedbackRepo struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

func (r *FeedbackRepo) Create(ctx context.Context, feedback *domain.Feedback) (err error) {
	start := time.Now()
	defer func() { observe("feedback_create", start, err) }()

	topics := feedback.Topics
	if topics == nil {
		topics = []string{}
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO feedback (client_id, advisor_id, channel, body, sentiment_score, sentiment_label, urgency, topics)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		feedback.ClientID, feedback.AdvisorID, feedback.Channel, feedback.Text,
		feedback.SentimentScore, feedback.SentimentLabel, feedback.Urgency, topics,
	).Scan(&feedback.ID, &feedback.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// SentimentTrends aggregates average sentiment per day over the trailing
// window for one advisor's book.
func (r *FeedbackRepo) SentimentTrends(ctx context.Context, advisorID int64, days int) (points []domain.TrendPoint, err error) {
	start := time.Now()
	defer func() { observe("feedback_trends", start, err) }()

	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', created_at) AS day,
		        avg(sentiment_score) AS average_score,
		        count(*) AS cnt
		 FROM feedback
		 WHERE advisor_id = $1 AND created_at >= now() - make_interval(days => $2)
		 GROUP BY day
		 ORDER BY day`,
		advisorID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment trends: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.TrendPoint
		if err := rows.Scan(&p.Day, &p.AverageScore, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trend points: %w", err)
	}
	return points, nil
}
