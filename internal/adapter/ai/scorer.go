package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/paul-reitz/relate.io/internal/adapter/metrics"
)

// Scorer implements sentiment scoring. It prefers the AI endpoint and falls
// back to keyword matching when the client is unconfigured or the call
// fails, so feedback ingestion never blocks on the AI service.
type Scorer struct {
	client *Client
}

func NewScorer(client *Client) *Scorer {
	return &Scorer{client: client}
}

const scoringPrompt = `Analyze the sentiment of the following client feedback to a financial advisor.
Respond with only a JSON object: {"score": <float -1 to 1>, "label": "positive"|"neutral"|"negative", "urgency": <int 1 to 5>, "topics": [<strings>]}.

Feedback: %s`

type scoringResult struct {
	Score   float64  `json:"score"`
	Label   string   `json:"label"`
	Urgency int      `json:"urgency"`
	Topics  []string `json:"topics"`
}

func (s *Scorer) Score(ctx context.Context, text string) (float64, string, int, []string, error) {
	if s.client != nil && s.client.Configured() {
		result, err := s.scoreWithAI(ctx, text)
		if err == nil {
			metrics.AIRequestsTotal.WithLabelValues("score", "success").Inc()
			return result.Score, result.Label, result.Urgency, result.Topics, nil
		}
		slog.Warn("AI scoring failed, using keyword fallback", "error", err)
		metrics.AIRequestsTotal.WithLabelValues("score", "fallback").Inc()
	}

	score, label, urgency, topics := keywordScore(text)
	return score, label, urgency, topics, nil
}

func (s *Scorer) scoreWithAI(ctx context.Context, text string) (*scoringResult, error) {
	raw, err := s.client.Generate(ctx, fmt.Sprintf(scoringPrompt, text))
	if err != nil {
		return nil, err
	}

	// Models sometimes wrap JSON in a code fence
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var result scoringResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	result.Score = clamp(result.Score, -1, 1)
	if result.Urgency < 1 {
		result.Urgency = 1
	}
	if result.Urgency > 5 {
		result.Urgency = 5
	}
	switch result.Label {
	case "positive", "neutral", "negative":
	default:
		result.Label = labelFor(result.Score)
	}
	return &result, nil
}

var positiveWords = []string{
	"happy", "great", "excellent", "thank", "pleased", "impressed",
	"wonderful", "satisfied", "helpful", "confident", "good",
}

var negativeWords = []string{
	"unhappy", "disappointed", "angry", "frustrated", "terrible", "worried",
	"concerned", "bad", "poor", "losing", "loss", "unacceptable", "slow",
}

var urgentWords = []string{
	"urgent", "immediately", "asap", "lawyer", "complaint", "withdraw",
	"cancel", "leaving", "ombudsman",
}

var topicKeywords = map[string][]string{
	"fees":          {"fee", "fees", "charge", "charges", "cost", "expensive"},
	"performance":   {"performance", "return", "returns", "growth", "losing", "loss", "gains"},
	"communication": {"call", "email", "respond", "response", "contact", "communication", "update"},
	"risk":          {"risk", "risky", "volatile", "exposure", "safe", "conservative"},
	"service":       {"service", "support", "meeting", "appointment", "advice"},
}

// keywordScore is the degraded-mode scorer. It is intentionally crude; it
// exists so that feedback keeps flowing when the AI service is down.
func keywordScore(text string) (float64, string, int, []string) {
	tokens := tokenize(text)

	var positive, negative int
	for _, token := range tokens {
		if contains(positiveWords, token) {
			positive++
		}
		if contains(negativeWords, token) {
			negative++
		}
	}

	score := 0.0
	if positive+negative > 0 {
		score = float64(positive-negative) / float64(positive+negative)
	}
	score = clamp(score, -1, 1)

	urgency := 1
	for _, token := range tokens {
		if contains(urgentWords, token) {
			urgency += 2
			break
		}
	}
	if score < -0.5 {
		urgency += 1
	}
	if urgency > 5 {
		urgency = 5
	}

	var topics []string
	for topic, words := range topicKeywords {
		for _, token := range tokens {
			if contains(words, token) {
				topics = append(topics, topic)
				break
			}
		}
	}

	return score, labelFor(score), urgency, topics
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func contains(words []string, token string) bool {
	for _, word := range words {
		if word == token {
			return true
		}
	}
	return false
}

func labelFor(score float64) string {
	switch {
	case score > 0.2:
		return "positive"
	case score < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
