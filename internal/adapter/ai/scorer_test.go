package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordScore_Positive(t *testing.T) {
	score, label, urgency, _ := keywordScore("Thank you, I am very happy with the excellent service")

	assert.Greater(t, score, 0.2)
	assert.Equal(t, "positive", label)
	assert.Equal(t, 1, urgency)
}

func TestKeywordScore_Negative(t *testing.T) {
	score, label, _, topics := keywordScore("I am very disappointed with the poor performance and high fees")

	assert.Less(t, score, -0.2)
	assert.Equal(t, "negative", label)
	assert.ElementsMatch(t, []string{"performance", "fees"}, topics)
}

func TestKeywordScore_Neutral(t *testing.T) {
	score, label, urgency, topics := keywordScore("Please send me the quarterly statement")

	assert.Equal(t, 0.0, score)
	assert.Equal(t, "neutral", label)
	assert.Equal(t, 1, urgency)
	assert.Empty(t, topics)
}

func TestKeywordScore_UrgencyEscalation(t *testing.T) {
	_, _, urgency, _ := keywordScore("This is urgent, I want to withdraw everything immediately. Terrible, terrible service.")

	assert.GreaterOrEqual(t, urgency, 3, "urgent keywords must escalate urgency")
	assert.LessOrEqual(t, urgency, 5)
}

func TestKeywordScore_BoundedScore(t *testing.T) {
	score, _, _, _ := keywordScore("terrible terrible terrible bad bad angry frustrated")
	assert.GreaterOrEqual(t, score, -1.0)

	score, _, _, _ = keywordScore("happy happy great excellent wonderful")
	assert.LessOrEqual(t, score, 1.0)
}

func TestScorer_UnconfiguredClientUsesFallback(t *testing.T) {
	scorer := NewScorer(NewClient("http://localhost:1", "", "test-model"))

	score, label, urgency, _, err := scorer.Score(context.Background(), "I am unhappy with the fees")
	require.NoError(t, err)
	assert.Less(t, score, 0.0)
	assert.Equal(t, "negative", label)
	assert.GreaterOrEqual(t, urgency, 1)
}

func TestScorer_NilClientUsesFallback(t *testing.T) {
	scorer := NewScorer(nil)

	_, label, _, _, err := scorer.Score(context.Background(), "great advice, thank you")
	require.NoError(t, err)
	assert.Equal(t, "positive", label)
}
