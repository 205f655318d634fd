package dashclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seededCache() *MemoryCache {
	cache := NewMemoryCache()
	cache.Set(KeySentimentTrends, "trends-data")
	cache.Set(KeyClients, "client-list")
	cache.Set(PortfolioKey(42), "portfolio-42")
	cache.Set(PortfolioKey(43), "portfolio-43")
	return cache
}

func TestInvalidator_NewFeedback(t *testing.T) {
	cache := seededCache()
	inv := NewInvalidator(cache)

	inv.HandleMessage([]byte(`{"type":"new_feedback","feedback_id":5,"client_id":42,"sentiment":"negative","urgency":4,"topics":["fees"]}`))

	_, ok := cache.Get(KeySentimentTrends)
	assert.False(t, ok)
	_, ok = cache.Get(KeyClients)
	assert.False(t, ok)
	_, ok = cache.Get(PortfolioKey(42))
	assert.True(t, ok, "feedback never touches portfolios")
}

func TestInvalidator_PortfolioSynced(t *testing.T) {
	cache := seededCache()
	inv := NewInvalidator(cache)

	inv.HandleMessage([]byte(`{"type":"portfolio_synced","client_id":42}`))

	_, ok := cache.Get(PortfolioKey(42))
	assert.False(t, ok)
	_, ok = cache.Get(PortfolioKey(43))
	assert.True(t, ok, "only the synced client's portfolio goes stale")
	_, ok = cache.Get(KeyClients)
	assert.False(t, ok)
	_, ok = cache.Get(KeySentimentTrends)
	assert.True(t, ok)
}

func TestInvalidator_ClientCreated(t *testing.T) {
	cache := seededCache()
	inv := NewInvalidator(cache)

	inv.HandleMessage([]byte(`{"type":"client_created","client_id":44,"name":"Pieter Botha"}`))

	_, ok := cache.Get(KeyClients)
	assert.False(t, ok)
	_, ok = cache.Get(KeySentimentTrends)
	assert.True(t, ok)
}

func TestInvalidator_UnknownTypeIgnored(t *testing.T) {
	cache := seededCache()
	inv := NewInvalidator(cache)

	inv.HandleMessage([]byte(`{"type":"advisor_promoted","advisor_id":1}`))

	_, ok := cache.Get(KeyClients)
	assert.True(t, ok)
	_, ok = cache.Get(KeySentimentTrends)
	assert.True(t, ok)
}

func TestInvalidator_MalformedFrameIgnored(t *testing.T) {
	cache := seededCache()
	inv := NewInvalidator(cache)

	inv.HandleMessage([]byte(`not json at all`))
	inv.HandleMessage(nil)

	_, ok := cache.Get(KeyClients)
	assert.True(t, ok)
}

func TestMemoryCache_InvalidateAll(t *testing.T) {
	cache := seededCache()
	cache.InvalidateAll()

	_, ok := cache.Get(KeyClients)
	assert.False(t, ok)
	_, ok = cache.Get(PortfolioKey(42))
	assert.False(t, ok)
}
