package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip_planner/internal/domain"
)

func TestPipelineLevels(t *testing.T) {
	require.Len(t, pipelineLevels, 6)
	assert.Equal(t, []domain.Stage{domain.StageAttractions, domain.StageWeather}, pipelineLevels[0].stages)
	assert.Equal(t, domain.StateFetchingAttractionsAndWeather, pipelineLevels[0].state)
	assert.Equal(t, []domain.Stage{domain.StageSummary}, pipelineLevels[5].stages)
	assert.Equal(t, domain.StateSummarizing, pipelineLevels[5].state)
}

func TestLevels_RejectsBadGraphs(t *testing.T) {
	_, err := levels([]edge{
		{stage: "a", after: []domain.Stage{"b"}},
		{stage: "b", after: []domain.Stage{"a"}},
	})
	assert.ErrorContains(t, err, "cycle")

	_, err = levels([]edge{{stage: "a", after: []domain.Stage{"missing"}}})
	assert.ErrorContains(t, err, "unknown stage")

	_, err = levels([]edge{{stage: "a"}, {stage: "a"}})
	assert.ErrorContains(t, err, "twice")
}

func TestFanOut_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	seen := make([]bool, 10)
	fanOut(context.Background(), len(seen), 3, func(i int) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		seen[i] = true
		inFlight.Add(-1)
	})
	assert.LessOrEqual(t, peak.Load(), int32(3))
	for i, ok := range seen {
		assert.True(t, ok, "slot %d not run", i)
	}
}

func TestMapRate(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	l, ok := mapRate("  New   York ", 2, map[string]any{
		"hotel_id":     "77",
		"hotel_name":   "Pod 51",
		"price":        map[string]any{"amount": "129,50", "currency": "usd"},
		"review_score": 8.4,
		"review_count": 312.0,
		"deeplink":     "https://example.test/pod51",
	}, at)
	require.True(t, ok)
	assert.EqualValues(t, 77, l.PropertyID)
	assert.Equal(t, "new york", l.Destination)
	assert.Equal(t, "USD", l.Currency)
	assert.Equal(t, "129.5", l.NightlyRate.String())
	assert.Equal(t, 2, l.MaxOccupancy)
	require.NotNil(t, l.Rating)
	assert.InDelta(t, 8.4, *l.Rating, 1e-9)
	require.NotNil(t, l.ReviewCount)
	assert.Equal(t, 312, *l.ReviewCount)
	require.NotNil(t, l.URL)
	assert.NotEmpty(t, l.RawJSON)

	_, ok = mapRate("x", 1, map[string]any{"id": 1.0, "price": 0.0, "currency": "EUR"}, at)
	assert.False(t, ok)
	_, ok = mapRate("x", 1, map[string]any{"price": 10.0, "currency": "EUR"}, at)
	assert.False(t, ok)
}
