package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/models/store"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
)

// flakyFeed fails selected Append calls and optionally the Trim.
type flakyFeed struct {
	feed.Store
	failAppends map[int]error
	failTrim    error
	appendCalls int
}

func (f *flakyFeed) Append(ctx context.Context, rec store.FeedRecord) (string, error) {
	call := f.appendCalls
	f.appendCalls++
	if err, ok := f.failAppends[call]; ok {
		return "", err
	}
	return f.Store.Append(ctx, rec)
}

func (f *flakyFeed) Trim(ctx context.Context, maxLen int64) error {
	if f.failTrim != nil {
		return f.failTrim
	}
	return f.Store.Trim(ctx, maxLen)
}

func sampleOffers() []domain.Offer {
	observed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Offer{
		{Source: "vast_ai", Model: "Rtx 4090", PriceUSDHour: 0.74, Region: "eu-west", Availability: 2, QualityScore: 1.0, ObservedAt: observed},
		{Source: "vast_ai", Model: "Rtx 3080", PriceUSDHour: 0.32, Region: "us-east", Availability: 1, QualityScore: 0.8, ObservedAt: observed},
		{Source: "vast_ai", Model: "H100", PriceUSDHour: 4.5, Region: "eu-west", Availability: 1, QualityScore: 0.9, ObservedAt: observed},
	}
}

func TestPublish_AppendsAllOffers(t *testing.T) {
	ctx := context.Background()
	mem := feed.NewMemory()
	p := New(mem, 100)

	count, err := p.Publish(ctx, "vast_ai", sampleOffers())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	records, err := mem.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// newest first: the last published offer comes back first
	newest := records[0]
	assert.Equal(t, "H100", newest.Field(store.FieldGPUModel))
	assert.Equal(t, "vast_ai", newest.Field(store.FieldCloud))
	assert.Equal(t, "4.5", newest.Field(store.FieldPriceUSDHr))
	assert.Equal(t, "1", newest.Field(store.FieldAvailability))
	assert.Equal(t, "0.9", newest.Field(store.FieldQualityScore))
	assert.NotEmpty(t, newest.Field(store.FieldTimestamp))
	assert.NotEmpty(t, newest.Field(store.FieldISOTimestamp))
	assert.Empty(t, newest.Field(store.FieldSynthetic))
}

func TestPublish_SkipsFailedAppend(t *testing.T) {
	ctx := context.Background()
	f := &flakyFeed{
		Store:       feed.NewMemory(),
		failAppends: map[int]error{1: errors.New("write refused")},
	}
	p := New(f, 100)

	count, err := p.Publish(ctx, "vast_ai", sampleOffers())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := f.Store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPublish_AllAppendsFailed(t *testing.T) {
	cause := errors.New("connection refused")
	f := &flakyFeed{
		Store:       feed.NewMemory(),
		failAppends: map[int]error{0: cause, 1: cause, 2: cause},
	}
	p := New(f, 100)

	count, err := p.Publish(context.Background(), "vast_ai", sampleOffers())
	assert.Equal(t, 0, count)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestPublish_TrimFailureIsNotFatal(t *testing.T) {
	f := &flakyFeed{
		Store:    feed.NewMemory(),
		failTrim: errors.New("trim refused"),
	}
	p := New(f, 100)

	count, err := p.Publish(context.Background(), "vast_ai", sampleOffers())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPublish_TrimsFeedToMaxLength(t *testing.T) {
	ctx := context.Background()
	mem := feed.NewMemory()
	p := New(mem, 5)

	for i := 0; i < 4; i++ {
		_, err := p.Publish(ctx, "vast_ai", sampleOffers())
		require.NoError(t, err)
	}

	n, err := mem.Len(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, int64(5))
}

func TestPublish_EmptyBatch(t *testing.T) {
	p := New(feed.NewMemory(), 100)

	count, err := p.Publish(context.Background(), "vast_ai", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPublish_SyntheticOffersAreTagged(t *testing.T) {
	ctx := context.Background()
	mem := feed.NewMemory()
	p := New(mem, 100)

	offers := []domain.Offer{{
		Source: "runpod", Model: "H100", PriceUSDHour: 4.5,
		Region: "global", Availability: 1, QualityScore: 0.8, Synthetic: true,
	}}

	_, err := p.Publish(ctx, "runpod", offers)
	require.NoError(t, err)

	records, err := mem.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "true", records[0].Field(store.FieldSynthetic))
}
