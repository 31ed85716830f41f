package synthetic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/domain/energy"
)

var noon = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

func newTestGenerator(opts ...Option) *Generator {
	opts = append([]Option{WithClock(func() time.Time { return noon })}, opts...)
	return NewGenerator("cft/ems/site1", zap.NewNop(), opts...)
}

func TestGeneratorLatest(t *testing.T) {
	g := newTestGenerator()

	rec, err := g.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)

	t.Run("Should align to the current minute", func(t *testing.T) {
		assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli(), rec.ResolvedTimestamp())
		assert.Equal(t, "cft/ems/site1", rec.PK)
	})

	t.Run("Should carry the recognized payload", func(t *testing.T) {
		assert.True(t, energy.HasSolarChannels(rec.Payload))
		assert.Greater(t, energy.DeriveSolarKw(rec.Payload), 0.0)

		load, ok := rec.Payload.Object(energy.KeyLoad).Number(energy.KeyKw)
		assert.True(t, ok)
		assert.Greater(t, load, 0.0)

		reported, ok := rec.Payload.Number(energy.KeySolarKw)
		assert.True(t, ok)
		assert.InDelta(t, energy.ComputeSolarKw(rec.Payload), reported, 0.001)
	})

	t.Run("Should be deterministic", func(t *testing.T) {
		again, err := g.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, rec, again)
	})

	t.Run("Should produce no solar at night", func(t *testing.T) {
		night := NewGenerator("p", zap.NewNop(), WithClock(func() time.Time {
			return time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
		}))
		r, err := night.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.0, energy.ComputeSolarKw(r.Payload))
	})
}

func TestGeneratorLastN(t *testing.T) {
	g := newTestGenerator()

	t.Run("Should return consecutive minutes oldest first", func(t *testing.T) {
		records, err := g.LastN(context.Background(), 5)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i := 1; i < len(records); i++ {
			assert.Equal(t, Interval.Milliseconds(), records[i].ResolvedTimestamp()-records[i-1].ResolvedTimestamp())
		}
	})

	t.Run("Should clamp n", func(t *testing.T) {
		records, err := g.LastN(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		records, err = g.LastN(context.Background(), 9999)
		require.NoError(t, err)
		assert.Len(t, records, ports.MaxPoints)
	})
}

func TestGeneratorByDateRange(t *testing.T) {
	g := newTestGenerator()
	days, err := energy.ParseDayRange("2024-03-01", "2024-03-01")
	require.NoError(t, err)

	t.Run("Should page newest first and stop at now", func(t *testing.T) {
		first, err := g.ByDateRange(context.Background(), days, 3, "")
		require.NoError(t, err)
		require.Len(t, first.Items, 3)
		require.NotEmpty(t, first.LastKey)
		assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli(), first.Items[0].ResolvedTimestamp())

		second, err := g.ByDateRange(context.Background(), days, 3, first.LastKey)
		require.NoError(t, err)
		require.Len(t, second.Items, 3)
		assert.Equal(t,
			first.Items[2].ResolvedTimestamp()-Interval.Milliseconds(),
			second.Items[0].ResolvedTimestamp())
	})

	t.Run("Should return an empty page for future days", func(t *testing.T) {
		future, err := energy.ParseDayRange("2030-01-01", "2030-01-02")
		require.NoError(t, err)
		page, err := g.ByDateRange(context.Background(), future, 10, "")
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Empty(t, page.LastKey)
	})

	t.Run("Should reject malformed cursors", func(t *testing.T) {
		_, err := g.ByDateRange(context.Background(), days, 3, "%%%")
		assert.ErrorIs(t, err, ports.ErrInvalidCursor)
	})
}

func TestGeneratorByTimestampRange(t *testing.T) {
	end := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	start := end - 10*Interval.Milliseconds() + 1

	t.Run("Should return aligned minutes inside the bounds", func(t *testing.T) {
		page, err := newTestGenerator().ByTimestampRange(context.Background(), start, end, "")
		require.NoError(t, err)
		assert.Len(t, page.Items, 10)
		assert.Equal(t, end, page.Items[len(page.Items)-1].ResolvedTimestamp())
		assert.Empty(t, page.LastKey)
	})

	t.Run("Should cap the item count", func(t *testing.T) {
		page, err := newTestGenerator(WithMaxItems(4)).ByTimestampRange(context.Background(), start, end, "")
		require.NoError(t, err)
		assert.Len(t, page.Items, 4)
		assert.NotEmpty(t, page.LastKey)
	})

	t.Run("Should resume a capped read from its cursor", func(t *testing.T) {
		g := newTestGenerator(WithMaxItems(4))

		var (
			all    []int64
			cursor string
			calls  int
		)
		for {
			page, err := g.ByTimestampRange(context.Background(), start, end, cursor)
			require.NoError(t, err)
			for _, rec := range page.Items {
				all = append(all, rec.ResolvedTimestamp())
			}
			calls++
			if page.LastKey == "" {
				break
			}
			cursor = page.LastKey
			require.Less(t, calls, 10)
		}

		assert.Equal(t, 3, calls)
		require.Len(t, all, 10)
		for i := 1; i < len(all); i++ {
			assert.Equal(t, Interval.Milliseconds(), all[i]-all[i-1])
		}
		assert.Equal(t, end, all[len(all)-1])
	})

	t.Run("Should reject malformed range cursors", func(t *testing.T) {
		_, err := newTestGenerator().ByTimestampRange(context.Background(), start, end, "%%%")
		assert.ErrorIs(t, err, ports.ErrInvalidCursor)
	})
}

func TestGeneratorRawLatest(t *testing.T) {
	raw, err := newTestGenerator().RawLatest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, raw, 2)

	name, payload := energy.NormalizeStrategy(raw[0])
	assert.Equal(t, "payload", name)
	assert.False(t, payload.IsEmpty())
}
