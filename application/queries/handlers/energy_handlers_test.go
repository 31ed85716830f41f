package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/application/queries"
	"energy-dashboard/application/queries/bus"
	"energy-dashboard/application/views"
	"energy-dashboard/domain/energy"
	apperrors "energy-dashboard/pkg/errors"
)

type stubRepository struct {
	records []energy.Record
	page    energy.Page
	raw     []map[string]any
	err     error
	n       int
	days    energy.DayRange
	cursor  string
}

func (s *stubRepository) Latest(ctx context.Context) (*energy.Record, error) {
	if s.err != nil || len(s.records) == 0 {
		return nil, s.err
	}
	return &s.records[len(s.records)-1], nil
}

func (s *stubRepository) LastN(ctx context.Context, n int) ([]energy.Record, error) {
	s.n = n
	return s.records, s.err
}

func (s *stubRepository) ByDateRange(ctx context.Context, days energy.DayRange, limit int, cursor string) (energy.Page, error) {
	s.days, s.n, s.cursor = days, limit, cursor
	return s.page, s.err
}

func (s *stubRepository) ByTimestampRange(ctx context.Context, startMs, endMs int64, cursor string) (energy.Page, error) {
	s.cursor = cursor
	return s.page, s.err
}

func (s *stubRepository) RawLatest(ctx context.Context, limit int) ([]map[string]any, error) {
	s.n = limit
	return s.raw, s.err
}

func newTestBus(t *testing.T, repo *stubRepository, synthetic bool) *bus.QueryBus {
	t.Helper()
	b := bus.NewQueryBus()
	require.NoError(t, NewEnergyQueryHandlers(repo, repo, synthetic, zap.NewNop()).Register(b))
	return b
}

func record(sk string, payload energy.Payload) energy.Record {
	return energy.Record{PK: "cft/ems/site1", SK: sk, Payload: payload}
}

func TestSeriesQuery(t *testing.T) {
	repo := &stubRepository{records: []energy.Record{
		record("2000", energy.Payload{energy.KeyLoad: map[string]any{energy.KeyKw: 4.0}}),
		record("3000", energy.Payload{}),
	}}
	b := newTestBus(t, repo, false)

	result, err := b.Ask(context.Background(), queries.GetEnergySeriesQuery{Points: 2})
	require.NoError(t, err)

	series := result.(*queries.GetEnergySeriesResult)
	require.Len(t, series.Items, 2)
	assert.Equal(t, "2000", series.Items[0].SK)
	assert.Equal(t, 4.0, series.Items[0].LoadKw)
	assert.Equal(t, 2, repo.n)
}

func TestLatestAndKpiQueries(t *testing.T) {
	t.Run("Should return a null item for an empty store", func(t *testing.T) {
		b := newTestBus(t, &stubRepository{}, false)

		result, err := b.Ask(context.Background(), queries.GetLatestRecordQuery{})
		require.NoError(t, err)
		assert.Nil(t, result.(*queries.GetLatestRecordResult).Item)

		result, err = b.Ask(context.Background(), queries.GetKpiSnapshotQuery{})
		require.NoError(t, err)
		kpis := result.(*views.KpiSnapshot)
		assert.Equal(t, energy.Stopped, kpis.NewIQFRunning)
		assert.Equal(t, 0.0, kpis.LoadKw)
	})

	t.Run("Should map store failures to database errors", func(t *testing.T) {
		b := newTestBus(t, &stubRepository{err: errors.New("throttled")}, false)

		_, err := b.Ask(context.Background(), queries.GetLatestRecordQuery{})
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, MsgFetchLatest, appErr.Message)
		assert.Equal(t, "throttled", appErr.Details())
		assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	})
}

func TestRangeQuery(t *testing.T) {
	repo := &stubRepository{page: energy.Page{Items: []energy.Record{record("1500", nil)}, LastKey: "abc"}}
	b := newTestBus(t, repo, false)

	t.Run("Should pass the page through", func(t *testing.T) {
		result, err := b.Ask(context.Background(), queries.GetRangeQuery{Start: 1000, End: 2000})
		require.NoError(t, err)
		page := result.(*queries.RecordPageResult)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, "abc", page.LastKey)
	})

	t.Run("Should forward the cursor", func(t *testing.T) {
		_, err := b.Ask(context.Background(), queries.GetRangeQuery{Start: 1000, End: 2000, Cursor: "abc"})
		require.NoError(t, err)
		assert.Equal(t, "abc", repo.cursor)
	})

	t.Run("Should map foreign cursors to validation errors", func(t *testing.T) {
		bad := &stubRepository{err: fmt.Errorf("decode: %w", ports.ErrInvalidCursor)}
		_, err := newTestBus(t, bad, false).Ask(context.Background(), queries.GetRangeQuery{Start: 1, End: 2, Cursor: "x"})
		require.Error(t, err)
		assert.Equal(t, queries.MsgInvalidCursor, apperrors.GetAppError(err).Message)
	})

	t.Run("Should reject start not before end", func(t *testing.T) {
		for _, q := range []queries.GetRangeQuery{{Start: 2000, End: 1000}, {Start: 1000, End: 1000}} {
			_, err := b.Ask(context.Background(), q)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, queries.MsgInvalidRange, apperrors.GetAppError(err).Message)
		}
	})

	t.Run("Should return an empty list instead of null", func(t *testing.T) {
		result, err := newTestBus(t, &stubRepository{}, false).Ask(context.Background(), queries.GetRangeQuery{Start: 1, End: 2})
		require.NoError(t, err)
		assert.NotNil(t, result.(*queries.RecordPageResult).Items)
	})
}

func TestHistoryQuery(t *testing.T) {
	t.Run("Should forward the day range, limit and cursor", func(t *testing.T) {
		repo := &stubRepository{}
		b := newTestBus(t, repo, false)

		_, err := b.Ask(context.Background(), queries.GetHistoryQuery{Start: "2024-03-01", End: "2024-03-02", Limit: 100, Cursor: "c1"})
		require.NoError(t, err)
		assert.Equal(t, 100, repo.n)
		assert.Equal(t, "c1", repo.cursor)
		assert.Equal(t, "2024-03-02", repo.days.End.Format(energy.DateLayout))
	})

	t.Run("Should reject malformed or reversed days", func(t *testing.T) {
		b := newTestBus(t, &stubRepository{}, false)
		for _, q := range []queries.GetHistoryQuery{
			{Start: "2024/03/01", End: "2024-03-02", Limit: 10},
			{Start: "2024-03-03", End: "2024-03-02", Limit: 10},
			{Start: "2024-03-01", End: "2024-03-02", Limit: 0},
		} {
			_, err := b.Ask(context.Background(), q)
			assert.True(t, apperrors.IsValidation(err), "query %+v", q)
		}
	})

	t.Run("Should report foreign cursors as validation errors", func(t *testing.T) {
		repo := &stubRepository{err: fmt.Errorf("decode: %w", ports.ErrInvalidCursor)}
		b := newTestBus(t, repo, false)

		_, err := b.Ask(context.Background(), queries.GetHistoryQuery{Start: "2024-03-01", End: "2024-03-01", Limit: 10, Cursor: "x"})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, queries.MsgInvalidCursor, apperrors.GetAppError(err).Message)
	})
}

func TestRawItemsQuery(t *testing.T) {
	t.Run("Should describe the newest item", func(t *testing.T) {
		repo := &stubRepository{raw: []map[string]any{
			{"PK": "p", "timestamp": "1", "payload": map[string]any{"solar_kw": 1.0, "load": map[string]any{}}},
			{"PK": "p", "timestamp": "0"},
		}}
		b := newTestBus(t, repo, false)

		result, err := b.Ask(context.Background(), queries.GetRawItemsQuery{Limit: 2})
		require.NoError(t, err)
		raw := result.(*queries.GetRawItemsResult)
		assert.Equal(t, 2, raw.ItemCount)
		assert.Equal(t, []string{"load", "solar_kw"}, raw.PayloadKeys)
		assert.Equal(t, "payload", raw.Strategy)
		assert.Equal(t, "1", raw.RawItem["timestamp"])
	})

	t.Run("Should report an empty store", func(t *testing.T) {
		result, err := newTestBus(t, &stubRepository{}, false).Ask(context.Background(), queries.GetRawItemsQuery{Limit: 2})
		require.NoError(t, err)
		raw := result.(*queries.GetRawItemsResult)
		assert.Equal(t, 0, raw.ItemCount)
		assert.Nil(t, raw.RawItem)
		assert.Empty(t, raw.PayloadKeys)
	})

	t.Run("Should skip the store in synthetic mode", func(t *testing.T) {
		repo := &stubRepository{err: errors.New("must not be called")}
		result, err := newTestBus(t, repo, true).Ask(context.Background(), queries.GetRawItemsQuery{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, &queries.SyntheticRawResult{Mode: "synthetic"}, result)
	})
}
