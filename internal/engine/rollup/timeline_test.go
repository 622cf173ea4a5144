package rollup

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpulserest/internal/engine/batch"
	"deskpulserest/internal/repositories/caseapi"
)

func dateRecord(field, timestamp string) caseapi.Record {
	return caseapi.Record{field: timestamp}
}

func TestTimelineSeriesZeroFilled(t *testing.T) {
	api := &fakeAPI{
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			switch {
			case q.Collection == CollectionCalls:
				return []caseapi.Record{
					dateRecord(FieldCallStart, "2025-03-03T14:00:00Z"),
					dateRecord(FieldCallStart, "2025-03-03T15:30:00Z"),
				}, nil
			case strings.Contains(q.Filter, FieldCSATReceived):
				return []caseapi.Record{
					{FieldResolvedOn: "2025-03-04T10:00:00Z", FieldCSATScore: float64(5)},
					{FieldResolvedOn: "2025-03-04T11:00:00Z", FieldCSATScore: float64(3)},
				}, nil
			case strings.Contains(q.Expand, RelationResolveKPI):
				return []caseapi.Record{
					{FieldCreatedOn: "2025-03-01T12:00:00Z",
						RelationResolveKPI: map[string]interface{}{RelationStatus: float64(KPIStatusMet)}},
					{FieldCreatedOn: "2025-03-01T13:00:00Z",
						RelationResolveKPI: map[string]interface{}{RelationStatus: float64(KPIStatusMissed)}},
				}, nil
			case strings.Contains(q.Filter, FieldEscalatedTier2On):
				return []caseapi.Record{dateRecord(FieldEscalatedTier2On, "2025-03-02T09:00:00Z")}, nil
			case strings.Contains(q.Filter, FieldEscalatedTier3On):
				return nil, nil
			default:
				// Tier 1 creations.
				return []caseapi.Record{
					dateRecord(FieldCreatedOn, "2025-03-01T12:00:00Z"),
					dateRecord(FieldCreatedOn, "2025-03-01T13:00:00Z"),
					dateRecord(FieldCreatedOn, "2025-03-03T08:00:00Z"),
				}, nil
			}
		},
	}

	engine := NewTimelineEngine(api, &batch.Executor{})
	win := testWindow(t, "2025-03-01", "2025-03-05")

	points, failures := engine.Series(context.Background(), win)

	assert.Empty(t, failures)
	require.Len(t, points, 5)

	assert.Equal(t, "2025-03-01", points[0].Date)
	assert.Equal(t, 2, points[0].Tier1Created)
	assert.Equal(t, 1, points[0].SLAMet)
	require.True(t, points[0].SLARate.Valid)
	assert.Equal(t, 50, points[0].SLARate.Value)

	assert.Equal(t, "2025-03-02", points[1].Date)
	assert.Equal(t, 1, points[1].Tier2Escalated)
	assert.False(t, points[1].SLARate.Valid)

	assert.Equal(t, 2, points[2].Calls)
	assert.Equal(t, 1, points[2].Tier1Created)

	require.NotNil(t, points[3].CSATAverage)
	assert.InDelta(t, 4.0, *points[3].CSATAverage, 0.001)

	// No records on the final day; the point is still emitted, zeroed.
	assert.Equal(t, "2025-03-05", points[4].Date)
	assert.Equal(t, 0, points[4].Tier1Created)
	assert.Equal(t, 0, points[4].Calls)
	assert.Nil(t, points[4].CSATAverage)
	assert.False(t, points[4].SLARate.Valid)
}

// All six queries land thousands of records on the same five day keys, so
// the concurrently-running steps contend on every bucket. The exact totals
// only hold when the shared tallies are mutated under the lock.
func TestTimelineSeriesConcurrentTallies(t *testing.T) {
	days := []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05"}
	const perQuery = 2000
	perDay := perQuery / len(days)

	bulk := func(field string) []caseapi.Record {
		records := make([]caseapi.Record, 0, perQuery)
		for i := 0; i < perQuery; i++ {
			records = append(records, dateRecord(field, days[i%len(days)]+"T12:00:00Z"))
		}
		return records
	}

	api := &fakeAPI{
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			switch {
			case q.Collection == CollectionCalls:
				return bulk(FieldCallStart), nil
			case strings.Contains(q.Filter, FieldCSATReceived):
				records := bulk(FieldResolvedOn)
				for _, rec := range records {
					rec[FieldCSATScore] = float64(4)
				}
				return records, nil
			case strings.Contains(q.Expand, RelationResolveKPI):
				records := bulk(FieldCreatedOn)
				for _, rec := range records {
					rec[RelationResolveKPI] = map[string]interface{}{RelationStatus: float64(KPIStatusMet)}
				}
				return records, nil
			case strings.Contains(q.Filter, FieldEscalatedTier2On):
				return bulk(FieldEscalatedTier2On), nil
			case strings.Contains(q.Filter, FieldEscalatedTier3On):
				return bulk(FieldEscalatedTier3On), nil
			default:
				return bulk(FieldCreatedOn), nil
			}
		},
	}

	engine := NewTimelineEngine(api, &batch.Executor{})
	points, failures := engine.Series(context.Background(), testWindow(t, "2025-03-01", "2025-03-05"))

	assert.Empty(t, failures)
	require.Len(t, points, len(days))

	for _, p := range points {
		assert.Equal(t, perDay, p.Tier1Created, p.Date)
		assert.Equal(t, perDay, p.Tier2Escalated, p.Date)
		assert.Equal(t, perDay, p.Tier3Escalated, p.Date)
		assert.Equal(t, perDay, p.Calls, p.Date)
		assert.Equal(t, perDay, p.SLAMet, p.Date)
		require.NotNil(t, p.CSATAverage, p.Date)
		assert.InDelta(t, 4.0, *p.CSATAverage, 0.001)
	}
}

func TestTimelineSeriesWindowBounds(t *testing.T) {
	engine := NewTimelineEngine(&fakeAPI{}, &batch.Executor{})

	oneDay, failures := engine.Series(context.Background(), testWindow(t, "2025-03-01", "2025-03-01"))
	assert.Nil(t, oneDay)
	assert.Empty(t, failures)

	tooLong, failures := engine.Series(context.Background(), testWindow(t, "2025-01-01", "2025-06-01"))
	assert.Nil(t, tooLong)
	assert.Empty(t, failures)

	twoDays, _ := engine.Series(context.Background(), testWindow(t, "2025-03-01", "2025-03-02"))
	assert.Len(t, twoDays, 2)

	ninetyDays, _ := engine.Series(context.Background(), testWindow(t, "2025-01-01", "2025-03-31"))
	assert.Len(t, ninetyDays, 90)
}

func TestTimelineSeriesPartialFailure(t *testing.T) {
	api := &fakeAPI{
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			if q.Collection == CollectionCalls {
				return nil, assert.AnError
			}
			return []caseapi.Record{dateRecord(FieldCreatedOn, "2025-03-01T12:00:00Z")}, nil
		},
	}

	engine := NewTimelineEngine(api, &batch.Executor{})
	points, failures := engine.Series(context.Background(), testWindow(t, "2025-03-01", "2025-03-03"))

	require.Len(t, failures, 1)
	assert.Equal(t, "timeline calls", failures[0].Label)

	// The series still materializes; only the failed dimension stays zero.
	require.Len(t, points, 3)
	assert.Equal(t, 0, points[0].Calls)
}
