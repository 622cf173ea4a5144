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

func TestMemberRollup(t *testing.T) {
	api := &fakeAPI{
		count: func(collection, filter string) (int, error) {
			switch {
			case collection == CollectionEmails:
				return 12, nil
			case strings.Contains(filter, FieldFCR+" eq true"):
				return 7, nil
			case strings.Contains(filter, FieldEscalatedTier2On+" ne null"):
				return 1, nil
			case strings.Contains(filter, FieldModifiedOn+" ge "):
				return 30, nil
			case strings.Contains(filter, FieldResolvedOn+" ge "):
				return 9, nil
			case strings.Contains(filter, FieldCreatedOn+" ge "):
				return 10, nil
			default:
				// Active cases: owner scope, no window.
				return 4, nil
			}
		},
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			switch {
			case q.Collection == CollectionCalls:
				return []caseapi.Record{
					{FieldCallDuration: float64(4)},
					{FieldCallDuration: float64(8)},
					{FieldCallDuration: float64(0)}, // abandoned
				}, nil
			case strings.Contains(q.Filter, FieldCSATReceived):
				return []caseapi.Record{
					{FieldCSATScore: float64(5)},
					{FieldCSATScore: float64(4)},
				}, nil
			case strings.Contains(q.Expand, RelationResolveKPI):
				return []caseapi.Record{
					kpiRecord(KPIStatusMet),
					kpiRecord(KPIStatusMet),
					kpiRecord(KPIStatusMissed),
				}, nil
			case strings.Contains(q.Select, FieldResolutionMinutes):
				return []caseapi.Record{
					{
						FieldCreatedOn:  "2025-03-01T10:00:00Z",
						FieldResolvedOn: "2025-03-01T12:00:00Z",
					},
				}, nil
			}
			return nil, nil
		},
	}

	engine := NewMemberEngine(api, &batch.Executor{})
	win := testWindow(t, "2025-03-01", "2025-03-31")

	m, failures := engine.Rollup(context.Background(), "member-7", win)

	assert.Empty(t, failures)
	assert.Equal(t, "member-7", m.MemberID)
	assert.Equal(t, 30, m.OwnedCases)
	assert.Equal(t, 10, m.CreatedCases)
	assert.Equal(t, 9, m.ResolvedCases)
	assert.Equal(t, 4, m.ActiveCases)
	assert.Equal(t, 12, m.EmailsSent)

	assert.Equal(t, 2, m.SLAMet)
	assert.Equal(t, 1, m.SLAMissed)
	require.True(t, m.SLACompliance.Valid)
	assert.Equal(t, 67, m.SLACompliance.Value)

	require.True(t, m.FCRRate.Valid)
	assert.Equal(t, 70, m.FCRRate.Value)
	assert.Equal(t, "met", string(m.FCRStatus))

	assert.Equal(t, 3, m.CallsTotal)
	assert.Equal(t, 2, m.CallsAnswered)
	assert.Equal(t, 1, m.CallsAbandoned)
	assert.Equal(t, "6 min", m.AvgHandleTime)
	assert.Equal(t, "met", string(m.AHTStatus))

	assert.Equal(t, 2, m.CSATResponses)
	require.NotNil(t, m.CSATAverage)
	assert.InDelta(t, 4.5, *m.CSATAverage, 0.001)
	assert.Equal(t, "met", string(m.CSATStatus))

	// Accumulators feed the team combinator.
	assert.InDelta(t, 12, m.CallMinutesSum, 0.001)
	assert.InDelta(t, 9, m.CSATScoreSum, 0.001)
	assert.InDelta(t, 120, m.ResolveMinutesSum, 0.001)
	assert.Equal(t, 1, m.ResolveSamples)
	assert.Equal(t, "2.0h", m.AvgResolutionTime)
}

func TestMemberRollupOwnerScoping(t *testing.T) {
	var filters []string
	api := &fakeAPI{
		count: func(_, filter string) (int, error) {
			filters = append(filters, filter)
			return 0, nil
		},
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			filters = append(filters, q.Filter)
			return nil, nil
		},
	}

	engine := NewMemberEngine(api, &batch.Executor{})
	engine.Rollup(context.Background(), "abc-123", testWindow(t, "2025-03-01", "2025-03-31"))

	require.NotEmpty(t, filters)
	for _, f := range filters {
		assert.Contains(t, f, FieldOwner+" eq 'abc-123'")
	}
}

func TestMemberRollupEmptyIsNA(t *testing.T) {
	engine := NewMemberEngine(&fakeAPI{}, &batch.Executor{})

	m, failures := engine.Rollup(context.Background(), "idle", testWindow(t, "2025-03-01", "2025-03-31"))

	assert.Empty(t, failures)
	assert.False(t, m.SLACompliance.Valid)
	assert.False(t, m.FCRRate.Valid)
	assert.Nil(t, m.CSATAverage)
	assert.Equal(t, "na", string(m.CSATStatus))
	assert.Equal(t, "na", string(m.AHTStatus))
	assert.Equal(t, "N/A", m.AvgHandleTime)
	assert.Equal(t, "N/A", m.AvgResolutionTime)
}
