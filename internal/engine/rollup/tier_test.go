package rollup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpulserest/internal/engine/batch"
	"deskpulserest/internal/repositories/caseapi"
	"deskpulserest/internal/timewindow"
)

// fakeAPI scripts the backend by inspecting filters and expands.
type fakeAPI struct {
	count func(collection, filter string) (int, error)
	fetch func(q caseapi.Query) ([]caseapi.Record, error)
}

func (f *fakeAPI) Count(_ context.Context, collection, filter, _ string) (int, error) {
	if f.count == nil {
		return 0, nil
	}
	return f.count(collection, filter)
}

func (f *fakeAPI) Fetch(_ context.Context, q caseapi.Query) ([]caseapi.Record, error) {
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(q)
}

func (f *fakeAPI) PageLimit() int { return 5000 }

func kpiRecord(status int) caseapi.Record {
	return caseapi.Record{
		RelationResolveKPI: map[string]interface{}{RelationStatus: float64(status)},
	}
}

func responseKPIRecord(status int) caseapi.Record {
	return caseapi.Record{
		RelationResponseKPI: map[string]interface{}{RelationStatus: float64(status)},
	}
}

func testWindow(t *testing.T, startDate, endDate string) timewindow.Window {
	t.Helper()
	win, err := timewindow.ResolveWindow(timewindow.CentralTime{}, startDate, "", endDate, "")
	require.NoError(t, err)
	return win
}

func TestTierRollupFrontLine(t *testing.T) {
	api := &fakeAPI{
		count: func(_, filter string) (int, error) {
			switch {
			case strings.Contains(filter, FieldFCR+" eq true"):
				return 6, nil
			case strings.Contains(filter, FieldEscalatedTier2On+" ne null"):
				return 2, nil
			case strings.Contains(filter, "statecode eq 1"):
				return 18, nil
			default:
				return 20, nil
			}
		},
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			switch {
			case strings.Contains(q.Expand, RelationResponseKPI):
				records := make([]caseapi.Record, 0, 18)
				for i := 0; i < 17; i++ {
					records = append(records, responseKPIRecord(KPIStatusMet))
				}
				return append(records, responseKPIRecord(KPIStatusMissed)), nil
			case strings.Contains(q.Filter, "statecode eq 0"):
				return []caseapi.Record{
					kpiRecord(KPIStatusMissed),
					kpiRecord(KPIStatusMet),
					{FieldCaseID: "no-kpi"},
				}, nil
			case strings.Contains(q.Expand, RelationResolveKPI):
				records := make([]caseapi.Record, 0, 18)
				for i := 0; i < 16; i++ {
					records = append(records, kpiRecord(KPIStatusMet))
				}
				records = append(records, kpiRecord(KPIStatusMissed), kpiRecord(KPIStatusMissed))
				return records, nil
			case strings.Contains(q.Select, FieldResolutionMinutes):
				return []caseapi.Record{
					{FieldResolutionMinutes: float64(120)},
					{FieldResolutionMinutes: float64(240)},
				}, nil
			}
			return nil, nil
		},
	}

	engine := NewTierEngine(api, &batch.Executor{})
	tier, ok := TierByCode("1")
	require.True(t, ok)

	m, failures := engine.Rollup(context.Background(), tier, testWindow(t, "2025-03-01", "2025-03-31"))

	assert.Empty(t, failures)
	assert.Equal(t, "1", m.TierCode)
	assert.Equal(t, 20, m.TotalCases)
	assert.Equal(t, 18, m.ResolvedCases)
	assert.Equal(t, 16, m.SLAMet)
	assert.Equal(t, 2, m.SLAMissed)

	require.True(t, m.SLACompliance.Valid)
	assert.Equal(t, 89, m.SLACompliance.Value)
	assert.Equal(t, "warn", string(m.SLAStatus))

	require.True(t, m.ResponseCompliance.Valid)
	assert.Equal(t, 94, m.ResponseCompliance.Value)

	// 1 breached of 3 active.
	assert.Equal(t, 1, m.OpenBreached)
	assert.Equal(t, 3, m.OpenTotal)
	require.True(t, m.OpenBreachRate.Valid)
	assert.Equal(t, 33, m.OpenBreachRate.Value)

	require.True(t, m.ResolutionRate.Valid)
	assert.Equal(t, 90, m.ResolutionRate.Value)

	require.True(t, m.FCRRate.Valid)
	assert.Equal(t, 30, m.FCRRate.Value)
	require.True(t, m.EscalationRate.Valid)
	assert.Equal(t, 10, m.EscalationRate.Value)

	assert.Equal(t, "3h 0m", m.AvgResolutionTime)
}

func TestTierRollupPartialFailure(t *testing.T) {
	api := &fakeAPI{
		count: func(_, filter string) (int, error) {
			if strings.Contains(filter, "statecode eq 1") {
				return 0, errors.New("backend returned 500 Internal Server Error")
			}
			return 10, nil
		},
		fetch: func(q caseapi.Query) ([]caseapi.Record, error) {
			if strings.Contains(q.Expand, RelationResolveKPI) && !strings.Contains(q.Filter, "statecode eq 0") {
				return []caseapi.Record{kpiRecord(KPIStatusMet)}, nil
			}
			return nil, nil
		},
	}

	engine := NewTierEngine(api, &batch.Executor{})
	tier, _ := TierByCode("2")

	m, failures := engine.Rollup(context.Background(), tier, testWindow(t, "2025-01-01", "2025-01-31"))

	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Label, "tier 2 resolved cases")

	// The failed count stays zero while the rest of the record is intact.
	assert.Equal(t, 0, m.ResolvedCases)
	assert.Equal(t, 10, m.TotalCases)
	assert.Equal(t, 1, m.SLAMet)
	require.True(t, m.ResolutionRate.Valid)
	assert.Equal(t, 0, m.ResolutionRate.Value)
}

func TestTierRollupEscalationDateKeying(t *testing.T) {
	var seenFilters []string
	api := &fakeAPI{
		count: func(_, filter string) (int, error) {
			seenFilters = append(seenFilters, filter)
			return 0, nil
		},
	}

	engine := NewTierEngine(api, &batch.Executor{})
	win := testWindow(t, "2025-06-01", "2025-06-30")

	tier2, _ := TierByCode("2")
	engine.Rollup(context.Background(), tier2, win)

	require.NotEmpty(t, seenFilters)
	assert.Contains(t, seenFilters[0], FieldEscalatedTier2On+" ge ")
	assert.NotContains(t, seenFilters[0], FieldCreatedOn+" ge ")

	seenFilters = nil
	tier1, _ := TierByCode("1")
	engine.Rollup(context.Background(), tier1, win)
	require.NotEmpty(t, seenFilters)
	assert.Contains(t, seenFilters[0], FieldCreatedOn+" ge ")
}

func TestTierRollupNoCasesIsNA(t *testing.T) {
	engine := NewTierEngine(&fakeAPI{}, &batch.Executor{})
	tier, _ := TierByCode("3")

	m, failures := engine.Rollup(context.Background(), tier, testWindow(t, "2025-02-01", "2025-02-28"))

	assert.Empty(t, failures)
	assert.False(t, m.SLACompliance.Valid)
	assert.Equal(t, "na", string(m.SLAStatus))
	assert.False(t, m.ResolutionRate.Valid)
	assert.Equal(t, "N/A", m.AvgResolutionTime)
}
