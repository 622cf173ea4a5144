package rollup

import (
	"context"
	"fmt"

	"deskpulserest/internal/engine/batch"
	"deskpulserest/internal/engine/kpimath"
	"deskpulserest/internal/models/dto"
	"deskpulserest/internal/repositories/caseapi"
	"deskpulserest/internal/timewindow"
)

// QueryAPI is the slice of the case backend client the rollup engines use.
type QueryAPI interface {
	Fetch(ctx context.Context, q caseapi.Query) ([]caseapi.Record, error)
	Count(ctx context.Context, collection, filter, keyField string) (int, error)
	PageLimit() int
}

// TierEngine aggregates one tier's KPIs over one window.
type TierEngine struct {
	api  QueryAPI
	exec *batch.Executor
}

// NewTierEngine creates a tier rollup engine.
func NewTierEngine(api QueryAPI, exec *batch.Executor) *TierEngine {
	return &TierEngine{api: api, exec: exec}
}

// Rollup runs the tier's query battery. Sub-queries fail independently: a
// failed query zeroes its counts and turns the derived rate into "N/A"
// while every other metric stays valid.
func (e *TierEngine) Rollup(ctx context.Context, tier Tier, win timewindow.Window) (dto.TierMetrics, []batch.QueryFailure) {
	m := dto.TierMetrics{
		TierCode:          tier.Code,
		TierLabel:         tier.Label,
		TierName:          tier.Name,
		AvgResolutionTime: "N/A",
	}

	base := tier.Filter + " and " + windowFilter(tier.DateField, win)
	resolved := base + fmt.Sprintf(" and %s eq %d", FieldState, StateResolved)
	active := base + fmt.Sprintf(" and %s eq %d", FieldState, StateActive)

	steps := []batch.Step{
		batch.CountStep(fmt.Sprintf("tier %s total cases", tier.Code), &m.TotalCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, base, FieldCaseID)
			}),
		batch.CountStep(fmt.Sprintf("tier %s resolved cases", tier.Code), &m.ResolvedCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, resolved, FieldCaseID)
			}),
		{
			Label: fmt.Sprintf("tier %s resolution SLA outcomes", tier.Code),
			Run: func(ctx context.Context) error {
				met, missed, err := e.kpiOutcomes(ctx, resolved, RelationResolveKPI)
				if err != nil {
					return err
				}
				m.SLAMet, m.SLAMissed = met, missed
				return nil
			},
		},
		{
			Label: fmt.Sprintf("tier %s response SLA outcomes", tier.Code),
			Run: func(ctx context.Context) error {
				met, missed, err := e.kpiOutcomes(ctx, resolved, RelationResponseKPI)
				if err != nil {
					return err
				}
				m.ResponseMet, m.ResponseMissed = met, missed
				return nil
			},
		},
		{
			// "Overdue right now": active cases whose resolution KPI already
			// shows missed, not cases that missed historically.
			Label: fmt.Sprintf("tier %s open breaches", tier.Code),
			Run: func(ctx context.Context) error {
				records, err := e.api.Fetch(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter:     active,
					Select:     FieldCaseID,
					Expand:     expandStatus(RelationResolveKPI),
					Top:        e.api.PageLimit(),
				})
				if err != nil {
					return err
				}
				m.OpenTotal = len(records)
				for _, rec := range records {
					if kpi := rec.Rel(RelationResolveKPI); kpi != nil && int(kpi.Num(RelationStatus)) == KPIStatusMissed {
						m.OpenBreached++
					}
				}
				return nil
			},
		},
		{
			Label: fmt.Sprintf("tier %s resolution durations", tier.Code),
			Run: func(ctx context.Context) error {
				avg, err := e.averageResolution(ctx, resolved)
				if err != nil {
					return err
				}
				m.AvgResolutionTime = avg
				return nil
			},
		},
	}

	if tier.Code == "1" {
		steps = append(steps,
			batch.CountStep("tier 1 first contact resolutions", &m.FCRCases,
				func(ctx context.Context) (int, error) {
					return e.api.Count(ctx, CollectionCases, base+" and "+FieldFCR+" eq true", FieldCaseID)
				}),
			batch.CountStep("tier 1 escalations to tier 2", &m.EscalatedCases,
				func(ctx context.Context) (int, error) {
					return e.api.Count(ctx, CollectionCases, base+" and "+FieldEscalatedTier2On+" ne null", FieldCaseID)
				}),
		)
	}
	if tier.Code == "2" {
		steps = append(steps,
			batch.CountStep("tier 2 escalations to tier 3", &m.EscalatedCases,
				func(ctx context.Context) (int, error) {
					return e.api.Count(ctx, CollectionCases, base+" and "+FieldEscalatedTier3On+" ne null", FieldCaseID)
				}),
		)
	}

	failures := e.exec.Run(ctx, steps)
	e.deriveRates(&m, tier)

	return m, failures
}

// kpiOutcomes fetches a case population with one KPI relation expanded and
// tallies met/missed status codes. Other codes are ignored.
func (e *TierEngine) kpiOutcomes(ctx context.Context, filter, relation string) (met, missed int, err error) {
	records, err := e.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCases,
		Filter:     filter,
		Select:     FieldCaseID,
		Expand:     expandStatus(relation),
		Top:        e.api.PageLimit(),
	})
	if err != nil {
		return 0, 0, err
	}

	for _, rec := range records {
		kpi := rec.Rel(relation)
		if kpi == nil {
			continue
		}
		switch int(kpi.Num(RelationStatus)) {
		case KPIStatusMet:
			met++
		case KPIStatusMissed:
			missed++
		}
	}
	return met, missed, nil
}

// averageResolution averages the backend duration field when populated,
// falling back to resolved-minus-created deltas with outlier filtering.
func (e *TierEngine) averageResolution(ctx context.Context, filter string) (string, error) {
	records, err := e.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCases,
		Filter:     filter,
		Select:     FieldCreatedOn + "," + FieldResolvedOn + "," + FieldResolutionMinutes,
		Top:        e.api.PageLimit(),
	})
	if err != nil {
		return "N/A", err
	}
	return averageResolutionOf(records), nil
}

func averageResolutionOf(records []caseapi.Record) string {
	var durations []float64
	for _, rec := range records {
		if v := rec.Num(FieldResolutionMinutes); v > 0 {
			durations = append(durations, v)
		}
	}
	if len(durations) > 0 {
		return kpimath.AverageDuration(durations)
	}

	var deltas []float64
	for _, rec := range records {
		created, errC := parseBackendTime(rec.Str(FieldCreatedOn))
		resolvedAt, errR := parseBackendTime(rec.Str(FieldResolvedOn))
		if errC != nil || errR != nil {
			continue
		}
		deltas = append(deltas, resolvedAt.Sub(created).Minutes())
	}
	return kpimath.AverageDeltaMinutes(deltas)
}

func (e *TierEngine) deriveRates(m *dto.TierMetrics, tier Tier) {
	m.SLACompliance = kpimath.SafeRate(m.SLAMet, m.SLAMet+m.SLAMissed)
	m.SLAStatus = kpimath.ClassifyRate(kpimath.KeySLACompliance, m.SLACompliance)

	m.ResponseCompliance = kpimath.SafeRate(m.ResponseMet, m.ResponseMet+m.ResponseMissed)
	m.ResponseStatus = kpimath.ClassifyRate(kpimath.KeyResponseSLA, m.ResponseCompliance)

	m.OpenBreachRate = kpimath.SafeRate(m.OpenBreached, m.OpenTotal)
	m.OpenBreachStatus = kpimath.ClassifyRate(kpimath.KeyOpenBreachRate, m.OpenBreachRate)

	m.ResolutionRate = kpimath.SafeRate(m.ResolvedCases, m.TotalCases)
	m.ResolutionStatus = kpimath.ClassifyRate(kpimath.KeyResolutionRate, m.ResolutionRate)

	if tier.Code == "1" {
		m.FCRRate = kpimath.SafeRate(m.FCRCases, m.TotalCases)
		m.FCRStatus = kpimath.ClassifyRate(kpimath.KeyFCRRate, m.FCRRate)
	}
	if tier.Code == "1" || tier.Code == "2" {
		m.EscalationRate = kpimath.SafeRate(m.EscalatedCases, m.TotalCases)
		m.EscalationStatus = kpimath.ClassifyRate(kpimath.KeyEscalationRate, m.EscalationRate)
	}
}
