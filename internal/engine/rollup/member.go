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

// MemberEngine aggregates one team member's owner-scoped KPIs over one
// window.
type MemberEngine struct {
	api  QueryAPI
	exec *batch.Executor
}

// NewMemberEngine creates a member rollup engine.
func NewMemberEngine(api QueryAPI, exec *batch.Executor) *MemberEngine {
	return &MemberEngine{api: api, exec: exec}
}

// Rollup runs the member's query battery with the same partial-failure
// semantics as the tier engine.
func (e *MemberEngine) Rollup(ctx context.Context, memberID string, win timewindow.Window) (dto.MemberMetrics, []batch.QueryFailure) {
	m := dto.MemberMetrics{
		MemberID:          memberID,
		AvgHandleTime:     "N/A",
		AvgResolutionTime: "N/A",
	}

	owner := ownerFilter(memberID)
	createdInWindow := owner + " and " + windowFilter(FieldCreatedOn, win)
	resolvedInWindow := owner + " and " + windowFilter(FieldResolvedOn, win) +
		fmt.Sprintf(" and %s eq %d", FieldState, StateResolved)

	steps := []batch.Step{
		batch.CountStep(fmt.Sprintf("member %s owned cases", memberID), &m.OwnedCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, owner+" and "+windowFilter(FieldModifiedOn, win), FieldCaseID)
			}),
		batch.CountStep(fmt.Sprintf("member %s created cases", memberID), &m.CreatedCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, createdInWindow, FieldCaseID)
			}),
		batch.CountStep(fmt.Sprintf("member %s resolved cases", memberID), &m.ResolvedCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, resolvedInWindow, FieldCaseID)
			}),
		batch.CountStep(fmt.Sprintf("member %s active cases", memberID), &m.ActiveCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, owner+fmt.Sprintf(" and %s eq %d", FieldState, StateActive), FieldCaseID)
			}),
		{
			Label: fmt.Sprintf("member %s SLA outcomes", memberID),
			Run: func(ctx context.Context) error {
				records, err := e.api.Fetch(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter:     resolvedInWindow,
					Select:     FieldCaseID,
					Expand:     expandStatus(RelationResolveKPI),
					Top:        e.api.PageLimit(),
				})
				if err != nil {
					return err
				}
				for _, rec := range records {
					kpi := rec.Rel(RelationResolveKPI)
					if kpi == nil {
						continue
					}
					switch int(kpi.Num(RelationStatus)) {
					case KPIStatusMet:
						m.SLAMet++
					case KPIStatusMissed:
						m.SLAMissed++
					}
				}
				return nil
			},
		},
		batch.CountStep(fmt.Sprintf("member %s first contact resolutions", memberID), &m.FCRCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, createdInWindow+" and "+FieldFCR+" eq true", FieldCaseID)
			}),
		batch.CountStep(fmt.Sprintf("member %s escalations", memberID), &m.EscalatedCases,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionCases, createdInWindow+" and "+FieldEscalatedTier2On+" ne null", FieldCaseID)
			}),
		{
			Label: fmt.Sprintf("member %s phone calls", memberID),
			Run: func(ctx context.Context) error {
				return e.phoneCalls(ctx, &m, owner, win)
			},
		},
		batch.CountStep(fmt.Sprintf("member %s emails", memberID), &m.EmailsSent,
			func(ctx context.Context) (int, error) {
				return e.api.Count(ctx, CollectionEmails, owner+" and "+windowFilter(FieldEmailSentOn, win), FieldCallID)
			}),
		{
			Label: fmt.Sprintf("member %s CSAT responses", memberID),
			Run: func(ctx context.Context) error {
				return e.csat(ctx, &m, resolvedInWindow)
			},
		},
		{
			Label: fmt.Sprintf("member %s resolution durations", memberID),
			Run: func(ctx context.Context) error {
				return e.resolutionDurations(ctx, &m, resolvedInWindow)
			},
		},
	}

	failures := e.exec.Run(ctx, steps)
	deriveMemberRates(&m)

	return m, failures
}

// phoneCalls tallies call volume and handle time. Answered versus abandoned
// hangs on the zero-duration rule encoded by caseapi.IsAbandonedCall.
func (e *MemberEngine) phoneCalls(ctx context.Context, m *dto.MemberMetrics, owner string, win timewindow.Window) error {
	records, err := e.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCalls,
		Filter:     owner + " and " + windowFilter(FieldCallStart, win),
		Select:     FieldCallDuration,
		Top:        e.api.PageLimit(),
	})
	if err != nil {
		return err
	}

	var answered []float64
	for _, rec := range records {
		if caseapi.IsAbandonedCall(rec) {
			m.CallsAbandoned++
			continue
		}
		m.CallsAnswered++
		answered = append(answered, rec.Num(FieldCallDuration))
	}
	m.CallsTotal = len(records)

	for _, v := range answered {
		m.CallMinutesSum += v
	}
	m.AvgHandleTime = kpimath.AverageDuration(answered)

	return nil
}

// csat averages the numeric score of cases flagged as having a received
// CSAT response.
func (e *MemberEngine) csat(ctx context.Context, m *dto.MemberMetrics, resolvedInWindow string) error {
	records, err := e.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCases,
		Filter:     resolvedInWindow + " and " + FieldCSATReceived + " eq true",
		Select:     FieldCSATScore,
		Top:        e.api.PageLimit(),
	})
	if err != nil {
		return err
	}

	for _, rec := range records {
		m.CSATScoreSum += rec.Num(FieldCSATScore)
	}
	m.CSATResponses = len(records)

	if m.CSATResponses > 0 {
		avg := m.CSATScoreSum / float64(m.CSATResponses)
		m.CSATAverage = &avg
	}
	return nil
}

func (e *MemberEngine) resolutionDurations(ctx context.Context, m *dto.MemberMetrics, resolvedInWindow string) error {
	records, err := e.api.Fetch(ctx, caseapi.Query{
		Collection: CollectionCases,
		Filter:     resolvedInWindow,
		Select:     FieldCreatedOn + "," + FieldResolvedOn + "," + FieldResolutionMinutes,
		Top:        e.api.PageLimit(),
	})
	if err != nil {
		return err
	}

	m.AvgResolutionTime = averageResolutionOf(records)
	for _, rec := range records {
		created, errC := parseBackendTime(rec.Str(FieldCreatedOn))
		resolvedAt, errR := parseBackendTime(rec.Str(FieldResolvedOn))
		if errC != nil || errR != nil {
			continue
		}
		delta := resolvedAt.Sub(created).Minutes()
		if delta < 0 || delta >= 168*60 {
			continue
		}
		m.ResolveMinutesSum += delta
		m.ResolveSamples++
	}
	return nil
}

// deriveMemberRates recomputes every member-level rate from its count
// pairs. The same function serves freshly-rolled members and the team
// combination, which is what keeps the two consistent.
func deriveMemberRates(m *dto.MemberMetrics) {
	m.SLACompliance = kpimath.SafeRate(m.SLAMet, m.SLAMet+m.SLAMissed)
	m.SLAStatus = kpimath.ClassifyRate(kpimath.KeySLACompliance, m.SLACompliance)

	m.FCRRate = kpimath.SafeRate(m.FCRCases, m.CreatedCases)
	m.FCRStatus = kpimath.ClassifyRate(kpimath.KeyFCRRate, m.FCRRate)

	m.EscalationRate = kpimath.SafeRate(m.EscalatedCases, m.CreatedCases)
	m.EscalationStatus = kpimath.ClassifyRate(kpimath.KeyEscalationRate, m.EscalationRate)

	if m.CSATAverage != nil {
		m.CSATStatus = kpimath.Classify(kpimath.KeyCSATAverage, *m.CSATAverage, true)
	} else {
		m.CSATStatus = dto.StatusNA
	}

	if m.CallsAnswered > 0 {
		m.AHTStatus = kpimath.Classify(kpimath.KeyAHTMinutes, m.CallMinutesSum/float64(m.CallsAnswered), true)
	} else {
		m.AHTStatus = dto.StatusNA
	}
}
