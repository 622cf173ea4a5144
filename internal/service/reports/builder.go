// Package reports exposes the KPI report endpoints and the builder that
// orchestrates the rollup engines behind them.
package reports

import (
	"context"
	"errors"
	"fmt"

	"deskpulserest/internal/engine/batch"
	"deskpulserest/internal/engine/kpimath"
	"deskpulserest/internal/engine/rollup"
	"deskpulserest/internal/models/dto"
	"deskpulserest/internal/timewindow"
)

// Builder runs one report request end to end. It never aborts on a failed
// backend query: the affected metrics zero out and the failure lands in the
// report's Errors list.
type Builder struct {
	tiers    *rollup.TierEngine
	members  *rollup.MemberEngine
	timeline *rollup.TimelineEngine
	roster   *rollup.Roster
	resolver timewindow.Resolver
}

// NewBuilder wires the rollup engines around one backend client. progress
// may be nil.
func NewBuilder(api rollup.QueryAPI, resolver timewindow.Resolver, progress batch.ProgressFunc) *Builder {
	exec := &batch.Executor{Progress: progress}
	return &Builder{
		tiers:    rollup.NewTierEngine(api, exec),
		members:  rollup.NewMemberEngine(api, exec),
		timeline: rollup.NewTimelineEngine(api, exec),
		roster:   rollup.NewRoster(api),
		resolver: resolver,
	}
}

// resolveWindow validates and converts the request bounds.
func (b *Builder) resolveWindow(req dto.ReportRequest) (timewindow.Window, error) {
	win, err := timewindow.ResolveWindow(b.resolver, req.StartDate, req.StartTime, req.EndDate, req.EndTime)
	if err != nil {
		return timewindow.Window{}, err
	}
	if win.Days() == 0 {
		return timewindow.Window{}, errors.New("end date precedes start date")
	}
	return win, nil
}

// TierReport rolls up the requested tier, or all three when the scope names
// none.
func (b *Builder) TierReport(ctx context.Context, req dto.ReportRequest) (dto.AggregateReport, error) {
	win, err := b.resolveWindow(req)
	if err != nil {
		return dto.AggregateReport{}, err
	}

	selected := rollup.Tiers
	if req.Scope.Tier != "" {
		tier, ok := rollup.TierByCode(req.Scope.Tier)
		if !ok {
			return dto.AggregateReport{}, fmt.Errorf("unknown tier %q", req.Scope.Tier)
		}
		selected = []rollup.Tier{tier}
	}

	report := newReport(win)

	for _, tier := range selected {
		metrics, failures := b.tiers.Rollup(ctx, tier, win)
		report.Tiers = append(report.Tiers, metrics)
		appendFailures(&report, failures)

		report.Summary.TotalCases += metrics.TotalCases
		report.Summary.ResolvedCases += metrics.ResolvedCases
		report.Summary.SLAMet += metrics.SLAMet
		report.Summary.SLAMissed += metrics.SLAMissed
	}
	deriveSummary(&report.Summary)

	points, failures := b.timeline.Series(ctx, win)
	report.Timeline = points
	appendFailures(&report, failures)

	return report, nil
}

// TeamReport rolls up every member of the scope (or the discovered roster)
// and combines them into one team record.
func (b *Builder) TeamReport(ctx context.Context, req dto.ReportRequest) (dto.AggregateReport, error) {
	win, err := b.resolveWindow(req)
	if err != nil {
		return dto.AggregateReport{}, err
	}

	memberIDs := req.Scope.MemberIDs
	if len(memberIDs) == 0 {
		memberIDs, err = b.roster.Members(ctx, win)
		if err != nil {
			return dto.AggregateReport{}, fmt.Errorf("resolving team roster: %w", err)
		}
	}
	if len(memberIDs) == 0 {
		return dto.AggregateReport{}, errors.New("no team members found for this window")
	}

	report := newReport(win)

	for _, id := range memberIDs {
		metrics, failures := b.members.Rollup(ctx, id, win)
		report.Members = append(report.Members, metrics)
		appendFailures(&report, failures)
	}

	team := rollup.CombineMembers(report.Members)
	report.Team = &team

	report.Summary.TotalCases = team.CreatedCases
	report.Summary.ResolvedCases = team.ResolvedCases
	report.Summary.SLAMet = team.SLAMet
	report.Summary.SLAMissed = team.SLAMissed
	deriveSummary(&report.Summary)

	points, failures := b.timeline.Series(ctx, win)
	report.Timeline = points
	appendFailures(&report, failures)

	return report, nil
}

func newReport(win timewindow.Window) dto.AggregateReport {
	return dto.AggregateReport{
		Window: dto.WindowInfo{
			StartDate: win.Start.Date,
			StartTime: win.Start.Time,
			EndDate:   win.End.Date,
			EndTime:   win.End.Time,
		},
		Errors: []string{},
	}
}

func appendFailures(report *dto.AggregateReport, failures []batch.QueryFailure) {
	for _, f := range failures {
		report.Errors = append(report.Errors, f.String())
	}
}

func deriveSummary(s *dto.ReportSummary) {
	s.SLACompliance = kpimath.SafeRate(s.SLAMet, s.SLAMet+s.SLAMissed)
	s.SLAStatus = kpimath.ClassifyRate(kpimath.KeySLACompliance, s.SLACompliance)
}
