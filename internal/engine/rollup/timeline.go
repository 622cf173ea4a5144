package rollup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deskpulserest/internal/engine/batch"
	"deskpulserest/internal/engine/kpimath"
	"deskpulserest/internal/models/dto"
	"deskpulserest/internal/repositories/caseapi"
	"deskpulserest/internal/timewindow"
)

// Timeline windows shorter than two days carry no trend information and
// longer than 90 days would need weekly bucketing, which the dashboard does
// not render.
const (
	minTimelineDays = 2
	maxTimelineDays = 90
)

// TimelineEngine produces the daily trend series of one report window.
type TimelineEngine struct {
	api  QueryAPI
	exec *batch.Executor
}

// NewTimelineEngine creates a timeline engine.
func NewTimelineEngine(api QueryAPI, exec *batch.Executor) *TimelineEngine {
	return &TimelineEngine{api: api, exec: exec}
}

// dayTally accumulates one calendar day's raw counts before points are
// emitted.
type dayTally struct {
	tier1Created   int
	tier2Escalated int
	tier3Escalated int
	calls          int
	slaMet         int
	csatSum        float64
	csatCount      int
}

// Series runs the six bucketing queries concurrently and emits one
// zero-filled point per local calendar day, ascending. Windows outside the
// supported day range return no series at all.
func (e *TimelineEngine) Series(ctx context.Context, win timewindow.Window) ([]dto.TimelinePoint, []batch.QueryFailure) {
	days := win.Days()
	if days < minTimelineDays || days > maxTimelineDays {
		return nil, nil
	}

	// The steps below run concurrently and all land on the same map, so
	// every mutation goes through record, which holds the lock across the
	// lookup and the update.
	tallies := make(map[string]*dayTally, days)
	var mu sync.Mutex
	record := func(key string, apply func(*dayTally)) {
		mu.Lock()
		defer mu.Unlock()
		t, ok := tallies[key]
		if !ok {
			t = &dayTally{}
			tallies[key] = t
		}
		apply(t)
	}

	tier1Filter := Tiers[0].Filter + " and " + windowFilter(FieldCreatedOn, win)

	steps := []batch.Step{
		{
			Label: "timeline tier 1 created",
			Run: func(ctx context.Context) error {
				return e.bucketDates(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter:     tier1Filter,
					Select:     FieldCreatedOn,
				}, FieldCreatedOn, func(key string) {
					record(key, func(t *dayTally) { t.tier1Created++ })
				})
			},
		},
		{
			Label: "timeline tier 2 escalated",
			Run: func(ctx context.Context) error {
				return e.bucketDates(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter:     Tiers[1].Filter + " and " + windowFilter(FieldEscalatedTier2On, win),
					Select:     FieldEscalatedTier2On,
				}, FieldEscalatedTier2On, func(key string) {
					record(key, func(t *dayTally) { t.tier2Escalated++ })
				})
			},
		},
		{
			Label: "timeline tier 3 escalated",
			Run: func(ctx context.Context) error {
				return e.bucketDates(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter:     Tiers[2].Filter + " and " + windowFilter(FieldEscalatedTier3On, win),
					Select:     FieldEscalatedTier3On,
				}, FieldEscalatedTier3On, func(key string) {
					record(key, func(t *dayTally) { t.tier3Escalated++ })
				})
			},
		},
		{
			Label: "timeline calls",
			Run: func(ctx context.Context) error {
				return e.bucketDates(ctx, caseapi.Query{
					Collection: CollectionCalls,
					Filter:     windowFilter(FieldCallStart, win),
					Select:     FieldCallStart,
				}, FieldCallStart, func(key string) {
					record(key, func(t *dayTally) { t.calls++ })
				})
			},
		},
		{
			Label: "timeline CSAT",
			Run: func(ctx context.Context) error {
				records, err := e.api.Fetch(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter: windowFilter(FieldResolvedOn, win) +
						" and " + FieldCSATReceived + " eq true",
					Select: FieldResolvedOn + "," + FieldCSATScore,
					Top:    e.api.PageLimit(),
				})
				if err != nil {
					return err
				}
				for _, rec := range records {
					key, ok := dayKey(rec.Str(FieldResolvedOn))
					if !ok {
						continue
					}
					score := rec.Num(FieldCSATScore)
					record(key, func(t *dayTally) {
						t.csatSum += score
						t.csatCount++
					})
				}
				return nil
			},
		},
		{
			Label: "timeline SLA met",
			Run: func(ctx context.Context) error {
				records, err := e.api.Fetch(ctx, caseapi.Query{
					Collection: CollectionCases,
					Filter:     tier1Filter + fmt.Sprintf(" and %s eq %d", FieldState, StateResolved),
					Select:     FieldCreatedOn,
					Expand:     expandStatus(RelationResolveKPI),
					Top:        e.api.PageLimit(),
				})
				if err != nil {
					return err
				}
				for _, rec := range records {
					kpi := rec.Rel(RelationResolveKPI)
					if kpi == nil || int(kpi.Num(RelationStatus)) != KPIStatusMet {
						continue
					}
					if key, ok := dayKey(rec.Str(FieldCreatedOn)); ok {
						record(key, func(t *dayTally) { t.slaMet++ })
					}
				}
				return nil
			},
		},
	}

	failures := e.exec.RunConcurrent(ctx, steps, 3)

	return e.emit(win, days, tallies), failures
}

// bucketDates fetches one date column and feeds each record's day key into
// add.
func (e *TimelineEngine) bucketDates(ctx context.Context, q caseapi.Query, field string, add func(key string)) error {
	q.Top = e.api.PageLimit()
	records, err := e.api.Fetch(ctx, q)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if key, ok := dayKey(rec.Str(field)); ok {
			add(key)
		}
	}
	return nil
}

// emit walks the local calendar range ascending and materializes one point
// per day, zero-filled where no tally exists. The per-day SLA rate divides
// same-day SLA hits by same-day creations; it approximates cohort compliance
// and is documented as such to API consumers.
func (e *TimelineEngine) emit(win timewindow.Window, days int, tallies map[string]*dayTally) []dto.TimelinePoint {
	start, err := time.Parse("2006-01-02", win.LocalStartDate)
	if err != nil {
		return nil
	}

	points := make([]dto.TimelinePoint, 0, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		p := dto.TimelinePoint{Date: key, SLARate: dto.RateNA}

		if t, ok := tallies[key]; ok {
			p.Tier1Created = t.tier1Created
			p.Tier2Escalated = t.tier2Escalated
			p.Tier3Escalated = t.tier3Escalated
			p.Calls = t.calls
			p.SLAMet = t.slaMet
			if t.csatCount > 0 {
				avg := t.csatSum / float64(t.csatCount)
				p.CSATAverage = &avg
			}
			p.SLARate = kpimath.SafeRate(t.slaMet, t.tier1Created)
		}

		points = append(points, p)
	}
	return points
}

// dayKey extracts the YYYY-MM-DD prefix of a backend timestamp. Backend
// timestamps are UTC; the key is deliberately not re-localized so that
// buckets line up with the UTC window bounds the queries were filtered by.
func dayKey(timestamp string) (string, bool) {
	if len(timestamp) < 10 {
		return "", false
	}
	return timestamp[:10], true
}

// parseBackendTime parses the RFC3339 timestamps the case backend returns.
func parseBackendTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
