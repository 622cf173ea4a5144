package dto

import "encoding/json"

// Rate is a percentage derived from a count pair. When the denominator was
// zero (or the source query failed) the rate is not applicable and renders
// as the string "N/A" instead of a number.
type Rate struct {
	Valid bool
	Value int
}

// PercentRate builds a valid, already-rounded rate value.
func PercentRate(value int) Rate {
	return Rate{Valid: true, Value: value}
}

// RateNA is the not-applicable rate.
var RateNA = Rate{}

// MarshalJSON renders the numeric value, or "N/A" when not applicable.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return json.Marshal("N/A")
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts either a number or the "N/A" marker.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		r.Valid = true
		r.Value = n
		return nil
	}
	*r = RateNA
	return nil
}

// MetricStatus is the target-compliance classification of a metric value.
type MetricStatus string

const (
	StatusMet  MetricStatus = "met"
	StatusWarn MetricStatus = "warn"
	StatusMiss MetricStatus = "miss"
	StatusNA   MetricStatus = "na"
)

// ReportScope selects what the report covers: one tier, the whole
// organization by tier (empty tier), or an explicit member list.
type ReportScope struct {
	Tier      string   `json:"tier,omitempty" example:"1"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

// ReportRequest is the caller-supplied description of one report run.
// Dates are organization-local calendar dates, times are HH:MM local
// wall-clock (start defaults to 00:00, end to 23:59).
type ReportRequest struct {
	StartDate string      `json:"start_date" binding:"required" example:"2025-03-01"`
	EndDate   string      `json:"end_date" binding:"required" example:"2025-03-31"`
	StartTime string      `json:"start_time,omitempty" example:"00:00"`
	EndTime   string      `json:"end_time,omitempty" example:"23:59"`
	Scope     ReportScope `json:"scope"`
}

// WindowInfo echoes the resolved UTC query bounds back to the caller.
type WindowInfo struct {
	StartDate string `json:"start_date" example:"2025-03-01"`
	StartTime string `json:"start_time" example:"06:00:00Z"`
	EndDate   string `json:"end_date" example:"2025-04-01"`
	EndTime   string `json:"end_time" example:"04:59:59Z"`
}

// TierMetrics holds the counts and derived rates for one support tier over
// one report window. A failed sub-query leaves its count at zero and the
// corresponding rate at "N/A"; the rest of the record stays valid.
type TierMetrics struct {
	TierCode  string `json:"tier_code" example:"1"`
	TierLabel string `json:"tier_label" example:"T1"`
	TierName  string `json:"tier_name" example:"Front Line"`

	TotalCases    int `json:"total_cases"`
	ResolvedCases int `json:"resolved_cases"`

	SLAMet    int `json:"sla_met"`
	SLAMissed int `json:"sla_missed"`

	ResponseMet    int `json:"response_sla_met"`
	ResponseMissed int `json:"response_sla_missed"`

	OpenBreached int `json:"open_breached"`
	OpenTotal    int `json:"open_total"`

	FCRCases       int `json:"fcr_cases,omitempty"`
	EscalatedCases int `json:"escalated_cases,omitempty"`

	SLACompliance      Rate         `json:"sla_compliance"`
	SLAStatus          MetricStatus `json:"sla_status"`
	ResponseCompliance Rate         `json:"response_sla_compliance"`
	ResponseStatus     MetricStatus `json:"response_sla_status"`
	OpenBreachRate     Rate         `json:"open_breach_rate"`
	OpenBreachStatus   MetricStatus `json:"open_breach_status"`
	ResolutionRate     Rate         `json:"resolution_rate"`
	ResolutionStatus   MetricStatus `json:"resolution_status"`
	FCRRate            Rate         `json:"fcr_rate,omitempty"`
	FCRStatus          MetricStatus `json:"fcr_status,omitempty"`
	EscalationRate     Rate         `json:"escalation_rate,omitempty"`
	EscalationStatus   MetricStatus `json:"escalation_status,omitempty"`

	AvgResolutionTime string `json:"avg_resolution_time" example:"4h 12m"`
}

// MemberMetrics holds the owner-scoped counts and rates for one team member
// (or, combined, for a whole team). The unexported-looking Sum fields are
// the raw accumulators the team combinator needs to recompute averages from
// totals instead of averaging per-member averages.
type MemberMetrics struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name,omitempty"`

	OwnedCases    int `json:"owned_cases"`
	CreatedCases  int `json:"created_cases"`
	ResolvedCases int `json:"resolved_cases"`
	ActiveCases   int `json:"active_cases"`

	SLAMet    int `json:"sla_met"`
	SLAMissed int `json:"sla_missed"`

	FCRCases       int `json:"fcr_cases"`
	EscalatedCases int `json:"escalated_cases"`

	CallsTotal     int `json:"calls_total"`
	CallsAnswered  int `json:"calls_answered"`
	CallsAbandoned int `json:"calls_abandoned"`

	EmailsSent int `json:"emails_sent"`

	CSATResponses int      `json:"csat_responses"`
	CSATAverage   *float64 `json:"csat_average,omitempty"`

	SLACompliance    Rate         `json:"sla_compliance"`
	SLAStatus        MetricStatus `json:"sla_status"`
	FCRRate          Rate         `json:"fcr_rate"`
	FCRStatus        MetricStatus `json:"fcr_status"`
	EscalationRate   Rate         `json:"escalation_rate"`
	EscalationStatus MetricStatus `json:"escalation_status"`
	CSATStatus       MetricStatus `json:"csat_status"`
	AHTStatus        MetricStatus `json:"aht_status"`

	AvgHandleTime     string `json:"avg_handle_time" example:"6 min"`
	AvgResolutionTime string `json:"avg_resolution_time" example:"3h 40m"`

	// Raw accumulators, carried for team-level recomputation only.
	CSATScoreSum      float64 `json:"-"`
	CallMinutesSum    float64 `json:"-"`
	ResolveMinutesSum float64 `json:"-"`
	ResolveSamples    int     `json:"-"`
}

// TimelinePoint is one calendar day of the trend series. Days with no
// matching records carry zero counts; they are never omitted.
type TimelinePoint struct {
	Date string `json:"date" example:"2025-03-04"`

	Tier1Created   int `json:"tier1_created"`
	Tier2Escalated int `json:"tier2_escalated"`
	Tier3Escalated int `json:"tier3_escalated"`
	Calls          int `json:"calls"`
	SLAMet         int `json:"sla_met"`

	CSATAverage *float64 `json:"csat_average,omitempty"`
	SLARate     Rate     `json:"sla_rate"`
}

// ReportSummary is the whole-report rollup shown at the top of the
// dashboard cards.
type ReportSummary struct {
	TotalCases    int          `json:"total_cases"`
	ResolvedCases int          `json:"resolved_cases"`
	SLAMet        int          `json:"sla_met"`
	SLAMissed     int          `json:"sla_missed"`
	SLACompliance Rate         `json:"sla_compliance"`
	SLAStatus     MetricStatus `json:"sla_status"`
}

// AggregateReport is the top-level result of one report run. It always
// completes: failed sub-queries zero their metric and land in Errors.
type AggregateReport struct {
	Window   WindowInfo      `json:"window"`
	Tiers    []TierMetrics   `json:"tiers,omitempty"`
	Members  []MemberMetrics `json:"members,omitempty"`
	Team     *MemberMetrics  `json:"team,omitempty"`
	Summary  ReportSummary   `json:"summary"`
	Timeline []TimelinePoint `json:"timeline,omitempty"`
	Errors   []string        `json:"errors"`
}
