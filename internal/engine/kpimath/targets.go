package kpimath

// Comparison is the direction of a metric target.
type Comparison string

const (
	CompareGTE Comparison = "gte"
	CompareGT  Comparison = "gt"
	CompareLTE Comparison = "lte"
	CompareLT  Comparison = "lt"
)

// Target is one measurable KPI's goal.
type Target struct {
	Key        string
	Value      float64
	Comparison Comparison
	Label      string
}

// Metric keys used across the rollup engines.
const (
	KeySLACompliance  = "sla_compliance"
	KeyResponseSLA    = "response_sla"
	KeyOpenBreachRate = "open_breach_rate"
	KeyResolutionRate = "resolution_rate"
	KeyFCRRate        = "fcr_rate"
	KeyEscalationRate = "escalation_rate"
	KeyCSATAverage    = "csat_average"
	KeyAHTMinutes     = "avg_handle_time_minutes"
)

// Targets is the static KPI target catalog.
var Targets = map[string]Target{
	KeySLACompliance:  {Key: KeySLACompliance, Value: 90, Comparison: CompareGTE, Label: "SLA Compliance"},
	KeyResponseSLA:    {Key: KeyResponseSLA, Value: 95, Comparison: CompareGTE, Label: "Response SLA"},
	KeyOpenBreachRate: {Key: KeyOpenBreachRate, Value: 5, Comparison: CompareLTE, Label: "Open Breach Rate"},
	KeyResolutionRate: {Key: KeyResolutionRate, Value: 85, Comparison: CompareGTE, Label: "Resolution Rate"},
	KeyFCRRate:        {Key: KeyFCRRate, Value: 70, Comparison: CompareGTE, Label: "First Contact Resolution"},
	KeyEscalationRate: {Key: KeyEscalationRate, Value: 10, Comparison: CompareLT, Label: "Escalation Rate"},
	KeyCSATAverage:    {Key: KeyCSATAverage, Value: 4.2, Comparison: CompareGTE, Label: "CSAT Average"},
	KeyAHTMinutes:     {Key: KeyAHTMinutes, Value: 8, Comparison: CompareLTE, Label: "Average Handle Time"},
}
