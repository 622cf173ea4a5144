// Package rollup builds the per-tier, per-member and timeline aggregates of
// one report run by driving batches of case backend queries and deriving
// rates with kpimath.
package rollup

import (
	"fmt"

	"deskpulserest/internal/engine/kpimath"
	"deskpulserest/internal/timewindow"
)

// Backend collections.
const (
	CollectionCases  = "incidents"
	CollectionCalls  = "phonecalls"
	CollectionEmails = "emails"
	CollectionUsers  = "systemusers"
)

// Case fields and relations.
const (
	FieldCaseID            = "incidentid"
	FieldCreatedOn         = "createdon"
	FieldResolvedOn        = "resolvedon"
	FieldModifiedOn        = "modifiedon"
	FieldState             = "statecode"
	FieldOwner             = "_ownerid_value"
	FieldTier              = "cr_tier"
	FieldEscalatedTier2On  = "cr_escalatedtier2on"
	FieldEscalatedTier3On  = "cr_escalatedtier3on"
	FieldFCR               = "cr_firstcontactresolution"
	FieldCSATReceived      = "cr_csatreceived"
	FieldCSATScore         = "cr_csatscore"
	FieldResolutionMinutes = "cr_resolutionminutes"

	RelationResolveKPI  = "resolvebykpiid"
	RelationResponseKPI = "firstresponsebykpiid"
	RelationStatus      = "status"
)

// Call and email fields.
const (
	FieldCallID       = "activityid"
	FieldCallStart    = "actualstart"
	FieldCallDuration = "actualdurationminutes"
	FieldEmailSentOn  = "senton"
)

// Case state codes.
const (
	StateActive   = 0
	StateResolved = 1
)

// KPI relation status codes. Other codes (in progress, paused, canceled)
// are ignored by the rollups.
const (
	KPIStatusMissed = 1
	KPIStatusMet    = 4
)

// Tier is one static support-tier catalog entry. Tier 1 populations are
// keyed on case creation date; tiers 2 and 3 are keyed on the date the case
// was escalated into them, which is a domain invariant, not a convenience.
type Tier struct {
	Code      string
	Label     string
	Name      string
	Filter    string
	DateField string
	// MetricKeys lists which catalog KPIs apply to this tier.
	MetricKeys []string
}

// Tiers is the static tier catalog, ordered front line first.
var Tiers = []Tier{
	{
		Code:      "1",
		Label:     "T1",
		Name:      "Front Line",
		Filter:    FieldTier + " eq 1",
		DateField: FieldCreatedOn,
		MetricKeys: []string{
			kpimath.KeySLACompliance, kpimath.KeyResponseSLA, kpimath.KeyOpenBreachRate,
			kpimath.KeyResolutionRate, kpimath.KeyFCRRate, kpimath.KeyEscalationRate,
		},
	},
	{
		Code:      "2",
		Label:     "T2",
		Name:      "Technical Escalation",
		Filter:    FieldTier + " eq 2",
		DateField: FieldEscalatedTier2On,
		MetricKeys: []string{
			kpimath.KeySLACompliance, kpimath.KeyResponseSLA, kpimath.KeyOpenBreachRate,
			kpimath.KeyResolutionRate, kpimath.KeyEscalationRate,
		},
	},
	{
		Code:      "3",
		Label:     "T3",
		Name:      "Relationship",
		Filter:    FieldTier + " eq 3",
		DateField: FieldEscalatedTier3On,
		MetricKeys: []string{
			kpimath.KeySLACompliance, kpimath.KeyResponseSLA, kpimath.KeyOpenBreachRate,
			kpimath.KeyResolutionRate,
		},
	},
}

// TierByCode looks up a catalog entry.
func TierByCode(code string) (Tier, bool) {
	for _, t := range Tiers {
		if t.Code == code {
			return t, true
		}
	}
	return Tier{}, false
}

// windowFilter restricts field to the resolved UTC bounds, both inclusive.
func windowFilter(field string, win timewindow.Window) string {
	return fmt.Sprintf("%s ge %s and %s le %s", field, win.Start, field, win.End)
}

// ownerFilter scopes a query to one owner.
func ownerFilter(memberID string) string {
	return fmt.Sprintf("%s eq '%s'", FieldOwner, memberID)
}

// expandStatus selects only the status code of a KPI relation.
func expandStatus(relation string) string {
	return relation + "($select=" + RelationStatus + ")"
}
