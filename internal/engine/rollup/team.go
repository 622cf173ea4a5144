package rollup

import (
	"deskpulserest/internal/engine/kpimath"
	"deskpulserest/internal/models/dto"
)

// CombineMembers folds per-member metrics into one team record. Additive
// counts and raw accumulators are summed; every rate and average is then
// recomputed from the summed pairs. Averaging the per-member rates would
// weight a ten-case member the same as a two-hundred-case member, so it is
// never done here.
func CombineMembers(members []dto.MemberMetrics) dto.MemberMetrics {
	team := dto.MemberMetrics{
		MemberID:          "team",
		MemberName:        "Team",
		AvgHandleTime:     "N/A",
		AvgResolutionTime: "N/A",
	}

	for _, m := range members {
		team.OwnedCases += m.OwnedCases
		team.CreatedCases += m.CreatedCases
		team.ResolvedCases += m.ResolvedCases
		team.ActiveCases += m.ActiveCases
		team.SLAMet += m.SLAMet
		team.SLAMissed += m.SLAMissed
		team.FCRCases += m.FCRCases
		team.EscalatedCases += m.EscalatedCases
		team.CallsTotal += m.CallsTotal
		team.CallsAnswered += m.CallsAnswered
		team.CallsAbandoned += m.CallsAbandoned
		team.EmailsSent += m.EmailsSent
		team.CSATResponses += m.CSATResponses

		team.CSATScoreSum += m.CSATScoreSum
		team.CallMinutesSum += m.CallMinutesSum
		team.ResolveMinutesSum += m.ResolveMinutesSum
		team.ResolveSamples += m.ResolveSamples
	}

	if team.CSATResponses > 0 {
		avg := team.CSATScoreSum / float64(team.CSATResponses)
		team.CSATAverage = &avg
	}
	if team.CallsAnswered > 0 {
		team.AvgHandleTime = kpimath.FormatMinutes(team.CallMinutesSum / float64(team.CallsAnswered))
	}
	if team.ResolveSamples > 0 {
		team.AvgResolutionTime = kpimath.FormatMinutes(team.ResolveMinutesSum / float64(team.ResolveSamples))
	}

	deriveMemberRates(&team)

	return team
}
