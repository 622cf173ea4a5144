package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpulserest/internal/models/dto"
)

func member(id string, slaMet, slaMissed, created, fcr int) dto.MemberMetrics {
	m := dto.MemberMetrics{
		MemberID:     id,
		SLAMet:       slaMet,
		SLAMissed:    slaMissed,
		CreatedCases: created,
		FCRCases:     fcr,
	}
	deriveMemberRates(&m)
	return m
}

func TestCombineMembersRecomputesFromSums(t *testing.T) {
	// Unequal volumes make pooled and averaged rates disagree.
	a := member("a", 90, 10, 100, 80) // 90% SLA over 100 outcomes
	b := member("b", 1, 1, 2, 0)      // 50% SLA over 2 outcomes

	team := CombineMembers([]dto.MemberMetrics{a, b})

	require.True(t, team.SLACompliance.Valid)
	// Pooled: 91/102 = 89%, not the naive (90+50)/2 = 70%.
	assert.Equal(t, 89, team.SLACompliance.Value)

	require.True(t, team.FCRRate.Valid)
	assert.Equal(t, 78, team.FCRRate.Value) // 80/102

	assert.Equal(t, 102, team.CreatedCases)
	assert.Equal(t, "team", team.MemberID)
}

func TestCombineMembersOrderIndependent(t *testing.T) {
	a := member("a", 40, 10, 60, 30)
	b := member("b", 5, 15, 25, 2)
	c := member("c", 0, 0, 0, 0)

	forward := CombineMembers([]dto.MemberMetrics{a, b, c})
	reversed := CombineMembers([]dto.MemberMetrics{c, b, a})

	assert.Equal(t, forward, reversed)
}

func TestCombineMembersAveragesFromAccumulators(t *testing.T) {
	a := dto.MemberMetrics{
		MemberID:       "a",
		CallsAnswered:  10,
		CallMinutesSum: 60, // 6 min AHT
		CSATResponses:  4,
		CSATScoreSum:   16, // 4.0 avg
	}
	b := dto.MemberMetrics{
		MemberID:       "b",
		CallsAnswered:  2,
		CallMinutesSum: 24, // 12 min AHT
		CSATResponses:  1,
		CSATScoreSum:   5,
	}

	team := CombineMembers([]dto.MemberMetrics{a, b})

	// 84 minutes over 12 answered calls, not the average of 6 and 12.
	assert.Equal(t, "7 min", team.AvgHandleTime)

	require.NotNil(t, team.CSATAverage)
	assert.InDelta(t, 4.2, *team.CSATAverage, 0.001)
	assert.Equal(t, dto.StatusMet, team.CSATStatus)
}

func TestCombineMembersEmpty(t *testing.T) {
	team := CombineMembers(nil)

	assert.Equal(t, 0, team.CreatedCases)
	assert.False(t, team.SLACompliance.Valid)
	assert.Nil(t, team.CSATAverage)
	assert.Equal(t, "N/A", team.AvgHandleTime)
	assert.Equal(t, "N/A", team.AvgResolutionTime)
	assert.Equal(t, dto.StatusNA, team.CSATStatus)
}
