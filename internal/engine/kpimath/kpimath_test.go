package kpimath

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"deskpulserest/internal/models/dto"
)

func TestSafeRate(t *testing.T) {
	tests := []struct {
		name      string
		num, den  int
		wantNA    bool
		wantValue int
	}{
		{name: "Zero denominator is N/A", num: 0, den: 0, wantNA: true},
		{name: "Negative denominator is N/A", num: 5, den: -1, wantNA: true},
		{name: "Plain percentage", num: 9, den: 10, wantValue: 90},
		{name: "Rounded up", num: 16, den: 18, wantValue: 89},
		{name: "Clamped at 100", num: 15, den: 10, wantValue: 100},
		{name: "Zero numerator", num: 0, den: 10, wantValue: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeRate(tt.num, tt.den)
			if tt.wantNA {
				assert.False(t, got.Valid)
				return
			}
			assert.True(t, got.Valid)
			assert.Equal(t, tt.wantValue, got.Value)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value float64
		valid bool
		want  dto.MetricStatus
	}{
		{name: "SLA above target", key: KeySLACompliance, value: 91, valid: true, want: dto.StatusMet},
		{name: "SLA at target boundary", key: KeySLACompliance, value: 90, valid: true, want: dto.StatusMet},
		{name: "SLA within 10% band", key: KeySLACompliance, value: 85, valid: true, want: dto.StatusWarn},
		{name: "SLA at band floor", key: KeySLACompliance, value: 81, valid: true, want: dto.StatusWarn},
		{name: "SLA far below", key: KeySLACompliance, value: 50, valid: true, want: dto.StatusMiss},
		{name: "Escalation below lt target", key: KeyEscalationRate, value: 4, valid: true, want: dto.StatusMet},
		{name: "Escalation at lt target is not met", key: KeyEscalationRate, value: 10, valid: true, want: dto.StatusWarn},
		{name: "Escalation within 15% band", key: KeyEscalationRate, value: 11, valid: true, want: dto.StatusWarn},
		{name: "Escalation over the band", key: KeyEscalationRate, value: 20, valid: true, want: dto.StatusMiss},
		{name: "Handle time under lte target", key: KeyAHTMinutes, value: 7.5, valid: true, want: dto.StatusMet},
		{name: "Handle time at lte target", key: KeyAHTMinutes, value: 8, valid: true, want: dto.StatusMet},
		{name: "CSAT above target", key: KeyCSATAverage, value: 4.5, valid: true, want: dto.StatusMet},
		{name: "Not applicable value", key: KeySLACompliance, value: 0, valid: false, want: dto.StatusNA},
		{name: "Unknown key", key: "unknown_metric", value: 50, valid: true, want: dto.StatusNA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key, tt.value, tt.valid))
		})
	}
}

func TestClassifyRate(t *testing.T) {
	assert.Equal(t, dto.StatusWarn, ClassifyRate(KeySLACompliance, dto.PercentRate(89)))
	assert.Equal(t, dto.StatusNA, ClassifyRate(KeySLACompliance, dto.RateNA))
}

func TestAverageDuration(t *testing.T) {
	assert.Equal(t, "N/A", AverageDuration(nil))
	assert.Equal(t, "30 min", AverageDuration([]float64{20, 40}))
	assert.Equal(t, "2h 30m", AverageDuration([]float64{150}))

	// Means above 1000 indicate the source field was seconds.
	assert.Equal(t, "25 min", AverageDuration([]float64{1500}))
	assert.Equal(t, "2h 0m", AverageDuration([]float64{7200}))
}

func TestAverageDeltaMinutes(t *testing.T) {
	assert.Equal(t, "N/A", AverageDeltaMinutes(nil))
	assert.Equal(t, "45 min", AverageDeltaMinutes([]float64{30, 60}))
	assert.Equal(t, "2.5h", AverageDeltaMinutes([]float64{120, 180}))

	// Negative and week-plus deltas are data-quality outliers.
	outliers := []float64{-10, 40, 200000}
	assert.Equal(t, "40 min", AverageDeltaMinutes(outliers))

	onlyOutliers := []float64{-1, 168 * 60}
	assert.Equal(t, "N/A", AverageDeltaMinutes(onlyOutliers))
}
