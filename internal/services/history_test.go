package services

import (
	"testing"
	"time"

	"fastpath/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryWindowFiltersByAge(t *testing.T) {
	ResetHistory()
	t.Cleanup(ResetHistory)

	AddRecord(models.PatchRecord{ID: "old", RecordedAt: time.Now().Add(-time.Hour)})
	AddRecord(models.PatchRecord{ID: "recent", RecordedAt: time.Now()})

	window := GetHistoricalData(10 * time.Minute)
	require.Len(t, window.Records, 1)
	assert.Equal(t, "recent", window.Records[0].ID)

	window = GetHistoricalData(2 * time.Hour)
	assert.Len(t, window.Records, 2)
}

func TestAddSummaryTracksImprovements(t *testing.T) {
	ResetHistory()
	t.Cleanup(ResetHistory)

	require.Nil(t, LatestSummary())

	AddSummary(models.QualificationSummary{
		Reports: []models.PerformanceReport{
			{Operation: "copy", ImprovementPercent: 40, TargetMet: true, MeasuredAt: time.Now()},
			{Operation: "checksum", ImprovementPercent: 10, TargetMet: false, MeasuredAt: time.Now()},
		},
		AverageImprovement: 25,
	})

	summary := LatestSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 25.0, summary.AverageImprovement)

	met, known := TargetMet("copy")
	assert.True(t, known)
	assert.True(t, met)

	met, known = TargetMet("checksum")
	assert.True(t, known)
	assert.False(t, met)

	_, known = TargetMet("never-measured")
	assert.False(t, known)

	window := GetHistoricalData(time.Minute)
	assert.Len(t, window.Improvements, 2)
}

func TestHistoryBoundsRetention(t *testing.T) {
	ResetHistory()
	t.Cleanup(ResetHistory)

	for i := 0; i < 600; i++ {
		AddRecord(models.PatchRecord{ID: "r", RecordedAt: time.Now()})
	}

	window := GetHistoricalData(time.Minute)
	assert.LessOrEqual(t, len(window.Records), 512)
}
