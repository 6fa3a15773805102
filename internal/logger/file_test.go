package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/sitecheck/internal/models"
)

func TestFileLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := NewFileLogger(dir, "serve", "info")
	require.NoError(t, err)

	log.LogDebug("hidden")
	log.LogInfo("listening on :8080")
	log.LogAssessmentRecorded(models.ConditionAssessment{
		ID:            "a-1",
		PropertyID:    "prop-1",
		Scenario:      models.ScenarioRawLand,
		OverallRating: models.RatingC,
		OverallScore:  55,
		RiskLevel:     models.RiskElevated,
	})
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "=== sitecheck serve ===")
	assert.Contains(t, content, "[INFO] listening on :8080")
	assert.Contains(t, content, "assessment a-1 for prop-1: rating C, score 55, risk elevated")
	assert.NotContains(t, content, "hidden")

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(log.Path()), target)

	// writes after Close are dropped
	assert.NotPanics(t, func() { log.LogError("late") })
}

type recordingLogger struct {
	NoOpLogger
	messages []string
	recorded []models.ConditionAssessment
}

func (r *recordingLogger) LogWarn(message string) { r.messages = append(r.messages, message) }
func (r *recordingLogger) LogAssessmentRecorded(a models.ConditionAssessment) {
	r.recorded = append(r.recorded, a)
}

func TestMultiLogger(t *testing.T) {
	first := &recordingLogger{}
	second := &recordingLogger{}
	plain := NewNoOpLogger()

	multi := NewMultiLogger(first, nil, plain, second)
	multi.LogWarn("stale result discarded")
	multi.LogAssessmentRecorded(models.ConditionAssessment{ID: "a-9"})

	for _, r := range []*recordingLogger{first, second} {
		assert.Equal(t, []string{"stale result discarded"}, r.messages)
		require.Len(t, r.recorded, 1)
		assert.Equal(t, "a-9", r.recorded[0].ID)
	}
}
