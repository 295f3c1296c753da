package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan_SingleSpecialistKinds(t *testing.T) {
	cases := []struct {
		kind       models.JobKind
		specialist specialistName
		slot       models.PayloadSlot
	}{
		{models.JobKindCVParse, specialistExtractor, models.SlotExtractor},
		{models.JobKindJobParse, specialistExtractor, models.SlotExtractor},
		{models.JobKindGapAnalysis, specialistAnalyzer, models.SlotAnalyzer},
		{models.JobKindCVRewrite, specialistAnalyzer, models.SlotAnalyzer},
		{models.JobKindInterviewPrep, specialistInterviewer, models.SlotInterviewer},
		{models.JobKindGetAnalytics, specialistCharter, models.SlotCharter},
	}
	for _, c := range cases {
		steps, err := buildPlan(c.kind, models.InputEnvelope{})
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, c.specialist, steps[0].Specialist)
		assert.Equal(t, c.slot, steps[0].Slot)
	}
}

func TestBuildPlan_FullAnalysis_NoProfilesBothTexts(t *testing.T) {
	input := models.InputEnvelope{CVText: "cv text", JobText: "job text"}
	steps, err := buildPlan(models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	require.Len(t, steps, 4)
	assert.Equal(t, specialistExtractor, steps[0].Specialist)
	assert.Equal(t, models.ExtractorTypeCV, steps[0].ExtractorType)
	assert.Equal(t, specialistExtractor, steps[1].Specialist)
	assert.Equal(t, models.ExtractorTypeJob, steps[1].ExtractorType)
	assert.Equal(t, specialistAnalyzer, steps[2].Specialist)
	assert.Equal(t, specialistInterviewer, steps[3].Specialist)
}

func TestBuildPlan_FullAnalysis_ProfilesAlreadyPresentSkipsExtractor(t *testing.T) {
	input := models.InputEnvelope{
		CVProfile:  json.RawMessage(`{"name":"Jane"}`),
		JobProfile: json.RawMessage(`{"title":"Engineer"}`),
	}
	steps, err := buildPlan(models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	require.Len(t, steps, 2)
	assert.Equal(t, specialistAnalyzer, steps[0].Specialist)
	assert.Equal(t, specialistInterviewer, steps[1].Specialist)
}

func TestBuildPlan_FullAnalysis_TextPresentButProfileAlreadySetSkipsThatExtractor(t *testing.T) {
	input := models.InputEnvelope{
		CVText:    "cv text",
		CVProfile: json.RawMessage(`{"name":"Jane"}`),
		JobText:   "job text",
	}
	steps, err := buildPlan(models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	require.Len(t, steps, 3)
	assert.Equal(t, specialistExtractor, steps[0].Specialist)
	assert.Equal(t, models.ExtractorTypeJob, steps[0].ExtractorType)
	assert.Equal(t, specialistAnalyzer, steps[1].Specialist)
	assert.Equal(t, specialistInterviewer, steps[2].Specialist)
}

func TestBuildPlan_UnknownKind(t *testing.T) {
	_, err := buildPlan(models.JobKind("no_such_kind"), models.InputEnvelope{})
	require.Error(t, err)
	var unknownKind ErrUnknownKind
	require.ErrorAs(t, err, &unknownKind)
	assert.Contains(t, err.Error(), "no_such_kind")
}
