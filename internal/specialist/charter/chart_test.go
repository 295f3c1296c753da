package charter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoChartBackend_Invoke_Success(t *testing.T) {
	points := []ApplicationPoint{
		{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Count: 2},
		{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Count: 5},
		{Date: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), Count: 3},
	}
	raw, err := json.Marshal(points)
	require.NoError(t, err)

	b := NewGoChartBackend()
	resp, err := b.Invoke(context.Background(), models.CharterRequest{JobID: "job-1", ApplicationsData: raw})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	var charts []Chart
	require.NoError(t, json.Unmarshal(resp.Charts, &charts))
	require.Len(t, charts, 1)
	assert.Equal(t, "image/png", charts[0].MimeType)
	assert.NotEmpty(t, charts[0].PNGBase64)
}

func TestGoChartBackend_Invoke_TooFewPoints(t *testing.T) {
	raw, _ := json.Marshal([]ApplicationPoint{{Date: time.Now(), Count: 1}})

	b := NewGoChartBackend()
	resp, err := b.Invoke(context.Background(), models.CharterRequest{JobID: "job-1", ApplicationsData: raw})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "validation")
}

func TestGoChartBackend_Invoke_MalformedInput(t *testing.T) {
	b := NewGoChartBackend()
	resp, err := b.Invoke(context.Background(), models.CharterRequest{JobID: "job-1", ApplicationsData: json.RawMessage(`not json`)})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "validation")
}
