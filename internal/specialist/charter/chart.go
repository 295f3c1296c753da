// Package charter is the in-process reference backend for the charter
// specialist, used when no remote endpoint is configured for it. It adapts
// the teacher's portfolio growth-chart renderer to job-application
// analytics over time.
package charter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
)

// ApplicationPoint is one day's application-volume sample, the shape the
// get_analytics/full_analysis input.applications_data is expected to carry.
type ApplicationPoint struct {
	Date  time.Time `json:"date"`
	Count float64   `json:"count"`
}

// Chart is one rendered chart in the charts payload slot.
type Chart struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	PNGBase64 string `json:"png_base64"`
}

// GoChartBackend implements interfaces.Charter using wcharczuk/go-chart.
type GoChartBackend struct{}

// NewGoChartBackend constructs a GoChartBackend.
func NewGoChartBackend() *GoChartBackend { return &GoChartBackend{} }

// Invoke implements interfaces.Charter by rendering an applications-over-time
// PNG line chart from req.ApplicationsData.
func (b *GoChartBackend) Invoke(_ context.Context, req models.CharterRequest) (models.CharterResponse, error) {
	var points []ApplicationPoint
	if len(req.ApplicationsData) > 0 {
		if err := json.Unmarshal(req.ApplicationsData, &points); err != nil {
			return models.CharterResponse{Success: false, Error: fmt.Sprintf("validation: applications_data: %s", err)}, nil
		}
	}

	if len(points) < 2 {
		// Charter failure modes are rate-limit/parse-error/transport; an
		// input with too few points to plot is a validation
		// failure, not a charter outage — reported as success=false.
		return models.CharterResponse{Success: false, Error: "validation: need at least 2 application data points"}, nil
	}

	png, err := renderApplicationsChart(points)
	if err != nil {
		return models.CharterResponse{}, fmt.Errorf("internal: render chart: %w", err)
	}

	charts := []Chart{{
		Name:      "applications_over_time",
		MimeType:  "image/png",
		PNGBase64: base64.StdEncoding.EncodeToString(png),
	}}
	encoded, err := json.Marshal(charts)
	if err != nil {
		return models.CharterResponse{}, fmt.Errorf("internal: marshal charts: %w", err)
	}

	return models.CharterResponse{Success: true, Charts: encoded}, nil
}

// renderApplicationsChart renders a PNG line chart of application volume
// over time, adapted from the teacher's RenderGrowthChart.
func renderApplicationsChart(points []ApplicationPoint) ([]byte, error) {
	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		xValues[i] = p.Date
		yValues[i] = p.Count
	}

	span := xValues[len(xValues)-1].Sub(xValues[0])
	xFormat := "Jan 06"
	if span < 60*24*time.Hour {
		xFormat = "02 Jan"
	} else if span > 18*30*24*time.Hour {
		xFormat = "Jan 2006"
	}

	series := chart.TimeSeries{
		Name: "Applications",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Applications Over Time",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(xFormat)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

var _ interfaces.Charter = (*GoChartBackend)(nil)
