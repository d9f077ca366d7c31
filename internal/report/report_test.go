package report

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/regressionfit/internal/compare"
	"github.com/cwbudde/regressionfit/internal/fit"
	"github.com/cwbudde/regressionfit/internal/opt"
)

func sampleReport() *compare.Report {
	ga := &opt.Result{
		Optimizer:   "ga",
		Sense:       opt.Maximize,
		Best:        []float64{1.1, 4.9, 16.4},
		Value:       -4200,
		Iterations:  3,
		Evaluations: 31,
		History:     []float64{math.Inf(-1), -5000, -4300, -4200},
		Elapsed:     1500 * time.Millisecond,
	}
	pso := &opt.Result{
		Optimizer:   "pso",
		Sense:       opt.Minimize,
		Best:        []float64{1.2, 4.88, 16.5},
		Value:       4201,
		Iterations:  2,
		Evaluations: 60,
		History:     []float64{6000, 4500, 4201},
		Stabilized:  true,
	}

	r := &compare.Report{
		Truth:            fit.DefaultTruth(),
		OLS:              fit.Params{Intercept: 1.15, Slope: 4.879, Sigma: 16.45},
		OLSLogLikelihood: -4199.5,
		Outcomes: []compare.Outcome{
			{Name: "ga", Sense: opt.Maximize, Result: ga, LogLikelihood: -4200},
			{Name: "pso", Sense: opt.Minimize, Result: pso, LogLikelihood: -4201},
		},
	}
	for i, name := range fit.ParamNames {
		r.Rows = append(r.Rows, compare.Row{
			Parameter: name,
			True:      r.Truth.Vector()[i],
			OLS:       r.OLS.Vector()[i],
			Estimates: []float64{ga.Best[i], pso.Best[i]},
		})
	}
	return r
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport()))
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{"PARAMETER", "TRUE", "OLS", "GA", "PSO"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"intercept", "1.3450", "1.1500", "1.1000", "1.2000"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"slope", "4.8760", "4.8790", "4.9000", "4.8800"}, strings.Fields(lines[3]))

	assert.Contains(t, out, "LOG-LIKELIHOOD")
	assert.Contains(t, out, "-4199.5000")
	assert.Contains(t, out, "minimize")
	assert.Contains(t, out, "1.5s")
}

func TestConvergencePoints_UnNegatesAndSkipsNonFinite(t *testing.T) {
	r := sampleReport()

	ga := ConvergencePoints(r.Outcomes[0])
	require.Len(t, ga, 3)
	assert.Equal(t, 1.0, ga[0].X)
	assert.Equal(t, -5000.0, ga[0].Y)

	pso := ConvergencePoints(r.Outcomes[1])
	require.Len(t, pso, 3)
	assert.Equal(t, -6000.0, pso[0].Y)
	assert.Equal(t, -4201.0, pso[2].Y)
}

func TestSaveConvergencePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.png")
	require.NoError(t, SaveConvergencePlot(path, sampleReport()))
	assert.FileExists(t, path)
}

func TestSaveConvergencePlot_NothingToPlot(t *testing.T) {
	r := sampleReport()
	for _, o := range r.Outcomes {
		o.Result.History = o.Result.History[len(o.Result.History)-1:]
	}
	err := SaveConvergencePlot(filepath.Join(t.TempDir(), "c.png"), r)
	assert.ErrorIs(t, err, ErrNothingToPlot)
}
