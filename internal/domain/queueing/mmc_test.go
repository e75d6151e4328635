package queueing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wareflow/wareflow-go/internal/domain/queueing"
)

func TestAnalyze_MM1(t *testing.T) {
	// For M/M/1 the Erlang-C wait probability equals rho.
	analysis := queueing.Analyze(2, 3, 1, queueing.Bands{})

	assert.True(t, analysis.Stable)
	assert.InDelta(t, 2.0/3.0, analysis.Rho, 1e-9)
	assert.InDelta(t, 2.0/3.0, analysis.WaitProbability, 1e-9)
}

func TestAnalyze_MM2(t *testing.T) {
	// Classic M/M/2 example: lambda=1.5, mu=1, rho=0.75.
	// Erlang-C: C(2, 1.5) = 0.6428571...
	analysis := queueing.Analyze(1.5, 1, 2, queueing.Bands{})

	assert.True(t, analysis.Stable)
	assert.InDelta(t, 0.75, analysis.Rho, 1e-9)
	assert.InDelta(t, 0.642857142857, analysis.WaitProbability, 1e-9)
}

func TestAnalyze_Unstable(t *testing.T) {
	analysis := queueing.Analyze(10, 3, 2, queueing.Bands{})

	assert.False(t, analysis.Stable)
	assert.Equal(t, 1.0, analysis.WaitProbability)
}

func TestAnalyze_NoArrivals(t *testing.T) {
	analysis := queueing.Analyze(0, 3, 2, queueing.Bands{})

	assert.True(t, analysis.Stable)
	assert.Equal(t, 0.0, analysis.WaitProbability)
	assert.Equal(t, 0.0, analysis.Rho)
}

func TestAnalyze_NoServers(t *testing.T) {
	analysis := queueing.Analyze(1, 1, 0, queueing.Bands{})

	assert.False(t, analysis.Stable)
	assert.Equal(t, 1.0, analysis.WaitProbability)
}

func TestAnalyze_Bands(t *testing.T) {
	bands := queueing.Bands{Overload: 0.8, Critical: 0.95}

	assert.False(t, queueing.Analyze(0.7, 1, 1, bands).Overloaded)

	hot := queueing.Analyze(0.9, 1, 1, bands)
	assert.True(t, hot.Overloaded)
	assert.False(t, hot.CriticalLoad)

	critical := queueing.Analyze(0.97, 1, 1, bands)
	assert.True(t, critical.CriticalLoad)
}
