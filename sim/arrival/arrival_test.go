package arrival

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func sample(t *testing.T, s Sampler, seed int64, n int) []float64 {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	vals := make([]float64, n)
	for i := range vals {
		v, ok := s.SampleIAT(rng)
		require.True(t, ok)
		require.GreaterOrEqual(t, v, 0.0)
		vals[i] = v
	}
	return vals
}

func TestPoissonSampler_MeanIAT_MatchesMean(t *testing.T) {
	// GIVEN a Poisson sampler with a mean inter-arrival of 300
	sampler, err := New(Spec{Process: ProcessPoisson}, 300)
	require.NoError(t, err)

	// WHEN 10000 IATs are sampled
	mean, variance := stat.MeanVariance(sample(t, sampler, 42, 10000), nil)

	// THEN mean ≈ 300 and CV ≈ 1 (within 5% / 10%)
	assert.InEpsilon(t, 300.0, mean, 0.05)
	assert.InEpsilon(t, 1.0, math.Sqrt(variance)/mean, 0.1)
}

func TestNew_EmptyProcess_DefaultsToPoisson(t *testing.T) {
	sampler, err := New(Spec{}, 300)
	require.NoError(t, err)
	assert.IsType(t, &PoissonSampler{}, sampler)
}

func TestConstantSampler_ReturnsMean(t *testing.T) {
	sampler, err := New(Spec{Process: ProcessConstant}, 12.5)
	require.NoError(t, err)

	for _, v := range sample(t, sampler, 1, 5) {
		assert.Equal(t, 12.5, v)
	}
}

func TestGammaSampler_MeanAndVariance_MatchTheoretical(t *testing.T) {
	cv := 2.0
	sampler, err := New(Spec{Process: ProcessGamma, CV: &cv}, 300)
	require.NoError(t, err)

	mean, variance := stat.MeanVariance(sample(t, sampler, 42, 50000), nil)

	// Theoretical: mean = 300, variance = mean² * CV²
	assert.InEpsilon(t, 300.0, mean, 0.05)
	assert.InEpsilon(t, 300.0*300.0*cv*cv, variance, 0.15)
}

func TestWeibullSampler_MeanMatches(t *testing.T) {
	cv := 0.5
	sampler, err := New(Spec{Process: ProcessWeibull, CV: &cv}, 300)
	require.NoError(t, err)

	mean, variance := stat.MeanVariance(sample(t, sampler, 7, 50000), nil)

	assert.InEpsilon(t, 300.0, mean, 0.05)
	assert.InEpsilon(t, cv, math.Sqrt(variance)/mean, 0.1)
}

func TestReplaySampler_ExhaustsAfterGaps(t *testing.T) {
	// GIVEN a replay of gaps [0, 1]
	sampler, err := New(Spec{Process: ProcessReplay, Gaps: []float64{0, 1}}, 0)
	require.NoError(t, err)

	// WHEN sampled three times
	g1, ok1 := sampler.SampleIAT(nil)
	g2, ok2 := sampler.SampleIAT(nil)
	_, ok3 := sampler.SampleIAT(nil)

	// THEN the gaps come back in order, then the process is exhausted
	assert.Equal(t, []float64{0, 1}, []float64{g1, g2})
	assert.True(t, ok1 && ok2)
	assert.False(t, ok3)
}

func TestNew_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		mean float64
	}{
		{"unknown process", Spec{Process: "bursty"}, 300},
		{"zero mean", Spec{Process: ProcessPoisson}, 0},
		{"negative mean", Spec{Process: ProcessConstant}, -5},
		{"negative replay gap", Spec{Process: ProcessReplay, Gaps: []float64{1, -1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec, tt.mean)
			assert.Error(t, err)
		})
	}
}

func TestIsValidProcess(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"poisson", true},
		{"replay", true},
		{"", true}, // empty defaults to poisson
		{"POISSON", false},
		{"uniform", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidProcess(tt.name))
		})
	}
}

func TestWeibullShapeFromCV_ExponentialCase(t *testing.T) {
	// Weibull with k=1 is the exponential distribution, whose CV is 1
	assert.InDelta(t, 1.0, weibullShapeFromCV(1.0), 0.01)
}
