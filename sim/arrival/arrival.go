// Package arrival provides inter-arrival time samplers for the vessel
// arrival generator.
package arrival

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Process names accepted in Spec.Process.
const (
	ProcessPoisson  = "poisson"
	ProcessConstant = "constant"
	ProcessGamma    = "gamma"
	ProcessWeibull  = "weibull"
	ProcessReplay   = "replay"
)

var validProcesses = map[string]bool{
	ProcessPoisson:  true,
	ProcessConstant: true,
	ProcessGamma:    true,
	ProcessWeibull:  true,
	ProcessReplay:   true,
	"":              true, // empty defaults to poisson
}

// IsValidProcess returns true if name is a recognized arrival process.
func IsValidProcess(name string) bool {
	return validProcesses[name]
}

// Spec configures the inter-arrival time process.
type Spec struct {
	Process string    `yaml:"process"`
	CV      *float64  `yaml:"cv,omitempty"`   // coefficient of variation for gamma/weibull
	Gaps    []float64 `yaml:"gaps,omitempty"` // explicit gaps for replay
}

// Sampler generates inter-arrival times.
type Sampler interface {
	// SampleIAT returns the next inter-arrival time in simulation time units
	// (always >= 0) and false once the process has no further arrivals.
	SampleIAT(rng *rand.Rand) (float64, bool)
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	mean float64
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) (float64, bool) {
	return rng.ExpFloat64() * s.mean, true
}

// ConstantSampler spaces arrivals exactly mean units apart.
type ConstantSampler struct {
	gap float64
}

func (s *ConstantSampler) SampleIAT(*rand.Rand) (float64, bool) {
	return s.gap, true
}

// GammaSampler generates Gamma-distributed inter-arrival times.
// CV > 1 produces bursty arrivals.
// Implemented using Marsaglia-Tsang's method for shape >= 1,
// with transformation for shape < 1.
type GammaSampler struct {
	shape float64 // 1/CV² (alpha parameter)
	scale float64 // mean*CV² (beta parameter)
}

func (s *GammaSampler) SampleIAT(rng *rand.Rand) (float64, bool) {
	return gammaRand(rng, s.shape, s.scale), true
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape >= 1: direct method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler generates Weibull-distributed inter-arrival times.
type WeibullSampler struct {
	shape float64 // Weibull k parameter
	scale float64 // Weibull λ parameter
}

func (s *WeibullSampler) SampleIAT(rng *rand.Rand) (float64, bool) {
	// Inverse CDF: scale * (-ln(U))^(1/shape)
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // prevent -ln(0) = +Inf
	}
	return s.scale * math.Pow(-math.Log(u), 1.0/s.shape), true
}

// ReplaySampler returns a fixed list of gaps, then reports exhaustion.
type ReplaySampler struct {
	gaps []float64
	next int
}

// NewReplaySampler creates a sampler replaying gaps in order.
func NewReplaySampler(gaps []float64) *ReplaySampler {
	return &ReplaySampler{gaps: append([]float64(nil), gaps...)}
}

func (s *ReplaySampler) SampleIAT(*rand.Rand) (float64, bool) {
	if s.next >= len(s.gaps) {
		return 0, false
	}
	gap := s.gaps[s.next]
	s.next++
	return gap, true
}

// New creates a Sampler from a spec and a mean inter-arrival time.
func New(spec Spec, mean float64) (Sampler, error) {
	if !IsValidProcess(spec.Process) {
		return nil, fmt.Errorf("unknown arrival process %q", spec.Process)
	}
	if spec.Process == ProcessReplay {
		for i, g := range spec.Gaps {
			if g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
				return nil, fmt.Errorf("replay gap %d is %v, must be finite and >= 0", i, g)
			}
		}
		return NewReplaySampler(spec.Gaps), nil
	}
	if mean <= 0 || math.IsInf(mean, 0) || math.IsNaN(mean) {
		return nil, fmt.Errorf("mean inter-arrival time must be finite and > 0, got %v", mean)
	}

	switch spec.Process {
	case ProcessConstant:
		return &ConstantSampler{gap: mean}, nil

	case ProcessGamma:
		cv := cvOrDefault(spec.CV)
		// shape = 1/CV², scale = mean * CV²
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{mean: mean}, nil
		}
		return &GammaSampler{shape: shape, scale: mean * cv * cv}, nil

	case ProcessWeibull:
		k := weibullShapeFromCV(cvOrDefault(spec.CV))
		// scale = mean / Γ(1 + 1/k)
		return &WeibullSampler{shape: k, scale: mean / math.Gamma(1.0+1.0/k)}, nil

	default:
		return &PoissonSampler{mean: mean}, nil
	}
}

func cvOrDefault(cv *float64) float64 {
	if cv == nil || *cv <= 0 {
		return 1.0
	}
	return *cv
}

// weibullShapeFromCV finds Weibull shape parameter k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection.
// Range: k ∈ [0.1, 100], tolerance: |CV_computed - CV_target| < 0.001.
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

// weibullCV computes the coefficient of variation for Weibull(k).
func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
