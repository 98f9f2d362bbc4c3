// Package distribution draws service times, inter-arrival intervals, and
// think-time backoffs from named statistical distributions. It wraps a
// single seeded math/rand.Source in a Sampler: pick a distribution by
// name, draw a number. gonum.org/v1/gonum/stat/distuv implements Normal,
// Exponential, Gamma, and ChiSquared correctly (Box-Muller,
// Marsaglia-Tsang) instead of hand-rolling them.
package distribution

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Family names a distribution shape a duration can be drawn from.
type Family string

const (
	Normal      Family = "normal"
	Exponential Family = "exponential"
	Uniform     Family = "uniform"
	Gamma       Family = "gamma"
	ChiSquared  Family = "chi_squared"
	// Burst is not a statistical distribution at all: it always returns
	// the same small constant, modeling a client that never backs off.
	Burst Family = "burst"
)

// Spec configures one named distribution. Which fields are read depends on
// Family:
//
//	normal       Mean, StdDev
//	exponential  Mean (rate = 1/Mean)
//	uniform      Low, High
//	gamma        Shape, Rate
//	chi_squared  K (degrees of freedom)
//	burst        Mean (the constant returned every time)
type Spec struct {
	Family Family
	Mean   float64
	StdDev float64
	Low    float64
	High   float64
	Shape  float64
	Rate   float64
	K      float64
}

// Validate reports a configuration error for an unknown family or
// nonsensical parameters (e.g. a uniform range with High < Low). It does
// not validate that Mean/Rate are positive where a degenerate-but-legal
// zero would just produce a zero-valued draw.
func (s Spec) Validate() error {
	switch s.Family {
	case Normal, Exponential, Uniform, Gamma, ChiSquared, Burst:
	default:
		return fmt.Errorf("distribution: unknown family %q", s.Family)
	}
	if s.Family == Uniform && s.High < s.Low {
		return fmt.Errorf("distribution: uniform high %g < low %g", s.High, s.Low)
	}
	return nil
}

// Sampler draws values from Specs using one process-wide seeded source, so
// that a fixed seed reproduces byte-identical draws across an entire run.
type Sampler struct {
	src rand.Source
	rnd *rand.Rand
}

// NewSampler returns a Sampler seeded with seed. Every distuv distribution
// constructed from it shares the same underlying rand.Source, so draw order
// — not just the seed — determines reproducibility: two runs that issue
// the same draws in the same order reproduce the same numbers.
func NewSampler(seed int64) *Sampler {
	src := rand.NewSource(seed) //nolint:gosec
	return &Sampler{src: src, rnd: rand.New(src)}
}

// Sample draws one value from spec. Negative draws from a Normal
// distribution are clamped to zero, matching the source simulator's
// max(0, np.random.normal(...)) behavior; draws from every other family
// cannot go negative by construction and are returned unclamped.
func (s *Sampler) Sample(spec Spec) float64 {
	switch spec.Family {
	case Normal:
		d := distuv.Normal{Mu: spec.Mean, Sigma: spec.StdDev, Src: s.src}
		v := d.Rand()
		if v < 0 {
			return 0
		}
		return v
	case Exponential:
		if spec.Mean <= 0 {
			return 0
		}
		d := distuv.Exponential{Rate: 1.0 / spec.Mean, Src: s.src}
		return d.Rand()
	case Uniform:
		d := distuv.Uniform{Min: spec.Low, Max: spec.High, Src: s.src}
		return d.Rand()
	case Gamma:
		d := distuv.Gamma{Alpha: spec.Shape, Beta: spec.Rate, Src: s.src}
		return d.Rand()
	case ChiSquared:
		d := distuv.ChiSquared{K: spec.K, Src: s.src}
		return d.Rand()
	case Burst:
		return spec.Mean
	default:
		panic(fmt.Sprintf("distribution: unknown family %q", spec.Family))
	}
}

// Intn returns a uniform random non-negative integer in [0, n), using the
// same seeded source as Sample, for callers like the random load-balancing
// strategy that need an index rather than a duration.
func (s *Sampler) Intn(n int) int {
	return s.rnd.Intn(n)
}

// Bool reports true with probability p, using the same seeded source as
// Sample, for the client's per-cycle termination gate.
func (s *Sampler) Bool(p float64) bool {
	return s.rnd.Float64() < p
}

// ChooseFamily picks one of families uniformly at random, implementing the
// client think-time rule that the distribution family itself (not just its
// parameters) is chosen per cycle from a configured set.
func (s *Sampler) ChooseFamily(families []Family) Family {
	if len(families) == 0 {
		panic("distribution: ChooseFamily called with no families")
	}
	return families[s.Intn(len(families))]
}
