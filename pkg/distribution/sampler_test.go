package distribution_test

import (
	"testing"

	"github.com/nsimlab/loadsim/pkg/distribution"
)

func TestSampleDeterministicWithFixedSeed(t *testing.T) {
	spec := distribution.Spec{Family: distribution.Exponential, Mean: 0.1}

	a := distribution.NewSampler(42)
	b := distribution.NewSampler(42)

	for i := 0; i < 20; i++ {
		va := a.Sample(spec)
		vb := b.Sample(spec)
		if va != vb {
			t.Fatalf("draw %d diverged: %g != %g", i, va, vb)
		}
	}
}

func TestNormalSamplesClampedToZero(t *testing.T) {
	s := distribution.NewSampler(1)
	spec := distribution.Spec{Family: distribution.Normal, Mean: -1000, StdDev: 1}
	for i := 0; i < 50; i++ {
		if v := s.Sample(spec); v < 0 {
			t.Fatalf("normal sample %g was not clamped to 0", v)
		}
	}
}

func TestBurstReturnsConstant(t *testing.T) {
	s := distribution.NewSampler(7)
	spec := distribution.Spec{Family: distribution.Burst, Mean: 2.5}
	for i := 0; i < 5; i++ {
		if v := s.Sample(spec); v != 2.5 {
			t.Fatalf("burst sample = %g, want 2.5", v)
		}
	}
}

func TestValidateRejectsUnknownFamily(t *testing.T) {
	spec := distribution.Spec{Family: "bogus"}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error for unknown family")
	}
}

func TestValidateRejectsInvertedUniformRange(t *testing.T) {
	spec := distribution.Spec{Family: distribution.Uniform, Low: 10, High: 1}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected error for inverted uniform range")
	}
}

func TestChooseFamilyPicksFromSet(t *testing.T) {
	s := distribution.NewSampler(3)
	families := []distribution.Family{distribution.Normal, distribution.Exponential}
	for i := 0; i < 20; i++ {
		f := s.ChooseFamily(families)
		if f != distribution.Normal && f != distribution.Exponential {
			t.Fatalf("unexpected family %q", f)
		}
	}
}
