package ircache

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

var testBounds = types.BBox{Min: types.Vec3{-10, -10, -10}, Max: types.Vec3{10, 10, 10}}

func randomNormal(rng *rand.Rand) types.Vec3 {
	for {
		n := types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		if l := n.Len(); l > 0.1 && l <= 1 {
			return n.Mul(1 / l)
		}
	}
}

func TestSampleRoundTrip(t *testing.T) {
	for _, alpha := range []float32{0.05, 0.1, 0.3} {
		rng := rand.New(rand.NewSource(int64(alpha * 100)))
		cache, err := New(testBounds, alpha, nil)
		if err != nil {
			t.Fatal(err)
		}

		samples := make([]Sample, 500)
		for i := range samples {
			samples[i] = Sample{
				Position:     types.Vec3{rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32()*20 - 10},
				Normal:       randomNormal(rng),
				Irradiance:   types.Gray(rng.Float32()),
				MeanDistance: rng.Float32()*2 + 0.01,
			}
			if err := cache.AddSample(samples[i]); err != nil {
				t.Fatalf("[alpha %f] unexpected error adding sample %d: %v", alpha, i, err)
			}
		}

		for i, s := range samples {
			found := cache.FindSamples(s.Position, s.Normal, nil)
			var ok bool
			for _, ws := range found {
				if ws.Index == i {
					ok = true
				}
				if ws.Weight <= 1/alpha {
					t.Fatalf("[alpha %f] expected accepted weights to exceed %f; got %f", alpha, 1/alpha, ws.Weight)
				}
			}
			if !ok {
				t.Fatalf("[alpha %f] expected query at sample %d position to return the sample", alpha, i)
			}

			if _, ok := cache.Estimate(s.Position, s.Normal); !ok {
				t.Fatalf("[alpha %f] expected an estimate at sample %d position", alpha, i)
			}
		}
	}
}

func TestShadowRejection(t *testing.T) {
	cache, err := New(testBounds, 0.1, nil)
	if err != nil {
		t.Fatal(err)
	}

	up := types.Vec3{0, 1, 0}
	if err = cache.AddSample(Sample{Position: types.Vec3{1, 0, 1}, Normal: up, Irradiance: types.Gray(3), MeanDistance: 10}); err != nil {
		t.Fatal(err)
	}

	type spec struct {
		pos   types.Vec3
		found bool
	}
	specs := []spec{
		// Behind the sample surface
		{types.Vec3{1, -0.5, 1}, false},
		// In front of the sample surface
		{types.Vec3{1, 0.5, 1}, true},
		// Same plane
		{types.Vec3{1.4, 0, 1}, true},
		// Too far away
		{types.Vec3{9, 0, 9}, false},
	}

	for index, s := range specs {
		got, ok := cache.Estimate(s.pos, up)
		if ok != s.found {
			t.Fatalf("[spec %d] expected found to be %t; got %t", index, s.found, ok)
		}
		if ok && math32.Abs(got[0]-3) > 1e-5 {
			t.Fatalf("[spec %d] expected estimate 3; got %f", index, got[0])
		}
	}
}

func TestOppositeSidesOfThinPlane(t *testing.T) {
	type spec struct {
		alpha      float32
		thickness  float32
		normalTilt float32
	}
	specs := []spec{
		{0.05, 0.01, 0},
		{0.1, 0.01, 0},
		{0.3, 0.01, 0},
		{0.3, 0.1, 0.3},
		{1, 0.001, 0},
		{1, 0.05, 0.5},
	}

	for index, s := range specs {
		rng := rand.New(rand.NewSource(int64(index)))
		cache, err := New(testBounds, s.alpha, nil)
		if err != nil {
			t.Fatal(err)
		}

		// Pairs of samples on either side of the y=0 plane with normals
		// pointing away from it.
		above := types.Vec3{s.normalTilt, 1, 0}.Normalize()
		below := types.Vec3{s.normalTilt, -1, 0}.Normalize()
		var samples []Sample
		for i := 0; i < 100; i++ {
			x, z := rng.Float32()*16-8, rng.Float32()*16-8
			meanDist := rng.Float32()*4 + 0.5
			samples = append(samples,
				Sample{Position: types.Vec3{x, s.thickness * 0.5, z}, Normal: above, Irradiance: types.Gray(1), MeanDistance: meanDist},
				Sample{Position: types.Vec3{x, -s.thickness * 0.5, z}, Normal: below, Irradiance: types.Gray(1), MeanDistance: meanDist},
			)
		}
		for _, sample := range samples {
			if err = cache.AddSample(sample); err != nil {
				t.Fatalf("[spec %d] unexpected error adding sample: %v", index, err)
			}
		}

		for i, sample := range samples {
			for _, ws := range cache.FindSamples(sample.Position, sample.Normal, nil) {
				other := cache.Sample(ws.Index)
				if (other.Position[1] > 0) != (sample.Position[1] > 0) {
					t.Fatalf("[spec %d] expected sample %d at %v to reject sample %d at %v on the other side of the plane", index, i, sample.Position, ws.Index, other.Position)
				}
			}
		}
	}
}

func TestNormalDivergence(t *testing.T) {
	cache, _ := New(testBounds, 0.2, nil)
	cache.AddSample(Sample{Position: types.Vec3{}, Normal: types.Vec3{0, 1, 0}, Irradiance: types.Gray(1), MeanDistance: 1})

	if _, ok := cache.Estimate(types.Vec3{}, types.Vec3{1, 0, 0}); ok {
		t.Fatal("expected sample with perpendicular normal to be rejected")
	}
}

func TestWeightedAverage(t *testing.T) {
	cache, _ := New(testBounds, 0.3, nil)
	up := types.Vec3{0, 1, 0}
	cache.AddSample(Sample{Position: types.Vec3{0, 0, 0}, Normal: up, Irradiance: types.Gray(1), MeanDistance: 4})
	cache.AddSample(Sample{Position: types.Vec3{0.4, 0, 0}, Normal: up, Irradiance: types.Gray(2), MeanDistance: 4})

	// Equidistant query: both weights equal 1/0.05.
	got, ok := cache.Estimate(types.Vec3{0.2, 0, 0}, up)
	if !ok || math32.Abs(got[0]-1.5) > 1e-4 {
		t.Fatalf("expected estimate 1.5; got %f (ok: %t)", got[0], ok)
	}
}

func TestInvalidParameters(t *testing.T) {
	if _, err := New(testBounds, 0, nil); err != ErrInvalidAccuracy {
		t.Fatalf("expected ErrInvalidAccuracy; got %v", err)
	}

	cache, _ := New(testBounds, 0.1, nil)
	if err := cache.AddSample(Sample{MeanDistance: 0}); err != ErrInvalidRadius {
		t.Fatalf("expected ErrInvalidRadius; got %v", err)
	}
	if _, ok := cache.Estimate(types.Vec3{}, types.Vec3{0, 1, 0}); ok {
		t.Fatal("expected no estimate from an empty cache")
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache, _ := New(testBounds, 0.1, nil)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				pos := types.Vec3{rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32()*20 - 10}
				if _, ok := cache.Estimate(pos, types.Vec3{0, 1, 0}); !ok {
					cache.AddSample(Sample{Position: pos, Normal: types.Vec3{0, 1, 0}, Irradiance: types.Gray(1), MeanDistance: 1})
				}
			}
		}(int64(w))
	}
	wg.Wait()

	if cache.Len() == 0 {
		t.Fatal("expected samples to be added")
	}
}
