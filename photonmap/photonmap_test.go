package photonmap

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

func closedBox(t *testing.T, albedo float32, light *scene.Light) *raytracer.Raytracer {
	sc, err := scene.NewBoxScene(scene.BoxSceneOptions{
		Size:     10,
		Lights:   []*scene.Light{light},
		Material: &scene.Material{Name: "walls", Diffuse: types.Gray(albedo)},
	})
	if err != nil {
		t.Fatal(err)
	}
	tree := kdtree.BuildSector(sc.Sectors[0], kdtree.DefaultOptions())
	return raytracer.New(tree, nil)
}

func TestPhotonEnergyConservation(t *testing.T) {
	type spec struct {
		albedo   float32
		maxDepth int
		rr       bool
		photons  int
		expScale float32
	}
	specs := []spec{
		// Every photon is deposited maxDepth times at full power.
		{1, 3, false, 2000, 3},
		// Expected stored power: 1 + 0.5 + 0.25 (roulette keeps it unbiased).
		{0.5, 3, true, 20000, 1.75},
		{0.5, 3, false, 2000, 1.75},
	}

	for index, s := range specs {
		light := scene.NewPointLight("lamp", types.Vec3{0.1, 0.2, 0.3}, types.Gray(1), 1, -1, scene.AttenuationRealistic)
		rt := closedBox(t, s.albedo, light)
		pm := New()
		counters := stats.NewCounters()
		tracer := NewTracer(rt, sampling.NewRandomSampler(int64(index)), pm, Options{MaxRecursionDepth: s.maxDepth, RussianRoulette: s.rr}, counters)

		tracer.EmitPhotons(light, s.photons, s.photons)

		emitted := 4 * math32.Pi
		exp := emitted * s.expScale
		got := pm.TotalPower()[0]
		if math32.Abs(got-exp) > 0.05*exp {
			t.Fatalf("[spec %d] expected total stored power %f (within 5%%); got %f", index, exp, got)
		}
		if counters.PhotonsEmitted() != uint64(s.photons) || counters.PhotonsStored() != uint64(pm.Len()) {
			t.Fatalf("[spec %d] expected photon counters to match the photon map", index)
		}

		for _, p := range pm.Photons() {
			if int(p.Depth) >= s.maxDepth {
				t.Fatalf("[spec %d] expected photon depth < %d; got %d", index, s.maxDepth, p.Depth)
			}
		}
	}
}

func TestAllocatePhotons(t *testing.T) {
	dir := &scene.Light{Name: "sun", Kind: scene.DirectionalLight, Color: types.Gray(1), Power: 10}
	pd := scene.NewPointLight("pd", types.Vec3{}, types.Gray(1), 5, -1, scene.AttenuationNone)
	pd.Flags = scene.LightPseudoDynamic
	lights := []*scene.Light{
		scene.NewPointLight("a", types.Vec3{}, types.Gray(1), 1, -1, scene.AttenuationNone),
		scene.NewPointLight("b", types.Vec3{}, types.RGB(3, 6, 0), 1, -1, scene.AttenuationNone),
		dir,
		pd,
	}

	counts := AllocatePhotons(lights, 100)
	exp := []int{25, 75, 0, 0}
	for i := range exp {
		if counts[i] != exp[i] {
			t.Fatalf("expected light %d to get %d photons; got %d", i, exp[i], counts[i])
		}
	}
}

func TestGatherMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pm := New()
	for i := 0; i < 2000; i++ {
		pm.Store(Photon{
			Position:  types.Vec3{rng.Float32() * 10, rng.Float32() * 10, rng.Float32() * 10},
			Direction: types.Vec3{0, -1, 0},
			Power:     types.Gray(1),
			Depth:     uint8(i % 3),
		})
	}
	pm.Balance()

	for i := 0; i < 50; i++ {
		pos := types.Vec3{rng.Float32() * 10, rng.Float32() * 10, rng.Float32() * 10}
		radius := rng.Float32()*2 + 0.1

		var got int
		pm.Gather(pos, radius, func(p *Photon, distSq float32) { got++ })

		var exp, expDepth1 int
		for _, p := range pm.Photons() {
			if p.Position.Sub(pos).LenSq() <= radius*radius {
				exp++
				if p.Depth >= 1 {
					expDepth1++
				}
			}
		}
		if got != exp {
			t.Fatalf("[query %d] expected %d photons; got %d", i, exp, got)
		}

		est := pm.EstimateIrradiance(pos, types.Vec3{0, 1, 0}, radius, 1)
		if est.Count != expDepth1 {
			t.Fatalf("[query %d] expected %d photons with depth >= 1; got %d", i, expDepth1, est.Count)
		}
		if expDepth1 > 0 {
			expIrr := float32(expDepth1) / (math32.Pi * radius * radius)
			if math32.Abs(est.Irradiance[0]-expIrr) > 1e-3*expIrr {
				t.Fatalf("[query %d] expected irradiance %f; got %f", i, expIrr, est.Irradiance[0])
			}
		}

		// Photons travelling along the normal arrive from behind.
		if back := pm.EstimateIrradiance(pos, types.Vec3{0, -1, 0}, radius, 0); back.Count != 0 {
			t.Fatalf("[query %d] expected photons from behind the surface to be ignored", i)
		}
	}
}

func TestDumpAndLoad(t *testing.T) {
	pm := New()
	pm.Store(Photon{Position: types.Vec3{1, 2, 3}, Direction: types.Vec3{0, 0, -1}, Power: types.RGB(0.1, 0.2, 0.3), Depth: 2})
	pm.Store(Photon{Position: types.Vec3{-1, 0, 5}, Direction: types.Vec3{1, 0, 0}, Power: types.Gray(4)})

	var buf bytes.Buffer
	if err := pm.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 photons; got %d", loaded.Len())
	}
	if total := loaded.TotalPower(); math32.Abs(total[2]-4.3) > 1e-5 {
		t.Fatalf("expected total blue power 4.3; got %f", total[2])
	}

	if _, err := Load(bytes.NewReader([]byte("nope, not a photon map"))); err == nil {
		t.Fatal("expected an error loading an invalid dump")
	}
}

func TestDumpBalancedMap(t *testing.T) {
	pm := New()
	for i := 0; i < 64; i++ {
		f := float32(i)
		pm.Store(Photon{Position: types.Vec3{f, math32.Mod(f*7, 13), math32.Mod(f*3, 5)}, Direction: types.Vec3{0, -1, 0}, Power: types.Gray(1)})
	}
	pm.Balance()

	var buf bytes.Buffer
	if err := pm.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}

	for i, p := range pm.Photons() {
		if got := loaded.Photons()[i].Position; got != p.Position {
			t.Fatalf("expected photon %d to be at %v after loading a balanced dump; got %v", i, p.Position, got)
		}
	}

	query := types.Vec3{20, 6, 2}
	var expCount, gotCount int
	pm.Gather(query, 4, func(*Photon, float32) { expCount++ })
	loaded.Gather(query, 4, func(*Photon, float32) { gotCount++ })
	if expCount == 0 || gotCount != expCount {
		t.Fatalf("expected loaded map to find %d photons; got %d", expCount, gotCount)
	}
}

type constantSource types.Color

func (cs constantSource) Irradiance(pos, normal types.Vec3) types.Color {
	return types.Color(cs)
}

func TestFinalGather(t *testing.T) {
	light := scene.NewPointLight("lamp", types.Vec3{}, types.Gray(1), 1, -1, scene.AttenuationRealistic)
	rt := closedBox(t, 0.5, light)
	floor := rt.Tree().Primitives[0]

	got := FinalGather(rt, sampling.NewRandomSampler(9), floor, floor.Center(), floor.Plane().Normal, 64, constantSource(types.Gray(2)))
	if math32.Abs(got[0]-1) > 1e-4 {
		t.Fatalf("expected gathered irradiance 1 inside a closed box; got %f", got[0])
	}

	if got = FinalGather(rt, sampling.NewRandomSampler(9), floor, floor.Center(), floor.Plane().Normal, 0, constantSource(types.Gray(2))); !got.IsBlack() {
		t.Fatal("expected no irradiance without gather rays")
	}
}

// Propagate light through a 2x2 portal into a closed room offset by 100
// along x and return the proxy light and a raytracer for the room.
func proxyRoom(t *testing.T, light *scene.Light) (*scene.Light, *raytracer.Raytracer) {
	src := scene.NewSector("a")
	dst := scene.NewSector("b")
	sc := scene.NewScene()
	sc.AddSector(src)
	sc.AddSector(dst)

	src.AddPortal(scene.NewPortal(
		[]types.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		dst,
		types.Transform{Rotation: types.QuatIdent(), Translation: types.Vec3{100, 0, 0}},
	))
	src.AddLight(light)
	room, err := scene.NewBoxObject("room", types.Vec3{95, -5, -10}, types.Vec3{105, 5, 1}, true, &scene.Material{Name: "walls", Diffuse: types.Gray(0.5)})
	if err != nil {
		t.Fatal(err)
	}
	dst.AddObject(room)

	sc.PropagateLights()
	sc.Prepare()
	if len(dst.Lights) != 1 {
		t.Fatalf("expected 1 proxy light; got %d", len(dst.Lights))
	}
	return dst.Lights[0], raytracer.New(kdtree.BuildSector(dst, kdtree.DefaultOptions()), nil)
}

func TestProxyLightEmission(t *testing.T) {
	specs := []scene.AttenuationMode{
		scene.AttenuationNone,
		scene.AttenuationLinear,
		scene.AttenuationRealistic,
	}

	for index, mode := range specs {
		proxy, rt := proxyRoom(t, scene.NewPointLight("lamp", types.Vec3{0, 0, 5}, types.Gray(1), 1, 20, mode))
		if !CanEmit(proxy) {
			t.Fatalf("[spec %d] expected proxy light to emit photons", index)
		}

		pm := New()
		tracer := NewTracer(rt, sampling.NewRandomSampler(int64(index)), pm, Options{MaxRecursionDepth: 1}, nil)
		tracer.EmitPhotons(proxy, 20000, 20000)

		if pm.Len() == 0 {
			t.Fatalf("[spec %d] expected photons to pass through the portal", index)
		}
		for _, p := range pm.Photons() {
			if p.Position[2] > 0 {
				t.Fatalf("[spec %d] expected photons only on the far side of the portal; got one at %v", index, p.Position)
			}
		}
	}
}

func TestSpotProxyDoesNotEmit(t *testing.T) {
	spot := scene.NewPointLight("spot", types.Vec3{0, 0, 5}, types.Gray(1), 1, 20, scene.AttenuationNone)
	spot.Kind = scene.SpotLight
	spot.Direction = types.Vec3{0, 0, -1}
	spot.SpotInner, spot.SpotOuter = 0.9, 0.8

	proxy, _ := proxyRoom(t, spot)
	if CanEmit(proxy) {
		t.Fatal("expected the proxy of a spot light not to emit photons")
	}
	if counts := AllocatePhotons([]*scene.Light{proxy}, 1000); counts[0] != 0 {
		t.Fatalf("expected no photons allocated to the spot proxy; got %d", counts[0])
	}
}
