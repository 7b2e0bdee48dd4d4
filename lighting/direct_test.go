package lighting

import (
	"testing"

	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
)

// Create an upward facing square at height y.
func makeFloor(t *testing.T, name string, y, halfSize float32) *scene.Object {
	up := types.Vec3{0, 1, 0}
	obj, err := scene.NewObject(
		name,
		[]types.Vec3{{-halfSize, y, -halfSize}, {halfSize, y, -halfSize}, {halfSize, y, halfSize}, {-halfSize, y, halfSize}},
		[]types.Vec3{up, up, up, up},
		[]int{0, 2, 1, 0, 3, 2},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

type testSetup struct {
	scene  *scene.Scene
	sector *scene.Sector
	floor  *scene.Object
	shader *Shader
}

func setup(t *testing.T, opts Options, lights []*scene.Light, extra ...*scene.Object) *testSetup {
	sector := scene.NewSector("test")
	floor := makeFloor(t, "floor", 0, 10)
	sector.AddObject(floor)
	for _, obj := range extra {
		sector.AddObject(obj)
	}
	for _, l := range lights {
		sector.AddLight(l)
	}

	sc := scene.NewScene()
	if err := sc.AddSector(sector); err != nil {
		t.Fatal(err)
	}
	sc.Prepare()
	if err := scene.LayoutLightmaps(sc, scene.LayoutOptions{TexelsPerUnit: 1, MaxSize: 128, Margin: 1}); err != nil {
		t.Fatal(err)
	}

	tree := kdtree.BuildSector(sector, kdtree.DefaultOptions())
	rt := raytracer.New(tree, nil)
	return &testSetup{
		scene:  sc,
		sector: sector,
		floor:  floor,
		shader: NewShader(rt, sampling.NewRandomSampler(1), opts, nil),
	}
}

func TestShadeLightContract(t *testing.T) {
	light := scene.NewPointLight("lamp", types.Vec3{0, 5, 0}, types.Gray(1), 1, 20, scene.AttenuationRealistic)
	ts := setup(t, Options{}, []*scene.Light{light})

	type spec struct {
		pos    types.Vec3
		normal types.Vec3
		exp    float32
	}
	specs := []spec{
		// Directly below: cos = 1, d = 5
		{types.Vec3{0, 0, 0}, types.Vec3{0, 1, 0}, 1.0 / 25},
		// Offset: d = 5*sqrt(2), cos = 1/sqrt(2)
		{types.Vec3{5, 0, 0}, types.Vec3{0, 1, 0}, (1.0 / 50) * 0.70710678},
		// Back facing
		{types.Vec3{0, 0, 0}, types.Vec3{0, -1, 0}, 0},
		// Coincides with the light
		{types.Vec3{0, 5, 0}, types.Vec3{0, 1, 0}, 0},
	}

	floorPrim := ts.floor.Primitives[0]
	for index, s := range specs {
		sp := &ShadingPoint{Position: s.pos, Normal: s.normal, Primitive: floorPrim, Object: ts.floor}
		got := ts.shader.ShadeLight(light, sp)
		if math32.Abs(got[0]-s.exp) > 1e-5 {
			t.Fatalf("[spec %d] expected %f; got %f", index, s.exp, got[0])
		}
	}
}

func TestOccluderBlocksLight(t *testing.T) {
	light := scene.NewPointLight("lamp", types.Vec3{0, 5, 0}, types.Gray(1), 1, 20, scene.AttenuationRealistic)
	blocker := makeFloor(t, "blocker", 2, 1)

	probe := func(ts *testSetup) types.Color {
		sp := &ShadingPoint{
			Position:  types.Vec3{0.1, 0, 0.2},
			Normal:    types.Vec3{0, 1, 0},
			Primitive: ts.floor.Primitives[0],
			Object:    ts.floor,
		}
		return ts.shader.ShadeLight(light, sp)
	}

	if got := probe(setup(t, Options{}, []*scene.Light{light}, blocker)); !got.IsBlack() {
		t.Fatalf("expected occluded point to receive no light; got %v", got)
	}
	if got := probe(setup(t, Options{}, []*scene.Light{light})); got.IsBlack() {
		t.Fatal("expected unoccluded point to receive light")
	}

	// Blockers that do not cast shadows are ignored.
	blocker.Flags = scene.ObjectNoShadow
	if got := probe(setup(t, Options{}, []*scene.Light{light}, blocker)); got.IsBlack() {
		t.Fatal("expected no-shadow blocker to be ignored")
	}
}

func TestMonotonicFalloffOnPlane(t *testing.T) {
	for _, mode := range []scene.AttenuationMode{scene.AttenuationRealistic, scene.AttenuationLinear} {
		light := scene.NewPointLight("lamp", types.Vec3{0.3, 4, -0.2}, types.Gray(1), 10, 30, mode)
		ts := setup(t, Options{ElementSamples: 1}, []*scene.Light{light})

		lights := ComputeAffectingLights(ts.floor, ts.sector.Lights)
		ts.shader.ShadeObject(ts.floor, lights, nil)

		type texel struct {
			dist  float32
			value float32
		}
		var texels []texel
		for _, prim := range ts.floor.Primitives {
			lm := ts.scene.GetLightmap(prim.LightmapID, nil)
			for idx := 0; idx < prim.ElementCount(); idx++ {
				if prim.ElementType(idx) != scene.ElementFull {
					continue
				}
				center := prim.ElementCenter(idx)
				proj := types.Vec3{light.Position[0], 0, light.Position[2]}
				texels = append(texels, texel{
					dist:  center.Distance(proj),
					value: lm.Pixel(prim.ElementPixel(idx))[0],
				})
			}
		}

		if len(texels) < 100 {
			t.Fatalf("[%s] expected at least 100 full elements; got %d", mode, len(texels))
		}
		for i := range texels {
			if texels[i].value <= 0 {
				t.Fatalf("[%s] expected texel at distance %f to be lit", mode, texels[i].dist)
			}
			for j := range texels {
				if texels[i].dist < texels[j].dist-1e-3 && texels[i].value < texels[j].value*(1-1e-4) {
					t.Fatalf("[%s] expected texel at distance %f (%f) to be brighter than texel at %f (%f)", mode, texels[i].dist, texels[i].value, texels[j].dist, texels[j].value)
				}
			}
		}
	}
}

func TestRandomLightUniformIsUnbiased(t *testing.T) {
	lights := []*scene.Light{
		scene.NewPointLight("a", types.Vec3{-3, 4, 0}, types.Gray(1), 1, -1, scene.AttenuationRealistic),
		scene.NewPointLight("b", types.Vec3{3, 4, 0}, types.Gray(1), 2, -1, scene.AttenuationRealistic),
	}
	all := setup(t, Options{Strategy: AllLightsUniform}, lights)
	random := setup(t, Options{Strategy: RandomLightUniform}, lights)

	sp := &ShadingPoint{Position: types.Vec3{1, 0, 1}, Normal: types.Vec3{0, 1, 0}}
	affecting := ComputeAffectingLights(all.floor, all.sector.Lights)
	if affecting.Len() != 2 {
		t.Fatalf("expected 2 affecting lights; got %d", affecting.Len())
	}

	exp := all.shader.ShadePoint(sp, affecting)[0]
	const n = 20000
	var sum float32
	for i := 0; i < n; i++ {
		sum += random.shader.ShadePoint(sp, affecting)[0]
	}
	if got := sum / n; math32.Abs(got-exp) > 0.05*exp {
		t.Fatalf("expected random light estimate %f to be within 5%% of %f", got, exp)
	}
}

func TestAffectingLights(t *testing.T) {
	floor := makeFloor(t, "floor", 0, 1)
	lights := []*scene.Light{
		scene.NewPointLight("near", types.Vec3{0, 1, 0}, types.Gray(1), 1, 2, scene.AttenuationLinear),
		scene.NewPointLight("far", types.Vec3{0, 50, 0}, types.Gray(1), 1, 2, scene.AttenuationLinear),
		scene.NewPointLight("infinite", types.Vec3{0, 50, 0}, types.Gray(1), 1, -1, scene.AttenuationRealistic),
	}

	al := ComputeAffectingLights(floor, lights)
	if al.Len() != 2 || !al.Contains(0) || al.Contains(1) || !al.Contains(2) {
		t.Fatalf("expected lights 0 and 2 to affect the object; got %d lights", al.Len())
	}
}

func TestShadeVertices(t *testing.T) {
	light := scene.NewPointLight("lamp", types.Vec3{0, 5, 0}, types.Gray(1), 1, 20, scene.AttenuationRealistic)
	pd := scene.NewPointLight("pd", types.Vec3{0, 5, 0}, types.Gray(1), 1, 20, scene.AttenuationRealistic)
	pd.Flags = scene.LightPseudoDynamic

	ts := setup(t, Options{}, []*scene.Light{light, pd})
	ts.floor.Flags |= scene.ObjectLightPerVertex

	ts.shader.ShadeObject(ts.floor, ComputeAffectingLights(ts.floor, ts.sector.StaticLights()), nil)
	ts.shader.ShadeObject(ts.floor, SingleLightSet(pd), pd)

	// Corner vertices: d = 15, cos = 1/3
	exp := float32(5.0 / 3375.0)
	for i, c := range ts.floor.LitColors {
		if math32.Abs(c[0]-exp) > 1e-4 {
			t.Fatalf("expected vertex %d color %f; got %f", i, exp, c[0])
		}
	}
	pdColors := ts.floor.PseudoDynamicVertexColors(pd.ID())
	if len(pdColors) != len(ts.floor.Positions) || math32.Abs(pdColors[0][0]-exp) > 1e-4 {
		t.Fatalf("expected pseudo-dynamic vertex colors to be populated")
	}
}

func TestShadowCasters(t *testing.T) {
	light := scene.NewPointLight("lamp", types.Vec3{0, 5, 0}, types.Gray(1), 1, 20, scene.AttenuationRealistic)
	blocker := makeFloor(t, "blocker", 2, 1)
	ceiling := makeFloor(t, "ceiling", 8, 1)
	ts := setup(t, Options{}, []*scene.Light{light}, blocker, ceiling)

	lights := ComputeAffectingLights(ts.floor, []*scene.Light{light})
	casters := ts.shader.ShadowCasters(ts.floor, lights)
	if casters == nil {
		t.Fatal("expected a caster set for a positional light")
	}

	type spec struct {
		obj       *scene.Object
		expCaster bool
	}
	specs := []spec{
		{ts.floor, true},
		{blocker, true},
		{ceiling, false},
	}
	for index, s := range specs {
		for _, prim := range s.obj.Primitives {
			if got := casters.Test(uint(prim.Index)); got != s.expCaster {
				t.Fatalf("[spec %d] expected primitive of %q to be a caster: %t; got %t", index, s.obj.Name, s.expCaster, got)
			}
		}
	}

	// Restricting shadow rays to the casters keeps the blocker shadow.
	sp := &ShadingPoint{
		Position:  types.Vec3{0.1, 0, 0.2},
		Normal:    types.Vec3{0, 1, 0},
		Primitive: ts.floor.Primitives[0],
		Object:    ts.floor,
		Casters:   casters,
	}
	if got := ts.shader.ShadeLight(light, sp); !got.IsBlack() {
		t.Fatalf("expected occluded point to receive no light; got %v", got)
	}
	sp.Casters = bitset.New(0)
	if got := ts.shader.ShadeLight(light, sp); got.IsBlack() {
		t.Fatal("expected shadow rays to skip primitives outside the caster set")
	}

	sun := &scene.Light{Name: "sun", Kind: scene.DirectionalLight, Direction: types.Vec3{0, -1, 0}, Color: types.Gray(1), Power: 1, Radius: -1}
	if set := ts.shader.ShadowCasters(ts.floor, ComputeAffectingLights(ts.floor, []*scene.Light{sun})); set != nil {
		t.Fatal("expected no caster set for a directional light")
	}
}
