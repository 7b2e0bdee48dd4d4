package reader

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/lighter/asset"
	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
)

func init() {
	log.SetSink(io.Discard)
}

const testMaterials = `
# materials
newmtl white
Kd 0.8 0.8 0.8

newmtl glass
Kd 0.1 0.1 0.1
Tf 0.5 0.9 0.5

newmtl fog
d 0.25
`

const testScene = `
mtllib materials.mtl

v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
v 0 2 0
vn 0 1 0

light main 0 1 0 1 1 1 10 20
pdlight flicker 0 1.5 0 1 0.5 0 5 10 linear

o floor
usemtl white
f 1//1 2//1 3//1 4//1
usemtl glass
f 1 2 5

o pyramid
object_flags noshadow pervertex
f -5 -4 -3 -2 -1

sector hall
o wall
f 1 2 5
portal default -1 0 -1 1 0 -1 1 2 -1
`

func readTestScene(t *testing.T, contents string) (*scene.Scene, error) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "materials.mtl"), []byte(testMaterials), 0644); err != nil {
		t.Fatal(err)
	}
	res := asset.FromReader(filepath.Join(dir, "scene.obj"), strings.NewReader(contents))
	return NewWavefrontReader().Read(res)
}

func TestWavefrontReader(t *testing.T) {
	sc, err := readTestScene(t, testScene)
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Sectors) != 2 || sc.Sectors[0].Name != DefaultSectorName || sc.Sectors[1].Name != "hall" {
		t.Fatalf("expected sectors [default hall]; got %d sectors", len(sc.Sectors))
	}

	type objSpec struct {
		name     string
		material string
		prims    int
		flags    scene.ObjectFlags
	}
	specs := []objSpec{
		{"floor", "white", 2, 0},
		{"floor:glass", "glass", 1, 0},
		{"pyramid", "glass", 3, scene.ObjectNoShadow | scene.ObjectLightPerVertex},
	}

	def := sc.Sectors[0]
	if len(def.Objects) != len(specs) {
		t.Fatalf("expected %d objects in default sector; got %d", len(specs), len(def.Objects))
	}
	for index, s := range specs {
		obj := def.Objects[index]
		if obj.Name != s.name {
			t.Fatalf("[spec %d] expected object name %q; got %q", index, s.name, obj.Name)
		}
		if obj.Material.Name != s.material {
			t.Fatalf("[spec %d] expected material %q; got %q", index, s.material, obj.Material.Name)
		}
		if len(obj.Primitives) != s.prims {
			t.Fatalf("[spec %d] expected %d primitives; got %d", index, s.prims, len(obj.Primitives))
		}
		if obj.Flags != s.flags {
			t.Fatalf("[spec %d] expected flags %d; got %d", index, s.flags, obj.Flags)
		}
	}

	glass := def.Objects[1].Material
	if !glass.Transparent || glass.Filter != (types.Color{0.5, 0.9, 0.5}) {
		t.Fatalf("expected glass to be transparent with filter (0.5, 0.9, 0.5); got %v %v", glass.Transparent, glass.Filter)
	}

	if len(def.Lights) != 2 {
		t.Fatalf("expected 2 lights in default sector; got %d", len(def.Lights))
	}
	if l := def.Lights[0]; l.Name != "main" || l.Attenuation != scene.AttenuationRealistic || l.Power != 10 || l.IsPseudoDynamic() {
		t.Fatalf("unexpected light definition %+v", l)
	}
	if l := def.Lights[1]; l.Name != "flicker" || l.Attenuation != scene.AttenuationLinear || !l.IsPseudoDynamic() {
		t.Fatalf("unexpected pseudo-dynamic light definition %+v", l)
	}

	hall := sc.Sectors[1]
	if len(hall.Objects) != 1 || hall.Objects[0].Name != "wall" {
		t.Fatal("expected hall sector to contain the wall object")
	}
	if len(hall.Portals) != 1 || hall.Portals[0].Target != def {
		t.Fatal("expected hall sector to contain a portal to the default sector")
	}
}

func TestWavefrontReaderErrors(t *testing.T) {
	type spec struct {
		contents string
		expErr   string
	}
	specs := []spec{
		{"usemtl missing\n", `undefined material with name "missing"`},
		{"v 0 0 0\nf 1 2 3\n", "index out of bounds"},
		{"v 0 0\n", `expected 3 arguments`},
		{"v 0 0 0\nv 1 0 0\nf 1 2\n", `expected at least 3 arguments`},
		{"light l 0 0 0 1 1 1\n", `expected 9 or 10 arguments`},
		{"light l 0 0 0 1 1 1 1 1 quadratic\n", `unknown attenuation mode`},
		{"object_flags noshadow\n", `without an object`},
		{"o box\nobject_flags shiny\n", `unknown object flag`},
		{"portal nowhere 0 0 0 1 0 0 1 1 0\n", `unknown sector "nowhere"`},
	}

	for index, s := range specs {
		_, err := readTestScene(t, s.contents)
		if err == nil || !strings.Contains(err.Error(), s.expErr) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expErr, err)
		}
	}
}
