package cmd

import (
	"flag"
	"io"
	"testing"

	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
	"github.com/urfave/cli"
)

func init() {
	log.SetSink(io.Discard)
}

func sceneContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range SceneFlags {
		// Slice flag values are shared by the flag definitions.
		if sf, isSlice := f.(cli.StringSliceFlag); isSlice {
			sf.Value = &cli.StringSlice{}
			f = sf
		}
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(nil, set, nil)
}

func TestLoadBoxScene(t *testing.T) {
	ctx := sceneContext(t,
		"--light", "1,2,3,5",
		"--light", "0,0,0,2,8",
		"--attenuation", "linear",
		"--box-size", "6",
		"--box-open", "+y",
		"--box-block", "-1,-3,-1,1,-2,1",
		"box",
	)

	sc, err := loadScene(ctx)
	if err != nil {
		t.Fatal(err)
	}

	sector := sc.Sectors[0]
	if len(sector.Objects) != 2 {
		t.Fatalf("expected room and block objects; got %d objects", len(sector.Objects))
	}
	// 5 room faces and 6 block faces, 2 triangles each.
	if exp, got := 22, len(sector.Primitives()); got != exp {
		t.Fatalf("expected %d primitives; got %d", exp, got)
	}

	type spec struct {
		pos    types.Vec3
		power  float32
		radius float32
	}
	specs := []spec{
		{types.Vec3{1, 2, 3}, 5, -1},
		{types.Vec3{0, 0, 0}, 2, 8},
	}
	if len(sector.Lights) != len(specs) {
		t.Fatalf("expected %d lights; got %d", len(specs), len(sector.Lights))
	}
	for index, s := range specs {
		l := sector.Lights[index]
		if l.Position != s.pos || l.Power != s.power || l.Radius != s.radius || l.Attenuation != scene.AttenuationLinear {
			t.Fatalf("[spec %d] expected light at %v with power %f, radius %f and linear attenuation; got %+v", index, s.pos, s.power, s.radius, l)
		}
	}
}

func TestLoadSceneErrors(t *testing.T) {
	specs := [][]string{
		{},
		{"--light", "1,2", "box"},
		{"--light", "1,2,x", "box"},
		{"--attenuation", "cubic", "box"},
		{"--box-open", "+w", "box"},
		{"--box-block", "0,0,0", "box"},
		{"scene.fbx"},
	}

	for index, args := range specs {
		if _, err := loadScene(sceneContext(t, args...)); err == nil {
			t.Fatalf("[spec %d] expected an error for args %v", index, args)
		}
	}
}
