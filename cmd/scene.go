package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/lighter/asset/reader"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
	"github.com/urfave/cli"
)

// The scene argument selecting the procedural box scene.
const boxSceneArg = "box"

// Flags shared by all commands that load a scene.
var SceneFlags = []cli.Flag{
	cli.StringSliceFlag{
		Name:  "light, l",
		Value: &cli.StringSlice{},
		Usage: "add a white point light; format: x,y,z[,power[,radius]]; lights without a radius have unbounded reach",
	},
	cli.StringFlag{
		Name:  "attenuation",
		Value: "realistic",
		Usage: "attenuation for lights added with --light (none, linear, inverse, realistic, clq)",
	},
	cli.Float64Flag{
		Name:  "box-size",
		Value: 10,
		Usage: "edge length of the procedural box room",
	},
	cli.StringSliceFlag{
		Name:  "box-open",
		Value: &cli.StringSlice{},
		Usage: "leave a face of the box room open (-x, +x, -y, +y, -z, +z)",
	},
	cli.StringFlag{
		Name:  "box-block",
		Usage: "place a block inside the box room; format: minX,minY,minZ,maxX,maxY,maxZ",
	},
}

// Load the scene selected by the command arguments. The scene argument is
// either a wavefront file (local path or http(s) URL) or "box".
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	lights, err := parseLights(ctx)
	if err != nil {
		return nil, err
	}

	if ctx.Args().First() != boxSceneArg {
		sc, err := reader.ReadScene(ctx.Args().First())
		if err != nil {
			return nil, err
		}
		if len(lights) != 0 {
			for _, l := range lights {
				sc.Sectors[0].AddLight(l)
			}
		}
		return sc, nil
	}

	opts := scene.BoxSceneOptions{
		Size:   float32(ctx.Float64("box-size")),
		Lights: lights,
	}
	for _, name := range ctx.StringSlice("box-open") {
		face, err := scene.ParseBoxFace(name)
		if err != nil {
			return nil, err
		}
		opts.OpenFaces = append(opts.OpenFaces, face)
	}
	if spec := ctx.String("box-block"); spec != "" {
		v, err := parseFloatList(spec, 6, 6)
		if err != nil {
			return nil, fmt.Errorf("invalid box block %q: %w", spec, err)
		}
		opts.Block = &types.BBox{Min: types.Vec3{v[0], v[1], v[2]}, Max: types.Vec3{v[3], v[4], v[5]}}
	}
	if len(opts.Lights) == 0 {
		opts.Lights = []*scene.Light{
			scene.NewPointLight("light0", types.Vec3{}, types.Gray(1), 10, 2*opts.Size, scene.AttenuationRealistic),
		}
	}
	return scene.NewBoxScene(opts)
}

func parseLights(ctx *cli.Context) ([]*scene.Light, error) {
	attenuation, err := scene.ParseAttenuationMode(ctx.String("attenuation"))
	if err != nil {
		return nil, err
	}

	var lights []*scene.Light
	for index, spec := range ctx.StringSlice("light") {
		v, err := parseFloatList(spec, 3, 5)
		if err != nil {
			return nil, fmt.Errorf("invalid light %q: %w", spec, err)
		}
		power, radius := float32(1), float32(-1)
		if len(v) > 3 {
			power = v[3]
		}
		if len(v) > 4 {
			radius = v[4]
		}
		lights = append(lights, scene.NewPointLight(
			fmt.Sprintf("light%d", index),
			types.Vec3{v[0], v[1], v[2]},
			types.Gray(1),
			power,
			radius,
			attenuation,
		))
	}
	return lights, nil
}

func parseFloatList(spec string, min, max int) ([]float32, error) {
	tokens := strings.Split(spec, ",")
	if len(tokens) < min || len(tokens) > max {
		return nil, fmt.Errorf("expected between %d and %d comma separated values; got %d", min, max, len(tokens))
	}
	out := make([]float32, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}
