package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lighter/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lighter"
	app.Usage = "bake static lighting into lightmaps"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "bake",
			Usage: "bake lightmaps for a scene",
			Description: `
Load a scene from a wavefront obj file (or build the procedural box room when
the scene argument is "box"), lay out its lightmaps and bake direct lighting
using shadow rays and, optionally, indirect lighting using photon mapping.

The baked lightmaps can be exported as png images using the --out flag.`,
			ArgsUsage: "scene.obj|box",
			Flags:     cmd.BakeFlags,
			Action:    cmd.BakeScene,
		},
		{
			Name:      "info",
			Usage:     "display scene and spatial index information",
			ArgsUsage: "scene.obj|box",
			Flags:     cmd.InfoFlags,
			Action:    cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
