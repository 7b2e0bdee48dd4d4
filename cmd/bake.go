package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/achilleasa/lighter/bake"
	"github.com/achilleasa/lighter/lighting"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Flags for the bake command.
var BakeFlags = append([]cli.Flag{
	cli.Float64Flag{
		Name:  "texels-per-unit",
		Value: 4,
		Usage: "lightmap texel density",
	},
	cli.IntFlag{
		Name:  "lightmap-size",
		Value: 1024,
		Usage: "maximum lightmap width and height",
	},
	cli.BoolFlag{
		Name:  "no-direct",
		Usage: "disable direct lighting",
	},
	cli.StringFlag{
		Name:  "strategy",
		Value: "all",
		Usage: "direct light sampling strategy (all, random, single)",
	},
	cli.StringFlag{
		Name:  "single-light",
		Usage: "the light to bake when using the single light strategy",
	},
	cli.IntFlag{
		Name:  "element-samples",
		Value: 4,
		Usage: "samples per lightmap element (1-4)",
	},
	cli.Float64Flag{
		Name:  "light-multiplier",
		Value: 1,
		Usage: "point light power multiplier",
	},
	cli.BoolFlag{
		Name:  "indirect",
		Usage: "enable indirect lighting using photon mapping",
	},
	cli.IntFlag{
		Name:  "photons",
		Value: 100000,
		Usage: "number of photons emitted per sector",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Value: 4,
		Usage: "maximum photon path length; 0 for unbounded",
	},
	cli.BoolFlag{
		Name:  "no-rr",
		Usage: "disable russian roulette photon path termination",
	},
	cli.Float64Flag{
		Name:  "search-radius",
		Value: 1,
		Usage: "photon density estimation radius",
	},
	cli.BoolFlag{
		Name:  "final-gather",
		Usage: "estimate indirect light using final gather",
	},
	cli.IntFlag{
		Name:  "gather-rays",
		Value: 32,
		Usage: "number of final gather rays",
	},
	cli.BoolFlag{
		Name:  "no-cache",
		Usage: "disable the irradiance cache used by final gather",
	},
	cli.Float64Flag{
		Name:  "cache-accuracy",
		Value: 0.1,
		Usage: "irradiance cache accuracy in (0, 1]",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "number of bake workers; 0 uses all CPUs",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random number generator seed",
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "directory for writing the baked lightmaps as png images",
	},
	cli.Float64Flag{
		Name:  "exposure",
		Value: 1,
		Usage: "lightmap value scaler applied when writing png images",
	},
	cli.StringFlag{
		Name:  "photon-dump",
		Usage: "directory for writing the photon map of each sector",
	},
}, SceneFlags...)

// Bake the lightmaps for a scene.
func BakeScene(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := bakeOptions(ctx)
	if err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	bc, err := bake.NewContext(sc, opts)
	if err != nil {
		return err
	}

	bakeCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err = bc.Bake(bakeCtx); err != nil {
		return err
	}

	displayBakeStats(bc.Stats())

	if outDir := ctx.String("out"); outDir != "" {
		files, err := bake.WriteLightmaps(outDir, sc, float32(ctx.Float64("exposure")))
		if err != nil {
			return err
		}
		logger.Noticef("wrote %d lightmaps to %s", len(files), outDir)
	}
	return nil
}

func bakeOptions(ctx *cli.Context) (bake.Options, error) {
	opts := bake.DefaultOptions()

	strategy, err := lighting.ParseStrategy(ctx.String("strategy"))
	if err != nil {
		return opts, err
	}

	opts.TexelsPerUnit = float32(ctx.Float64("texels-per-unit"))
	opts.MaxLightmapSize = ctx.Int("lightmap-size")
	opts.DirectLighting = !ctx.Bool("no-direct")
	opts.Strategy = strategy
	opts.SingleLightName = ctx.String("single-light")
	opts.ElementSamples = ctx.Int("element-samples")
	opts.PointLightMultiplier = float32(ctx.Float64("light-multiplier"))
	opts.IndirectLighting = ctx.Bool("indirect")
	opts.NumPhotons = ctx.Int("photons")
	opts.MaxRecursionDepth = ctx.Int("max-depth")
	opts.RussianRoulette = !ctx.Bool("no-rr")
	opts.SearchRadius = float32(ctx.Float64("search-radius"))
	opts.FinalGather = ctx.Bool("final-gather")
	opts.FinalGatherRays = ctx.Int("gather-rays")
	opts.IrradianceCache = !ctx.Bool("no-cache")
	opts.CacheAccuracy = float32(ctx.Float64("cache-accuracy"))
	opts.NumWorkers = ctx.Int("workers")
	opts.Seed = ctx.Int64("seed")
	opts.PhotonDumpDir = ctx.String("photon-dump")

	if opts.Strategy == lighting.SingleLight && opts.SingleLightName == "" {
		return opts, fmt.Errorf("the single light strategy requires the --single-light flag")
	}
	return opts, nil
}

func displayBakeStats(stats bake.BakeStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Sector", "Phase", "Worker", "Tasks", "Busy time", "Phase time"})
	for _, phase := range stats.Phases {
		for _, ws := range phase.Workers {
			table.Append([]string{
				phase.Sector,
				phase.Phase.String(),
				fmt.Sprintf("%d", ws.Id),
				fmt.Sprintf("%d", ws.Tasks),
				fmt.Sprintf("%s", ws.BusyTime),
				fmt.Sprintf("%s", phase.Time),
			})
		}
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", fmt.Sprintf("%s", stats.BakeTime)})

	table.Render()
	logger.Noticef("bake statistics\n%s", buf.String())
	logger.Noticef("counters\n%s", stats.Counters.Table(stats.BakeTime))
}
