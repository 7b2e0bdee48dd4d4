package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/photonmap"
	"github.com/achilleasa/lighter/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Flags for the info command.
var InfoFlags = append([]cli.Flag{
	cli.StringSliceFlag{
		Name:  "photons",
		Value: &cli.StringSlice{},
		Usage: "also display information about a photon map dump",
	},
}, SceneFlags...)

// Display scene information and the spatial index built for each sector.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sceneStats(sc, kdtree.DefaultOptions()))

	for _, file := range ctx.StringSlice("photons") {
		info, err := photonDumpStats(file)
		if err != nil {
			return err
		}
		logger.Noticef("photon map %s:\n%s", file, info)
	}
	return nil
}

func sceneStats(sc *scene.Scene, opts kdtree.Options) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Sector", "Objects", "Primitives", "Lights", "Portals", "KD nodes", "KD leaves", "Max depth", "Avg prims/leaf", "Avg neighbors/object"})

	var totalObjects, totalPrims, totalLights int
	for _, sector := range sc.Sectors {
		tree := kdtree.BuildSector(sector, opts)
		var primsPerLeaf float32
		if tree.Stats.Leaves > 0 {
			primsPerLeaf = float32(tree.Stats.PrimSlots) / float32(tree.Stats.Leaves)
		}
		table.Append([]string{
			sector.Name,
			fmt.Sprintf("%d", len(sector.Objects)),
			fmt.Sprintf("%d", len(sector.Primitives())),
			fmt.Sprintf("%d", len(sector.Lights)),
			fmt.Sprintf("%d", len(sector.Portals)),
			fmt.Sprintf("%d", tree.Stats.Nodes),
			fmt.Sprintf("%d", tree.Stats.Leaves),
			fmt.Sprintf("%d", tree.Stats.MaxDepth),
			fmt.Sprintf("%.2f", primsPerLeaf),
			fmt.Sprintf("%.2f", avgNeighbors(tree, sector)),
		})
		totalObjects += len(sector.Objects)
		totalPrims += len(sector.Primitives())
		totalLights += len(sector.Lights)
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", totalObjects),
		fmt.Sprintf("%d", totalPrims),
		fmt.Sprintf("%d", totalLights),
		"", "", "", "", "", "",
	})

	table.Render()
	return buf.String()
}

// Get the mean number of primitives whose bounds overlap each object.
func avgNeighbors(tree *kdtree.Tree, sector *scene.Sector) float32 {
	if len(sector.Objects) == 0 {
		return 0
	}
	var total int
	var prims []*scene.Primitive
	for _, obj := range sector.Objects {
		prims = tree.CollectPrimitives(obj.BBox(), prims[:0])
		total += len(prims)
	}
	return float32(total) / float32(len(sector.Objects))
}

func photonDumpStats(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pm, err := photonmap.Load(f)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}

	var depthCounts [8]int
	for _, p := range pm.Photons() {
		bucket := int(p.Depth)
		if bucket >= len(depthCounts) {
			bucket = len(depthCounts) - 1
		}
		depthCounts[bucket]++
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Bounces", "Photons"})
	for depth, count := range depthCounts {
		label := fmt.Sprintf("%d", depth)
		if depth == len(depthCounts)-1 {
			label += "+"
		}
		table.Append([]string{label, fmt.Sprintf("%d", count)})
	}
	power := pm.TotalPower()
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d (power %.3f %.3f %.3f)", pm.Len(), power[0], power[1], power[2])})
	table.Render()
	return buf.String(), nil
}
