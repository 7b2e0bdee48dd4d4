package cmd

import (
	"strings"
	"testing"

	"github.com/achilleasa/lighter/kdtree"
)

func TestSceneStats(t *testing.T) {
	ctx := sceneContext(t,
		"--box-size", "6",
		"--box-open", "+y",
		"--box-block", "-1,-3,-1,1,-2,1",
		"box",
	)
	sc, err := loadScene(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The room bounds overlap all 22 primitives; the block overlaps its own
	// 12 primitives and the 2 floor triangles it rests on.
	sector := sc.Sectors[0]
	tree := kdtree.BuildSector(sector, kdtree.DefaultOptions())
	if exp, got := float32(22+14)/2, avgNeighbors(tree, sector); got != exp {
		t.Fatalf("expected %f neighbors per object; got %f", exp, got)
	}

	if out := sceneStats(sc, kdtree.DefaultOptions()); !strings.Contains(out, "18.00") {
		t.Fatalf("expected the scene table to report 18.00 neighbors per object; got\n%s", out)
	}
}
