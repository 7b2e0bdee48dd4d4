package scene

import (
	"testing"

	"github.com/achilleasa/lighter/types"
)

func TestLayoutLightmaps(t *testing.T) {
	sc, err := NewBoxScene(BoxSceneOptions{
		Size:      10,
		OpenFaces: []BoxFace{BoxFaceMaxZ},
		Block:     &types.BBox{Min: types.Vec3{-1, -5, -1}, Max: types.Vec3{1, -3, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = LayoutLightmaps(sc, LayoutOptions{TexelsPerUnit: 2, MaxSize: 64, Margin: 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.LightmapSizes) == 0 {
		t.Fatal("expected at least one lightmap")
	}

	type texel struct{ id, x, y int }
	owners := make(map[texel]*Primitive)
	for _, prim := range sc.Sectors[0].Primitives() {
		size := sc.LightmapSizes[prim.LightmapID]
		if size[0] > 64 || size[1] > 64 {
			t.Fatalf("expected lightmap size to be at most 64x64; got %v", size)
		}

		for i := 0; i < prim.ElementCount(); i++ {
			x, y := prim.ElementPixel(i)
			if x < 0 || y < 0 || x >= size[0] || y >= size[1] {
				t.Fatalf("expected element pixel (%d, %d) to be inside lightmap %v", x, y, size)
			}
			if prim.ElementType(i) == ElementEmpty {
				continue
			}

			key := texel{prim.LightmapID, x, y}
			if owner, taken := owners[key]; taken && owner.Object() != prim.Object() {
				t.Fatalf("expected primitives of different objects not to share texel %v", key)
			}
			owners[key] = prim
		}
	}
}

func TestLayoutRejectsInvalidOptions(t *testing.T) {
	sc := NewScene()
	if err := LayoutLightmaps(sc, LayoutOptions{TexelsPerUnit: 0, MaxSize: 64}); err == nil {
		t.Fatal("expected an error for zero texel density")
	}
}
