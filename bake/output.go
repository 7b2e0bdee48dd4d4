package bake

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/achilleasa/lighter/photonmap"
	"github.com/achilleasa/lighter/scene"
)

// Get the file name for a lightmap. Pseudo-dynamic lightmaps carry the
// light identifier as a suffix.
func LightmapFilename(lm *scene.Lightmap) string {
	if lm.Light == (scene.LightID{}) {
		return fmt.Sprintf("lightmap_%03d.png", lm.ID)
	}
	return fmt.Sprintf("lightmap_%03d_%s.png", lm.ID, lm.Light)
}

// Write all scene lightmaps as PNG images into dir. Pixel values are
// multiplied by scale before being clamped to 8 bits.
func WriteLightmaps(dir string, sc *scene.Scene, scale float32) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for _, lm := range sc.Lightmaps() {
		file := filepath.Join(dir, LightmapFilename(lm))
		if err := writePNG(file, lm, scale); err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

func writePNG(file string, lm *scene.Lightmap, scale float32) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, lm.ToImage(scale))
}

// Write the photon map of each sector into dir as <sector>.phm.
func WritePhotonMaps(dir string, maps map[string]*photonmap.PhotonMap) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	names := make([]string, 0, len(maps))
	for name := range maps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := os.Create(filepath.Join(dir, name+".phm"))
		if err != nil {
			return err
		}
		err = maps[name].Dump(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("writing photon map for sector %q: %w", name, err)
		}
	}
	return nil
}
