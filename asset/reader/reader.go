package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/lighter/asset"
	"github.com/achilleasa/lighter/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from a file or URL.
func ReadScene(location string) (*scene.Scene, error) {
	res, err := asset.Open(location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	switch {
	case strings.HasSuffix(location, ".obj"):
		reader = NewWavefrontReader()
	default:
		return nil, fmt.Errorf("readScene: unsupported file format")
	}
	return reader.Read(res)
}
