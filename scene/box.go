package scene

import (
	"fmt"

	"github.com/achilleasa/lighter/types"
)

// Identifies a box face.
type BoxFace uint8

const (
	BoxFaceMinX BoxFace = iota
	BoxFaceMaxX
	BoxFaceMinY
	BoxFaceMaxY
	BoxFaceMinZ
	BoxFaceMaxZ
	numBoxFaces
)

var boxFaceNames = [numBoxFaces]string{"-x", "+x", "-y", "+y", "-z", "+z"}

func (f BoxFace) String() string {
	if f < numBoxFaces {
		return boxFaceNames[f]
	}
	return fmt.Sprintf("BoxFace(%d)", f)
}

// Parse a box face name (-x, +x, -y, +y, -z, +z).
func ParseBoxFace(name string) (BoxFace, error) {
	for i, n := range boxFaceNames {
		if n == name {
			return BoxFace(i), nil
		}
	}
	return 0, fmt.Errorf("scene: unknown box face %q", name)
}

// Create an axis-aligned box object. Each face is a separate quad made of
// two triangles. If inward is set the faces point towards the box center.
// Faces listed in skip are omitted.
func NewBoxObject(name string, min, max types.Vec3, inward bool, material *Material, skip ...BoxFace) (*Object, error) {
	var positions, normals []types.Vec3
	var indices []int

	skipped := func(f BoxFace) bool {
		for _, s := range skip {
			if s == f {
				return true
			}
		}
		return false
	}

	for face := BoxFace(0); face < numBoxFaces; face++ {
		if skipped(face) {
			continue
		}

		axis := int(face / 2)
		u, v := (axis+1)%3, (axis+2)%3
		var pos float32
		normal := types.Vec3{}
		if face%2 == 0 {
			pos = min[axis]
			normal[axis] = -1
		} else {
			pos = max[axis]
			normal[axis] = 1
		}
		if inward {
			normal = normal.Neg()
		}

		var corners [4]types.Vec3
		for i, uv := range [4][2]bool{{false, false}, {true, false}, {true, true}, {false, true}} {
			corners[i][axis] = pos
			corners[i][u] = pick(uv[0], min[u], max[u])
			corners[i][v] = pick(uv[1], min[v], max[v])
		}

		// Wind the quad so that the geometric normal matches.
		geomNormal := corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0]))
		if geomNormal.Dot(normal) < 0 {
			corners[1], corners[3] = corners[3], corners[1]
		}

		base := len(positions)
		for _, c := range corners {
			positions = append(positions, c)
			normals = append(normals, normal)
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	return NewObject(name, positions, normals, indices, material)
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return b
	}
	return a
}

// Options for NewBoxScene.
type BoxSceneOptions struct {
	// Edge length of the room.
	Size float32

	// Faces of the room to leave open.
	OpenFaces []BoxFace

	// An optional solid block placed inside the room.
	Block *types.BBox

	// Lights placed in the room.
	Lights []*Light

	Material *Material
}

// Create a single sector scene consisting of a box shaped room centered at
// the origin with its faces pointing inwards.
func NewBoxScene(opts BoxSceneOptions) (*Scene, error) {
	half := opts.Size * 0.5
	room, err := NewBoxObject("room", types.XYZ(-half, -half, -half), types.XYZ(half, half, half), true, opts.Material, opts.OpenFaces...)
	if err != nil {
		return nil, err
	}

	sector := NewSector("room")
	sector.AddObject(room)

	if opts.Block != nil {
		block, err := NewBoxObject("block", opts.Block.Min, opts.Block.Max, false, opts.Material)
		if err != nil {
			return nil, err
		}
		sector.AddObject(block)
	}

	for _, l := range opts.Lights {
		sector.AddLight(l)
	}

	sc := NewScene()
	if err := sc.AddSector(sector); err != nil {
		return nil, err
	}
	sc.Prepare()
	return sc, nil
}
