package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lighter/asset"
	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
)

// The name of the sector receiving objects defined before any "sector"
// statement.
const DefaultSectorName = "default"

type wavefrontMaterial struct {
	Name string

	// Diffuse color.
	Kd types.Vec3

	// Transmission filter.
	Tf    types.Vec3
	HasTf bool

	// Dissolve (opacity).
	D float32

	compiled *scene.Material
}

// Build the scene material.
func (wf *wavefrontMaterial) material() *scene.Material {
	if wf.compiled != nil {
		return wf.compiled
	}

	mat := &scene.Material{
		Name:    wf.Name,
		Diffuse: types.Color(wf.Kd),
		Filter:  types.Gray(1),
	}
	switch {
	case wf.HasTf && types.Color(wf.Tf).Mean() > 0:
		mat.Filter = types.Color(wf.Tf)
		mat.Transparent = true
	case wf.D < 1:
		mat.Filter = types.Gray(1 - wf.D)
		mat.Transparent = true
	}
	wf.compiled = mat
	return mat
}

// A vertex of the object being assembled; normal is -1 for faces without
// normals.
type vertexKey struct {
	position, normal int
}

type wavefrontObject struct {
	name     string
	baseName string
	sector   string
	flags    scene.ObjectFlags
	material *wavefrontMaterial

	positions []types.Vec3
	normals   []types.Vec3
	indices   []int
	vertexMap map[vertexKey]int
}

type portalDef struct {
	sector   string
	target   string
	vertices []types.Vec3
	file     string
	line     int
}

type wavefrontSceneReader struct {
	logger log.Logger

	// A map of material names to parsed wavefront materials
	materials map[string]*wavefrontMaterial

	// Currently selected material.
	curMaterial *wavefrontMaterial

	// Currently selected sector and object.
	curSector string
	curObject *wavefrontObject

	// Parsed objects in definition order.
	objects []*wavefrontObject

	// Sector names in order of first use.
	sectors []string

	lights  map[string][]*scene.Light
	portals []portalDef

	// List of vertices and normals.
	vertexList []types.Vec3
	normalList []types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a wavefront scene reader. Besides the standard geometry and
// material statements the reader understands the following extensions:
//
//	sector name
//	light name x y z r g b power radius [attenuation]
//	pdlight name x y z r g b power radius [attenuation]
//	object_flags noshadow|noselfshadow|nolight|pervertex...
//	portal target_sector x1 y1 z1 x2 y2 z2 x3 y3 z3 [...]
func NewWavefrontReader() Reader {
	return &wavefrontSceneReader{
		logger:    log.New("wavefront scene reader"),
		materials: make(map[string]*wavefrontMaterial),
		curSector: DefaultSectorName,
		lights:    make(map[string][]*scene.Light),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	if err := r.parse(sceneRes); err != nil {
		return nil, err
	}

	sc, err := r.buildScene()
	if err != nil {
		return nil, err
	}

	r.logger.Noticef("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Assemble the parsed objects, lights and portals into sectors.
func (r *wavefrontSceneReader) buildScene() (*scene.Scene, error) {
	sc := scene.NewScene()
	sectors := make(map[string]*scene.Sector)
	for _, name := range r.sectors {
		s := scene.NewSector(name)
		if err := sc.AddSector(s); err != nil {
			return nil, err
		}
		sectors[name] = s
	}

	for _, wfObj := range r.objects {
		if len(wfObj.indices) == 0 {
			r.logger.Warningf(`dropping object "%s" as it contains no polygons`, wfObj.name)
			continue
		}

		var mat *scene.Material
		if wfObj.material != nil {
			mat = wfObj.material.material()
		}
		obj, err := scene.NewObject(wfObj.name, wfObj.positions, wfObj.normals, wfObj.indices, mat)
		if err != nil {
			return nil, err
		}
		obj.Flags = wfObj.flags
		sectors[wfObj.sector].AddObject(obj)
	}

	for _, name := range r.sectors {
		for _, l := range r.lights[name] {
			sectors[name].AddLight(l)
		}
	}

	for _, def := range r.portals {
		target, exists := sectors[def.target]
		if !exists {
			return nil, r.emitError(def.file, def.line, `portal references unknown sector "%s"`, def.target)
		}
		sectors[def.sector].AddPortal(scene.NewPortal(def.vertices, target, types.Transform{Rotation: types.QuatIdent()}))
	}

	sc.Prepare()
	return sc, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return fmt.Errorf("%s", strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Start a new object in the current sector.
func (r *wavefrontSceneReader) startObject(name string) {
	r.useSector(r.curSector)
	r.curObject = &wavefrontObject{
		name:      name,
		baseName:  name,
		sector:    r.curSector,
		material:  r.curMaterial,
		vertexMap: make(map[vertexKey]int),
	}
	r.objects = append(r.objects, r.curObject)
}

// Get the object receiving faces. Objects hold a single material so
// switching materials mid-object starts a new object.
func (r *wavefrontSceneReader) faceObject() *wavefrontObject {
	switch {
	case r.curObject == nil:
		r.startObject("default")
	case r.curObject.material != r.curMaterial && len(r.curObject.indices) == 0:
		r.curObject.material = r.curMaterial
	case r.curObject.material != r.curMaterial:
		prev := r.curObject
		r.startObject(prev.baseName)
		r.curObject.flags = prev.flags
		if r.curMaterial != nil {
			r.curObject.name = prev.baseName + ":" + r.curMaterial.Name
		}
	}
	return r.curObject
}

// Record a sector name in definition order.
func (r *wavefrontSceneReader) useSector(name string) {
	for _, s := range r.sectors {
		if s == name {
			return
		}
	}
	r.sectors = append(r.sectors, name)
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.Open(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			switch lineTokens[0] {
			case "call":
				err = r.parse(incRes)
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'usemtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			mat, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMaterial = mat
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.startObject(lineTokens[1])
		case "f":
			if err := r.parseFace(lineTokens, relVertexOffset, relNormalOffset); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "sector":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "sector"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			r.curSector = lineTokens[1]
			r.curObject = nil
			r.useSector(r.curSector)
		case "light", "pdlight":
			light, err := parseLight(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			if lineTokens[0] == "pdlight" {
				light.Flags |= scene.LightPseudoDynamic
			}
			r.useSector(r.curSector)
			r.lights[r.curSector] = append(r.lights[r.curSector], light)
		case "object_flags":
			if r.curObject == nil {
				return r.emitError(res.Path(), lineNum, `got "object_flags" without an object`)
			}
			flags, err := parseObjectFlags(lineTokens[1:])
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.curObject.flags |= flags
		case "portal":
			def, err := parsePortal(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			def.sector, def.file, def.line = r.curSector, res.Path(), lineNum
			r.useSector(r.curSector)
			r.portals = append(r.portals, def)
		}
	}

	return scanner.Err()
}

// Parse face definition. Each face definitions consists of 3 or more
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the
// end of the vertex list. Texture coordinates are ignored. Faces with more
// than 3 vertices are triangulated as a fan.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	obj := r.faceObject()
	corners := make([]int, 0, len(lineTokens)-1)
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		key := vertexKey{normal: -1}
		var err error
		key.position, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}

		if expIndices > 2 && vTokens[2] != "" {
			key.normal, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
		}

		index, exists := obj.vertexMap[key]
		if !exists {
			index = len(obj.positions)
			obj.vertexMap[key] = index
			obj.positions = append(obj.positions, r.vertexList[key.position])
			var normal types.Vec3
			if key.normal >= 0 {
				normal = r.normalList[key.normal]
			}
			obj.normals = append(obj.normals, normal)
		}
		corners = append(corners, index)
	}

	for i := 1; i+1 < len(corners); i++ {
		obj.indices = append(obj.indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)
	var curMaterial *wavefrontMaterial
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.materials[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &wavefrontMaterial{
				Name: matName,
				Kd:   types.Vec3{0.7, 0.7, 0.7},
				D:    1,
			}
			r.materials[matName] = curMaterial
			continue
		}

		if curMaterial == nil {
			return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
		}

		switch lineTokens[0] {
		case "Kd":
			curMaterial.Kd, err = parseVec3(lineTokens)
		case "Tf":
			curMaterial.Tf, err = parseVec3(lineTokens)
			curMaterial.HasTf = true
		case "d":
			curMaterial.D, err = parseFloat32(lineTokens)
		case "Tr":
			var tr float32
			tr, err = parseFloat32(lineTokens)
			curMaterial.D = 1 - tr
		}

		// Report any errors
		if err != nil {
			return r.emitError(res.Path(), lineNum, err.Error())
		}
	}

	return scanner.Err()
}

// Parse a light definition:
// light name x y z r g b power radius [attenuation]
func parseLight(lineTokens []string) (*scene.Light, error) {
	if len(lineTokens) != 10 && len(lineTokens) != 11 {
		return nil, fmt.Errorf(`unsupported syntax for "%s"; expected 9 or 10 arguments: name x y z r g b power radius [attenuation]; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	floats, err := parseFloats(lineTokens[2:10])
	if err != nil {
		return nil, err
	}

	attenuation := scene.AttenuationRealistic
	if len(lineTokens) == 11 {
		if attenuation, err = scene.ParseAttenuationMode(lineTokens[10]); err != nil {
			return nil, err
		}
	}

	return scene.NewPointLight(
		lineTokens[1],
		types.Vec3{floats[0], floats[1], floats[2]},
		types.Color{floats[3], floats[4], floats[5]},
		floats[6],
		floats[7],
		attenuation,
	), nil
}

// Parse a portal definition:
// portal target_sector x1 y1 z1 x2 y2 z2 x3 y3 z3 [...]
func parsePortal(lineTokens []string) (portalDef, error) {
	if len(lineTokens) < 11 || (len(lineTokens)-2)%3 != 0 {
		return portalDef{}, fmt.Errorf(`unsupported syntax for "portal"; expected a target sector followed by at least 3 vertices`)
	}

	floats, err := parseFloats(lineTokens[2:])
	if err != nil {
		return portalDef{}, err
	}

	def := portalDef{target: lineTokens[1]}
	for i := 0; i < len(floats); i += 3 {
		def.vertices = append(def.vertices, types.Vec3{floats[i], floats[i+1], floats[i+2]})
	}
	return def, nil
}

func parseObjectFlags(tokens []string) (scene.ObjectFlags, error) {
	var flags scene.ObjectFlags
	for _, tok := range tokens {
		switch tok {
		case "noshadow":
			flags |= scene.ObjectNoShadow
		case "noselfshadow":
			flags |= scene.ObjectNoSelfShadow
		case "nolight":
			flags |= scene.ObjectNoLight
		case "pervertex":
			flags |= scene.ObjectLightPerVertex
		default:
			return 0, fmt.Errorf("unknown object flag %q", tok)
		}
	}
	return flags, nil
}

// Given an index for a face coord type (vertex, normal) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

func parseFloats(tokens []string) ([]float32, error) {
	out := make([]float32, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	floats, err := parseFloats(lineTokens[1:4])
	if err != nil {
		return types.Vec3{}, err
	}
	return types.Vec3{floats[0], floats[1], floats[2]}, nil
}
