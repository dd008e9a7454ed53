package reader

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rubengrim/swbvh/asset"
	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/log"
	"github.com/rubengrim/swbvh/types"
)

// Meshes with at most this many vertices get a 16-bit index buffer.
const maxIndex16Vertices = math.MaxUint16 + 1

// A mesh being assembled from face definitions.
type wavefrontMesh struct {
	name      string
	positions []float32
	indices   []uint32

	// Maps indices into the global vertex list to mesh-local indices.
	remap map[int]uint32
}

func newWavefrontMesh(name string) *wavefrontMesh {
	return &wavefrontMesh{
		name:      name,
		positions: make([]float32, 0),
		indices:   make([]uint32, 0),
		remap:     make(map[int]uint32),
	}
}

// Append a vertex from the global vertex list (if not already present) and
// return its local index.
func (wm *wavefrontMesh) vertex(globalIndex int, v types.Vec3) uint32 {
	if local, exists := wm.remap[globalIndex]; exists {
		return local
	}
	local := uint32(len(wm.positions) / 3)
	wm.positions = append(wm.positions, v[0], v[1], v[2])
	wm.remap[globalIndex] = local
	return local
}

// Convert to an indexed mesh selecting the narrowest index format.
func (wm *wavefrontMesh) toMesh() *mesh.Mesh {
	m := mesh.New(wm.name)
	m.SetPositions(wm.positions)
	if len(wm.positions)/3 <= maxIndex16Vertices {
		indices16 := make([]uint16, len(wm.indices))
		for i, index := range wm.indices {
			indices16[i] = uint16(index)
		}
		m.SetIndices16(indices16)
	} else {
		m.SetIndices32(wm.indices)
	}
	return m
}

// An instance definition waiting for mesh resolution.
type wavefrontInstance struct {
	meshName  string
	transform types.Mat4
	file      string
	line      int
}

type wavefrontSceneReader struct {
	logger log.Logger

	// Parsed meshes and instance definitions.
	meshes    []*wavefrontMesh
	instances []wavefrontInstance

	// List of vertices.
	vertexList []types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

// Create a new text scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:     log.New("wavefront scene reader"),
		meshes:     make([]*wavefrontMesh, 0),
		instances:  make([]wavefrontInstance, 0),
		vertexList: make([]types.Vec3, 0),
		errStack:   make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	sc := &Scene{
		Meshes:    make([]*mesh.Mesh, len(r.meshes)),
		Instances: make([]scene.InstanceDesc, 0),
	}
	for index, wm := range r.meshes {
		sc.Meshes[index] = wm.toMesh()
	}

	// If no mesh instances are defined, create instances for each defined mesh
	if len(r.instances) == 0 {
		for _, m := range sc.Meshes {
			sc.Instances = append(sc.Instances, scene.InstanceDesc{Mesh: m.ID(), ObjectToWorld: types.Ident4()})
		}
	}
	for _, inst := range r.instances {
		m := sc.Mesh(inst.meshName)
		if m == nil {
			return nil, r.emitError(inst.file, inst.line, `unknown mesh with name "%s"`, inst.meshName)
		}
		sc.Instances = append(sc.Instances, scene.InstanceDesc{Mesh: m.ID(), ObjectToWorld: inst.transform})
	}

	r.logger.Noticef("parsed scene in %d ms: %d meshes, %d instances", time.Since(start).Nanoseconds()/1e6, len(sc.Meshes), len(sc.Instances))
	return sc, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}
	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex offset we can apply it while parsing
	// faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.verifyLastParsedMesh()
			r.meshes = append(r.meshes, newWavefrontMesh(lineTokens[1]))
		case "f":
			// If no object has been defined create a default one
			if len(r.meshes) == 0 {
				r.meshes = append(r.meshes, newWavefrontMesh("default"))
			}
			err := r.parseFace(lineTokens, relVertexOffset, r.meshes[len(r.meshes)-1])
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "instance":
			instance, err := parseMeshInstance(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			instance.file = res.Path()
			instance.line = lineNum
			r.instances = append(r.instances, instance)
		case "vn", "vt", "mtllib", "usemtl", "s":
			// Shading attributes do not affect the hierarchy.
		default:
			r.logger.Debugf(`%s:%d: ignoring unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	r.verifyLastParsedMesh()
	return nil
}

// Drop the last parsed mesh if it contains no polygons.
func (r *wavefrontSceneReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.meshes) - 1
	if lastMeshIndex >= 0 && len(r.meshes[lastMeshIndex].indices) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.meshes[lastMeshIndex].name)
		r.meshes = r.meshes[:lastMeshIndex]
	}
}

// Parse mesh instance definition. Definitions use the following format:
// instance mesh_name tX tY tZ yaw pitch roll sX sY sZ
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees around the X, Y and Z axis
// - sX, sY, sZ       : scale
func parseMeshInstance(lineTokens []string) (wavefrontInstance, error) {
	if len(lineTokens) != 11 {
		return wavefrontInstance{}, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	var params [9]float32
	for index := range params {
		v, err := strconv.ParseFloat(lineTokens[index+2], 32)
		if err != nil {
			return wavefrontInstance{}, err
		}
		params[index] = float32(v)
	}

	translation := types.XYZ(params[0], params[1], params[2])
	rotation := types.XYZ(params[3], params[4], params[5]).Mul(math.Pi / 180.0)
	scale := types.XYZ(params[6], params[7], params[8])

	// Generate final matrix: M = T * R * S
	return wavefrontInstance{
		meshName:  lineTokens[1],
		transform: types.Translate4(translation).Mul4(types.RotateEuler4(rotation).Mul4(types.Scale4(scale))),
	}, nil
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Only the vertex index is used. Indices start from 1 and may be negative
// to indicate an offset off the end of the vertex list. Quads are split
// into two triangles.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset int, wm *wavefrontMesh) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var local [4]uint32
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

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		local[arg] = wm.vertex(vOffset, r.vertexList[vOffset])
	}

	wm.indices = append(wm.indices, local[0], local[1], local[2])
	if len(lineTokens) == 5 {
		wm.indices = append(wm.indices, local[0], local[2], local[3])
	}
	return nil
}

// Given an index for a face coord calculate the proper offset into the
// coord list. Wavefront format can also use negative indices to reference
// elements from the end of the coord list.
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

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}

	return v, nil
}
