package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/types"
)

// InstanceDesc places a mesh in the world for a single frame.
type InstanceDesc struct {
	// The instanced mesh.
	Mesh mesh.ID

	// A transformation matrix for positioning the mesh.
	ObjectToWorld types.Mat4
}

// A Frame contains the flattened two-level hierarchy for a single frame.
//
// BLAS node indices are local to each BLAS: the nodes of an instance's BLAS
// start at BlasNodes[inst.Blas.NodeOffset] and leaf ranges are relative to
// inst.Blas.PrimitiveOffset. Each BLAS primitive occupies three consecutive
// VertexList entries.
type Frame struct {
	// Concatenated BLAS nodes for all instanced meshes.
	BlasNodes []bvh.Node

	// The original triangle index of each BLAS primitive.
	TriangleIDs []uint32

	// Primitive vertices stored as Vec4 to match GPU alignment.
	VertexList []types.Vec4

	// Instance records referenced by the TLAS.
	Instances []bvh.Instance

	// TLAS nodes; leaf ranges index into TlasIndices.
	TlasNodes   []bvh.Node
	TlasIndices []uint32
}

// A ray hit against a frame.
type Hit struct {
	T float32

	// Index into Frame.Instances.
	Instance uint32

	// The handle of the hit instance.
	Handle uint32

	// The original index of the hit triangle in its mesh.
	TriangleID uint32
}

// Find the closest hit along a world-space ray within tMax. The ray is
// transformed into the object space of each candidate instance.
func (f *Frame) Intersect(r bvh.Ray, tMax float32) (Hit, bool) {
	var hit Hit
	found := false
	bvh.Traverse(f.TlasNodes, r, tMax, func(first, count uint32, tMax float32) float32 {
		for i := first; i < first+count; i++ {
			instIndex := f.TlasIndices[i]
			inst := &f.Instances[instIndex]
			objRay := r.Transform(inst.WorldToObject)

			tMax = bvh.Traverse(f.BlasNodes[inst.Blas.NodeOffset:], objRay, tMax, func(pFirst, pCount uint32, tMax float32) float32 {
				for p := pFirst; p < pFirst+pCount; p++ {
					prim := inst.Blas.PrimitiveOffset + p
					v := f.VertexList[3*prim : 3*prim+3]
					t, ok := bvh.IntersectTriangle(objRay, v[0].Vec3(), v[1].Vec3(), v[2].Vec3())
					if ok && t < tMax {
						tMax = t
						hit = Hit{
							T:          t,
							Instance:   instIndex,
							Handle:     inst.Handle,
							TriangleID: f.TriangleIDs[prim],
						}
						found = true
					}
				}
				return tMax
			})
		}
		return tMax
	})
	return hit, found
}

// Build a tabular representation of frame statistics.
func (f *Frame) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"BLAS", "---", "", fmtSize(f.BlasNodes, f.TriangleIDs, f.VertexList)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(f.BlasNodes)), fmtSize(f.BlasNodes)})
	table.Append([]string{"", "Triangle IDs", fmt.Sprint(len(f.TriangleIDs)), fmtSize(f.TriangleIDs)})
	table.Append([]string{"", "Vertices", fmt.Sprint(len(f.VertexList)), fmtSize(f.VertexList)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"TLAS", "---", "", fmtSize(f.TlasNodes, f.TlasIndices, f.Instances)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(f.TlasNodes)), fmtSize(f.TlasNodes)})
	table.Append([]string{"", "Indices", fmt.Sprint(len(f.TlasIndices)), fmtSize(f.TlasIndices)})
	table.Append([]string{"", "Instances", fmt.Sprint(len(f.Instances)), fmtSize(f.Instances)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(f.BlasNodes, f.TriangleIDs, f.VertexList, f.TlasNodes, f.TlasIndices, f.Instances), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
