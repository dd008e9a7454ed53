// Package gpu encodes frame data into the little-endian buffer layouts
// consumed by GPU traversal kernels.
package gpu

import (
	"bytes"
	"encoding/binary"

	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/types"
)

// Size of buffer elements in bytes.
const (
	SizeofNode     = 32
	SizeofIndex    = 4
	SizeofVertex   = 16
	SizeofInstance = 144
)

// The GPU instance record: two column-major matrices followed by the BLAS
// reference and the instance handle.
type instanceRecord struct {
	ObjectToWorld   [16]float32
	WorldToObject   [16]float32
	NodeOffset      uint32
	PrimitiveOffset uint32
	PrimitiveCount  uint32
	Handle          uint32
}

// Encode BVH nodes as {min.xyz, a_or_first, max.xyz, count}.
func EncodeNodes(nodes []bvh.Node) []byte {
	return encode(nodes, len(nodes)*SizeofNode)
}

// Encode a u32 index array.
func EncodeIndices(indices []uint32) []byte {
	return encode(indices, len(indices)*SizeofIndex)
}

// Encode a vertex array.
func EncodeVertices(vertices []types.Vec4) []byte {
	return encode(vertices, len(vertices)*SizeofVertex)
}

// Encode instance records.
func EncodeInstances(instances []bvh.Instance) []byte {
	records := make([]instanceRecord, len(instances))
	for i, inst := range instances {
		records[i] = instanceRecord{
			ObjectToWorld:   inst.ObjectToWorld,
			WorldToObject:   inst.WorldToObject,
			NodeOffset:      inst.Blas.NodeOffset,
			PrimitiveOffset: inst.Blas.PrimitiveOffset,
			PrimitiveCount:  inst.Blas.PrimitiveCount,
			Handle:          inst.Handle,
		}
	}
	return encode(records, len(records)*SizeofInstance)
}

func encode(data interface{}, size int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))

	// Writing fixed-size data into a bytes.Buffer never fails.
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
