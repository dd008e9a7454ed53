package gpu

import "github.com/rubengrim/swbvh/asset/scene"

// Buffer names.
const (
	BlasNodes       = "blasNodes"
	BlasTriangleIDs = "blasTriangleIds"
	BlasVertices    = "blasVertices"
	TlasNodes       = "tlasNodes"
	TlasIndices     = "tlasIndices"
	Instances       = "instances"
)

// A named block of encoded data ready for upload.
type Buffer struct {
	Name string
	Data []byte
}

// A Batch holds the encoded buffers for a single frame. It is handed to the
// caller that owns the upload instead of being retained by the compiler.
type Batch struct {
	Buffers []Buffer
}

// Encode all frame buffers into a new batch.
func NewBatch(frame *scene.Frame) *Batch {
	return &Batch{
		Buffers: []Buffer{
			{Name: BlasNodes, Data: EncodeNodes(frame.BlasNodes)},
			{Name: BlasTriangleIDs, Data: EncodeIndices(frame.TriangleIDs)},
			{Name: BlasVertices, Data: EncodeVertices(frame.VertexList)},
			{Name: TlasNodes, Data: EncodeNodes(frame.TlasNodes)},
			{Name: TlasIndices, Data: EncodeIndices(frame.TlasIndices)},
			{Name: Instances, Data: EncodeInstances(frame.Instances)},
		},
	}
}

// Lookup a buffer by name.
func (b *Batch) Buffer(name string) (Buffer, bool) {
	for _, buf := range b.Buffers {
		if buf.Name == name {
			return buf, true
		}
	}
	return Buffer{}, false
}

// Get the total size of all buffers in bytes.
func (b *Batch) Size() int {
	size := 0
	for _, buf := range b.Buffers {
		size += len(buf.Data)
	}
	return size
}
