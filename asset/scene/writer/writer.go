package writer

import (
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/gpu"
)

// The Writer interface is implemented by all frame writers.
type Writer interface {
	// Write a compiled frame and its encoded GPU buffers.
	Write(*scene.Frame, *gpu.Batch) error
}

// Write frame to a zip archive.
func WriteFrame(frame *scene.Frame, batch *gpu.Batch, filename string) error {
	writer := newZipFrameWriter(filename)
	return writer.Write(frame, batch)
}
