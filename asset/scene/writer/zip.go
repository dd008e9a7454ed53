package writer

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/gpu"
	"github.com/rubengrim/swbvh/log"
)

const (
	// The gob-encoded frame.
	DataFile = "frame.bin"

	// Encoded GPU buffers are stored as buffers/<name>.bin.
	BufferDir = "buffers/"
)

type zipFrameWriter struct {
	logger    log.Logger
	frameFile string
}

// Create a new zip frame writer
func newZipFrameWriter(frameFile string) *zipFrameWriter {
	return &zipFrameWriter{
		logger:    log.New("zip writer"),
		frameFile: frameFile,
	}
}

// Write frame data and GPU buffers to a zip file.
func (w *zipFrameWriter) Write(frame *scene.Frame, batch *gpu.Batch) (err error) {
	w.logger.Noticef(`writing compressed frame to "%s"`, w.frameFile)
	start := time.Now()

	zipFile, err := os.Create(w.frameFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := zipFile.Close(); err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(zipFile)

	cw, err := zw.Create(DataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(frame); err != nil {
		return fmt.Errorf("zipFrameWriter: failed to encode frame: %w", err)
	}

	if batch != nil {
		for _, buf := range batch.Buffers {
			bw, err := zw.Create(BufferDir + buf.Name + ".bin")
			if err != nil {
				return err
			}
			if _, err = bw.Write(buf.Data); err != nil {
				return err
			}
		}
	}

	if err = zw.Close(); err != nil {
		return err
	}

	w.logger.Noticef("compressed frame in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
