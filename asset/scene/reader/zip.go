package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rubengrim/swbvh/asset"
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/asset/scene/writer"
	"github.com/rubengrim/swbvh/log"
)

type zipFrameReader struct {
	logger log.Logger
}

// Create a new zip frame reader
func newZipFrameReader() *zipFrameReader {
	return &zipFrameReader{
		logger: log.New("zip reader"),
	}
}

// Read frame from zip file. Encoded GPU buffers are skipped as the frame
// can be re-encoded from the decoded data.
func (p *zipFrameReader) Read(frameRes *asset.Resource) (*scene.Frame, error) {
	p.logger.Noticef(`parsing compiled frame from "%s"`, frameRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(frameRes)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var frame *scene.Frame
	for _, f := range zr.File {
		switch {
		case f.Name == writer.DataFile:
		case strings.HasPrefix(f.Name, writer.BufferDir):
			continue
		default:
			p.logger.Warningf("unknown file %s in frame zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		frame = &scene.Frame{}
		err = gob.NewDecoder(rc).Decode(frame)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zipFrameReader: failed to load %s: %s", f.Name, err.Error())
		}
	}

	if frame == nil {
		return nil, fmt.Errorf("zipFrameReader: missing %s", writer.DataFile)
	}

	p.logger.Noticef("loaded frame in %d ms", time.Since(start).Nanoseconds()/1e6)
	return frame, nil
}
