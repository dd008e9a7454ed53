package reader

import (
	"fmt"
	"strings"

	"github.com/rubengrim/swbvh/asset"
	"github.com/rubengrim/swbvh/asset/scene"
)

// The Reader interface is implemented by all frame readers.
type Reader interface {
	// Read a compiled frame from a resource.
	Read(*asset.Resource) (*scene.Frame, error)
}

// Read frame from file.
func ReadFrame(filename string) (*scene.Frame, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".zip") {
		reader = newZipFrameReader()
	} else {
		return nil, fmt.Errorf("readFrame: unsupported file format")
	}
	return reader.Read(res)
}
