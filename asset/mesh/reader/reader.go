// Package reader parses scene description files into indexed meshes and
// the instances that place them in the world.
package reader

import (
	"fmt"
	"strings"

	"github.com/rubengrim/swbvh/asset"
	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/asset/scene"
)

// A parsed scene: a list of meshes and the instances referencing them.
type Scene struct {
	Meshes    []*mesh.Mesh
	Instances []scene.InstanceDesc
}

// Lookup a parsed mesh by name.
func (s *Scene) Mesh(name string) *mesh.Mesh {
	for _, m := range s.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*Scene, error)
}

// Read scene from file.
func ReadScene(filename string) (*Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format")
	}
	return reader.Read(res)
}
