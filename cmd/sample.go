package cmd

import (
	"fmt"
	"strings"

	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/asset/mesh/procedural"
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/types"
	"github.com/urfave/cli"
)

// Generate a procedural mesh, instance it along the X axis and compile the
// result into a frame archive.
func CompileSample(ctx *cli.Context) error {
	setupLogging(ctx)

	count := ctx.Int("count")
	if count < 0 {
		return fmt.Errorf("instance count must be >= 0; got %d", count)
	}

	shape := ctx.String("shape")
	var m *mesh.Mesh
	if shape == "cube" {
		m = procedural.Cube()
	} else {
		var err error
		m, err = procedural.FromSDF(shape, ctx.Int("cells"))
		if err != nil {
			return err
		}
	}
	logger.Noticef(`generated "%s" mesh: %d triangles, %d vertices`, m.Name, m.TriangleCount(), m.VertexCount())

	spacing := float32(ctx.Float64("spacing"))
	instances := make([]scene.InstanceDesc, count)
	for i := range instances {
		instances[i] = scene.InstanceDesc{
			Mesh:          m.ID(),
			ObjectToWorld: types.Translate4(types.XYZ(float32(i)*spacing, 0, 0)),
		}
	}

	return compileAndWrite(ctx, []*mesh.Mesh{m}, instances, ctx.String("out"))
}

// Get the list of supported sample shapes.
func SampleShapes() string {
	return strings.Join(append([]string{"cube"}, procedural.Shapes()...), ", ")
}
