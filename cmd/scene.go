package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rubengrim/swbvh/asset/compiler"
	"github.com/rubengrim/swbvh/asset/mesh"
	meshreader "github.com/rubengrim/swbvh/asset/mesh/reader"
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/asset/scene/reader"
	"github.com/rubengrim/swbvh/asset/scene/writer"
	"github.com/urfave/cli"
)

// Compile scene to binary format.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing scene file(s)")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := meshreader.ReadScene(sceneFile)
		if err != nil {
			return err
		}

		zipFile := strings.Replace(sceneFile, ".obj", ".zip", -1)
		if err = compileAndWrite(ctx, sc.Meshes, sc.Instances, zipFile); err != nil {
			return err
		}
	}

	return nil
}

// Build the BLAS for each mesh, compile a frame for the instances and write
// it to a zip archive.
func compileAndWrite(ctx *cli.Context, meshes []*mesh.Mesh, instances []scene.InstanceDesc, zipFile string) error {
	c := compiler.New(compilerOptions(ctx))
	report := c.BuildMeshes(meshes)
	logger.Infof("BLAS information:\n%s", blasStats(c, meshes))
	if len(meshes) > 0 && len(report.Failed) == len(meshes) {
		return fmt.Errorf("none of the %d scene meshes could be compiled", len(meshes))
	}

	frame, batch := c.CompileFrame(instances)

	// Display compiled frame info
	logger.Noticef("frame information:\n%s", frame.Stats())

	return writer.WriteFrame(frame, batch, zipFile)
}

// Build a tabular representation of per-mesh BLAS statistics.
func blasStats(c *compiler.Compiler, meshes []*mesh.Mesh) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Triangles", "Nodes", "Leaves", "Depth", "Build time"})

	for _, m := range meshes {
		blas, found := c.Blas(m.ID())
		if !found {
			table.Append([]string{m.Name, fmt.Sprint(m.TriangleCount()), "-", "-", "-", "failed"})
			continue
		}
		table.Append([]string{
			m.Name,
			fmt.Sprint(blas.PrimitiveCount()),
			fmt.Sprint(blas.Stats.Nodes),
			fmt.Sprint(blas.Stats.Leaves),
			fmt.Sprint(blas.Stats.MaxDepth),
			blas.Stats.BuildTime.String(),
		})
	}

	table.Render()
	return buf.String()
}

// Display compiled frame info.
func ShowFrameInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing compiled frame zip file")
	}

	frameFile := ctx.Args().First()
	if !strings.HasSuffix(frameFile, ".zip") {
		return errors.New("only compiled frame files with a .zip extension are supported")
	}

	frame, err := reader.ReadFrame(frameFile)
	if err != nil {
		return err
	}

	// Display compiled frame info
	logger.Noticef("frame information:\n%s", frame.Stats())

	return nil
}
