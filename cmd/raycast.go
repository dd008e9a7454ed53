package cmd

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/asset/scene/reader"
	"github.com/urfave/cli"
)

// Trace a single ray against a compiled frame using the CPU reference
// traversal.
func Raycast(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing compiled frame zip file")
	}

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return err
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return err
	}
	if dir.Len() == 0 {
		return errors.New("ray direction must be non-zero")
	}

	frame, err := reader.ReadFrame(ctx.Args().First())
	if err != nil {
		return err
	}

	r := bvh.NewRay(origin, dir.Normalize())
	hit, found := frame.Intersect(r, math32.MaxFloat32)
	if !found {
		logger.Noticef("ray %v -> %v: no hit", origin, dir)
		return nil
	}

	logger.Noticef(
		"ray %v -> %v: hit instance %d (handle %d) triangle %d at t = %.4f, point %v",
		origin, dir, hit.Instance, hit.Handle, hit.TriangleID, hit.T, r.At(hit.T),
	)
	return nil
}
