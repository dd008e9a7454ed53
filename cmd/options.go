package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rubengrim/swbvh/asset/compiler"
	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/types"
	"github.com/urfave/cli"
)

// Build tuning flags shared by all commands that compile frames.
var BuildFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "blas-leaf",
		Value: bvh.DefaultBlasLeafSize,
		Usage: "max triangles per BLAS leaf",
	},
	cli.IntFlag{
		Name:  "blas-bins",
		Value: bvh.DefaultBlasBinCount,
		Usage: "number of SAH bins per axis for BLAS builds",
	},
	cli.IntFlag{
		Name:  "tlas-leaf",
		Value: bvh.DefaultTlasLeafSize,
		Usage: "max instances per TLAS leaf",
	},
	cli.IntFlag{
		Name:  "tlas-bins",
		Value: bvh.DefaultTlasBinCount,
		Usage: "number of SAH bins per axis for TLAS builds",
	},
	cli.IntFlag{
		Name:  "workers",
		Value: 0,
		Usage: "number of concurrent BLAS builds (0 = number of CPUs)",
	},
	cli.BoolFlag{
		Name:  "validate",
		Usage: "check the invariants of every built hierarchy",
	},
}

// Populate compiler options from the global build flags.
func compilerOptions(ctx *cli.Context) compiler.Options {
	return compiler.Options{
		Blas: bvh.Options{
			LeafSize: ctx.GlobalInt("blas-leaf"),
			BinCount: ctx.GlobalInt("blas-bins"),
		},
		Tlas: bvh.Options{
			LeafSize: ctx.GlobalInt("tlas-leaf"),
			BinCount: ctx.GlobalInt("tlas-bins"),
		},
		Workers:  ctx.GlobalInt("workers"),
		Validate: ctx.GlobalBool("validate"),
	}
}

// Parse a "x,y,z" vector.
func parseVec3(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf("expected vector in x,y,z format; got %q", value)
	}

	var v types.Vec3
	for index, token := range tokens {
		coord, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("could not parse vector component %d of %q: %s", index, value, err.Error())
		}
		v[index] = float32(coord)
	}
	return v, nil
}
