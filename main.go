package main

import (
	"fmt"
	"os"

	"github.com/rubengrim/swbvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "swbvh"
	app.Usage = "build two-level bounding volume hierarchies for software ray tracing"
	app.Version = "0.0.1"
	app.Flags = append([]cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}, cmd.BuildFlags...)
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile wavefront scenes into frame archives",
			Description: `
Parse meshes and mesh instances from a wavefront obj file, build a BVH for
each mesh and a top-level BVH over the instances, and package the flattened
hierarchy in a GPU-friendly format.

The frame data is written to a zip archive next to each input file which can
be supplied as an argument to the info and raycast commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Action:    cmd.CompileScene,
		},
		{
			Name:  "sample",
			Usage: "compile a frame with instances of a procedural mesh",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "shape",
					Value: "sphere",
					Usage: "mesh shape; one of: " + cmd.SampleShapes(),
				},
				cli.IntFlag{
					Name:  "cells",
					Value: 32,
					Usage: "marching cubes resolution for SDF shapes",
				},
				cli.IntFlag{
					Name:  "count",
					Value: 16,
					Usage: "number of mesh instances",
				},
				cli.Float64Flag{
					Name:  "spacing",
					Value: 2.0,
					Usage: "distance between instances along the X axis",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "sample.zip",
					Usage: "output frame archive",
				},
			},
			Action: cmd.CompileSample,
		},
		{
			Name:      "info",
			Usage:     "print compiled frame statistics",
			ArgsUsage: "frame.zip",
			Action:    cmd.ShowFrameInfo,
		},
		{
			Name:      "raycast",
			Usage:     "trace a single ray against a compiled frame",
			ArgsUsage: "frame.zip",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,-10",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,1",
					Usage: "ray direction as x,y,z",
				},
			},
			Action: cmd.Raycast,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
