package main

import (
	"os"

	"github.com/achilleasa/go-pathtrace-cpu/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "go-pathtrace-cpu"
	app.Usage = "drive the CPU path-tracing device backend"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "info",
			Usage: "print the CPU device's thread count and supported SIMD tiers",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "threads",
					Value: 0,
					Usage: "worker thread count (0 selects runtime.NumCPU())",
				},
			},
			Action: cmd.Info,
		},
		{
			Name:        "bench",
			Usage:       "render a synthetic tile and report render/film-convert throughput",
			Description: `Renders a single synthetic tile through the render and film-convert task loops and reports per-stage timing and throughput.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "tile width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "tile height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 16,
					Usage: "samples per pixel",
				},
				cli.IntFlag{
					Name:  "threads",
					Value: 0,
					Usage: "worker thread count (0 selects runtime.NumCPU())",
				},
			},
			Action: cmd.Bench,
		},
	}

	app.Run(os.Args)
}
