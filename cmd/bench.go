package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/achilleasa/go-pathtrace-cpu/device/cpu"
	"github.com/achilleasa/go-pathtrace-cpu/kernel"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

const benchPassStride = 4

// Bench renders a synthetic tile through the full render -> film-convert
// pipeline and reports throughput, the same shape as the teacher's own
// frame-statistics table but scoped to this device's task loop instead of
// a full scene render.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	w := ctx.Int("width")
	h := ctx.Int("height")
	spp := ctx.Int("spp")

	dev := cpu.New("cpu0", cpu.Options{NumThreads: ctx.Int("threads")})
	defer dev.Close()

	dev.SetFilmConfig(kernel.FilmConfig{PassStride: benchPassStride})

	buffer := dev.MemAlloc("buffer", w*h*benchPassStride*4)
	rng := dev.MemAlloc("rng", w*h*4)
	defer dev.MemFree(buffer)
	defer dev.MemFree(rng)

	tile := &cpu.RenderTile{
		Width: w, Height: h,
		Buffer:      buffer,
		Params:      cpu.BufferParams{Width: w, Height: h, Stride: w, PassStride: benchPassStride},
		NumSamples:  spp,
		RNGState:    rng,
	}

	start := time.Now()
	err := dev.TaskAdd(&cpu.DeviceTask{Type: cpu.TaskRender, Tile: tile})
	if err != nil {
		return err
	}
	renderTime := time.Since(start)

	rgba := dev.MemAlloc("rgba", w*h*4)
	defer dev.MemFree(rgba)

	start = time.Now()
	err = dev.TaskAdd(&cpu.DeviceTask{
		Type:        cpu.TaskFilmConvert,
		Buffer:      buffer,
		RGBA:        rgba,
		SampleScale: 1.0 / float32(spp),
		W:           w, H: h,
		Stride: w,
	})
	if err != nil {
		return err
	}
	convertTime := time.Since(start)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Time", "Samples/sec"})
	table.Append([]string{"render", renderTime.String(), fmt.Sprintf("%.1f", float64(w*h*spp)/renderTime.Seconds())})
	table.Append([]string{"film_convert", convertTime.String(), fmt.Sprintf("%.1f", float64(w*h)/convertTime.Seconds())})
	table.SetFooter([]string{"", "TOTAL", (renderTime + convertTime).String()})
	table.Render()

	logger.Noticef("bench results (%dx%d, %d spp, %d threads)\n%s", w, h, spp, dev.Info().NumThreads, buf.String())
	return nil
}
