package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/go-pathtrace-cpu/device/cpu"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Info prints the CPU device's static identity: its name, its thread count
// and the SIMD tiers the host supports.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	dev := cpu.New("cpu0", cpu.Options{NumThreads: ctx.Int("threads")})
	defer dev.Close()

	info := dev.Info()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Name", "Threads", "Host capabilities"})
	table.Append([]string{
		info.Name,
		fmt.Sprintf("%d", info.NumThreads),
		info.Capabilities,
	})
	table.Render()

	logger.Noticef("device info\n%s", buf.String())
	return nil
}
