package cmd

import (
	"github.com/achilleasa/go-pathtrace-cpu/log"
	"github.com/urfave/cli"
)

var logger = log.New("go-pathtrace-cpu")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
