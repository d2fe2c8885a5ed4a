package main

import (
	"github.com/alecthomas/kong"

	"github.com/chaz8081/carctl/internal/cli"
)

func main() {
	var root cli.CLI
	ctx := kong.Parse(&root,
		kong.Name("carctl"),
		kong.Description("BLE remote control for Shell Racing Legends cars."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&root))
}
