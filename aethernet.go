package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/aethernet/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "aethernet",
		Usage:   "Multi-model chat relay for Gemini, Mistral, Cohere and HuggingFace backends",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.ConfigCommand(),
			cmd.EnvCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
