package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/g5becks/mdhtml/internal/config"
)

func newInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a starter mdhtml.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Where to write the config", Value: "mdhtml.toml"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Overwrite an existing config"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("path")
			if err := config.WriteStarter(path, cmd.Bool("force")); err != nil {
				return err
			}

			_, err := fmt.Fprintf(outWriter(cmd), "created %s\n", path)
			return err
		},
	}
}
