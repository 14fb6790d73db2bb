package commands

import (
	"context"
	"errors"
	"flag"
	"github.com/sirrobot01/porlarr/cmd/porlarr"
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/pkg/cli"
)

func init() {
	cli.Register(cli.Command{
		Name:        "serve",
		Description: "Start the control API and poll worker",
		Execute:     executeServe,
	})
}

func executeServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "/data", "path to the data folder")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.SetConfigPath(*configPath); err != nil {
		return err
	}
	err := porlarr.Start(context.Background())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
