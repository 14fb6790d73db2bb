package commands

import (
	"github.com/sirrobot01/porlarr/pkg/cli"
	"github.com/sirrobot01/porlarr/pkg/version"
)

func init() {
	cli.Register(cli.Command{
		Name:        "version",
		Description: "Print version information",
		Execute:     executeVersion,
	})
}

func executeVersion(args []string) error {
	return printJSON(version.GetInfo())
}
