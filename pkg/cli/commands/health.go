package commands

import (
	"cmp"
	"flag"
	"fmt"
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/pkg/cli"
	"net/http"
	"os"
	"time"
)

func init() {
	cli.Register(cli.Command{
		Name:        "health",
		Description: "Check the health of a running server",
		Execute:     executeHealth,
	})
}

func executeHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "/data", "path to the data folder")
	timeout := fs.Duration("timeout", 3*time.Second, "timeout for health check")

	if err := fs.Parse(args); err != nil {
		return err
	}

	port := os.Getenv("PORLARR_PORT")
	if port == "" {
		if conf, err := config.Load(*configPath); err == nil {
			port = conf.Port
		}
	}
	port = cmp.Or(port, "8383")

	url := fmt.Sprintf("http://localhost:%s/version", port)

	client := &http.Client{
		Timeout: *timeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	_, _ = fmt.Fprintln(stdout, "Health check passed")
	return nil
}
