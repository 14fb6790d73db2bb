package commands

import (
	"context"
	"flag"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/pkg/download"
	"github.com/sirrobot01/porlarr/pkg/jsonrpc"
	"github.com/sirrobot01/porlarr/pkg/remotepath"
	"github.com/sirrobot01/porlarr/pkg/service"
	"io"
	"os"
	"strings"
)

var stdout io.Writer = os.Stdout

// clientFlags are shared by every command that talks to a daemon.
type clientFlags struct {
	configPath string
	client     string
	verbose    bool
}

func (c *clientFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "/data", "path to the data folder")
	fs.StringVar(&c.client, "client", "", "client name (defaults to the only configured client)")
	fs.BoolVar(&c.verbose, "verbose", false, "log at debug level")
}

func (c *clientFlags) load() (download.Client, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lvl := "error"
	if c.verbose {
		lvl = "debug"
	}
	if err := logger.Init(lvl, ""); err != nil {
		return nil, err
	}

	var cl config.Client
	if c.client == "" {
		if len(cfg.Clients) != 1 {
			return nil, fmt.Errorf("-client is required when %d clients are configured", len(cfg.Clients))
		}
		cl = cfg.Clients[0]
	} else {
		var ok bool
		if cl, ok = cfg.GetClient(c.client); !ok {
			return nil, fmt.Errorf("unknown client %q", c.client)
		}
	}
	return service.NewClient(cl, remotepath.FromConfig(cfg.RemotePathMappings))
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*jsonrpc.DefaultTimeout)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

// parseQuery turns key=value arguments into an action query.
func parseQuery(args []string) (map[string]string, error) {
	query := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", arg)
		}
		query[key] = value
	}
	return query, nil
}
