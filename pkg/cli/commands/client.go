package commands

import (
	"errors"
	"flag"
	"fmt"
	"github.com/sirrobot01/porlarr/internal/utils"
	"github.com/sirrobot01/porlarr/pkg/cli"
	"github.com/sirrobot01/porlarr/pkg/downloaders"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	cli.Register(cli.Command{
		Name:        "test",
		Description: "Validate settings and test the connection to a client",
		Execute:     executeTest,
	})
	cli.Register(cli.Command{
		Name:        "items",
		Description: "List the download items of a client",
		Execute:     executeItems,
	})
	cli.Register(cli.Command{
		Name:        "add",
		Description: "Add a magnet link, .torrent file or .torrent URL",
		Execute:     executeAdd,
	})
	cli.Register(cli.Command{
		Name:        "remove",
		Description: "Remove a torrent by hash",
		Execute:     executeRemove,
	})
	cli.Register(cli.Command{
		Name:        "action",
		Description: "Run a client action, e.g. getPresets or getFiles hash=<hash>",
		Execute:     executeAction,
	})
}

func executeTest(args []string) error {
	var cf clientFlags
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := cf.load()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	res := client.Test(ctx)
	if err := printJSON(res); err != nil {
		return err
	}
	if !res.IsValid() {
		return fmt.Errorf("client %s failed validation", client.Name())
	}
	return nil
}

func executeItems(args []string) error {
	var cf clientFlags
	fs := flag.NewFlagSet("items", flag.ExitOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := cf.load()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	items, err := client.GetItems(ctx)
	if err != nil {
		return err
	}
	return printJSON(items)
}

func executeAdd(args []string) error {
	var cf clientFlags
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cf.register(fs)
	hash := fs.String("hash", "", "info hash to report instead of the daemon's")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: porlarr add [options] <magnet|file|url>")
	}
	source := fs.Arg(0)

	client, err := cf.load()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	var added string
	switch {
	case strings.HasPrefix(source, "magnet:"):
		h := *hash
		if h == "" {
			h, _ = utils.InfoHashFromMagnet(source)
		}
		added, err = client.AddFromMagnet(ctx, strings.ToUpper(h), source)
	default:
		var (
			content []byte
			name    string
		)
		if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
			content, name, err = downloaders.FetchTorrent(ctx, downloaders.GetGrabClient(), source)
		} else {
			content, err = os.ReadFile(source)
			name = filepath.Base(source)
		}
		if err != nil {
			return err
		}
		h := *hash
		if h == "" {
			h, _ = utils.InfoHashFromTorrent(content)
		}
		added, err = client.AddFromFile(ctx, strings.ToUpper(h), name, content)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, added)
	return nil
}

func executeRemove(args []string) error {
	var cf clientFlags
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	cf.register(fs)
	purge := fs.Bool("purge", false, "also delete downloaded data")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: porlarr remove [options] <hash>")
	}
	client, err := cf.load()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	return client.RemoveItem(ctx, strings.ToLower(fs.Arg(0)), *purge)
}

func executeAction(args []string) error {
	var cf clientFlags
	fs := flag.NewFlagSet("action", flag.ExitOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: porlarr action [options] <name> [key=value...]")
	}
	query, err := parseQuery(fs.Args()[1:])
	if err != nil {
		return err
	}
	client, err := cf.load()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	res, err := client.RequestAction(ctx, fs.Arg(0), query)
	if err != nil {
		return err
	}
	return printJSON(res)
}
