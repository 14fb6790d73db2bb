package porla

import (
	"cmp"
	"context"
	"fmt"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/download"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/sirrobot01/porlarr/pkg/jsonrpc"
	"slices"
	"strings"
)

// Type is the daemon type name used in configuration.
const Type = "porla"

// Action names accepted by RequestAction.
const (
	ActionGetPresets = "getPresets"
	ActionGetFiles   = "getFiles"
	ActionPause      = "pause"
	ActionResume     = "resume"
)

// New builds a ready adapter for one Porla endpoint.
func New(settings types.Settings, paths download.PathMapper, options ...request.ClientOption) *download.Adapter[Torrent] {
	opts := []request.ClientOption{
		request.WithRateLimiter(request.ParseRateLimit(settings.RateLimit)),
		request.WithProxy(settings.Proxy),
		request.WithSkipTLSVerify(settings.SkipTLSVerify),
	}
	transport := jsonrpc.NewTransport(append(opts, options...)...)
	return download.New(settings, NewCapabilities(settings, transport, paths), paths)
}

// NewCapabilities wires the Porla proxy and mapper into the generic adapter.
func NewCapabilities(settings types.Settings, transport *jsonrpc.Transport, paths download.PathMapper) download.Capabilities[Torrent] {
	proxy := NewProxy(settings, transport)
	mapper := StateMapper{
		Client:   cmp.Or(settings.Name, Type),
		Host:     settings.Host,
		Category: settings.Category,
		Paths:    paths,
	}
	return download.Capabilities[Torrent]{
		Type:        Type,
		DisplayName: "Porla",
		Proxy:       proxy,
		Map:         mapper.ToCanonical,
		Actions: map[string]download.ActionFunc{
			ActionGetPresets: proxy.presetsAction,
			ActionGetFiles:   proxy.filesAction,
			ActionPause:      proxy.pauseAction,
			ActionResume:     proxy.resumeAction,
		},
	}
}

// presetsAction lists preset names, sorted, for a settings drop-down.
func (p *Proxy) presetsAction(ctx context.Context, _ map[string]string) (*types.ActionResult, error) {
	presets, err := p.ListPresets(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)

	res := types.EmptyActionResult()
	for _, name := range names {
		res.Options = append(res.Options, types.ActionOption{Value: name, Name: name})
	}
	return res, nil
}

func (p *Proxy) filesAction(ctx context.Context, query map[string]string) (*types.ActionResult, error) {
	hash, err := hashFromQuery(query)
	if err != nil {
		return nil, err
	}
	files, err := p.ListTorrentFiles(ctx, hash)
	if err != nil {
		return nil, err
	}
	res := types.EmptyActionResult()
	for _, f := range files {
		res.Options = append(res.Options, types.ActionOption{
			Value: cmp.Or(f.Path, f.Name),
			Name:  fmt.Sprintf("%s (%.0f%%)", cmp.Or(f.Name, f.Path), f.Progress*100),
		})
	}
	return res, nil
}

func (p *Proxy) pauseAction(ctx context.Context, query map[string]string) (*types.ActionResult, error) {
	hash, err := hashFromQuery(query)
	if err != nil {
		return nil, err
	}
	if err := p.PauseTorrent(ctx, hash); err != nil {
		return nil, err
	}
	return types.EmptyActionResult(), nil
}

func (p *Proxy) resumeAction(ctx context.Context, query map[string]string) (*types.ActionResult, error) {
	hash, err := hashFromQuery(query)
	if err != nil {
		return nil, err
	}
	if err := p.ResumeTorrent(ctx, hash); err != nil {
		return nil, err
	}
	return types.EmptyActionResult(), nil
}

// hashFromQuery reads the hash argument. Porla keys torrents by lower-case hex.
func hashFromQuery(query map[string]string) (string, error) {
	hash := strings.TrimSpace(query["hash"])
	if hash == "" {
		return "", fmt.Errorf("missing hash")
	}
	return strings.ToLower(hash), nil
}
