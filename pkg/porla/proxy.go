package porla

import (
	"context"
	"encoding/base64"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/download"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/sirrobot01/porlarr/pkg/jsonrpc"
)

// Resource is the JSON-RPC endpoint below the daemon base URL.
const Resource = "/api/v1/jsonrpc"

// ErrCodeUnauthorized is returned by Porla when the JWT is missing or rejected.
const ErrCodeUnauthorized = -5

const (
	methodVersions   = "sys.versions"
	methodList       = "torrents.list"
	methodAdd        = "torrents.add"
	methodRemove     = "torrents.remove"
	methodFiles      = "torrents.files.list"
	methodPause      = "torrents.pause"
	methodResume     = "torrents.resume"
	methodPresetList = "presets.list"
)

// Proxy exposes one typed operation per Porla capability.
type Proxy struct {
	settings  types.Settings
	baseURL   string
	transport *jsonrpc.Transport
	logger    zerolog.Logger
}

var _ download.Proxy[Torrent] = (*Proxy)(nil)

func NewProxy(settings types.Settings, transport *jsonrpc.Transport) *Proxy {
	return &Proxy{
		settings:  settings,
		baseURL:   request.BuildBaseURL(settings.UseSsl, settings.Host, settings.Port, settings.UrlBase),
		transport: transport,
		logger:    logger.New("porla"),
	}
}

func (p *Proxy) GetServerVersion(ctx context.Context) (types.VersionInfo, error) {
	var data versionsResponse
	if err := p.process(ctx, methodVersions, map[string]any{}, &data); err != nil {
		return types.VersionInfo{}, err
	}
	return types.VersionInfo{
		Version:   data.Porla.Version,
		Branch:    data.Porla.Branch,
		Commitish: data.Porla.Commitish,
	}, nil
}

// ListTorrents lists torrents, optionally filtered by category. An empty
// category sends no filter at all.
func (p *Proxy) ListTorrents(ctx context.Context, category string) ([]Torrent, error) {
	params := listParams{}
	if category != "" {
		params.Filters = &listFilters{Category: category}
	}
	var raw json.RawMessage
	if err := p.process(ctx, methodList, params, &raw); err != nil {
		return nil, err
	}
	torrents, err := decodeTorrents(raw, p.logger)
	if err != nil {
		return nil, types.NewError(types.KindUnknown, "unexpected torrents.list payload", err)
	}
	return torrents, nil
}

func (p *Proxy) AddTorrentByMagnet(ctx context.Context, uri, savePath, category string) (string, error) {
	params := addMagnetParams{
		MagnetURI: uri,
		SavePath:  savePath,
		Category:  category,
	}
	return p.add(ctx, params)
}

func (p *Proxy) AddTorrentByFile(ctx context.Context, name, savePath, category string, raw []byte) (string, error) {
	params := addFileParams{
		Name:     name,
		SavePath: savePath,
		Category: category,
		Ti:       base64.StdEncoding.EncodeToString(raw),
	}
	return p.add(ctx, params)
}

func (p *Proxy) add(ctx context.Context, params any) (string, error) {
	var data addResponse
	if err := p.process(ctx, methodAdd, params, &data); err != nil {
		return "", err
	}
	hash := data.InfoHash.String()
	if hash == "" {
		return "", types.NewError(types.KindUnknown, "daemon returned no info hash", nil)
	}
	return hash, nil
}

// RemoveTorrent removes exactly one torrent, purging its data when asked.
func (p *Proxy) RemoveTorrent(ctx context.Context, hash string, purgeData bool) error {
	params := removeParams{
		InfoHashes: []string{hash},
		RemoveData: purgeData,
	}
	return p.process(ctx, methodRemove, params, nil)
}

func (p *Proxy) ListTorrentFiles(ctx context.Context, hash string) ([]File, error) {
	var raw json.RawMessage
	if err := p.process(ctx, methodFiles, hashParams{InfoHash: hash}, &raw); err != nil {
		return nil, err
	}
	files, err := decodeFiles(raw)
	if err != nil {
		return nil, types.NewError(types.KindUnknown, "unexpected torrents.files.list payload", err)
	}
	return files, nil
}

func (p *Proxy) ListPresets(ctx context.Context) (map[string]Preset, error) {
	presets := make(map[string]Preset)
	if err := p.process(ctx, methodPresetList, map[string]any{}, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

func (p *Proxy) PauseTorrent(ctx context.Context, hash string) error {
	return p.process(ctx, methodPause, hashParams{InfoHash: hash}, nil)
}

func (p *Proxy) ResumeTorrent(ctx context.Context, hash string) error {
	return p.process(ctx, methodResume, hashParams{InfoHash: hash}, nil)
}

// process runs one call and decodes its result into out (skipped when nil).
func (p *Proxy) process(ctx context.Context, method string, params any, out any) error {
	resp, err := p.transport.Call(ctx, jsonrpc.Call{
		BaseURL:  p.baseURL,
		Resource: Resource,
		Method:   method,
		Params:   params,
		Token:    p.settings.Token,
	})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return classifyRPCError(resp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return types.NewError(types.KindUnknown, fmt.Sprintf("unexpected %s payload", method), err)
	}
	return nil
}

func classifyRPCError(e *jsonrpc.Error) error {
	kind := types.KindUnknown
	if e.Code == ErrCodeUnauthorized {
		kind = types.KindAuthentication
	}
	return &types.ClientError{
		Kind:    kind,
		Message: e.Message,
		Code:    e.Code,
	}
}
