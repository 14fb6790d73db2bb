package download

import (
	"context"
	"github.com/sirrobot01/porlarr/pkg/download/types"
)

// PathMapper translates a daemon-side path into the caller's filesystem.
type PathMapper interface {
	RemapRemoteToLocal(host, remotePath string) string
}

// Proxy is the set of remote calls every daemon backend must offer. R is the
// daemon's native torrent record.
type Proxy[R any] interface {
	GetServerVersion(ctx context.Context) (types.VersionInfo, error)
	ListTorrents(ctx context.Context, category string) ([]R, error)
	AddTorrentByMagnet(ctx context.Context, uri, savePath, category string) (string, error)
	AddTorrentByFile(ctx context.Context, name, savePath, category string, raw []byte) (string, error)
	RemoveTorrent(ctx context.Context, hash string, purgeData bool) error
}

// ActionFunc answers a daemon-specific side query.
type ActionFunc func(ctx context.Context, query map[string]string) (*types.ActionResult, error)

// Capabilities describes a daemon backend. New backends are added by
// supplying another Capabilities value.
type Capabilities[R any] struct {
	Type        string
	DisplayName string
	Proxy       Proxy[R]
	Map         func(R) (types.Item, bool)
	Actions     map[string]ActionFunc
}
