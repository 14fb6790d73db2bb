// Package download holds the daemon-agnostic client adapter.
package download

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/internal/metrics"
	"github.com/sirrobot01/porlarr/internal/utils"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"strings"
	"sync/atomic"
)

var ErrUnknownAction = errors.New("unknown action")

type State int32

const (
	StateUntested State = iota
	StateTesting
	StateReady
	StateTestFailed
)

func (s State) String() string {
	switch s {
	case StateTesting:
		return "testing"
	case StateReady:
		return "ready"
	case StateTestFailed:
		return "test_failed"
	default:
		return "untested"
	}
}

// Client is the non-generic view of an Adapter.
type Client interface {
	Name() string
	Type() string
	Settings() types.Settings
	State() State
	Test(ctx context.Context) types.ValidationResult
	TestConnection(ctx context.Context) *types.ValidationFailure
	GetItems(ctx context.Context) ([]types.Item, error)
	AddFromMagnet(ctx context.Context, hash, magnetLink string) (string, error)
	AddFromFile(ctx context.Context, hash, filename string, content []byte) (string, error)
	RemoveItem(ctx context.Context, hash string, purgeData bool) error
	RequestAction(ctx context.Context, action string, query map[string]string) (*types.ActionResult, error)
	Status() types.ClientStatus
}

// Adapter drives one daemon endpoint through its capability set. Apart from
// the test state it holds nothing but immutable settings, so its methods may
// be called concurrently.
type Adapter[R any] struct {
	settings types.Settings
	caps     Capabilities[R]
	paths    PathMapper
	state    atomic.Int32
	logger   zerolog.Logger
}

var _ Client = (*Adapter[any])(nil)

func New[R any](settings types.Settings, caps Capabilities[R], paths PathMapper) *Adapter[R] {
	return &Adapter[R]{
		settings: settings,
		caps:     caps,
		paths:    paths,
		logger:   logger.New(cmp.Or(settings.Name, caps.Type)),
	}
}

func (a *Adapter[R]) Name() string {
	return cmp.Or(a.settings.Name, a.caps.Type)
}

func (a *Adapter[R]) Type() string {
	return a.caps.Type
}

func (a *Adapter[R]) displayName() string {
	return cmp.Or(a.caps.DisplayName, a.caps.Type)
}

func (a *Adapter[R]) Settings() types.Settings {
	return a.settings
}

func (a *Adapter[R]) State() State {
	return State(a.state.Load())
}

// Test validates the settings and, when they are valid, queries the daemon.
func (a *Adapter[R]) Test(ctx context.Context) types.ValidationResult {
	res := a.settings.Validate()
	if !res.IsValid() {
		a.state.Store(int32(StateTestFailed))
		return res
	}
	res.Add(a.TestConnection(ctx))
	return res
}

// TestConnection asks the daemon for its version and maps a failure onto the
// settings field the user has to fix.
func (a *Adapter[R]) TestConnection(ctx context.Context) *types.ValidationFailure {
	a.state.Store(int32(StateTesting))

	_, err := a.caps.Proxy.GetServerVersion(ctx)
	if err == nil {
		a.state.Store(int32(StateReady))
		metrics.ConnectionTestsTotal.WithLabelValues(a.Name(), "ok").Inc()
		return nil
	}

	a.state.Store(int32(StateTestFailed))
	kind := types.KindOf(err)
	metrics.ConnectionTestsTotal.WithLabelValues(a.Name(), kind.String()).Inc()
	a.logger.Error().Err(err).Msg("Unable to test connection")
	return a.failureFor(kind, err)
}

func (a *Adapter[R]) failureFor(kind types.Kind, err error) *types.ValidationFailure {
	detail := err.Error()
	var ce *types.ClientError
	if errors.As(err, &ce) {
		detail = ce.Detail()
	}

	switch kind {
	case types.KindAuthentication:
		return &types.ValidationFailure{
			Field:   types.FieldToken,
			Message: "Authentication failed",
		}
	case types.KindConnectivity:
		return &types.ValidationFailure{
			Field:               types.FieldHost,
			Message:             "Unable to connect",
			DetailedDescription: "Please verify the hostname and port.",
		}
	case types.KindTlsFailure:
		return &types.ValidationFailure{
			Field:               types.FieldUseSsl,
			Message:             "Unable to connect through SSL",
			DetailedDescription: fmt.Sprintf("Unable to connect to %s using SSL. Please verify the SSL setting matches the daemon configuration.", a.displayName()),
		}
	case types.KindTransientTimeout:
		return &types.ValidationFailure{
			Field:               types.FieldHost,
			Message:             fmt.Sprintf("Unable to connect to %s", a.displayName()),
			DetailedDescription: detail,
		}
	default:
		return &types.ValidationFailure{
			Message: "Unknown exception: " + detail,
		}
	}
}

// GetItems lists the daemon torrents of the configured category. Records the
// mapper rejects are dropped, and only the first record of a hash is kept.
func (a *Adapter[R]) GetItems(ctx context.Context) ([]types.Item, error) {
	records, err := a.caps.Proxy.ListTorrents(ctx, a.settings.Category)
	if err != nil {
		return nil, err
	}

	items := make([]types.Item, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	skipped := 0
	for _, r := range records {
		item, ok := a.caps.Map(r)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	if skipped > 0 {
		metrics.SkippedRecordsTotal.WithLabelValues(a.Name()).Add(float64(skipped))
		a.logger.Debug().Int("skipped", skipped).Msg("Dropped records without hash")
	}
	return items, nil
}

// AddFromMagnet returns hash when the caller supplied one, the daemon's hash otherwise.
func (a *Adapter[R]) AddFromMagnet(ctx context.Context, hash, magnetLink string) (string, error) {
	infoHash, err := a.caps.Proxy.AddTorrentByMagnet(ctx, magnetLink, a.settings.SavePath, a.settings.Category)
	if err != nil {
		return "", err
	}
	return cmp.Or(hash, infoHash), nil
}

// AddFromFile returns hash when the caller supplied one, the daemon's hash otherwise.
func (a *Adapter[R]) AddFromFile(ctx context.Context, hash, filename string, content []byte) (string, error) {
	infoHash, err := a.caps.Proxy.AddTorrentByFile(ctx, filename, a.settings.SavePath, a.settings.Category, content)
	if err != nil {
		return "", err
	}
	return cmp.Or(hash, infoHash), nil
}

func (a *Adapter[R]) RemoveItem(ctx context.Context, hash string, purgeData bool) error {
	return a.caps.Proxy.RemoveTorrent(ctx, hash, purgeData)
}

// RequestAction runs a daemon-specific side query. Without a token no call is made.
func (a *Adapter[R]) RequestAction(ctx context.Context, action string, query map[string]string) (*types.ActionResult, error) {
	if strings.TrimSpace(a.settings.Token) == "" {
		return types.EmptyActionResult(), nil
	}
	fn, ok := a.caps.Actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return fn(ctx, query)
}

// Status reports where the daemon writes downloads, as seen locally.
func (a *Adapter[R]) Status() types.ClientStatus {
	status := types.ClientStatus{
		IsLocalhost:       utils.IsLocalhost(a.settings.Host),
		OutputRootFolders: []string{},
	}
	if a.settings.SavePath != "" {
		root := a.settings.SavePath
		if a.paths != nil {
			root = a.paths.RemapRemoteToLocal(a.settings.Host, root)
		}
		status.OutputRootFolders = append(status.OutputRootFolders, root)
	}
	return status
}
