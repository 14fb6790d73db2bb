package download

import (
	"context"
	"errors"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type record struct {
	hash   string
	status types.Status
}

type stubProxy struct {
	versionErr   error
	records      []record
	listErr      error
	listCategory string
	addHash      string
	addErr       error
	removed      []string
}

func (p *stubProxy) GetServerVersion(context.Context) (types.VersionInfo, error) {
	return types.VersionInfo{Version: "1"}, p.versionErr
}

func (p *stubProxy) ListTorrents(_ context.Context, category string) ([]record, error) {
	p.listCategory = category
	return p.records, p.listErr
}

func (p *stubProxy) AddTorrentByMagnet(context.Context, string, string, string) (string, error) {
	return p.addHash, p.addErr
}

func (p *stubProxy) AddTorrentByFile(context.Context, string, string, string, []byte) (string, error) {
	return p.addHash, p.addErr
}

func (p *stubProxy) RemoveTorrent(_ context.Context, hash string, _ bool) error {
	p.removed = append(p.removed, hash)
	return nil
}

func mapRecord(r record) (types.Item, bool) {
	if r.hash == "" {
		return types.Item{}, false
	}
	return types.Item{ID: r.hash, Status: r.status}, true
}

type prefixPaths struct{}

func (prefixPaths) RemapRemoteToLocal(host, remotePath string) string {
	return "/mnt/" + host + remotePath
}

func newStubAdapter(settings types.Settings, proxy *stubProxy) *Adapter[record] {
	return New(settings, Capabilities[record]{
		Type:        "stub",
		DisplayName: "Stub",
		Proxy:       proxy,
		Map:         mapRecord,
		Actions: map[string]ActionFunc{
			"echo": func(_ context.Context, q map[string]string) (*types.ActionResult, error) {
				return &types.ActionResult{Options: []types.ActionOption{{Value: q["v"], Name: q["v"]}}}, nil
			},
		},
	}, prefixPaths{})
}

var validSettings = types.Settings{Name: "stub", Host: "localhost", Port: 1337, Token: "t", SavePath: "/downloads"}

func TestTestConnectionMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		field   string
		message string
		detail  string
	}{
		{
			name:    "authentication",
			err:     types.NewError(types.KindAuthentication, "Unauthorized", nil),
			field:   types.FieldToken,
			message: "Authentication failed",
		},
		{
			name:    "connectivity",
			err:     types.NewError(types.KindConnectivity, "", errors.New("connection refused")),
			field:   types.FieldHost,
			message: "Unable to connect",
			detail:  "Please verify the hostname and port.",
		},
		{
			name:    "tls",
			err:     types.NewError(types.KindTlsFailure, "", errors.New("handshake")),
			field:   types.FieldUseSsl,
			message: "Unable to connect through SSL",
			detail:  "Unable to connect to Stub using SSL. Please verify the SSL setting matches the daemon configuration.",
		},
		{
			name:    "timeout",
			err:     types.NewError(types.KindTransientTimeout, "", errors.New("deadline exceeded")),
			field:   types.FieldHost,
			message: "Unable to connect to Stub",
			detail:  "deadline exceeded",
		},
		{
			name:    "unknown",
			err:     types.NewError(types.KindUnknown, "daemon exploded", nil),
			message: "Unknown exception: daemon exploded",
		},
		{
			name:    "unclassified",
			err:     errors.New("raw"),
			message: "Unknown exception: raw",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newStubAdapter(validSettings, &stubProxy{versionErr: tt.err})
			assert.Equal(t, StateUntested, a.State())

			failure := a.TestConnection(context.Background())
			require.NotNil(t, failure)
			assert.Equal(t, tt.field, failure.Field)
			assert.Equal(t, tt.message, failure.Message)
			assert.Equal(t, tt.detail, failure.DetailedDescription)
			assert.Equal(t, StateTestFailed, a.State())
		})
	}
}

func TestTestConnectionRecovers(t *testing.T) {
	proxy := &stubProxy{versionErr: types.NewError(types.KindConnectivity, "", nil)}
	a := newStubAdapter(validSettings, proxy)

	require.NotNil(t, a.TestConnection(context.Background()))
	assert.Equal(t, StateTestFailed, a.State())

	proxy.versionErr = nil
	assert.Nil(t, a.TestConnection(context.Background()))
	assert.Equal(t, StateReady, a.State())
}

func TestTestValidatesFirst(t *testing.T) {
	proxy := &stubProxy{}
	settings := validSettings
	settings.Port = 0
	a := newStubAdapter(settings, proxy)

	res := a.Test(context.Background())
	require.False(t, res.IsValid())
	assert.Equal(t, types.FieldPort, res.Failures[0].Field)
	assert.Equal(t, StateTestFailed, a.State())
}

func TestGetItemsSkipsAndDedupes(t *testing.T) {
	proxy := &stubProxy{records: []record{
		{hash: "AAAA", status: types.StatusCompleted},
		{hash: ""},
		{hash: "BBBB", status: types.StatusDownloading},
		{hash: "AAAA", status: types.StatusDownloading},
		{hash: ""},
	}}
	settings := validSettings
	settings.Category = "tv"
	a := newStubAdapter(settings, proxy)

	items, err := a.GetItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Item{
		{ID: "AAAA", Status: types.StatusCompleted},
		{ID: "BBBB", Status: types.StatusDownloading},
	}, items)
	assert.Equal(t, "tv", proxy.listCategory)
}

func TestGetItemsPropagatesError(t *testing.T) {
	want := types.NewError(types.KindTransientTimeout, "", nil)
	a := newStubAdapter(validSettings, &stubProxy{listErr: want})

	_, err := a.GetItems(context.Background())
	assert.ErrorIs(t, err, types.ErrTransientTimeout)
}

func TestAddHashPrecedence(t *testing.T) {
	a := newStubAdapter(validSettings, &stubProxy{addHash: "daemon"})
	ctx := context.Background()

	got, err := a.AddFromMagnet(ctx, "", "magnet:?")
	require.NoError(t, err)
	assert.Equal(t, "daemon", got)

	got, err = a.AddFromMagnet(ctx, "caller", "magnet:?")
	require.NoError(t, err)
	assert.Equal(t, "caller", got)

	got, err = a.AddFromFile(ctx, "", "x.torrent", nil)
	require.NoError(t, err)
	assert.Equal(t, "daemon", got)

	got, err = a.AddFromFile(ctx, "caller", "x.torrent", nil)
	require.NoError(t, err)
	assert.Equal(t, "caller", got)
}

func TestAddErrorWinsOverCallerHash(t *testing.T) {
	a := newStubAdapter(validSettings, &stubProxy{addErr: types.NewError(types.KindAuthentication, "", nil)})
	_, err := a.AddFromMagnet(context.Background(), "caller", "magnet:?")
	assert.ErrorIs(t, err, types.ErrAuthentication)
}

func TestRemoveItemDelegates(t *testing.T) {
	proxy := &stubProxy{}
	a := newStubAdapter(validSettings, proxy)
	require.NoError(t, a.RemoveItem(context.Background(), "AAAA", true))
	assert.Equal(t, []string{"AAAA"}, proxy.removed)
}

func TestRequestAction(t *testing.T) {
	a := newStubAdapter(validSettings, &stubProxy{})
	res, err := a.RequestAction(context.Background(), "echo", map[string]string{"v": "x"})
	require.NoError(t, err)
	assert.Equal(t, []types.ActionOption{{Value: "x", Name: "x"}}, res.Options)

	_, err = a.RequestAction(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)

	settings := validSettings
	settings.Token = " "
	a = newStubAdapter(settings, &stubProxy{})
	res, err = a.RequestAction(context.Background(), "nope", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Options)
}

func TestStatus(t *testing.T) {
	a := newStubAdapter(validSettings, &stubProxy{})
	assert.Equal(t, types.ClientStatus{
		IsLocalhost:       true,
		OutputRootFolders: []string{"/mnt/localhost/downloads"},
	}, a.Status())

	settings := validSettings
	settings.Host = "seedbox.lan"
	settings.SavePath = ""
	status := newStubAdapter(settings, &stubProxy{}).Status()
	assert.False(t, status.IsLocalhost)
	assert.Empty(t, status.OutputRootFolders)
}

func TestName(t *testing.T) {
	settings := validSettings
	settings.Name = ""
	a := newStubAdapter(settings, &stubProxy{})
	assert.Equal(t, "stub", a.Name())
	assert.Equal(t, "stub", a.Type())
}
