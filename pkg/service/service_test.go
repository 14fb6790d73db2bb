package service

import (
	"context"
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/internal/testutil"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"os"
	"path/filepath"
	"testing"
)

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestNewFromConfig(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	host, port := fake.HostPort(t)
	fake.Result("torrents.list", []any{
		map[string]any{"info_hash": "aaaa", "name": "x", "save_path": "/data", "state": 5},
	})

	cfg := &config.Config{
		Clients: []config.Client{
			{Name: "good", Type: "porla", Host: host, Port: port, Token: "t"},
			{Name: "down", Type: "porla", Host: "127.0.0.1", Port: closedPort(t), Token: "t"},
		},
		RemotePathMappings: []config.RemotePathMapping{
			{Host: host, RemotePath: "/data", LocalPath: "/mnt/data"},
		},
	}
	svc, err := NewFromConfig(cfg)
	require.NoError(t, err)

	all := svc.All()
	require.Len(t, all, 2)
	assert.Equal(t, "down", all[0].Name())
	assert.Equal(t, "good", all[1].Name())

	_, ok := svc.Get("good")
	assert.True(t, ok)
	_, ok = svc.Get("missing")
	assert.False(t, ok)

	items, failures := svc.AllItems(context.Background())
	require.Len(t, items["good"], 1)
	assert.Equal(t, "/mnt/data/x", items["good"][0].OutputPath)
	assert.Equal(t, "good", items["good"][0].Client)
	require.Contains(t, failures, "down")
	assert.ErrorIs(t, failures["down"], types.ErrConnectivity)
}

func TestNewFromConfigRejectsUnknownType(t *testing.T) {
	_, err := NewFromConfig(&config.Config{Clients: []config.Client{{Name: "x", Type: "deluge"}}})
	assert.Error(t, err)
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(config.Client{
		Name: "a", Host: "h", Port: 1, UseSsl: true, SkipTLSVerify: true, UrlBase: "/b", Token: "t", Preset: "p",
		SavePath: "/s", Category: "c", PostImportCategory: "pc", RateLimit: "1/second", Proxy: "socks5://x",
	})
	assert.Equal(t, types.Settings{
		Name: "a", Host: "h", Port: 1, UseSsl: true, SkipTLSVerify: true, UrlBase: "/b", Token: "t", Preset: "p",
		SavePath: "/s", Category: "c", PostImportCategory: "pc", RateLimit: "1/second", Proxy: "socks5://x",
	}, s)
}

func TestTestAll(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	host, port := fake.HostPort(t)
	fake.On("sys.versions", func(testutil.RecordedCall) testutil.Reply {
		return testutil.Reply{Code: -5, Message: "Unauthorized"}
	})

	svc, err := NewFromConfig(&config.Config{Clients: []config.Client{
		{Name: "a", Type: "porla", Host: host, Port: port, Token: "bad"},
	}})
	require.NoError(t, err)

	res := svc.TestAll(context.Background())
	require.Contains(t, res, "a")
	require.Len(t, res["a"].Failures, 1)
	assert.Equal(t, types.FieldToken, res["a"].Failures[0].Field)
}

func TestUpdateReplacesClientsInPlace(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"clients":[{"name":"old","token":"t"}]}`), 0644))
	require.NoError(t, config.SetConfigPath(dir))
	_, err := config.Reload()
	require.NoError(t, err)

	svc := GetService()
	assert.Same(t, svc, GetService())
	_, ok := svc.Get("old")
	require.True(t, ok)

	require.NoError(t, os.WriteFile(file, []byte(`{"clients":[{"name":"new","token":"t"},{"name":"other","token":"t"}]}`), 0644))
	_, err = config.Reload()
	require.NoError(t, err)
	updated, err := Update()
	require.NoError(t, err)

	assert.Same(t, svc, updated)
	_, ok = svc.Get("old")
	assert.False(t, ok)
	names := make([]string, 0)
	for _, c := range svc.All() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"new", "other"}, names)
}
