package commands

import (
	"bytes"
	"fmt"
	"github.com/sirrobot01/porlarr/internal/testutil"
	"github.com/sirrobot01/porlarr/pkg/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func configFor(t *testing.T, fake *testutil.FakePorla) string {
	t.Helper()
	host, port := fake.HostPort(t)
	dir := t.TempDir()
	content := fmt.Sprintf(`{"clients":[{"name":"porla","host":%q,"port":%d,"token":"t"}]}`, host, port)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644))
	return dir
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery([]string{"hash=abc", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hash": "abc", "empty": ""}, q)

	_, err = parseQuery([]string{"novalue"})
	assert.Error(t, err)
}

func TestItemsCommand(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	fake.Result("torrents.list", []any{map[string]any{"info_hash": "aaaa", "state": 4}})
	out := captureStdout(t)

	require.NoError(t, cli.Execute([]string{"items", "-config", configFor(t, fake)}))
	assert.Contains(t, out.String(), `"id": "AAAA"`)
	assert.Contains(t, out.String(), `"status": "completed"`)
}

func TestTestCommandFails(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	fake.On("sys.versions", func(testutil.RecordedCall) testutil.Reply {
		return testutil.Reply{Code: -5, Message: "Unauthorized"}
	})
	out := captureStdout(t)

	err := cli.Execute([]string{"test", "-config", configFor(t, fake)})
	require.Error(t, err)
	assert.Contains(t, out.String(), `"field": "token"`)
}

func TestAddCommandMagnet(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	fake.Result("torrents.add", map[string]any{"info_hash": "daemon"})
	out := captureStdout(t)

	magnet := "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567"
	require.NoError(t, cli.Execute([]string{"add", "-config", configFor(t, fake), magnet}))
	assert.Equal(t, "0123456789ABCDEF0123456789ABCDEF01234567", strings.TrimSpace(out.String()))
}

func TestRemoveCommand(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	fake.Result("torrents.remove", nil)
	captureStdout(t)

	require.NoError(t, cli.Execute([]string{"remove", "-config", configFor(t, fake), "-purge", "ABCD"}))
	calls := fake.CallsTo("torrents.remove")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"info_hashes":["abcd"],"remove_data":true}`, string(calls[0].Params))
}

func TestActionCommand(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	fake.Result("torrents.pause", nil)
	captureStdout(t)

	require.NoError(t, cli.Execute([]string{"action", "-config", configFor(t, fake), "pause", "hash=ABCD"}))
	calls := fake.CallsTo("torrents.pause")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"info_hash":"abcd"}`, string(calls[0].Params))
}

func TestUnknownClientFlag(t *testing.T) {
	fake := testutil.NewFakePorla(t, "")
	err := cli.Execute([]string{"items", "-config", configFor(t, fake), "-client", "other"})
	assert.ErrorContains(t, err, "unknown client")
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t)
	require.NoError(t, cli.Execute([]string{"version"}))
	assert.Contains(t, out.String(), `"version": "dev"`)
}

func TestUnknownCommand(t *testing.T) {
	assert.Error(t, cli.Execute([]string{"frobnicate"}))
}
