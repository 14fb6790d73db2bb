package utils

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base, name, want string
	}{
		{"/downloads", "Movie", "/downloads/Movie"},
		{"/downloads/", "Movie", "/downloads/Movie"},
		{"/", "Movie", "/Movie"},
		{`C:\Downloads`, "Movie", `C:\Downloads\Movie`},
		{`C:\Downloads\`, "Movie", `C:\Downloads\Movie`},
		{`\\nas\share`, "Movie", `\\nas\share\Movie`},
		{"", "Movie", "Movie"},
		{"/downloads", "", "/downloads"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinPath(tt.base, tt.name), "%q + %q", tt.base, tt.name)
	}
}

func TestIsLocalhost(t *testing.T) {
	for _, h := range []string{"localhost", "LOCALHOST", "127.0.0.1", "127.0.1.1", "::1", "[::1]"} {
		assert.True(t, IsLocalhost(h), h)
	}
	for _, h := range []string{"porla", "192.168.1.10", "", "localhost.example.com"} {
		assert.False(t, IsLocalhost(h), h)
	}
}

func TestInfoHashFromMagnet(t *testing.T) {
	hash, err := InfoHashFromMagnet("magnet:?xt=urn:btih:0123456789ABCDEF0123456789ABCDEF01234567&dn=x")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", hash)

	// base32 form of the same hash
	hash, err = InfoHashFromMagnet("magnet:?xt=urn:btih:AERUKZ4JVPG66AJDIVTYTK6N54ASGRLH")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", hash)

	_, err = InfoHashFromMagnet("magnet:?dn=nothing")
	assert.Error(t, err)
}

func TestInfoHashFromTorrent(t *testing.T) {
	content := []byte("d4:infod6:lengthi1e4:name1:x12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee")
	hash, err := InfoHashFromTorrent(content)
	require.NoError(t, err)
	assert.Len(t, hash, 40)
	assert.Equal(t, "x", TorrentName(content))

	_, err = InfoHashFromTorrent([]byte("not bencode"))
	assert.Error(t, err)
	assert.Empty(t, TorrentName([]byte("nope")))
}
