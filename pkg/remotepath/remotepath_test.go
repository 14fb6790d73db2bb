package remotepath

import (
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRemapRemoteToLocal(t *testing.T) {
	svc := New([]Mapping{
		{Host: "seedbox", RemotePath: "/data/", LocalPath: "/mnt/seedbox"},
		{Host: "seedbox", RemotePath: "/data/tv", LocalPath: "/mnt/tv"},
		{Host: "winbox", RemotePath: `D:\Torrents`, LocalPath: "/mnt/win"},
		{Host: "linuxbox", RemotePath: "/srv/dl", LocalPath: `Z:\dl`},
	})

	tests := []struct {
		name, host, path, want string
	}{
		{"prefix", "seedbox", "/data/movies/x", "/mnt/seedbox/movies/x"},
		{"longest wins", "seedbox", "/data/tv/show", "/mnt/tv/show"},
		{"host case", "SEEDBOX", "/data/movies", "/mnt/seedbox/movies"},
		{"exact", "seedbox", "/data", "/mnt/seedbox"},
		{"component boundary", "seedbox", "/database/x", "/database/x"},
		{"other host", "nas", "/data/movies", "/data/movies"},
		{"windows remote", "winbox", `d:\torrents\Show\ep.mkv`, "/mnt/win/Show/ep.mkv"},
		{"windows local", "linuxbox", "/srv/dl/a/b", `Z:\dl\a\b`},
		{"empty", "seedbox", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.RemapRemoteToLocal(tt.host, tt.path))
		})
	}
}

func TestNilServicePassesThrough(t *testing.T) {
	var svc *Service
	assert.Equal(t, "/data/x", svc.RemapRemoteToLocal("h", "/data/x"))
}

func TestFromConfig(t *testing.T) {
	svc := FromConfig([]config.RemotePathMapping{{Host: "h", RemotePath: "/r", LocalPath: "/l"}})
	assert.Equal(t, "/l/x", svc.RemapRemoteToLocal("h", "/r/x"))
}
