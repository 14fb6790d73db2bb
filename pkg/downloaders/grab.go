package downloaders

import (
	"context"
	"errors"
	"fmt"
	"github.com/cavaliergopher/grab/v3"
	"github.com/sirrobot01/porlarr/internal/utils"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// MaxTorrentSize caps the size of an uploaded or fetched .torrent file.
const MaxTorrentSize = 10 << 20

const defaultFileName = "download.torrent"

var ErrTorrentTooLarge = fmt.Errorf("torrent file exceeds %d bytes", MaxTorrentSize)

// sizeCheckInterval is how often a transfer of unknown length is checked
// against MaxTorrentSize.
var sizeCheckInterval = 20 * time.Millisecond

func GetGrabClient() *grab.Client {
	return &grab.Client{
		UserAgent: "porlarr",
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// ReadTorrent reads at most MaxTorrentSize bytes from r and fails with
// ErrTorrentTooLarge when more are available.
func ReadTorrent(r io.Reader) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxTorrentSize+1))
	if err != nil {
		return nil, err
	}
	if len(content) > MaxTorrentSize {
		return nil, ErrTorrentTooLarge
	}
	return content, nil
}

// FetchTorrent downloads a .torrent file into memory and returns its content
// together with a file name. A declared length above MaxTorrentSize is
// refused before the body is read; otherwise the transfer is cancelled as
// soon as it passes the limit.
func FetchTorrent(ctx context.Context, client *grab.Client, rawURL string) ([]byte, string, error) {
	// The destination only names the in-memory transfer; with a filename and
	// NoResume grab skips its HEAD request and filename guessing.
	req, err := grab.NewRequest(defaultFileName, rawURL)
	if err != nil {
		return nil, "", err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req.NoStore = true
	req.NoResume = true
	req.BeforeCopy = func(resp *grab.Response) error {
		if resp.Size() > MaxTorrentSize {
			return ErrTorrentTooLarge
		}
		return nil
	}
	req = req.WithContext(ctx)

	resp := client.Do(req)
	tooLarge := false
	ticker := time.NewTicker(sizeCheckInterval)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-resp.Done:
			break wait
		case <-ticker.C:
			if resp.BytesComplete() > MaxTorrentSize {
				tooLarge = true
				cancel()
			}
		}
	}

	if tooLarge || resp.BytesComplete() > MaxTorrentSize {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, ErrTorrentTooLarge)
	}
	if err := resp.Err(); err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	data, err := resp.Bytes()
	if err != nil {
		return nil, "", err
	}
	return data, fileName(rawURL, data), nil
}

// fileName prefers the URL's base name and falls back to the name in the
// torrent's info dictionary.
func fileName(rawURL string, content []byte) string {
	if u, err := url.Parse(rawURL); err == nil {
		name := path.Base(u.Path)
		if name != "." && name != "/" && name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(utils.TorrentName(content)); name != "" {
		return name + ".torrent"
	}
	return defaultFileName
}

// IsTooLarge reports whether err comes from exceeding MaxTorrentSize.
func IsTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.Is(err, ErrTorrentTooLarge) || errors.As(err, &maxErr)
}
