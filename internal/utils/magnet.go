package utils

import (
	"bytes"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"github.com/anacrolix/torrent/metainfo"
	"regexp"
	"strings"
)

var hexHashRegex = regexp.MustCompile("^[0-9a-fA-F]{40}$")

// InfoHashFromMagnet returns the lower-case hex v1 info hash of a magnet link.
func InfoHashFromMagnet(magnetLink string) (string, error) {
	m, err := metainfo.ParseMagnetUri(magnetLink)
	if err == nil {
		return m.InfoHash.HexString(), nil
	}
	if hash := extractInfoHash(magnetLink); hash != "" {
		return hash, nil
	}
	return "", fmt.Errorf("invalid magnet link: %w", err)
}

// InfoHashFromTorrent computes the v1 info hash of a .torrent file.
func InfoHashFromTorrent(content []byte) (string, error) {
	mi, err := metainfo.Load(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("invalid torrent file: %w", err)
	}
	return mi.HashInfoBytes().HexString(), nil
}

// TorrentName returns the name stored in the info dictionary, if any.
func TorrentName(content []byte) string {
	mi, err := metainfo.Load(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return ""
	}
	return info.Name
}

func extractInfoHash(magnetLink string) string {
	const prefix = "xt=urn:btih:"
	start := strings.Index(magnetLink, prefix)
	if start == -1 {
		return ""
	}
	start += len(prefix)
	hash := magnetLink[start:]
	if end := strings.IndexAny(hash, "&#"); end != -1 {
		hash = hash[:end]
	}
	hash, _ = processInfoHash(hash)
	return hash
}

func processInfoHash(input string) (string, error) {
	if hexHashRegex.MatchString(input) {
		return strings.ToLower(input), nil
	}
	if len(input) == 32 {
		decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(input))
		if err == nil && len(decoded) == 20 {
			return hex.EncodeToString(decoded), nil
		}
	}
	return "", fmt.Errorf("invalid infohash: %s", input)
}
