// Package remotepath translates paths reported by a remote daemon into paths
// reachable from this host.
package remotepath

import (
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/internal/utils"
	"sort"
	"strings"
)

type Mapping struct {
	Host       string
	RemotePath string
	LocalPath  string
}

// Service holds mappings sorted longest remote path first so the most
// specific mapping wins. It is immutable after New.
type Service struct {
	mappings []Mapping
}

func New(mappings []Mapping) *Service {
	sorted := make([]Mapping, len(mappings))
	copy(sorted, mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(trimSep(sorted[i].RemotePath)) > len(trimSep(sorted[j].RemotePath))
	})
	return &Service{mappings: sorted}
}

func FromConfig(mappings []config.RemotePathMapping) *Service {
	out := make([]Mapping, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, Mapping{Host: m.Host, RemotePath: m.RemotePath, LocalPath: m.LocalPath})
	}
	return New(out)
}

// RemapRemoteToLocal returns remotePath unchanged when no mapping applies.
func (s *Service) RemapRemoteToLocal(host, remotePath string) string {
	if s == nil || remotePath == "" {
		return remotePath
	}
	for _, m := range s.mappings {
		if !strings.EqualFold(m.Host, host) {
			continue
		}
		rest, ok := cutPrefix(remotePath, m.RemotePath)
		if !ok {
			continue
		}
		return convert(utils.JoinPath(m.LocalPath, rest), m.LocalPath)
	}
	return remotePath
}

// cutPrefix matches whole path components only, so /data does not match /database.
func cutPrefix(p, prefix string) (string, bool) {
	prefix = trimSep(prefix)
	if prefix == "" {
		return strings.TrimLeft(p, `/\`), true
	}
	if !hasPrefixFold(p, prefix, utils.IsWindowsPath(prefix)) {
		return "", false
	}
	rest := p[len(prefix):]
	if rest != "" && rest[0] != '/' && rest[0] != '\\' {
		return "", false
	}
	return strings.TrimLeft(rest, `/\`), true
}

func hasPrefixFold(p, prefix string, fold bool) bool {
	if len(p) < len(prefix) {
		return false
	}
	if fold {
		return strings.EqualFold(p[:len(prefix)], prefix)
	}
	return p[:len(prefix)] == prefix
}

// convert rewrites separators of the remapped path to the local style.
func convert(p, local string) string {
	if utils.IsWindowsPath(local) {
		return strings.ReplaceAll(p, "/", `\`)
	}
	return strings.ReplaceAll(p, `\`, "/")
}

func trimSep(p string) string {
	return strings.TrimRight(p, `/\`)
}
