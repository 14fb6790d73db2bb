package utils

import (
	"net"
	"strings"
)

// IsWindowsPath reports whether p looks like a drive or UNC path.
func IsWindowsPath(p string) bool {
	if strings.HasPrefix(p, `\\`) {
		return true
	}
	return len(p) >= 2 && p[1] == ':' && isLetter(p[0])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// JoinPath appends name to base using the separator style of base. Paths
// reported by a daemon may belong to another OS, so filepath is not used.
func JoinPath(base, name string) string {
	if base == "" {
		return name
	}
	if name == "" {
		return base
	}
	sep := "/"
	if IsWindowsPath(base) {
		sep = `\`
	}
	return strings.TrimRight(base, `/\`) + sep + strings.TrimLeft(name, `/\`)
}

// IsLocalhost reports whether host names the loopback interface.
func IsLocalhost(host string) bool {
	host = strings.TrimSpace(strings.Trim(host, "[]"))
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
