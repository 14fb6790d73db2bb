package jsonrpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"net"
	"strings"
	"syscall"
)

// Classify turns a transport-level failure into a *types.ClientError.
// Errors that are already classified pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := asClientError(err); ok {
		return ce
	}
	return types.NewError(kindOf(err), "", err)
}

func kindOf(err error) types.Kind {
	if isTLSFailure(err) {
		return types.KindTlsFailure
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.KindTransientTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTransientTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return types.KindConnectivity
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return types.KindConnectivity
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return types.KindConnectivity
	}

	return types.KindUnknown
}

func isTLSFailure(err error) bool {
	var (
		recordErr  tls.RecordHeaderError
		alertErr   tls.AlertError
		verifyErr  *tls.CertificateVerificationError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &verifyErr),
		errors.As(err, &authErr),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return true
	}
	// net/http reports a plain-HTTP answer to a TLS hello as a string error.
	return strings.Contains(err.Error(), "server gave HTTP response to HTTPS client")
}
