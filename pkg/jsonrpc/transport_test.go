package jsonrpc

import (
	"context"
	"errors"
	"github.com/goccy/go-json"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTransportCall(t *testing.T) {
	var (
		gotPath   string
		gotHeader http.Header
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":"`+gotBody["id"].(string)+`","result":{"ok":true}}`)
	}))
	t.Cleanup(srv.Close)

	tr := NewTransport()
	resp, err := tr.Call(context.Background(), Call{
		BaseURL:  srv.URL + "/porla",
		Resource: "/api/v1/jsonrpc",
		Method:   "sys.versions",
		Token:    "secret",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))

	assert.Equal(t, "/porla/api/v1/jsonrpc", gotPath)
	assert.Equal(t, "Bearer secret", gotHeader.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "2.0", gotBody["jsonrpc"])
	assert.Equal(t, "sys.versions", gotBody["method"])
	assert.Equal(t, map[string]any{}, gotBody["params"])
	assert.Len(t, gotBody["id"], 36)
	assert.Equal(t, gotBody["id"], resp.ID)
}

func TestTransportRPCErrorIsReturnedInEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":"1","error":{"code":-5,"message":"Unauthorized"}}`)
	}))
	t.Cleanup(srv.Close)

	resp, err := NewTransport().Call(context.Background(), Call{BaseURL: srv.URL, Resource: "/rpc", Method: "m"})
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -5, resp.Error.Code)
}

func TestTransportHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   types.Kind
	}{
		{http.StatusUnauthorized, types.KindAuthentication},
		{http.StatusForbidden, types.KindAuthentication},
		{http.StatusRequestTimeout, types.KindTransientTimeout},
		{http.StatusGatewayTimeout, types.KindTransientTimeout},
		{http.StatusInternalServerError, types.KindUnknown},
		{http.StatusNotFound, types.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			t.Cleanup(srv.Close)

			_, err := NewTransport().Call(context.Background(), Call{BaseURL: srv.URL, Resource: "/rpc", Method: "m"})
			require.Error(t, err)
			assert.Equal(t, tt.want, types.KindOf(err))

			var httpErr *request.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
		})
	}
}

func TestTransportMalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":"1","result":1,"error":{"code":1,"message":"x"}}`)
	}))
	t.Cleanup(srv.Close)

	_, err := NewTransport().Call(context.Background(), Call{BaseURL: srv.URL, Resource: "/rpc", Method: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknown)
}

func TestTransportConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewTransport().Call(context.Background(), Call{BaseURL: "http://" + addr, Resource: "/rpc", Method: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConnectivity)
}

func TestTransportTLSFailure(t *testing.T) {
	t.Run("untrusted certificate", func(t *testing.T) {
		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		t.Cleanup(srv.Close)

		_, err := NewTransport().Call(context.Background(), Call{BaseURL: srv.URL, Resource: "/rpc", Method: "m"})
		require.Error(t, err)
		assert.Equal(t, types.KindTlsFailure, types.KindOf(err))
	})

	t.Run("plain http server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		t.Cleanup(srv.Close)

		base := strings.Replace(srv.URL, "http://", "https://", 1)
		_, err := NewTransport().Call(context.Background(), Call{BaseURL: base, Resource: "/rpc", Method: "m"})
		require.Error(t, err)
		assert.Equal(t, types.KindTlsFailure, types.KindOf(err))
	})
}

func TestTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	tr := NewTransport(request.WithTimeout(50 * time.Millisecond))
	_, err := tr.Call(context.Background(), Call{BaseURL: srv.URL, Resource: "/rpc", Method: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransientTimeout)
}

func TestTransportContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewTransport().Call(ctx, Call{BaseURL: srv.URL, Resource: "/rpc", Method: "m"})
	require.Error(t, err)
	assert.Equal(t, types.KindTransientTimeout, types.KindOf(err))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	already := types.NewError(types.KindAuthentication, "x", nil)
	assert.Same(t, already, Classify(already))

	wrapped := Classify(errors.New("something odd"))
	assert.Equal(t, types.KindUnknown, types.KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "something odd")

	dns := Classify(&net.DNSError{Err: "no such host", Name: "porla.invalid", IsNotFound: true})
	assert.Equal(t, types.KindConnectivity, types.KindOf(dns))

	assert.Equal(t, types.KindTransientTimeout, types.KindOf(Classify(context.DeadlineExceeded)))
}
