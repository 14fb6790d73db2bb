// Package jsonrpc executes single JSON-RPC exchanges over HTTP and classifies
// transport failures.
package jsonrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/internal/metrics"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every call.
const DefaultTimeout = 15 * time.Second

// Call is everything needed for one exchange.
type Call struct {
	BaseURL  string
	Resource string
	Method   string
	Params   any
	Token    string
}

// Transport is safe for concurrent use; it keeps no per-call state.
type Transport struct {
	client *request.Client
	logger zerolog.Logger
}

func NewTransport(options ...request.ClientOption) *Transport {
	l := logger.New("jsonrpc")
	opts := append([]request.ClientOption{request.WithTimeout(DefaultTimeout), request.WithLogger(l)}, options...)
	return &Transport{
		client: request.New(opts...),
		logger: l,
	}
}

// Call sends one request and returns the parsed envelope. Daemon-level
// errors are returned inside the envelope; transport failures come back as
// *types.ClientError.
func (t *Transport) Call(ctx context.Context, call Call) (*Response, error) {
	rpcReq := NewRequest(call.Method, call.Params)
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, types.NewError(types.KindUnknown, "failed to marshal request", err)
	}

	endpoint, err := request.JoinURL(call.BaseURL, call.Resource)
	if err != nil {
		return nil, types.NewError(types.KindUnknown, "invalid daemon url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.KindUnknown, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+call.Token)

	start := time.Now()
	resp, err := t.exchange(req)
	elapsed := time.Since(start)
	metrics.RPCRequestDuration.WithLabelValues(call.Method).Observe(elapsed.Seconds())
	if err != nil {
		metrics.RPCRequestsTotal.WithLabelValues(call.Method, types.KindOf(err).String()).Inc()
		t.logger.Debug().Err(err).Str("method", call.Method).Str("id", rpcReq.ID).Dur("took", elapsed).Msg("call failed")
		return nil, err
	}

	outcome := "ok"
	if resp.Error != nil {
		outcome = "rpc_error"
	}
	metrics.RPCRequestsTotal.WithLabelValues(call.Method, outcome).Inc()
	if resp.ID != "" && resp.ID != rpcReq.ID {
		t.logger.Debug().Str("method", call.Method).Str("id", rpcReq.ID).Str("response_id", resp.ID).Msg("response id does not match request")
	}
	t.logger.Debug().Str("method", call.Method).Str("id", rpcReq.ID).Dur("took", elapsed).Msg("call finished")
	return resp, nil
}

func (t *Transport) exchange(req *http.Request) (*Response, error) {
	res, err := t.client.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, Classify(err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, classifyStatus(res.StatusCode, raw)
	}

	envelope, err := DecodeResponse(raw)
	if err != nil {
		return nil, types.NewError(types.KindUnknown, "", err)
	}
	return envelope, nil
}

func classifyStatus(code int, body []byte) error {
	httpErr := &request.HTTPError{
		StatusCode: code,
		Message:    fmt.Sprintf("HTTP error %d: %s", code, bytes.TrimSpace(body)),
		Code:       http.StatusText(code),
	}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.KindAuthentication, httpErr.Message, httpErr)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return types.NewError(types.KindTransientTimeout, httpErr.Message, httpErr)
	default:
		return types.NewError(types.KindUnknown, httpErr.Message, httpErr)
	}
}

// asClientError finds a classification made further down the stack.
func asClientError(err error) (*types.ClientError, bool) {
	var ce *types.ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
