package jsonrpc

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fastjson"
)

const Version = "2.0"

// Request is the outgoing envelope. Params is either a by-name object
// (map or struct) or a positional slice.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

// Error is the daemon-reported failure of a call.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error: %s (code %d)", e.Message, e.Code)
}

// Response carries exactly one of Result or Error.
type Response struct {
	ID     string
	Result json.RawMessage
	Error  *Error
}

// Positional marks params that must be sent as a JSON array.
type Positional []any

func NewRequest(method string, params any) Request {
	if params == nil {
		params = map[string]any{}
	}
	return Request{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
		ID:      uuid.NewString(),
	}
}

// DecodeResponse parses a response envelope, rejecting payloads that carry
// both result and error, or neither.
func DecodeResponse(body []byte) (*Response, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("failed to decode response: expected object, got %s", v.Type())
	}

	resp := &Response{}
	if id := v.Get("id"); id != nil {
		switch id.Type() {
		case fastjson.TypeString:
			resp.ID = string(id.GetStringBytes())
		case fastjson.TypeNumber:
			resp.ID = id.String()
		}
	}

	result := v.Get("result")
	errVal := v.Get("error")
	hasResult := result != nil
	hasError := errVal != nil && errVal.Type() != fastjson.TypeNull

	switch {
	case hasError && hasResult && result.Type() != fastjson.TypeNull:
		return nil, fmt.Errorf("malformed response: both result and error present")
	case hasError:
		var rpcErr Error
		if err := json.Unmarshal(errVal.MarshalTo(nil), &rpcErr); err != nil {
			return nil, fmt.Errorf("failed to decode error payload: %w", err)
		}
		resp.Error = &rpcErr
	case hasResult:
		resp.Result = json.RawMessage(result.MarshalTo(nil))
	default:
		return nil, fmt.Errorf("malformed response: neither result nor error present")
	}
	return resp, nil
}
