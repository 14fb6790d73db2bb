// Package testutil provides a scriptable fake Porla daemon for tests.
package testutil

import (
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

// RecordedCall is one JSON-RPC request seen by the fake daemon.
type RecordedCall struct {
	Method        string
	Params        json.RawMessage
	ID            string
	Authorization string
	Accept        string
}

// Reply is either a result (any JSON value) or an RPC error.
type Reply struct {
	Result  any
	RawBody string // sent verbatim when set
	Code    int
	Message string
	Status  int // HTTP status, 200 when zero
}

// Handler produces the reply for one call.
type Handler func(call RecordedCall) Reply

type FakePorla struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []RecordedCall
}

// NewFakePorla starts a fake daemon serving /api/v1/jsonrpc below urlBase.
func NewFakePorla(t testing.TB, urlBase string) *FakePorla {
	t.Helper()
	f := &FakePorla{handlers: make(map[string]Handler)}

	r := chi.NewRouter()
	r.Post(urlBase+"/api/v1/jsonrpc", f.serveRPC)
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// On registers the handler for method.
func (f *FakePorla) On(method string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// Result is a shortcut for a handler always answering with result.
func (f *FakePorla) Result(method string, result any) {
	f.On(method, func(RecordedCall) Reply { return Reply{Result: result} })
}

func (f *FakePorla) Calls() []RecordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded calls of method.
func (f *FakePorla) CallsTo(method string) []RecordedCall {
	var out []RecordedCall
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// HostPort splits the server address for use in settings.
func (f *FakePorla) HostPort(t testing.TB) (string, int) {
	t.Helper()
	u, err := url.Parse(f.Server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return u.Hostname(), port
}

func (f *FakePorla) serveRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
		ID     string          `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call := RecordedCall{
		Method:        req.Method,
		Params:        req.Params,
		ID:            req.ID,
		Authorization: r.Header.Get("Authorization"),
		Accept:        r.Header.Get("Accept"),
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.handlers[req.Method]
	f.mu.Unlock()

	reply := Reply{Code: -32601, Message: "Method not found"}
	if ok {
		reply = h(call)
	}

	w.Header().Set("Content-Type", "application/json")
	if reply.Status != 0 {
		w.WriteHeader(reply.Status)
	}
	if reply.RawBody != "" {
		_, _ = io.WriteString(w, reply.RawBody)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if reply.Message != "" || reply.Code != 0 {
		resp["error"] = map[string]any{"code": reply.Code, "message": reply.Message}
	} else {
		resp["result"] = reply.Result
	}
	_ = json.NewEncoder(w).Encode(resp)
}
