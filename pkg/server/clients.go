package server

import (
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/internal/utils"
	"github.com/sirrobot01/porlarr/pkg/download"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/sirrobot01/porlarr/pkg/downloaders"
	"io"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const clientKey contextKey = "client"

type clientSummary struct {
	Name   string             `json:"name"`
	Type   string             `json:"type"`
	Host   string             `json:"host"`
	Port   int                `json:"port"`
	State  string             `json:"state"`
	Status types.ClientStatus `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type addResponse struct {
	Hash string `json:"hash"`
}

type magnetRequest struct {
	Magnet string `json:"magnet"`
	Hash   string `json:"hash,omitempty"`
}

type torrentURLRequest struct {
	URL  string `json:"url"`
	Hash string `json:"hash,omitempty"`
}

func (s *Server) clientCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		client, ok := s.svc.Get(name)
		if !ok {
			request.JSONResponse(w, errorResponse{Error: "unknown client " + name}, http.StatusNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), clientKey, client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientFrom(r *http.Request) download.Client {
	return r.Context().Value(clientKey).(download.Client)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clients := s.svc.All()
	out := make([]clientSummary, 0, len(clients))
	for _, c := range clients {
		settings := c.Settings()
		out = append(out, clientSummary{
			Name:   c.Name(),
			Type:   c.Type(),
			Host:   settings.Host,
			Port:   settings.Port,
			State:  c.State().String(),
			Status: c.Status(),
		})
	}
	request.JSONResponse(w, out, http.StatusOK)
}

func (s *Server) testClient(w http.ResponseWriter, r *http.Request) {
	res := clientFrom(r).Test(r.Context())
	if res.Failures == nil {
		res.Failures = []types.ValidationFailure{}
	}
	request.JSONResponse(w, res, http.StatusOK)
}

func (s *Server) clientStatus(w http.ResponseWriter, r *http.Request) {
	request.JSONResponse(w, clientFrom(r).Status(), http.StatusOK)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := clientFrom(r).GetItems(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	request.JSONResponse(w, items, http.StatusOK)
}

// removeItem accepts item IDs as listed (upper case) and sends the lower-case
// hex Porla keys torrents by.
func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(chi.URLParam(r, "hash"))
	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))
	if err := clientFrom(r).RemoveItem(r.Context(), hash, purge); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addMagnet(w http.ResponseWriter, r *http.Request) {
	var req magnetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Magnet) == "" {
		request.JSONResponse(w, errorResponse{Error: "magnet is required"}, http.StatusBadRequest)
		return
	}
	hash := req.Hash
	if hash == "" {
		if h, err := utils.InfoHashFromMagnet(req.Magnet); err == nil {
			hash = strings.ToUpper(h)
		}
	}
	added, err := clientFrom(r).AddFromMagnet(r.Context(), hash, req.Magnet)
	if err != nil {
		s.writeError(w, err)
		return
	}
	request.JSONResponse(w, addResponse{Hash: added}, http.StatusCreated)
}

// addTorrent accepts either a multipart upload in field "file" or a JSON
// body with a URL to fetch the .torrent from.
func (s *Server) addTorrent(w http.ResponseWriter, r *http.Request) {
	var (
		content  []byte
		filename string
		hash     string
		err      error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		content, filename, hash, err = readUpload(r)
	} else {
		var req torrentURLRequest
		if err = json.NewDecoder(r.Body).Decode(&req); err == nil {
			if req.URL == "" {
				err = errors.New("url is required")
			} else {
				hash = req.Hash
				content, filename, err = downloaders.FetchTorrent(r.Context(), s.fetcher, req.URL)
			}
		}
	}
	if err != nil {
		code := http.StatusBadRequest
		if downloaders.IsTooLarge(err) {
			code = http.StatusRequestEntityTooLarge
			// let the client finish writing a slightly oversized body
			_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1<<20))
		}
		request.JSONResponse(w, errorResponse{Error: err.Error()}, code)
		return
	}
	if hash == "" {
		if h, err := utils.InfoHashFromTorrent(content); err == nil {
			hash = strings.ToUpper(h)
		}
	}

	added, err := clientFrom(r).AddFromFile(r.Context(), hash, filename, content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	request.JSONResponse(w, addResponse{Hash: added}, http.StatusCreated)
}

// readUpload streams the multipart body, reading the "file" part and an
// optional "hash" field. Oversized files fail instead of being truncated.
func readUpload(r *http.Request) (content []byte, filename, hash string, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", "", err
	}
	found := false
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", "", err
		}
		switch part.FormName() {
		case "file":
			content, err = downloaders.ReadTorrent(part)
			if err != nil {
				return nil, "", "", err
			}
			filename = part.FileName()
			found = true
		case "hash":
			value, err := io.ReadAll(io.LimitReader(part, 128))
			if err != nil {
				return nil, "", "", err
			}
			hash = strings.TrimSpace(string(value))
		}
		_ = part.Close()
	}
	if !found {
		return nil, "", "", errors.New("file is required")
	}
	return content, filename, hash, nil
}

func (s *Server) requestAction(w http.ResponseWriter, r *http.Request) {
	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	res, err := clientFrom(r).RequestAction(r.Context(), chi.URLParam(r, "action"), query)
	if err != nil {
		if errors.Is(err, download.ErrUnknownAction) {
			request.JSONResponse(w, errorResponse{Error: err.Error()}, http.StatusNotFound)
			return
		}
		s.writeError(w, err)
		return
	}
	request.JSONResponse(w, res, http.StatusOK)
}

// writeError reports daemon failures as gateway errors carrying the classification.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := types.KindOf(err)
	code := http.StatusBadGateway
	if kind == types.KindTransientTimeout {
		code = http.StatusGatewayTimeout
	}
	s.logger.Debug().Err(err).Str("kind", kind.String()).Msg("Daemon call failed")
	request.JSONResponse(w, errorResponse{Error: err.Error(), Kind: kind.String()}, code)
}
