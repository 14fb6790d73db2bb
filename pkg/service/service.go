package service

import (
	"context"
	"fmt"
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/pkg/download"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/sirrobot01/porlarr/pkg/porla"
	"github.com/sirrobot01/porlarr/pkg/remotepath"
	"golang.org/x/sync/errgroup"
	"sort"
	"sync"
)

// Service owns one adapter per configured daemon. Update swaps the whole
// client set at once, so readers see either the old or the new one.
type Service struct {
	mu      sync.RWMutex
	clients map[string]download.Client
	names   []string
}

var (
	instance *Service
	once     sync.Once
)

// NewFromConfig builds the registry without touching the singleton.
func NewFromConfig(cfg *config.Config) (*Service, error) {
	paths := remotepath.FromConfig(cfg.RemotePathMappings)
	s := &Service{
		clients: make(map[string]download.Client, len(cfg.Clients)),
	}
	for _, cl := range cfg.Clients {
		client, err := NewClient(cl, paths)
		if err != nil {
			return nil, err
		}
		s.Add(client)
	}
	return s, nil
}

// NewClient builds the adapter for one configured daemon.
func NewClient(cl config.Client, paths download.PathMapper) (download.Client, error) {
	switch cl.Type {
	case porla.Type:
		return porla.New(SettingsFromConfig(cl), paths), nil
	default:
		return nil, fmt.Errorf("client %s: unsupported type %q", cl.Name, cl.Type)
	}
}

func SettingsFromConfig(cl config.Client) types.Settings {
	return types.Settings{
		Name:               cl.Name,
		Host:               cl.Host,
		Port:               cl.Port,
		UseSsl:             cl.UseSsl,
		SkipTLSVerify:      cl.SkipTLSVerify,
		UrlBase:            cl.UrlBase,
		Token:              cl.Token,
		Preset:             cl.Preset,
		SavePath:           cl.SavePath,
		Category:           cl.Category,
		PostImportCategory: cl.PostImportCategory,
		RateLimit:          cl.RateLimit,
		Proxy:              cl.Proxy,
	}
}

// Add registers client, replacing any client with the same name.
func (s *Service) Add(client download.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients == nil {
		s.clients = make(map[string]download.Client)
	}
	if _, ok := s.clients[client.Name()]; !ok {
		s.names = append(s.names, client.Name())
		sort.Strings(s.names)
	}
	s.clients[client.Name()] = client
}

func (s *Service) Get(name string) (download.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[name]
	return c, ok
}

// All returns the clients ordered by name.
func (s *Service) All() []download.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]download.Client, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.clients[name])
	}
	return out
}

// AllItems lists every client in parallel. A failing client does not hide
// the items of the others; its error is returned keyed by name.
func (s *Service) AllItems(ctx context.Context) (map[string][]types.Item, map[string]error) {
	clients := s.All()
	items := make([][]types.Item, len(clients))
	errs := make([]error, len(clients))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, c := range clients {
		g.Go(func() error {
			items[i], errs[i] = c.GetItems(ctx)
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[string][]types.Item, len(clients))
	failures := make(map[string]error)
	for i, c := range clients {
		if errs[i] != nil {
			failures[c.Name()] = errs[i]
			continue
		}
		result[c.Name()] = items[i]
	}
	return result, failures
}

// TestAll runs Test on every client in parallel.
func (s *Service) TestAll(ctx context.Context) map[string]types.ValidationResult {
	clients := s.All()
	results := make([]types.ValidationResult, len(clients))

	var g errgroup.Group
	for i, c := range clients {
		g.Go(func() error {
			results[i] = c.Test(ctx)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]types.ValidationResult, len(clients))
	for i, c := range clients {
		out[c.Name()] = results[i]
	}
	return out
}

func New() *Service {
	once.Do(func() {
		svc, err := NewFromConfig(config.Get())
		if err != nil {
			panic(err)
		}
		instance = svc
	})
	return instance
}

// GetService returns the singleton instance
func GetService() *Service {
	return New()
}

// Update rebuilds the clients of the singleton from the current
// configuration. Holders of the singleton see the new clients on their next
// call; on error the old clients stay in place.
func Update() (*Service, error) {
	fresh, err := NewFromConfig(config.Get())
	if err != nil {
		return nil, err
	}
	svc := GetService()
	svc.replace(fresh)
	return svc, nil
}

func (s *Service) replace(fresh *Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = fresh.clients
	s.names = fresh.names
}
