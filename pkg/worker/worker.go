package worker

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/internal/metrics"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/sirrobot01/porlarr/pkg/service"
	"sync"
	"time"
)

// Poller lists every client on an interval, publishes item gauges and
// announces finished downloads.
type Poller struct {
	svc      *service.Service
	interval time.Duration
	discord  *request.Discord
	logger   zerolog.Logger

	mu     sync.Mutex
	status map[string]map[string]types.Status // client -> hash -> last seen status
	down   map[string]bool                    // clients that failed the last poll
}

func NewPoller(svc *service.Service, interval time.Duration, discord *request.Discord) *Poller {
	return &Poller{
		svc:      svc,
		interval: interval,
		discord:  discord,
		logger:   logger.New("worker"),
		status:   make(map[string]map[string]types.Status),
		down:     make(map[string]bool),
	}
}

func (p *Poller) Start(ctx context.Context) error {
	p.logger.Debug().Dur("interval", p.interval).Msg("Poll Worker started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var pollMutex sync.Mutex
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("Poll Worker stopped")
			return nil
		case <-ticker.C:
			if pollMutex.TryLock() {
				go func() {
					defer pollMutex.Unlock()
					p.Poll(ctx)
				}()
			}
		}
	}
}

// Poll runs a single pass over all clients. Hashes no longer listed are
// forgotten; a client that failed keeps its state until it answers again.
func (p *Poller) Poll(ctx context.Context) {
	items, failures := p.svc.AllItems(ctx)

	for name, err := range failures {
		p.logger.Debug().Err(err).Str("client", name).Msg("Error listing items")
		p.markDown(ctx, name, err)
	}

	for name, list := range items {
		p.markUp(name)
		counts := map[types.Status]int{}
		for _, item := range list {
			counts[item.Status]++
		}
		p.observe(ctx, name, list)
		metrics.DownloadItems.WithLabelValues(name, string(types.StatusDownloading)).Set(float64(counts[types.StatusDownloading]))
		metrics.DownloadItems.WithLabelValues(name, string(types.StatusCompleted)).Set(float64(counts[types.StatusCompleted]))
	}

	p.forgetRemoved(items, failures)
}

// observe replaces the client's status table with the current listing and
// notifies once per item on the Downloading to Completed edge. Items first
// seen as completed are not announced.
func (p *Poller) observe(ctx context.Context, client string, list []types.Item) {
	current := make(map[string]types.Status, len(list))
	var completed []types.Item

	p.mu.Lock()
	previous := p.status[client]
	for _, item := range list {
		if prev, seen := previous[item.ID]; seen && prev == types.StatusDownloading && item.Status == types.StatusCompleted {
			completed = append(completed, item)
		}
		current[item.ID] = item.Status
	}
	p.status[client] = current
	p.mu.Unlock()

	for _, item := range completed {
		p.logger.Info().Str("client", client).Str("hash", item.ID).Msgf("Download completed: %s", item.Title)
		if err := p.discord.Send(ctx, "download_complete", "success", fmt.Sprintf("%s finished on %s", item.Title, client)); err != nil {
			p.logger.Debug().Err(err).Msg("Error sending discord message")
		}
	}
}

// forgetRemoved drops the state of clients that are no longer configured.
func (p *Poller) forgetRemoved(items map[string][]types.Item, failures map[string]error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for client := range p.status {
		_, listed := items[client]
		_, failed := failures[client]
		if !listed && !failed {
			delete(p.status, client)
		}
	}
	for client := range p.down {
		if _, failed := failures[client]; !failed {
			delete(p.down, client)
		}
	}
}

func (p *Poller) markDown(ctx context.Context, client string, cause error) {
	p.mu.Lock()
	already := p.down[client]
	p.down[client] = true
	p.mu.Unlock()
	if already {
		return
	}
	if err := p.discord.Send(ctx, "client_unreachable", "error", fmt.Sprintf("%s: %v", client, cause)); err != nil {
		p.logger.Debug().Err(err).Msg("Error sending discord message")
	}
}

func (p *Poller) markUp(client string) {
	p.mu.Lock()
	delete(p.down, client)
	p.mu.Unlock()
}
