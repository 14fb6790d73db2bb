package porlarr

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sirrobot01/porlarr/internal/config"
	"github.com/sirrobot01/porlarr/internal/logger"
	"github.com/sirrobot01/porlarr/internal/metrics"
	"github.com/sirrobot01/porlarr/internal/request"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"github.com/sirrobot01/porlarr/pkg/server"
	"github.com/sirrobot01/porlarr/pkg/service"
	"github.com/sirrobot01/porlarr/pkg/version"
	"github.com/sirrobot01/porlarr/pkg/worker"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
)

func Start(ctx context.Context) error {

	if umaskStr := os.Getenv("UMASK"); umaskStr != "" {
		umask, err := strconv.ParseInt(umaskStr, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid UMASK value: %s", umaskStr)
		}
		syscall.Umask(int(umask))
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Get()
	if err := logger.Init(cfg.LogLevel, cfg.LogsDir()); err != nil {
		return err
	}
	metrics.Register(prometheus.DefaultRegisterer)

	var wg sync.WaitGroup
	errChan := make(chan error)

	_log := logger.GetDefaultLogger()

	_log.Info().Msgf("Version: %s", version.GetInfo().String())
	_log.Debug().Msgf("Config Loaded: %s", cfg.JsonFile())
	_log.Info().Msgf("Default Log Level: %s", cfg.LogLevel)

	svc := service.GetService()
	logClientTests(_log, svc.TestAll(ctx))

	srv := server.New(svc)
	poller := worker.NewPoller(svc, cfg.GetPollInterval(), request.NewDiscord(cfg.DiscordWebhook))

	safeGo := func(f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					_log.Error().
						Interface("panic", r).
						Str("stack", string(stack)).
						Msg("Recovered from panic in goroutine")

					errChan <- fmt.Errorf("panic: %v", r)
				}
			}()

			if err := f(); err != nil {
				errChan <- err
			}
		}()
	}

	safeGo(func() error {
		return srv.Start(ctx, cfg.Port)
	})

	safeGo(func() error {
		return poller.Start(ctx)
	})

	safeGo(func() error {
		return reloadOnHangup(ctx, _log)
	})

	go func() {
		wg.Wait()
		close(errChan)
	}()

	// The first failure stops the remaining goroutines.
	select {
	case err := <-errChan:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func logClientTests(_log zerolog.Logger, results map[string]types.ValidationResult) {
	for name, res := range results {
		if res.IsValid() {
			_log.Info().Msgf("Client %s is ready", name)
			continue
		}
		for _, f := range res.Failures {
			_log.Warn().Str("field", f.Field).Msgf("Client %s: %s", name, f.Message)
		}
	}
}

// reloadOnHangup re-reads config.json on SIGHUP. The server and poller keep
// their service and pick up the new clients on their next call.
func reloadOnHangup(ctx context.Context, _log zerolog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := reload(ctx, _log); err != nil {
				_log.Error().Err(err).Msg("Config reload failed, keeping current clients")
			}
		}
	}
}

func reload(ctx context.Context, _log zerolog.Logger) error {
	cfg, err := config.Reload()
	if err != nil {
		return err
	}
	svc, err := service.Update()
	if err != nil {
		return err
	}
	_log.Info().Msgf("Config reloaded: %d client(s)", len(cfg.Clients))
	logClientTests(_log, svc.TestAll(ctx))
	return nil
}
