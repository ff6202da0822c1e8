package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"happy-place-engine/internal/config"
	"happy-place-engine/internal/game"
	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/logging"
	"happy-place-engine/internal/maps"
	"happy-place-engine/internal/server"
)

func main() {
	os.Exit(serve(os.Args[1:]))
}

// serve returns the process exit code. It flushes the logger itself so
// buffered entries survive os.Exit.
func serve(args []string) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "server.yaml", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}

	code := 0
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = log.Sync()
	return code
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := ensureHostKey(cfg.HostKeyPath, log); err != nil {
		return fmt.Errorf("host key: %w", err)
	}

	w, err := loadWorld(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := game.NewLoop(w, game.Options{
		TickRate: cfg.TickRate,
		Camera:   geom.UPt(uint32(cfg.Camera.Width), uint32(cfg.Camera.Height)),
		Log:      log,
	})
	ssh := server.NewSSHServer(cfg.Addr, cfg.HostKeyPath, cfg.IdleTimeout, loop, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return ssh.Start(ctx) })
	if cfg.Watch {
		watcher, err := maps.NewWatcher(log.Named("watch"), cfg.ScenesDir)
		if err != nil {
			log.Warn("scene hot reload disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				return watcher.Run(ctx, func(path string) {
					next, err := loadWorld(cfg, log)
					if err != nil {
						log.Warn("reload failed", zap.String("path", path), zap.Error(err))
						return
					}
					loop.Replace(next)
				})
			})
		}
	}

	log.Info("server started",
		zap.String("addr", cfg.Addr),
		zap.String("scene", w.Map.Name),
		zap.Int("tick_rate", cfg.TickRate),
	)
	return g.Wait()
}

// loadWorld builds the configured scene, or the default courtyard if the
// scenes directory cannot be read or lacks it.
func loadWorld(cfg config.Config, log *zap.Logger) (*game.World, error) {
	all, err := maps.LoadDir(cfg.ScenesDir)
	if err != nil {
		log.Warn("could not load scenes, using default", zap.String("dir", cfg.ScenesDir), zap.Error(err))
		all = nil
	}
	sc, ok := all[cfg.Scene]
	if !ok {
		if all != nil {
			log.Warn("scene not found, using default", zap.String("scene", cfg.Scene))
		}
		sc = maps.DefaultScene()
	}
	for name, s := range all {
		b := s.Bounds()
		log.Debug("scene loaded", zap.String("scene", name), zap.Int("width", b.X), zap.Int("height", b.Y))
	}
	return game.NewWorld(sc, log)
}

func ensureHostKey(path string, log *zap.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	log.Info("generating host key", zap.String("path", path))
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
}
