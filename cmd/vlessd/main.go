// Command vlessd runs a VLESS proxy server, accepting clients over raw TCP
// and over a websocket upgrade, and relaying each to its requested
// destination.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iqhive/vlessproxy/internal/server"
	"github.com/iqhive/vlessproxy/internal/transport/byteconn"
	"github.com/iqhive/vlessproxy/internal/transport/wsconn"
)

type config struct {
	listenAddr   string
	wsListenAddr string
	wsPath       string
	dialTimeout  time.Duration
	debug        bool
}

func main() {
	cfg := config{}
	flag.StringVar(&cfg.listenAddr, "listen", "127.0.0.1:34434", "raw TCP listen address")
	flag.StringVar(&cfg.wsListenAddr, "ws-listen", "127.0.0.1:34080", "websocket listen address")
	flag.StringVar(&cfg.wsPath, "ws-path", "/vless", "HTTP path the websocket transport upgrades on")
	flag.DurationVar(&cfg.dialTimeout, "dial-timeout", 10*time.Second, "timeout for dialing the requested destination")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug-level logging")
	flag.Parse()

	logger := newLogger(cfg.debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := server.Options{DialTimeout: cfg.dialTimeout, Logger: logger}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveByteConn(ctx, cfg.listenAddr, opts, logger) })
	g.Go(func() error { return serveWSConn(ctx, cfg.wsListenAddr, cfg.wsPath, opts, logger) })

	if err := g.Wait(); err != nil {
		logger.Error("vlessd exited with error", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		// zap couldn't even build a logger; there's nothing left to log
		// through, so fall back to a no-op rather than crash on startup.
		return zap.NewNop()
	}
	return logger
}

func serveByteConn(ctx context.Context, addr string, opts server.Options, logger *zap.Logger) error {
	ln, err := byteconn.Listen(addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("byte-stream listener started", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			if err := server.HandleByteConn(conn, opts); err != nil {
				logger.Debug("byte connection ended", zap.Error(err))
			}
		}()
	}
}

func serveWSConn(ctx context.Context, addr, path string, opts server.Options, logger *zap.Logger) error {
	mux := http.NewServeMux()
	wsconn.Mount(mux, path, func(conn *wsconn.Conn) {
		if err := server.HandleWSConn(conn, opts); err != nil {
			logger.Debug("websocket connection ended", zap.Error(err))
		}
	})

	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("websocket listener started", zap.String("addr", addr), zap.String("path", path))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
