package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ohmyhungrygod/gameclient/internal/config"
	"github.com/ohmyhungrygod/gameclient/internal/session"
	"github.com/ohmyhungrygod/gameclient/internal/statusapi"
	"github.com/ohmyhungrygod/gameclient/internal/store"
	"github.com/ohmyhungrygod/gameclient/internal/transport"
	"github.com/ohmyhungrygod/gameclient/internal/transport/hubws"
	"github.com/ohmyhungrygod/gameclient/internal/transport/natsfeed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	configPath := flag.String("config", "gameclient.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var hist store.SessionStore
	if cfg.HistoryPath != "" {
		s, err := store.NewSQLiteStore(cfg.HistoryPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.HistoryPath).Msg("failed to open session history")
		}
		defer s.Close()
		hist = s
	}

	ctrlCfg := session.DefaultConfig()
	ctrlCfg.HitCooldown = time.Duration(cfg.HitCooldownMS) * time.Millisecond
	ctrlCfg.HeartbeatInterval = time.Duration(cfg.HeartbeatSec) * time.Second
	ctrl := session.New(ctrlCfg, clockwork.NewRealClock(), hist)

	if cfg.Offline {
		if err := ctrl.StartOffline(); err != nil {
			log.Fatal().Err(err).Msg("failed to start offline session")
		}
		log.Info().Msg("running offline")
	} else {
		if err := startNetworked(ctrl, cfg); err != nil {
			log.Fatal().Err(err).Msg("failed to start networked session")
		}
	}

	server := &http.Server{
		Addr:         cfg.StatusAddr,
		Handler:      statusapi.New(ctrl, hist).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("status server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("status server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status server shutdown failed")
	}

	ctrl.Shutdown()
	log.Info().Msg("shutdown complete")
}

// startNetworked dials the configured transport, joins the room and hands
// the connection to the controller.
func startNetworked(ctrl *session.Controller, cfg config.Config) error {
	var conn transport.Connection
	switch cfg.Transport {
	case "websocket":
		c := hubws.Dial(hubws.DefaultConfig(cfg.HubURL))
		if err := waitConnected(c, 30*time.Second); err != nil {
			c.Close()
			return err
		}
		conn = c
	case "nats":
		c, err := natsfeed.Connect(natsfeed.DefaultConfig(cfg.NATSURL))
		if err != nil {
			return err
		}
		conn = c
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := conn.JoinRoom(ctx, cfg.JoinCode, cfg.PlayerName)
	if err != nil {
		conn.Close()
		return fmt.Errorf("join room: %w", err)
	}
	log.Info().
		Str("room_id", res.RoomID.String()).
		Str("player_id", res.PlayerID.String()).
		Str("name", res.Name).
		Msg("joined room")

	if err := ctrl.StartNetworked(conn, res.RoomID, res.PlayerID, res.Name); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// waitConnected blocks until the adapter reports its first Connected state.
func waitConnected(conn transport.Connection, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case st, ok := <-conn.States():
			if !ok {
				return transport.ErrNotConnected
			}
			if st == transport.StateConnected {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("connect: timed out after %s", timeout)
		}
	}
}
