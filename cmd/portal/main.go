package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/config"
	"github.com/sgcsalud/portal/server"
	"github.com/sgcsalud/portal/session"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running portal: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Portal stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := newLogger(c)

	storage, cleanup, err := newStorage(c)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer cleanup()

	sess, err := session.New(storage, session.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	client, err := api.New(c.GetBackendURL(), sess, api.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("api.New: %w", err)
	}

	portal, err := server.New(c, sess, client, logger)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: portal}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// newStorage picks session persistence: Redis when REDIS_ADDR is set, the
// data folder otherwise.
func newStorage(c config.Config) (session.Storage, func(), error) {
	if addr := c.GetRedisAddr(); addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		storage, err := session.NewRedisStorage(ctx, addr)
		if err != nil {
			return nil, nil, fmt.Errorf("session.NewRedisStorage: %w", err)
		}
		return storage, func() { _ = storage.Close() }, nil
	}

	storage, err := session.NewFileStorage(c.GetDataFolder())
	if err != nil {
		return nil, nil, fmt.Errorf("session.NewFileStorage: %w", err)
	}
	return storage, func() {}, nil
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server) error {
	log.Printf("Portal listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
