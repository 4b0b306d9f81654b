package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/tgbot-collection/ping"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ping",
		Usage: "report container runtime information for chat bots",
		Commands: []*cli.Command{
			statusCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("ping failed", "error", err)
		os.Exit(1)
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "print the runtime message of one container",
		ArgsUsage: "CONTAINER",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "display name", Value: "This bot"},
			&cli.StringFlag{Name: "style", Usage: "markdown or html", Value: string(ping.StyleMarkdown)},
			&cli.BoolFlag{Name: "raw", Usage: "also print the stats document"},
		},
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one container name is required", 2)
	}

	p, err := ping.New(ping.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer p.Close()

	msg, raw, err := p.RuntimeRaw(c.Context, c.Args().First(), c.String("name"), ping.Style(c.String("style")))
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, msg)

	if c.Bool("raw") && raw != nil {
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(data))
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve /status and /metrics over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", EnvVars: []string{"PING_PORT"}, Value: 8080},
			&cli.StringFlag{Name: "containers", EnvVars: []string{"PING_CONTAINERS"}, Usage: "comma separated containers exported on /metrics"},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	p, err := ping.New(ping.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer p.Close()

	var containers []string
	if raw := c.String("containers"); raw != "" {
		containers = strings.Split(raw, ",")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(ping.NewCollector(p, containers))

	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	}))
	router.Handle("/status", p)

	serverPort := c.Int("port")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%v", serverPort),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	done := make(chan bool)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		<-quit
		slog.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Could not gracefully shutdown the server", "error", err)
			os.Exit(1)
		}
		close(done)
	}()

	slog.Info("Server is ready to handle requests", "port", serverPort, "containers", containers)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not listen on port %d: %w", serverPort, err)
	}

	<-done
	slog.Info("Server stopped")
	return nil
}
