// Package ping renders a short runtime report of a docker container for chat
// bots: uptime, CPU, memory, network and block I/O.
package ping

import (
	"context"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
)

const defaultDisplayName = "This bot"

type Pinger struct {
	cfg Config
	cli *client.Client
	now func() time.Time
}

type Option func(*request)

type request struct {
	fixture *Fixture
}

// WithFixture answers from f instead of the runtime API.
func WithFixture(f Fixture) Option {
	return func(r *request) {
		r.fixture = &f
	}
}

// New builds a Pinger. No connection is made until the first request; in Dev
// mode no docker client is created at all. An empty Host falls back to the
// DOCKER_* environment.
func New(cfg Config) (*Pinger, error) {
	p := &Pinger{cfg: cfg, now: time.Now}
	if cfg.Dev {
		return p, nil
	}

	var opts []client.Opt
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "can't create docker client")
	}
	p.cli = cli
	return p, nil
}

func (p *Pinger) Close() error {
	if p.cli != nil {
		return p.cli.Close()
	}
	return nil
}

// Runtime reports on containerName. Fetch and parse failures are rendered into
// the message; the only error returned is *ConfigurationError for an unknown
// style. Empty displayName and style default to "This bot" and markdown.
func (p *Pinger) Runtime(ctx context.Context, containerName, displayName string, style Style, opts ...Option) (string, error) {
	msg, _, err := p.RuntimeRaw(ctx, containerName, displayName, style, opts...)
	return msg, err
}

// RuntimeRaw is Runtime plus the stats document the message was built from,
// nil when the fallback message was rendered.
func (p *Pinger) RuntimeRaw(ctx context.Context, containerName, displayName string, style Style, opts ...Option) (string, *container.StatsResponse, error) {
	if displayName == "" {
		displayName = defaultDisplayName
	}
	if style == "" {
		style = StyleMarkdown
	}

	c := p.collect(ctx, containerName, opts...)

	var msg string
	if c.ok() {
		msg = renderMetrics(displayName, c.metrics)
	} else {
		slog.Warn("runtime information not available", "container", containerName, "error", c.err)
		msg = renderFallback(p.cfg.Runtime, c.err)
	}

	styled, err := applyStyle(msg, style)
	if err != nil {
		return "", nil, err
	}
	return styled, c.stats, nil
}

func (p *Pinger) collect(ctx context.Context, containerName string, opts ...Option) collection {
	inspect, stats, err := p.source(opts...).fetch(ctx, containerName)
	if err != nil {
		return collection{err: err}
	}

	usage, metrics, err := derive(inspect, stats, p.cfg, p.now())
	if err != nil {
		return collection{err: err}
	}

	return collection{metrics: metrics, usage: usage, stats: stats}
}

func (p *Pinger) source(opts ...Option) source {
	var r request
	for _, opt := range opts {
		opt(&r)
	}

	switch {
	case r.fixture != nil:
		return &fixtureSource{fixture: *r.fixture}
	case p.cfg.Dev:
		return &fileSource{dir: p.cfg.FixtureDir}
	default:
		return &dockerSource{cli: p.cli, timeout: p.cfg.Timeout}
	}
}

// GetRuntime is a one-shot Runtime using ConfigFromEnv.
func GetRuntime(ctx context.Context, containerName, displayName string, style Style, opts ...Option) (string, error) {
	cfg := ConfigFromEnv()

	p, err := New(cfg)
	if err != nil {
		if style == "" {
			style = StyleMarkdown
		}
		slog.Warn("runtime information not available", "container", containerName, "error", err)
		return applyStyle(renderFallback(cfg.Runtime, &FetchError{Op: "client", Err: err}), style)
	}
	defer p.Close()

	return p.Runtime(ctx, containerName, displayName, style, opts...)
}
