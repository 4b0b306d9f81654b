package ping

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	inspectFixture = "inspect.json"
	statsFixture   = "stats.json"
)

type source interface {
	fetch(ctx context.Context, containerName string) (*container.InspectResponse, *container.StatsResponse, error)
}

// dockerSource asks the runtime API for /containers/{id}/json and
// /containers/{id}/stats?stream=0. Both requests run concurrently.
type dockerSource struct {
	cli     *client.Client
	timeout time.Duration
}

func (s *dockerSource) fetch(ctx context.Context, containerName string) (*container.InspectResponse, *container.StatsResponse, error) {
	if containerName == "" {
		return nil, nil, &FetchError{Op: "inspect", Err: errors.New("container name is empty")}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		inspect container.InspectResponse
		stats   container.StatsResponse
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := s.cli.ContainerInspect(gctx, containerName)
		if err != nil {
			return &FetchError{Op: "inspect", Err: errors.WithStack(err)}
		}
		inspect = resp
		return nil
	})

	g.Go(func() error {
		resp, err := s.cli.ContainerStats(gctx, containerName, false)
		if err != nil {
			return &FetchError{Op: "stats", Err: errors.WithStack(err)}
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return &FetchError{Op: "stats", Err: errors.Wrap(err, "can't read api stats")}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return &inspect, &stats, nil
}

// fileSource reads inspect.json and stats.json from dir. Development only.
type fileSource struct {
	dir string
}

func (s *fileSource) fetch(_ context.Context, _ string) (*container.InspectResponse, *container.StatsResponse, error) {
	var (
		inspect container.InspectResponse
		stats   container.StatsResponse
	)

	if err := readJSON(filepath.Join(s.dir, inspectFixture), &inspect); err != nil {
		return nil, nil, &FetchError{Op: "inspect", Err: err}
	}
	if err := readJSON(filepath.Join(s.dir, statsFixture), &stats); err != nil {
		return nil, nil, &FetchError{Op: "stats", Err: err}
	}
	return &inspect, &stats, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "can't decode %s", path)
	}
	return nil
}

// fixtureSource hands back documents the caller already holds.
type fixtureSource struct {
	fixture Fixture
}

func (s *fixtureSource) fetch(_ context.Context, _ string) (*container.InspectResponse, *container.StatsResponse, error) {
	if s.fixture.Inspect == nil {
		return nil, nil, &FetchError{Op: "inspect", Err: errors.New("fixture has no inspect document")}
	}
	if s.fixture.Stats == nil {
		return nil, nil, &FetchError{Op: "stats", Err: errors.New("fixture has no stats document")}
	}
	return s.fixture.Inspect, s.fixture.Stats, nil
}
