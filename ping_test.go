package ping

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeAPIVersion = "1.43"

func loadInspect(t *testing.T, path string) *container.InspectResponse {
	t.Helper()

	var inspect container.InspectResponse
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &inspect))
	return &inspect
}

func loadStats(t *testing.T, path string) *container.StatsResponse {
	t.Helper()

	var stats container.StatsResponse
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &stats))
	return &stats
}

func newFixturePinger(t *testing.T) *Pinger {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Dev = true
	cfg.Location = time.UTC
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestRuntimeFixturePairs(t *testing.T) {
	inspects, err := filepath.Glob("testdata/inspect/*.json")
	require.NoError(t, err)
	require.NotEmpty(t, inspects)
	stats, err := filepath.Glob("testdata/stats/*.json")
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	p := newFixturePinger(t)
	displayName := "some bot"

	for _, inspect := range inspects {
		for _, stat := range stats {
			fixture := Fixture{Inspect: loadInspect(t, inspect), Stats: loadStats(t, stat)}

			for _, style := range []Style{StyleMarkdown, StyleHTML} {
				result, err := p.Runtime(context.Background(), "fake", displayName, style, WithFixture(fixture))
				require.NoError(t, err, "%s + %s", inspect, stat)
				assert.Contains(t, result, displayName, "%s + %s", inspect, stat)
				assert.NotContains(t, result, "not available", "%s + %s", inspect, stat)
				assert.NotContains(t, result, openMark)
			}
		}
	}
}

func TestRuntimeMessage(t *testing.T) {
	p := newFixturePinger(t)
	p.now = func() time.Time { return time.Date(2020, 11, 5, 12, 30, 45, 999999999, time.UTC) }

	fixture := Fixture{
		Inspect: loadInspect(t, "testdata/inspect/running.json"),
		Stats:   loadStats(t, "testdata/stats/cgroup1.json"),
	}

	result, err := p.Runtime(context.Background(), "laughing_feistel", "display", StyleMarkdown, WithFixture(fixture))
	require.NoError(t, err)
	assert.Equal(t, "display has been running for `2:00:00` from `2020-11-05 18:30:45 +0000`😄\n"+
		"CPU: `20.00%`\n"+
		"RAM: `1.00GB`\n"+
		"Network RX/TX: `1.50KB/1.00MB`\n"+
		"IO R/W: `2.00KB/0Bytes`\n", result)

	result, err = p.Runtime(context.Background(), "laughing_feistel", "", "", WithFixture(fixture))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "This bot has been running for `"))
}

func TestRuntimeRaw(t *testing.T) {
	p := newFixturePinger(t)
	stats := loadStats(t, "testdata/stats/cgroup2.json")
	fixture := Fixture{Inspect: loadInspect(t, "testdata/inspect/running.json"), Stats: stats}

	result, raw, err := p.RuntimeRaw(context.Background(), "fake", "hello_world", StyleHTML, WithFixture(fixture))
	require.NoError(t, err)
	assert.Contains(t, result, "<pre>")
	assert.Contains(t, result, "IO R/W: <pre>2.00MB/4.00KB</pre>")
	assert.Contains(t, result, "Network RX/TX: <pre>0Bytes/1B</pre>")
	assert.Contains(t, result, "CPU: <pre>10.00%</pre>")
	assert.Same(t, stats, raw)
}

func TestRuntimeFallback(t *testing.T) {
	p := newFixturePinger(t)

	malformed := []struct {
		name    string
		fixture Fixture
	}{
		{"missing stats", Fixture{Inspect: loadInspect(t, "testdata/inspect/running.json")}},
		{"no state", Fixture{Inspect: &container.InspectResponse{}, Stats: loadStats(t, "testdata/stats/cgroup1.json")}},
		{"no interface", Fixture{Inspect: loadInspect(t, "testdata/inspect/running.json"), Stats: &container.StatsResponse{}}},
	}

	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			md, raw, err := p.RuntimeRaw(context.Background(), "fake", "hello_world", StyleMarkdown, WithFixture(tt.fixture))
			require.NoError(t, err)
			assert.Contains(t, md, "not available")
			assert.True(t, strings.HasPrefix(md, "Runtime information is not available outside of docker container.\n`*ping.FetchError"))
			assert.Nil(t, raw)

			html, err := p.Runtime(context.Background(), "fake", "hello_world", StyleHTML, WithFixture(tt.fixture))
			require.NoError(t, err)
			assert.Contains(t, html, "not available")
			assert.Contains(t, html, "<pre>*ping.FetchError")

			_, err = p.Runtime(context.Background(), "fake", "hello_world", "xyz", WithFixture(tt.fixture))
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestRuntimeInvalidStyleOnSuccess(t *testing.T) {
	p := newFixturePinger(t)
	fixture := Fixture{
		Inspect: loadInspect(t, "testdata/inspect/running.json"),
		Stats:   loadStats(t, "testdata/stats/cgroup1.json"),
	}

	result, raw, err := p.RuntimeRaw(context.Background(), "fake", "display", "xyz", WithFixture(fixture))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, result)
	assert.Nil(t, raw)
}

func TestRuntimeCustomInterfaceAndRuntime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dev = true
	cfg.Interface = "eth1"
	cfg.Runtime = "podman pod"
	p, err := New(cfg)
	require.NoError(t, err)

	fixture := Fixture{
		Inspect: loadInspect(t, "testdata/inspect/running.json"),
		Stats:   loadStats(t, "testdata/stats/cgroup2.json"),
	}
	result, err := p.Runtime(context.Background(), "fake", "display", StyleMarkdown, WithFixture(fixture))
	require.NoError(t, err)
	assert.Contains(t, result, "Network RX/TX: `999B/999B`")

	fixture.Stats = loadStats(t, "testdata/stats/cgroup1.json")
	result, err = p.Runtime(context.Background(), "fake", "display", StyleMarkdown, WithFixture(fixture))
	require.NoError(t, err)
	assert.Contains(t, result, "not available outside of podman pod.")
	assert.Contains(t, result, "eth1")
}

func copyFixture(t *testing.T, src, dir, name string) {
	t.Helper()

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestRuntimeDevFiles(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, "testdata/inspect/running.json", dir, inspectFixture)
	copyFixture(t, "testdata/stats/cgroup1.json", dir, statsFixture)

	cfg := DefaultConfig()
	cfg.Dev = true
	cfg.FixtureDir = dir
	p, err := New(cfg)
	require.NoError(t, err)

	result, raw, err := p.RuntimeRaw(context.Background(), "anything", "dev bot", StyleMarkdown)
	require.NoError(t, err)
	assert.Contains(t, result, "dev bot has been running for `")
	require.NotNil(t, raw)
	assert.Equal(t, uint64(1073741824), raw.MemoryStats.Usage)

	require.NoError(t, os.WriteFile(filepath.Join(dir, statsFixture), []byte("{not json"), 0o644))
	result, raw, err = p.RuntimeRaw(context.Background(), "anything", "dev bot", StyleMarkdown)
	require.NoError(t, err)
	assert.Contains(t, result, "not available")
	assert.Contains(t, result, "stats.json")
	assert.Nil(t, raw)
}

func TestGetRuntimeFromEnv(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, "testdata/inspect/restarted.json", dir, inspectFixture)
	copyFixture(t, "testdata/stats/idle.json", dir, statsFixture)

	t.Setenv("PING_ENV", "dev")
	t.Setenv("PING_FIXTURE_DIR", dir)

	result, err := GetRuntime(context.Background(), "ytdl_bot_1", "ytdl", StyleHTML)
	require.NoError(t, err)
	assert.Contains(t, result, "ytdl has been running for <pre>")
	assert.Contains(t, result, "IO R/W: <pre>0B/0B</pre>")

	_, err = GetRuntime(context.Background(), "ytdl_bot_1", "ytdl", "xyz")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func newFakeRuntime(t *testing.T, inspectBody, statsBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v"+fakeAPIVersion+"/containers/{id}/json", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "laughing_feistel" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"No such container: `+r.PathValue("id")+`"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, inspectBody)
	})
	mux.HandleFunc("GET /v"+fakeAPIVersion+"/containers/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("stream"))
		if r.PathValue("id") != "laughing_feistel" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"No such container: `+r.PathValue("id")+`"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, statsBody)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRemotePinger(t *testing.T, srv *httptest.Server) *Pinger {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Host = "tcp://" + srv.Listener.Addr().String()
	cfg.APIVersion = fakeAPIVersion
	cfg.Timeout = 5 * time.Second
	cfg.Location = time.UTC

	p, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRuntimeFromAPI(t *testing.T) {
	srv := newFakeRuntime(t, readFile(t, "testdata/inspect/running.json"), readFile(t, "testdata/stats/cgroup1.json"))
	p := newRemotePinger(t, srv)

	result, raw, err := p.RuntimeRaw(context.Background(), "laughing_feistel", "display", StyleMarkdown)
	require.NoError(t, err)
	assert.Contains(t, result, "display has been running for `")
	assert.Contains(t, result, "CPU: `20.00%`")
	assert.Contains(t, result, "IO R/W: `2.00KB/0Bytes`")
	require.NotNil(t, raw)
	assert.Equal(t, uint32(2), raw.CPUStats.OnlineCPUs)

	result, raw, err = p.RuntimeRaw(context.Background(), "no", "hello_world", StyleHTML)
	require.NoError(t, err)
	assert.Contains(t, result, "Runtime information")
	assert.Contains(t, result, "No such container")
	assert.Nil(t, raw)
}

func TestRuntimeFromAPINonJSON(t *testing.T) {
	srv := newFakeRuntime(t, readFile(t, "testdata/inspect/running.json"), "<html>bad gateway</html>")
	p := newRemotePinger(t, srv)

	result, err := p.Runtime(context.Background(), "laughing_feistel", "display", StyleMarkdown)
	require.NoError(t, err)
	assert.Contains(t, result, "not available")
	assert.Contains(t, result, "can't read api stats")
}

func TestRuntimeUnreachable(t *testing.T) {
	srv := newFakeRuntime(t, "{}", "{}")
	p := newRemotePinger(t, srv)
	srv.Close()

	result, err := p.Runtime(context.Background(), "laughing_feistel", "display", StyleMarkdown)
	require.NoError(t, err)
	assert.Contains(t, result, "not available")

	_, err = p.Runtime(context.Background(), "laughing_feistel", "display", "xyz")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestServeHTTP(t *testing.T) {
	srv := newFakeRuntime(t, readFile(t, "testdata/inspect/running.json"), readFile(t, "testdata/stats/cgroup1.json"))
	p := newRemotePinger(t, srv)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status?container=laughing_feistel&name=bot&style=html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bot has been running for <pre>")

	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status?container=missing", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not available")

	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status?container=laughing_feistel&style=xyz", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mode xyz is invalid.")
}
