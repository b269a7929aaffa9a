package cli

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhender/BayesicFitting/internal/config"
	"github.com/rwhender/BayesicFitting/internal/logging"
	"github.com/rwhender/BayesicFitting/pkg/domain"
)

func TestTracker_Hooks(t *testing.T) {
	tr := NewTracker("run-1")
	assert.Equal(t, domain.StateUninitialized, tr.Snapshot().State)

	h := tr.Hooks()
	ctx := context.Background()
	now := time.Now()
	h.OnRunStart(ctx, &domain.RunEvent{EventBase: domain.EventBase{Timestamp: now}})
	assert.Equal(t, domain.StateInitialized, tr.Snapshot().State)

	h.OnIteration(ctx, &domain.IterationEvent{Iteration: 7, LogZ: -3, Information: 1.5, LowLhood: -9})
	h.OnCheckpoint(ctx, &domain.CheckpointEvent{Iteration: 7})
	s := tr.Snapshot()
	assert.Equal(t, domain.StateIterating, s.State)
	assert.Equal(t, 7, s.Iteration)
	assert.Equal(t, -3.0, s.LogZ)
	assert.Equal(t, 1, s.Checkpoints)
	assert.True(t, s.StartedAt.Equal(now))

	h.OnRunFinish(ctx, &domain.RunEvent{Summary: &domain.Summary{Iterations: 120, LogZ: -2.5}})
	s = tr.Snapshot()
	assert.Equal(t, domain.StateTerminated, s.State)
	assert.Equal(t, 120, s.Iteration)
	assert.Equal(t, -2.5, s.LogZ)
	require.NotNil(t, s.Summary)
}

func TestRouter(t *testing.T) {
	tr := NewTracker("run-2")
	tr.Hooks().OnIteration(context.Background(), &domain.IterationEvent{Iteration: 3})

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "sampled_total", Help: "sampled"})
	reg.MustRegister(c)
	c.Inc()

	srv := httptest.NewServer(NewRouter(tr, reg, logging.NewNop()))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var b bytes.Buffer
		_, err = b.ReadFrom(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, b.String()
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, body = get("/status")
	assert.Equal(t, http.StatusOK, code)
	var st Status
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, "run-2", st.RunID)
	assert.Equal(t, 3, st.Iteration)
	assert.Equal(t, domain.StateIterating, st.State)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "sampled_total 1")

	code, _ = get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBuildStore(t *testing.T) {
	t.Run("Off", func(t *testing.T) {
		cp, err := buildStore(config.Checkpoint{})
		require.NoError(t, err)
		assert.Nil(t, cp.store)
		assert.Nil(t, cp.locker)
		assert.NoError(t, cp.close())
	})

	t.Run("Memory", func(t *testing.T) {
		cp, err := buildStore(config.Checkpoint{Backend: "memory"})
		require.NoError(t, err)
		require.NotNil(t, cp.store)
		require.NotNil(t, cp.locker)
		store := cp.store
		ctx := context.Background()
		require.NoError(t, store.Save(ctx, &domain.Checkpoint{RunID: "a", Iteration: 4}))
		loaded, err := store.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 4, loaded.Iteration)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := buildStore(config.Checkpoint{Backend: "tape"})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("Encrypted file", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)
		t.Setenv("BAYESIC_TEST_KEY", base64.StdEncoding.EncodeToString(key))

		dir := t.TempDir()
		built, err := buildStore(config.Checkpoint{Backend: "file", Path: dir, KeyEnv: "BAYESIC_TEST_KEY"})
		require.NoError(t, err)
		assert.Nil(t, built.locker)
		store := built.store

		ctx := context.Background()
		cp := &domain.Checkpoint{RunID: "enc", Iteration: 9, LogZ: -4.25, Ensemble: 2, Discard: 1}
		require.NoError(t, store.Save(ctx, cp))
		loaded, err := store.Load(ctx, "enc")
		require.NoError(t, err)
		assert.Equal(t, -4.25, loaded.LogZ)

		files, err := filepath.Glob(filepath.Join(dir, "*"))
		require.NoError(t, err)
		require.NotEmpty(t, files)
		raw, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "-4.25")
	})

	t.Run("Bad key", func(t *testing.T) {
		t.Setenv("BAYESIC_TEST_KEY", "not base64!")
		_, err := buildStore(config.Checkpoint{Backend: "memory", KeyEnv: "BAYESIC_TEST_KEY"})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)

		t.Setenv("BAYESIC_TEST_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
		_, err = buildStore(config.Checkpoint{Backend: "memory", KeyEnv: "BAYESIC_TEST_KEY"})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func writeRun(t *testing.T, format string, extra ...string) string {
	t.Helper()
	dir := t.TempDir()

	var csv strings.Builder
	csv.WriteString("x,y\n")
	for k := range 20 {
		x := float64(k) / 2
		fmt.Fprintf(&csv, "%g,%g\n", x, 1.5+0.8*x+0.3*math.Sin(1.7*float64(k)))
	}
	data := filepath.Join(dir, "line.csv")
	require.NoError(t, os.WriteFile(data, []byte(csv.String()), 0o644))

	cfg := fmt.Sprintf(`data:
  path: %s
model:
  name: polynomial
  args: [1]
  priors:
    - kind: uniform
      params: [-10, 10]
distribution:
  name: gauss
  scale: 0.5
sampler:
  ensemble: 20
  seed: 11
output:
  format: %s
%s`, data, format, strings.Join(extra, "\n"))
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRunSample_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := RunSample(context.Background(), SampleOptions{ConfigPath: writeRun(t, "json"), RunID: "cli-json"},
		&stdout, &stderr, logging.NewNop())
	require.NoError(t, err)

	var sum domain.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &sum))
	assert.Equal(t, "cli-json", sum.RunID)
	require.Len(t, sum.Parameters, 2)
	assert.InDelta(t, 1.5, sum.Parameters[0], 0.5)
	assert.InDelta(t, 0.8, sum.Parameters[1], 0.1)
	assert.GreaterOrEqual(t, sum.Iterations, 100)
	assert.NotEmpty(t, stderr.String())
}

func TestRunSample_MarkdownAndOverrides(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := SampleOptions{ConfigPath: writeRun(t, "json"), Format: "markdown", Ensemble: 15, Quiet: true}
	require.NoError(t, RunSample(context.Background(), opts, &stdout, &stderr, logging.NewNop()))

	out := stdout.String()
	assert.Contains(t, out, "## Evidence")
	assert.Contains(t, out, "## Engines")
	assert.Empty(t, stderr.String())
}

func TestRunSample_Errors(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	err := RunSample(ctx, SampleOptions{}, &out, &out, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = RunSample(ctx, SampleOptions{ConfigPath: writeRun(t, "yaml")}, &out, &out, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = RunSample(ctx, SampleOptions{ConfigPath: writeRun(t, "json"), Resume: true}, &out, &out, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = RunSample(ctx, SampleOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}, &out, &out, logging.NewNop())
	assert.Error(t, err)
}

func TestRunSample_RedisCheckpoints(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeRun(t, "json", fmt.Sprintf(`checkpoint:
  backend: redis
  redis_addr: %s
  every: 50
  lease_ttl: 1m
`, mr.Addr()))

	var first, out bytes.Buffer
	opts := SampleOptions{ConfigPath: path, RunID: "cli-redis", Quiet: true}
	require.NoError(t, RunSample(context.Background(), opts, &first, &out, logging.NewNop()))
	assert.True(t, mr.Exists("bayesic:checkpoint:cli-redis"))
	assert.False(t, mr.Exists("bayesic:checkpoint:lock:cli-redis"))

	var resumed bytes.Buffer
	opts.Resume = true
	require.NoError(t, RunSample(context.Background(), opts, &resumed, &out, logging.NewNop()))

	var a, b domain.Summary
	require.NoError(t, json.Unmarshal(first.Bytes(), &a))
	require.NoError(t, json.Unmarshal(resumed.Bytes(), &b))
	assert.Equal(t, a.LogZ, b.LogZ)
	assert.Equal(t, a.Parameters, b.Parameters)
}
