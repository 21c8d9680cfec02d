// Package sandbox runs untrusted programs inside throwaway docker containers.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOutputLimit caps how much stdout/stderr is kept per run.
const DefaultOutputLimit = 64 * 1024

var (
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "sandbox",
		Name:      "run_duration_seconds",
		Help:      "Duration of sandboxed container runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"image"})

	runTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "sandbox",
		Name:      "run_timeouts_total",
		Help:      "Number of sandboxed runs killed at the deadline",
	}, []string{"image"})

	runFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "sandbox",
		Name:      "run_failures_total",
		Help:      "Number of sandboxed runs that failed before producing a result",
	}, []string{"image"})
)

// Executor runs one command in an isolated environment.
type Executor interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Request describes a single sandboxed run. Workspace is bind mounted at WorkingDir.
type Request struct {
	Image         string
	Cmd           []string
	Env           []string
	Timeout       time.Duration
	Workspace     string
	WorkingDir    string
	MemoryLimitMB int64
	CPUShares     int64
}

// Result summarises a finished run.
type Result struct {
	Stdout           string
	Stderr           string
	ExitCode         int
	Duration         time.Duration
	TimedOut         bool
	MemoryUsageBytes int64
}

// Config groups executor defaults.
type Config struct {
	Host          string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	WorkingDir    string
	OutputLimit   int
	Logger        zerolog.Logger
}

// DockerExecutor implements Executor with the docker engine API.
type DockerExecutor struct {
	client *client.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDockerExecutor constructs a docker backed executor.
func NewDockerExecutor(cfg Config) (*DockerExecutor, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.WorkingDir == "" {
		cfg.WorkingDir = "/workspace"
	}
	if cfg.OutputLimit <= 0 {
		cfg.OutputLimit = DefaultOutputLimit
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerExecutor{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-judge-api/pkg/sandbox"),
		logger: logger.With().Str("component", "docker_sandbox").Logger(),
	}, nil
}

// Run executes the command in a fresh container with networking disabled and removes
// the container afterwards. A run killed at the deadline returns TimedOut=true together
// with an error.
func (e *DockerExecutor) Run(parent context.Context, req Request) (Result, error) {
	image := req.Image
	if image == "" {
		return Result{}, errors.New("image is required")
	}

	ctx, span := e.tracer.Start(parent, "sandbox.run", trace.WithAttributes(
		attribute.String("docker.image", image),
	))
	defer span.End()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = e.cfg.WorkingDir
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:    e.memoryLimitBytes(req),
			CPUShares: e.cpuShares(req),
		},
		NetworkMode:    "none",
		ReadonlyRootfs: false,
	}
	if req.Workspace != "" {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: req.Workspace,
			Target: workingDir,
		})
	}

	containerCfg := &container.Config{
		Image:           image,
		Cmd:             req.Cmd,
		Env:             req.Env,
		WorkingDir:      workingDir,
		AttachStdout:    true,
		AttachStderr:    true,
		NetworkDisabled: true,
	}

	start := time.Now()
	result := Result{}

	resp, err := e.client.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return result, e.fail(span, image, fmt.Errorf("container create: %w", err))
	}

	containerID := resp.ID
	defer e.remove(containerID)

	if err := e.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return result, e.fail(span, image, fmt.Errorf("container start: %w", err))
	}

	statusCh, errCh := e.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		result.ExitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	result.Duration = time.Since(start)
	runDuration.WithLabelValues(image).Observe(result.Duration.Seconds())

	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.TimedOut = true
			runTimeouts.WithLabelValues(image).Inc()
			e.kill(containerID)
			span.SetStatus(codes.Error, "run timed out")
		} else {
			return result, e.fail(span, image, fmt.Errorf("container wait: %w", waitErr))
		}
	}

	// Logs and stats are read with the parent context: ctx may already be expired.
	result.Stdout, result.Stderr = e.readLogs(parent, containerID)
	result.MemoryUsageBytes = e.readMemory(parent, containerID)

	if result.TimedOut {
		return result, fmt.Errorf("execution timed out after %s", timeout)
	}
	return result, nil
}

// Close shuts down the underlying docker client.
func (e *DockerExecutor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

func (e *DockerExecutor) memoryLimitBytes(req Request) int64 {
	limit := req.MemoryLimitMB
	if limit <= 0 {
		limit = e.cfg.MemoryLimitMB
	}
	return limit * 1024 * 1024
}

func (e *DockerExecutor) cpuShares(req Request) int64 {
	if req.CPUShares > 0 {
		return req.CPUShares
	}
	return e.cfg.CPUShares
}

func (e *DockerExecutor) fail(span trace.Span, image string, err error) error {
	runFailures.WithLabelValues(image).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (e *DockerExecutor) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
	}
}

func (e *DockerExecutor) kill(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.client.ContainerKill(ctx, containerID, "KILL"); err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out container")
	}
}

func (e *DockerExecutor) readLogs(ctx context.Context, containerID string) (string, string) {
	reader, err := e.client.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
		return "", ""
	}
	defer reader.Close()

	stdout, stderr, err := splitLogs(reader, e.cfg.OutputLimit)
	if err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to read container logs")
	}
	return stdout, stderr
}

func (e *DockerExecutor) readMemory(ctx context.Context, containerID string) int64 {
	statsCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	stats, err := e.client.ContainerStatsOneShot(statsCtx, containerID)
	if err != nil {
		return 0
	}
	defer stats.Body.Close()

	var data types.StatsJSON
	if err := json.NewDecoder(stats.Body).Decode(&data); err != nil {
		return 0
	}
	if data.MemoryStats.MaxUsage > 0 {
		return int64(data.MemoryStats.MaxUsage)
	}
	return int64(data.MemoryStats.Usage)
}

// limitedBuffer keeps at most limit bytes and silently drops the rest.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func splitLogs(reader io.Reader, limit int) (string, string, error) {
	stdout := &limitedBuffer{limit: limit}
	stderr := &limitedBuffer{limit: limit}
	if _, err := stdcopy.StdCopy(stdout, stderr, reader); err != nil {
		return stdout.buf.String(), stderr.buf.String(), err
	}
	return stdout.buf.String(), stderr.buf.String(), nil
}
