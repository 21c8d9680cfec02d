package judge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/noah-isme/gema-judge-api/pkg/sandbox"
)

const localBackend = "docker"

// Runtime describes how a language is built and run inside the sandbox. Compile is
// optional and runs in its own container; artifacts it leaves in the working directory
// are visible to Run, which reads the test case from input.txt.
type Runtime struct {
	Image    string
	FileName string
	Compile  string
	Run      string
}

// DefaultRuntimes maps execution-service language ids to sandbox runtimes.
var DefaultRuntimes = map[int]Runtime{
	50: {Image: "gcc:13", FileName: "main.c", Compile: "gcc -O2 -o main main.c", Run: "./main < input.txt"},
	54: {Image: "gcc:13", FileName: "main.cpp", Compile: "g++ -O2 -o main main.cpp", Run: "./main < input.txt"},
	60: {Image: "golang:1.22-alpine", FileName: "main.go", Compile: "go build -o main main.go", Run: "./main < input.txt"},
	62: {Image: "eclipse-temurin:21-jdk-alpine", FileName: "Main.java", Compile: "javac Main.java", Run: "java Main < input.txt"},
	63: {Image: "node:20-alpine", FileName: "main.js", Run: "node main.js < input.txt"},
	71: {Image: "python:3.11-alpine", FileName: "main.py", Run: "python main.py < input.txt"},
}

// LocalConfig configures the docker backed judge.
type LocalConfig struct {
	Executor       sandbox.Executor
	Runtimes       map[int]Runtime
	WorkspaceRoot  string
	Timeout        time.Duration
	CompileTimeout time.Duration
	MemoryLimitMB  int64
	CPUShares      int64
	MaxParallel    int
	Logger         zerolog.Logger
}

// LocalJudge implements Client by running requests in the docker sandbox. SubmitBatch
// schedules the runs and returns immediately; PollResults waits for them and forgets
// the whole batch when it returns. At most MaxParallel containers run at once across
// all batches.
type LocalJudge struct {
	cfg    LocalConfig
	logger zerolog.Logger
	slots  *semaphore.Weighted

	mu   sync.Mutex
	runs map[string]*localRun
}

type localRun struct {
	done   chan struct{}
	result Result
	err    error
}

// NewLocalJudge builds a docker backed judge.
func NewLocalJudge(cfg LocalConfig) (*LocalJudge, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("sandbox executor is required")
	}
	if cfg.Runtimes == nil {
		cfg.Runtimes = DefaultRuntimes
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = 30 * time.Second
	}

	return &LocalJudge{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "local_judge").Logger(),
		slots:  semaphore.NewWeighted(int64(cfg.MaxParallel)),
		runs:   make(map[string]*localRun),
	}, nil
}

// SubmitBatch validates languages and starts executing the requests in the background.
func (j *LocalJudge) SubmitBatch(ctx context.Context, requests []Request) ([]string, error) {
	for _, req := range requests {
		if _, ok := j.cfg.Runtimes[req.LanguageID]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedLanguage, req.LanguageID)
		}
	}

	tokens := make([]string, len(requests))
	runs := make([]*localRun, len(requests))

	j.mu.Lock()
	for i := range requests {
		tokens[i] = uuid.NewString()
		runs[i] = &localRun{done: make(chan struct{})}
		j.runs[tokens[i]] = runs[i]
	}
	j.mu.Unlock()

	// Runs outlive the submitting request but keep its values for tracing.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		start := time.Now()
		group := new(errgroup.Group)
		for i := range requests {
			req, run := requests[i], runs[i]
			group.Go(func() error {
				defer close(run.done)
				if err := j.slots.Acquire(runCtx, 1); err != nil {
					run.err = err
					return nil
				}
				defer j.slots.Release(1)
				run.result, run.err = j.execute(runCtx, req)
				return nil
			})
		}
		_ = group.Wait()
		roundTripDuration.WithLabelValues(localBackend, "execute").Observe(time.Since(start).Seconds())
	}()

	return tokens, nil
}

// PollResults waits for every token. Unknown tokens and sandbox failures are reported
// as ErrUnavailable. Tokens are single use: the batch is dropped on every return path,
// and runs still in flight finish without being recorded.
func (j *LocalJudge) PollResults(ctx context.Context, tokens []string) ([]Result, error) {
	defer j.forget(tokens)

	results := make([]Result, 0, len(tokens))
	for _, token := range tokens {
		j.mu.Lock()
		run, ok := j.runs[token]
		j.mu.Unlock()
		if !ok {
			roundTripFailures.WithLabelValues(localBackend, "poll").Inc()
			return nil, fmt.Errorf("%w: unknown token %s", ErrUnavailable, token)
		}

		select {
		case <-run.done:
		case <-ctx.Done():
			roundTripFailures.WithLabelValues(localBackend, "poll").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}

		if run.err != nil {
			roundTripFailures.WithLabelValues(localBackend, "poll").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, run.err)
		}

		result := run.result
		result.Token = token
		results = append(results, result)
	}
	return results, nil
}

func (j *LocalJudge) forget(tokens []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, token := range tokens {
		delete(j.runs, token)
	}
}

func (j *LocalJudge) execute(ctx context.Context, req Request) (Result, error) {
	runtime := j.cfg.Runtimes[req.LanguageID]

	workspace, err := os.MkdirTemp(j.cfg.WorkspaceRoot, "judge-")
	if err != nil {
		return Result{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, runtime.FileName), []byte(req.SourceCode), 0o600); err != nil {
		return Result{}, fmt.Errorf("write source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, "input.txt"), []byte(req.Stdin), 0o600); err != nil {
		return Result{}, fmt.Errorf("write stdin: %w", err)
	}

	if runtime.Compile != "" {
		build, buildErr := j.cfg.Executor.Run(ctx, j.sandboxRequest(runtime, runtime.Compile, workspace, j.cfg.CompileTimeout))
		switch {
		case build.TimedOut:
			return Result{StatusID: StatusCompilationError, Stderr: "compilation timed out", Time: build.Duration.Seconds()}, nil
		case buildErr != nil:
			return Result{}, buildErr
		case build.ExitCode != 0:
			output := build.Stderr
			if output == "" {
				output = build.Stdout
			}
			return Result{StatusID: StatusCompilationError, Stderr: output, Time: build.Duration.Seconds()}, nil
		}
	}

	run, runErr := j.cfg.Executor.Run(ctx, j.sandboxRequest(runtime, runtime.Run, workspace, j.cfg.Timeout))

	result := Result{
		Stdout: run.Stdout,
		Stderr: run.Stderr,
		Time:   run.Duration.Seconds(),
		Memory: run.MemoryUsageBytes / 1024,
	}

	switch {
	case run.TimedOut:
		result.StatusID = StatusTimeLimitExceeded
		if result.Stderr == "" {
			result.Stderr = "time limit exceeded"
		}
	case runErr != nil:
		return Result{}, runErr
	case run.ExitCode != 0:
		result.StatusID = StatusRuntimeError
		if result.Stderr == "" {
			result.Stderr = fmt.Sprintf("process exited with code %d", run.ExitCode)
		}
	case outputsMatch(run.Stdout, req.ExpectedOutput):
		result.StatusID = StatusAccepted
	default:
		result.StatusID = StatusWrongAnswer
	}

	return result, nil
}

func (j *LocalJudge) sandboxRequest(runtime Runtime, command, workspace string, timeout time.Duration) sandbox.Request {
	return sandbox.Request{
		Image:         runtime.Image,
		Cmd:           []string{"sh", "-c", command},
		Timeout:       timeout,
		Workspace:     workspace,
		WorkingDir:    "/workspace",
		MemoryLimitMB: j.cfg.MemoryLimitMB,
		CPUShares:     j.cfg.CPUShares,
	}
}

// outputsMatch compares program output ignoring trailing whitespace on each line and
// trailing blank lines.
func outputsMatch(actual, expected string) bool {
	return normalizeOutput(actual) == normalizeOutput(expected)
}

func normalizeOutput(output string) string {
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
