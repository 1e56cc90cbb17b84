// Package runner executes one source against one target, translating raw
// Tool stdout or API response bodies into a set of candidate subdomains.
// Subprocess launch and retry/backoff control flow are adapted from the
// teacher's internal/runner.RunCommand; HTTP attempt/retry is new, grounded
// in the same package's logging and error conventions.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"subreckon/internal/domain"
	"subreckon/internal/logx"
	"subreckon/internal/plugin"
	"subreckon/internal/progress"
	"subreckon/internal/workerpool"

	"github.com/google/uuid"
)

// connectTimeout bounds TCP+TLS setup for a single API attempt (spec.md §5).
const connectTimeout = 5 * time.Second

// Runner executes descriptors against one target. One Runner is shared
// across an Orchestrator's fan-out for a single target; it holds no
// per-invocation state.
type Runner struct {
	httpClient *http.Client
	pool       *workerpool.Pool
	sink       progress.Sink
	metrics    MetricsRecorder
	retries    int
	userAgent  string
}

// MetricsRecorder is the narrow slice of *metrics.Metrics this package
// needs. Accepting the interface instead of the concrete type keeps this
// package's only required dependency on the metrics package optional (a nil
// MetricsRecorder is valid).
type MetricsRecorder interface {
	ObserveSource(source, status string, duration time.Duration)
}

// New builds a Runner. retries is R from spec.md §4.3 (API attempts beyond
// the first); userAgent identifies the engine and its version on every API
// request. Metrics are off until a recorder is attached with WithMetrics.
func New(pool *workerpool.Pool, sink progress.Sink, retries int, userAgent string) *Runner {
	if retries < 0 {
		retries = 0
	}
	if sink == nil {
		sink = progress.Noop{}
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
	}
	return &Runner{
		httpClient: &http.Client{Transport: transport},
		pool:       pool,
		sink:       sink,
		retries:    retries,
		userAgent:  userAgent,
	}
}

// WithMetrics attaches a metrics recorder, returning r for chaining.
func (r *Runner) WithMetrics(m MetricsRecorder) *Runner {
	r.metrics = m
	return r
}

// Run executes one descriptor against target, bounded by taskTimeout (the
// per-task scope of spec.md §5). It never returns an error: every failure
// mode is captured as a terminal Status on the returned Result, per
// spec.md §4.3 ("the Runner never raises to the Orchestrator").
func (r *Runner) Run(ctx context.Context, d plugin.Descriptor, target domain.Target, taskTimeout time.Duration) Result {
	runID := uuid.New()
	r.report(runID, d.Name, 0, statusPtr(progress.Running))
	start := time.Now()

	var result Result
	switch d.Kind {
	case plugin.KindTool:
		result = r.runTool(ctx, d, target, taskTimeout)
	case plugin.KindAPI:
		result = r.runAPI(ctx, d, target, taskTimeout)
	default:
		result = Result{Source: d.Name, Status: progress.Failed}
	}

	if r.metrics != nil {
		r.metrics.ObserveSource(d.Name, result.Status.String(), time.Since(start))
	}
	r.report(runID, d.Name, len(result.Subdomains), statusPtr(result.Status))
	return result
}

func statusPtr(s progress.Status) *progress.Status { return &s }

func (r *Runner) report(id uuid.UUID, source string, count int, status *progress.Status) {
	r.sink.Update(progress.Event{RunID: id, Source: source, CountIncrement: count, Status: status})
}

// runTool launches the subprocess with stdin closed, captures stdout line by
// line, and normalizes+validates each line as a candidate domain.
func (r *Runner) runTool(ctx context.Context, d plugin.Descriptor, target domain.Target, timeout time.Duration) Result {
	argv := d.BuildCommand(target.ASCII)
	if len(argv) == 0 {
		logx.Warnf("runner: %s: empty argv", d.Name)
		return Result{Source: d.Name, Status: progress.Failed}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logx.Errorf("runner: %s: stdout pipe: %v", d.Name, err)
		return Result{Source: d.Name, Status: progress.Failed}
	}
	stderr, _ := cmd.StderrPipe()

	names, submitErr := workerpool.Submit(runCtx, r.pool, func() toolOutcome {
		return runAndCollect(cmd, stdout, stderr, d.Name)
	})
	// runCtx.Err() is checked first and takes priority: a killed-by-timeout
	// process can still report a completed Wait() on the result channel,
	// racing against ctx.Done() inside Submit (spec.md §5 cancellation).
	if runCtx.Err() != nil {
		logx.Warnf("runner: %s: timeout", d.Name)
		return Result{Source: d.Name, Status: progress.Timeout}
	}
	if submitErr != nil {
		logx.Errorf("runner: %s: %v", d.Name, submitErr)
		return Result{Source: d.Name, Status: progress.Failed}
	}
	if names.failed {
		return Result{Source: d.Name, Status: progress.Failed}
	}

	set := make(map[string]struct{})
	for _, line := range names.lines {
		candidate := extractCandidate(line)
		norm := domain.Normalize(candidate)
		if domain.IsValid(norm) {
			set[norm] = struct{}{}
		}
	}
	return Result{Source: d.Name, Subdomains: set, Status: progress.Completed}
}

type toolOutcome struct {
	lines  []string
	failed bool
}

// runAndCollect is the blocking half submitted to the worker pool: start the
// process, stream stderr to the log, scan stdout, and wait.
func runAndCollect(cmd *exec.Cmd, stdout, stderr io.ReadCloser, name string) toolOutcome {
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			logx.Warnf("runner: %s: binary not found at run time", name)
		} else {
			logx.Errorf("runner: %s: start: %v", name, err)
		}
		return toolOutcome{failed: true}
	}

	if stderr != nil {
		go func() {
			s := bufio.NewScanner(stderr)
			for s.Scan() {
				logx.Debugf("%s stderr: %s", name, s.Text())
			}
		}()
	}

	var lines []string
	s := bufio.NewScanner(stdout)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	scanErr := s.Err()

	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			logx.Warnf("runner: %s: exit %d", name, exitErr.ExitCode())
		} else {
			// Most likely the process was killed after context cancellation;
			// the caller distinguishes timeout from failure via runCtx.Err().
			logx.Warnf("runner: %s: wait: %v", name, waitErr)
		}
		return toolOutcome{failed: true}
	}
	if scanErr != nil {
		logx.Errorf("runner: %s: scan: %v", name, scanErr)
		return toolOutcome{failed: true}
	}
	return toolOutcome{lines: lines}
}

// extractCandidate strips scheme/path/query from a line that looks like a
// URL (waybackurls/gau emit full URLs, not bare hostnames) and leaves plain
// lines untouched.
func extractCandidate(line string) string {
	line = strings.TrimSpace(line)
	if strings.Contains(line, "://") {
		if u, err := url.Parse(line); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return line
}

// runAPI expands the URL template, attempts the request up to r.retries+1
// times with exponential backoff, and hands each successful body to the
// descriptor's Parse on the worker pool.
func (r *Runner) runAPI(ctx context.Context, d plugin.Descriptor, target domain.Target, timeout time.Duration) Result {
	requestURL := strings.ReplaceAll(d.URLTemplate, "{domain}", target.ASCII)

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Result{Source: d.Name, Status: progress.Timeout}
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		set, err := r.attemptAPI(attemptCtx, d, requestURL)
		cancel()

		if err == nil {
			return Result{Source: d.Name, Subdomains: set, Status: progress.Completed}
		}
		lastErr = err
		if ctx.Err() != nil {
			// The parent (per-task or global) deadline is exhausted; no
			// point sleeping into a retry that can't run.
			return Result{Source: d.Name, Status: progress.Timeout}
		}
		logx.Debugf("runner: %s: attempt %d failed: %v", d.Name, attempt, err)
	}

	logx.Warnf("runner: %s: failed after %d attempts: %v", d.Name, r.retries+1, lastErr)
	return Result{Source: d.Name, Status: progress.Failed}
}

func (r *Runner) attemptAPI(ctx context.Context, d plugin.Descriptor, requestURL string) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")
	if d.Auth != nil {
		applyAuth(req, *d.Auth)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("runner: %s: http status %d", d.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	if d.JSON && !json.Valid(bytes.TrimSpace(body)) {
		return nil, fmt.Errorf("runner: %s: invalid json body", d.Name)
	}

	set, err := workerpool.Submit(ctx, r.pool, func() parseOutcome {
		names, perr := d.Parse(body)
		return parseOutcome{names: names, err: perr}
	})
	if err != nil {
		return nil, err
	}
	if set.err != nil {
		return nil, fmt.Errorf("runner: %s: parse: %w", d.Name, set.err)
	}
	if set.names == nil {
		return nil, fmt.Errorf("runner: %s: parse contract violation: nil result", d.Name)
	}
	return set.names, nil
}

type parseOutcome struct {
	names map[string]struct{}
	err   error
}

// lookupEnv is overridable in tests.
var lookupEnv = os.Getenv

func applyAuth(req *http.Request, auth plugin.AuthHint) {
	if auth.EnvVar != "" {
		if token := lookupEnv(auth.EnvVar); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return
	}
	if auth.HeaderValue != "" {
		req.Header.Set("Authorization", auth.HeaderValue)
	}
}
