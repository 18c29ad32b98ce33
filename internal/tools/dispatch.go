package tools

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/markup"
	"github.com/Aman-CERP/asrsmcp/internal/query"
	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
)

// Response is the rendered outcome of one tool call.
type Response struct {
	Text    string
	IsError bool
}

// Dispatcher routes tool calls to their handlers.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	recorder telemetry.Recorder
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for call logging.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRecorder reports every call to r.
func WithRecorder(r telemetry.Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher routes through.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs the named tool. It never panics and never returns an
// error: every failure is rendered as an error document with IsError set.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]any) Response {
	start := d.now()
	requestID := generateRequestID()

	d.logger.Debug("tool call started",
		slog.String("request_id", requestID),
		slog.String("tool", name))

	event := telemetry.CallEvent{Tool: name, Timestamp: start}

	result, err := d.invoke(ctx, name, params, &event)
	duration := time.Since(start)
	event.Latency = duration

	var resp Response
	if err != nil {
		event.Outcome = telemetry.OutcomeError
		event.ErrorCode = amerrors.GetCode(err)
		d.logFailure(requestID, name, duration, err)
		resp = Response{Text: markup.RenderError(amerrors.FormatForUser(err)), IsError: true}
	} else {
		event.Outcome = telemetry.OutcomeOK
		event.ResultCount = resultCount(result)
		d.logger.Info("tool call completed",
			slog.String("request_id", requestID),
			slog.String("tool", name),
			slog.Duration("duration", duration),
			slog.Int("result_count", event.ResultCount))
		resp = Response{Text: markup.Render(result)}
	}

	if d.recorder != nil {
		d.recorder.Record(event)
	}
	return resp
}

// invoke resolves and runs the handler, converting panics and untyped
// errors into internal errors carrying the tool name.
func (d *Dispatcher) invoke(ctx context.Context, name string, params map[string]any, event *telemetry.CallEvent) (result any, err error) {
	desc, ok := d.registry.Lookup(name)
	if !ok {
		return nil, amerrors.New(amerrors.ErrCodeUnknownTool,
			fmt.Sprintf("Unknown tool: %s.", name), nil).
			WithDetail("tool", name).
			WithSuggestion("Call list_available_tools to see the available tools.")
	}

	args := newArgs(desc, params)
	if desc.TermsParam != "" {
		event.Terms, _ = args.String(desc.TermsParam)
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("tool handler panicked",
				slog.String("tool", name),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			result = nil
			err = amerrors.InternalError(fmt.Sprintf("Internal error executing %s: %v", name, rec), nil).
				WithDetail("tool", name)
		}
	}()

	result, err = desc.handler(ctx, args)
	if err != nil {
		if _, typed := amerrors.As(err); !typed {
			err = amerrors.InternalError(fmt.Sprintf("Internal error executing %s: %v", name, err), err).
				WithDetail("tool", name)
		}
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) logFailure(requestID, name string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("request_id", requestID),
		slog.String("tool", name),
		slog.Duration("duration", duration),
		amerrors.LogAttr(err),
	}
	if amerrors.GetCategory(err) == amerrors.CategoryInternal {
		d.logger.Error("tool call failed", attrs...)
		return
	}
	d.logger.Info("tool call rejected", attrs...)
}

// resultCount reports how many items a result carries, for telemetry.
func resultCount(v any) int {
	switch r := v.(type) {
	case query.IDListResult:
		return r.Count
	case query.SnippetResult:
		return r.Count
	case query.SimilarResult:
		return r.Count
	case query.StatisticsResult:
		return len(r.TopItems)
	case query.DetailsResult, query.ClassificationResult, query.NarrativeResult:
		return 1
	case hfacs.Taxonomy:
		return len(r.Levels)
	case ToolListing:
		return r.Count
	default:
		return 0
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
