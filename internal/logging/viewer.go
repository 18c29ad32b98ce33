package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// maxLineBytes bounds one scanned log line.
const maxLineBytes = 1024 * 1024

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// Tool returns the tool attribute, if any.
func (e LogEntry) Tool() string {
	s, _ := e.Attrs["tool"].(string)
	return s
}

// RequestID returns the request_id attribute, if any.
func (e LogEntry) RequestID() string {
	s, _ := e.Attrs["request_id"].(string)
	return s
}

// ViewerConfig configures the log viewer. Zero values disable a filter.
type ViewerConfig struct {
	Level     string         // minimum level
	Tool      string         // exact tool name
	RequestID string         // exact request id
	Pattern   *regexp.Regexp // matched against the raw line
	NoColor   bool
}

// Viewer tails and filters server logs.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
}

// NewViewer creates a new log viewer.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{config: cfg, out: out}
}

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if n < 0 {
		n = 0
	}

	// Window of the last n lines
	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(lines) == n {
			copy(lines, lines[1:])
			lines = lines[:n-1]
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []LogEntry
	for _, line := range lines {
		entry := ParseLine(line)
		if v.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow sends matching entries appended to path after the call.
// Blocks until ctx is cancelled.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			chunk, err := reader.ReadString('\n')
			partial += chunk
			if err != nil {
				// Incomplete line; finish it on the next tick
				break
			}

			line := strings.TrimSuffix(partial, "\n")
			partial = ""
			if line == "" {
				continue
			}

			entry := ParseLine(line)
			if !v.Matches(entry) {
				continue
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// ParseLine parses one JSON log line. Lines that are not JSON objects
// come back with IsValid false and only Raw set.
func ParseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = data["level"].(string)
	entry.Msg, _ = data["msg"].(string)

	entry.Attrs = make(map[string]any, len(data))
	for k, val := range data {
		switch k {
		case "time", "level", "msg":
		default:
			entry.Attrs[k] = val
		}
	}
	return entry
}

// Matches reports whether entry passes every configured filter.
// Unparseable lines only pass when no structured filter is set.
func (v *Viewer) Matches(entry LogEntry) bool {
	c := v.config

	if c.Level != "" || c.Tool != "" || c.RequestID != "" {
		if !entry.IsValid {
			return false
		}
	}
	if c.Level != "" && ParseLevel(entry.Level) < ParseLevel(c.Level) {
		return false
	}
	if c.Tool != "" && entry.Tool() != c.Tool {
		return false
	}
	if c.RequestID != "" && entry.RequestID() != c.RequestID {
		return false
	}
	if c.Pattern != nil && !c.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

// FormatEntry renders entry as one human-readable line. Attributes are
// sorted by key so output is stable.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(entry.Time.Format("15:04:05.000"))
	sb.WriteByte(' ')
	sb.WriteString(v.formatLevel(entry.Level))
	sb.WriteByte(' ')
	sb.WriteString(entry.Msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, formatAttr(entry.Attrs[k]))
	}
	return sb.String()
}

// Print writes entries to the output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

func formatAttr(val any) any {
	switch val.(type) {
	case map[string]any, []any:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
	}
	return val
}

func (v *Viewer) formatLevel(level string) string {
	label := strings.ToUpper(level)
	if len(label) > 5 {
		label = label[:5]
	}
	label = fmt.Sprintf("%-5s", label)

	if v.config.NoColor {
		return label
	}

	switch strings.ToLower(level) {
	case "debug":
		return "\033[90m" + label + "\033[0m" // Gray
	case "info":
		return "\033[32m" + label + "\033[0m" // Green
	case "warn", "warning":
		return "\033[33m" + label + "\033[0m" // Yellow
	case "error":
		return "\033[31m" + label + "\033[0m" // Red
	default:
		return label
	}
}
