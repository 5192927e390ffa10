package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed JSON log line.
type Entry struct {
	Time      time.Time
	Level     zerolog.Level
	Component string
	Message   string
	Error     string
	Fields    map[string]any
}

var reservedKeys = map[string]bool{
	zerolog.TimestampFieldName: true,
	zerolog.LevelFieldName:     true,
	zerolog.MessageFieldName:   true,
	zerolog.ErrorFieldName:     true,
	zerolog.CallerFieldName:    true,
	"component":                true,
}

// Parse decodes a JSON log line. ok is false for anything else.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{}, false
	}

	e := Entry{Level: zerolog.NoLevel, Fields: map[string]any{}}
	for k, v := range raw {
		s, _ := v.(string)
		switch k {
		case zerolog.TimestampFieldName:
			e.Time, _ = time.Parse(time.RFC3339Nano, s)
		case zerolog.LevelFieldName:
			if lvl, err := zerolog.ParseLevel(s); err == nil {
				e.Level = lvl
			}
		case zerolog.MessageFieldName:
			e.Message = s
		case zerolog.ErrorFieldName:
			e.Error = s
		case "component":
			e.Component = s
		default:
			if !reservedKeys[k] {
				e.Fields[k] = v
			}
		}
	}
	return e, true
}

// Filter keeps lines at or above min. Lines that are not JSON log entries
// are kept.
func Filter(lines []string, min zerolog.Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if e, ok := Parse(line); ok && e.Level != zerolog.NoLevel && e.Level < min {
			continue
		}
		out = append(out, line)
	}
	return out
}

var (
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	componentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF"))
	fieldStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	levelStyles    = map[zerolog.Level]lipgloss.Style{
		zerolog.TraceLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Bold(true),
		zerolog.DebugLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		zerolog.InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		zerolog.WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		zerolog.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		zerolog.FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		zerolog.PanicLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// FormatLine renders a JSON log line as
// "2006-01-02 15:04:05 LEVEL [component] message key=value". Lines that do
// not parse are returned unchanged. color applies lipgloss styling.
func FormatLine(line string, color bool) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}

	render := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}

	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, render(timeStyle, e.Time.Local().Format("2006-01-02 15:04:05")))
	}
	if e.Level != zerolog.NoLevel {
		parts = append(parts, render(levelStyles[e.Level], strings.ToUpper(e.Level.String())))
	}
	if e.Component != "" {
		parts = append(parts, render(componentStyle, "["+e.Component+"]"))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Error != "" {
		parts = append(parts, render(levelStyles[zerolog.ErrorLevel], "error=")+e.Error)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, render(fieldStyle, k+"=")+fmt.Sprint(e.Fields[k]))
	}
	return strings.Join(parts, " ")
}

// FormatLines applies FormatLine to each line.
func FormatLines(lines []string, color bool) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = FormatLine(line, color)
	}
	return out
}
