package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// PrettyHandler is a slog.Handler writing one styled line per message line, using the
// same palette as the reports. Attributes follow the message, muted.
type PrettyHandler struct {
	w      io.Writer
	styles style.Styles
	level  slog.Leveler

	// attrs are formatted when added, under the group current at that time.
	attrs []string
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		w:      w,
		styles: style.NewStyles(output.NewRenderer(w)),
		level:  level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		icon string
		text lipgloss.Style
	)
	switch {
	case r.Level >= slog.LevelError:
		icon, text = style.Cross, h.styles.Failure
	case r.Level >= slog.LevelWarn:
		icon, text = style.Warning, h.styles.Warning
	case r.Level >= slog.LevelInfo:
		text = h.styles.Muted
	default:
		icon, text = style.Dot, h.styles.Muted
	}

	msg := r.Message
	if icon != "" {
		msg = icon + " " + msg
	}

	// Styles pad multi-line blocks to a common width, so lines are rendered one by one.
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = text.Render(line)
	}

	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	attrParts = append(attrParts, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, formatAttr(h.group, attr))
		return true
	})
	if len(attrParts) > 0 {
		last := len(lines) - 1
		lines[last] += " " + h.styles.Muted.Render(strings.Join(attrParts, " "))
	}

	_, err := io.WriteString(h.w, strings.Join(lines, "\n")+"\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]string, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, attr := range attrs {
		next.attrs = append(next.attrs, formatAttr(h.group, attr))
	}
	return &next
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

// formatAttr formats a single attribute for output.
// If a group is set, the key is prefixed with the group name.
func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
