package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode controls ANSI colouring of console output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q", s)
	}
}

type consoleStyles struct {
	info, warn, err, debug lipgloss.Style
	arrow, faint           lipgloss.Style
	palette                []lipgloss.Style
}

func newConsoleStyles(r *lipgloss.Renderer) consoleStyles {
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return consoleStyles{
		info:  color("2"),
		warn:  color("3"),
		err:   color("1"),
		debug: color("8"),
		arrow: color("6"),
		faint: color("8"),
		// gray, white, blue, green, magenta, yellow, cyan
		palette: []lipgloss.Style{
			color("8"), color("7"), color("4"), color("2"), color("5"), color("3"), color("6"),
		},
	}
}

// ConsoleHandler is a slog.Handler for humans:
//
//	ℹ  Development redirects loaded
//	  ↪ rewrite /api/ → https://example.com/backend/
type ConsoleHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	styles consoleStyles
	attrs  []slog.Attr
}

// NewConsoleHandler creates a console handler writing to out.
func NewConsoleHandler(out io.Writer, level LogLevel, mode ColorMode) *ConsoleHandler {
	r := lipgloss.NewRenderer(out)
	switch {
	case mode == ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case mode == ColorNever, !isTerminal(out):
		r.SetColorProfile(termenv.Ascii)
	}

	return &ConsoleHandler{
		mu:     &sync.Mutex{},
		out:    out,
		level:  level.slogLevel(),
		styles: newConsoleStyles(r),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(as []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), as...)
	return &next
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *ConsoleHandler) WithGroup(string) slog.Handler {
	return h
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		step   bool
		parts  []string
		fields []string
	)
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case KindKey:
			step = a.Value.String() == KindStep
		case PartsKey:
			if p, ok := a.Value.Any().([]string); ok {
				parts = p
			}
		default:
			fields = append(fields, a.Key+"="+a.Value.String())
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	var line string
	if step && len(parts) > 0 {
		line = h.renderStep(parts)
	} else {
		line = h.renderBox(r.Level, r.Message)
	}
	if len(fields) > 0 {
		line += " " + h.styles.faint.Render(strings.Join(fields, " "))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line+"\n")
	return err
}

func (h *ConsoleHandler) renderBox(level slog.Level, msg string) string {
	switch {
	case level >= slog.LevelError:
		return h.styles.err.Render("✖  " + msg)
	case level >= slog.LevelWarn:
		return h.styles.warn.Render("⚠  " + msg)
	case level >= slog.LevelInfo:
		return h.styles.info.Render("ℹ  " + msg)
	default:
		return h.styles.debug.Render("·  " + msg)
	}
}

func (h *ConsoleHandler) renderStep(parts []string) string {
	colored := make([]string, len(parts))
	for i, p := range parts {
		colored[i] = h.styles.palette[i%len(h.styles.palette)].Render(p)
	}
	return "  " + h.styles.arrow.Render("↪") + " " + strings.Join(colored, " ")
}
