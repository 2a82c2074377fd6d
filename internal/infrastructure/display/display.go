package display

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
)

// Rows is the number of text lines on the status display.
const Rows = 2

// DefaultColumns is the width used when none is configured.
const DefaultColumns = 16

// Display is a status display with Rows lines.
type Display interface {
	Clear()
	ShowLine(line int, text string)
}

// Frame is the visible content of the display.
type Frame struct {
	Lines [Rows]string `json:"lines"`
}

// screen holds the current frame for a backend.
type screen struct {
	mu      sync.Mutex
	columns int
	frame   Frame
}

func columnsOrDefault(columns int) int {
	if columns <= 0 {
		return DefaultColumns
	}
	return columns
}

// clear blanks the frame and returns the result.
func (s *screen) clear() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = Frame{}
	return s.frame
}

// set writes one line and reports whether the line index was valid.
func (s *screen) set(line int, text string) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line < 0 || line >= Rows {
		return s.frame, false
	}
	s.frame.Lines[line] = truncate(text, s.columns)
	return s.frame, true
}

func (s *screen) current() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// truncate cuts text to at most columns runes.
func truncate(text string, columns int) string {
	if utf8.RuneCountInString(text) <= columns {
		return text
	}
	runes := []rune(text)
	return string(runes[:columns])
}

// Log writes frames to a structured logger.
type Log struct {
	screen
	logger *slog.Logger
}

// NewLog creates a Log display.
func NewLog(logger *slog.Logger, columns int) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{screen: screen{columns: columnsOrDefault(columns)}, logger: logger}
}

// Clear blanks the display.
func (d *Log) Clear() {
	d.clear()
}

// ShowLine replaces one line and logs the resulting frame.
func (d *Log) ShowLine(line int, text string) {
	f, ok := d.set(line, text)
	if !ok {
		d.logger.Warn("display line out of range", "line", line)
		return
	}
	d.logger.Info("display", "line1", f.Lines[0], "line2", f.Lines[1])
}

// Console draws frames as a box on a terminal.
type Console struct {
	screen
	out   io.Writer
	style lipgloss.Style
	wmu   sync.Mutex
}

// NewConsole creates a Console display writing to out.
func NewConsole(out io.Writer, columns int) *Console {
	c := &Console{screen: screen{columns: columnsOrDefault(columns)}, out: out}
	c.style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Foreground(lipgloss.Color("229")).
		Padding(0, 1).
		Width(c.columns + 2)
	return c
}

// Clear blanks the display.
func (d *Console) Clear() {
	d.draw(d.clear())
}

// ShowLine replaces one line and redraws.
func (d *Console) ShowLine(line int, text string) {
	f, ok := d.set(line, text)
	if !ok {
		return
	}
	d.draw(f)
}

// Render returns the box for a frame.
func (d *Console) Render(f Frame) string {
	return d.style.Render(lipgloss.JoinVertical(lipgloss.Left, f.Lines[0], f.Lines[1]))
}

func (d *Console) draw(f Frame) {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	fmt.Fprintln(d.out, d.Render(f))
}

// Broadcaster receives every frame shown on a Hub display.
type Broadcaster interface {
	BroadcastFrame(f Frame)
}

// Hub forwards frames to a Broadcaster and remembers the last one for new
// subscribers.
type Hub struct {
	screen
	bmu sync.RWMutex
	out Broadcaster
}

// NewHub creates a Hub display. The broadcaster may be attached later.
func NewHub(columns int) *Hub {
	return &Hub{screen: screen{columns: columnsOrDefault(columns)}}
}

// Attach sets the broadcaster.
func (d *Hub) Attach(b Broadcaster) {
	d.bmu.Lock()
	d.out = b
	d.bmu.Unlock()
}

// Clear blanks the display.
func (d *Hub) Clear() {
	d.publish(d.clear())
}

// ShowLine replaces one line and broadcasts the frame.
func (d *Hub) ShowLine(line int, text string) {
	f, ok := d.set(line, text)
	if !ok {
		return
	}
	d.publish(f)
}

// Current returns the last frame.
func (d *Hub) Current() Frame {
	return d.current()
}

func (d *Hub) publish(f Frame) {
	d.bmu.RLock()
	out := d.out
	d.bmu.RUnlock()
	if out != nil {
		out.BroadcastFrame(f)
	}
}

// Multi fans out to several displays.
type Multi []Display

// Clear clears every display.
func (m Multi) Clear() {
	for _, d := range m {
		d.Clear()
	}
}

// ShowLine shows the line on every display.
func (m Multi) ShowLine(line int, text string) {
	for _, d := range m {
		d.ShowLine(line, text)
	}
}

// Build creates the backends named in cfg. The hub, when requested, is
// returned separately so the caller can attach a broadcaster.
func Build(cfg config.DisplayConfig, logger *slog.Logger, console io.Writer) (Display, *Hub, error) {
	var (
		out Multi
		hub *Hub
	)
	for _, name := range cfg.Backends {
		switch name {
		case "log":
			out = append(out, NewLog(logger, cfg.Columns))
		case "console":
			out = append(out, NewConsole(console, cfg.Columns))
		case "hub":
			hub = NewHub(cfg.Columns)
			out = append(out, hub)
		default:
			return nil, nil, fmt.Errorf("unknown display backend %q", name)
		}
	}
	if len(out) == 1 {
		return out[0], hub, nil
	}
	return out, hub, nil
}
