package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	minBarWidth     = 20
	defaultBarWidth = 40
	statusWidth     = 16
	etaWidth        = 8
)

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#22c55e"))

	progressBgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#333"))

	progressTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888"))

	currentStepStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#60a5fa"))

	etaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Progress is a single-line progress bar redrawn in place. Increment is safe
// to call from several goroutines. On a non-terminal writer nothing is drawn
// until Finish prints the summary.
type Progress struct {
	out        io.Writer
	tty        bool
	total      int
	completed  int
	current    string
	barWidth   int
	termWidth  int
	startTime  time.Time
	now        func() time.Time
	mu         sync.Mutex
	spinnerIdx int
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func getTerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func NewProgress(total int) *Progress {
	return newProgress(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), getTerminalWidth(), total)
}

func newProgress(out io.Writer, tty bool, width, total int) *Progress {
	barWidth := width - statusWidth - etaWidth - 4
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	if barWidth > defaultBarWidth {
		barWidth = defaultBarWidth
	}
	return &Progress{
		out:       out,
		tty:       tty,
		total:     total,
		termWidth: width,
		barWidth:  barWidth,
		startTime: time.Now(),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the spinner. It is a no-op off a terminal.
func (p *Progress) Start() {
	if !p.tty {
		return
	}
	fmt.Fprint(p.out, "\033[?25l")
	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.mu.Lock()
				p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
				p.render()
				p.mu.Unlock()
			}
		}
	}()
}

// Increment records one finished step and names it.
func (p *Progress) Increment(step string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
	p.current = step
	if p.tty {
		p.render()
	}
}

func (p *Progress) line() string {
	pct := float64(0)
	if p.total > 0 {
		pct = float64(p.completed) / float64(p.total)
	}
	filled := int(pct * float64(p.barWidth))
	if filled > p.barWidth {
		filled = p.barWidth
	}
	empty := p.barWidth - filled

	bar := progressBarStyle.Render(strings.Repeat("█", filled)) +
		progressBgStyle.Render(strings.Repeat("░", empty))

	status := fmt.Sprintf(" %d/%d (%3.0f%%)", p.completed, p.total, pct*100)
	eta := p.estimateRemaining()
	if eta != "" {
		eta = fmt.Sprintf("%-6s", eta)
	}

	spin := ""
	if p.completed < p.total {
		spin = spinnerFrames[p.spinnerIdx] + " "
	}

	current := ""
	if p.current != "" {
		if maxWidth := p.termWidth - p.barWidth - statusWidth - etaWidth - 6; maxWidth > 0 {
			current = truncate(p.current, maxWidth)
		}
	}

	return fmt.Sprintf(" %s%s%s %s %s",
		spin,
		bar,
		progressTextStyle.Render(status),
		etaStyle.Render(eta),
		currentStepStyle.Render(current))
}

func (p *Progress) render() {
	fmt.Fprintf(p.out, "\r\033[K%s", p.line())
}

// Finish stops the spinner and prints the elapsed time.
func (p *Progress) Finish() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		p.render()
		fmt.Fprint(p.out, "\033[?25h\n")
	}
	fmt.Fprintf(p.out, "  Completed %d/%d in %s\n", p.completed, p.total, formatDuration(p.now().Sub(p.startTime)))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func (p *Progress) estimateRemaining() string {
	if p.completed == 0 || p.completed >= p.total {
		return ""
	}

	elapsed := p.now().Sub(p.startTime)
	avgPerStep := elapsed / time.Duration(p.completed)
	remaining := p.total - p.completed
	eta := avgPerStep * time.Duration(remaining)

	if eta < time.Second {
		return "< 1s"
	}

	if eta < time.Minute {
		return fmt.Sprintf("~%ds", int(eta.Seconds()))
	}

	mins := int(eta.Minutes())
	secs := int(eta.Seconds()) % 60
	if secs > 0 {
		return fmt.Sprintf("~%dm%ds", mins, secs)
	}
	return fmt.Sprintf("~%dm", mins)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", mins, secs)
}
