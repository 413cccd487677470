package cli

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// toastLevel picks the style of the transient message line.
type toastLevel int

const (
	toastInfo toastLevel = iota
	toastWarn
	toastError
)

// SharedState holds context shared across all views via pointer.
type SharedState struct {
	App *App

	// Route is the path of the page at the bottom of the view stack.
	Route string

	// Transient message shown under the header until the next key press.
	Toast      string
	ToastLevel toastLevel

	// Terminal dimensions
	Width  int
	Height int

	// signingOut marks a requested logout so the redirect to /login is not
	// reported as an expired session.
	signingOut bool

	mu   sync.Mutex
	send func(tea.Msg)
}

// SetSender installs the function that delivers messages to the running
// program. tea.Program.Send in production, a queue in tests.
func (s *SharedState) SetSender(fn func(tea.Msg)) {
	s.mu.Lock()
	s.send = fn
	s.mu.Unlock()
}

// Post delivers msg from any goroutine. It must not be called from inside
// Update, where Program.Send would block on the loop that is running it.
func (s *SharedState) Post(msg tea.Msg) {
	s.mu.Lock()
	fn := s.send
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (s *SharedState) toast(level toastLevel, text string) {
	s.Toast = text
	s.ToastLevel = level
}

func (s *SharedState) clearToast() {
	s.Toast = ""
}

// ContentHeight returns the available height for view content,
// accounting for header (3 lines: title, nav, separator), toast (1 line)
// and status bar (2 lines: separator + hints).
func (s *SharedState) ContentHeight() int {
	h := s.Height - 6
	if h < 1 {
		return 1
	}
	return h
}
