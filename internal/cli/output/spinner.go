package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message while a slow operation runs. It only
// animates on an interactive text terminal; elsewhere every method is
// a no-op except the final status line.
type Spinner struct {
	renderer *Renderer
	out      io.Writer
	enabled  bool

	mu     sync.Mutex
	msg    string
	active bool
	done   chan struct{}
}

// NewSpinner creates a spinner for the given message.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	return &Spinner{
		renderer: r,
		out:      r.out,
		enabled:  r.isTTY && r.EffectiveMode() == ModeText,
		msg:      msg,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.done = make(chan struct{})

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		frame := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.active {
					fmt.Fprintf(s.out, "\r\033[K%s %s", spinnerFrames[frame%len(spinnerFrames)], s.msg)
				}
				s.mu.Unlock()
				frame++
			}
		}
	}()
}

// Update swaps the message while keeping the animation running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
}

// Success stops the spinner with a checkmark line.
func (s *Spinner) Success(msg string) {
	s.finish(s.renderer.styles.Success.Render("✓"), msg)
}

// Fail stops the spinner with a cross line.
func (s *Spinner) Fail(msg string) {
	s.finish(s.renderer.styles.Error.Render("✗"), msg)
}

// Stop halts the animation without a status line.
func (s *Spinner) Stop() {
	if !s.enabled {
		return
	}
	s.halt()
	fmt.Fprint(s.out, "\r\033[K")
}

func (s *Spinner) finish(icon, msg string) {
	if !s.enabled {
		s.renderer.Println(icon + " " + msg)
		return
	}
	s.halt()
	fmt.Fprintf(s.out, "\r\033[K%s %s\n", icon, msg)
}

func (s *Spinner) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	close(s.done)
}
