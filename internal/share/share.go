// Package share copies links for the user, falling back from the system
// clipboard to the terminal clipboard to simply showing the link.
package share

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// clipboardWriteAll and clipboardUnsupported are package-level variables to allow mocking in tests.
var (
	clipboardWriteAll    = clipboard.WriteAll
	clipboardUnsupported = func() bool { return clipboard.Unsupported }
)

// ErrNoMethod is returned by Copy when neither clipboard is available.
var ErrNoMethod = errors.New("share: no clipboard available")

// Method is how a link reached the user.
type Method int

const (
	MethodShown Method = iota
	MethodClipboard
	MethodTerminal
)

// Sharer copies text. Out receives OSC52 sequences, usually the terminal.
type Sharer struct {
	Out io.Writer
	env func(string) string
}

// New creates a sharer writing terminal sequences to out. A nil out disables OSC52.
func New(out io.Writer) *Sharer {
	return &Sharer{Out: out, env: os.Getenv}
}

// Copy puts text on a clipboard.
func (s *Sharer) Copy(text string) (Method, error) {
	if !clipboardUnsupported() {
		if err := clipboardWriteAll(text); err == nil {
			return MethodClipboard, nil
		}
	}
	if s.Out != nil {
		seq := osc52.New(text)
		switch {
		case s.env("TMUX") != "":
			seq = seq.Tmux()
		case strings.HasPrefix(s.env("TERM"), "screen"):
			seq = seq.Screen()
		}
		if _, err := seq.WriteTo(s.Out); err == nil {
			return MethodTerminal, nil
		}
	}
	return MethodShown, ErrNoMethod
}

// Share copies link when possible and returns the banner to show.
func (s *Sharer) Share(link string) (Method, string) {
	m, err := s.Copy(link)
	if err != nil {
		return MethodShown, "Share this link: " + link
	}
	return m, Message(m, link)
}

// Message describes how link was shared.
func Message(m Method, link string) string {
	switch m {
	case MethodClipboard:
		return "Link copied to clipboard"
	case MethodTerminal:
		return "Link copied via terminal clipboard"
	default:
		return "Share this link: " + link
	}
}

// PostURL returns the public link of a community post.
func PostURL(base string, id int64) string {
	return fmt.Sprintf("%s/community/post/%d", strings.TrimRight(base, "/"), id)
}

// Text returns the share text of a post body, at most 100 runes.
func Text(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "Check out this post!"
	}
	runes := []rune(content)
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return content
}
