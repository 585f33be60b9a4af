package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localfund/internal/search"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Message types for place autocomplete
type autocompleteResultMsg struct {
	seq     int
	results []search.Place
	err     error
}

type debounceTick struct {
	seq int
}

// placeSearch is the debounced Kakao keyword lookup behind an input.
// Results for anything but the latest keystroke are dropped.
type placeSearch struct {
	client   *search.KakaoClient
	debounce time.Duration
	lat, lng float64

	seq          int
	results      []search.Place
	cursor       int
	showDropdown bool
	searching    bool
	spinner      spinner.Model
	err          string
}

func newPlaceSearch(client *search.KakaoClient, debounce time.Duration, lat, lng float64) placeSearch {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return placeSearch{client: client, debounce: debounce, lat: lat, lng: lng, spinner: sp}
}

// changed schedules a lookup for query after the debounce delay.
func (s *placeSearch) changed(query string) tea.Cmd {
	if !s.client.Configured() {
		return nil
	}
	if len([]rune(strings.TrimSpace(query))) < 2 {
		s.close()
		s.searching = false
		return nil
	}
	s.seq++
	seq := s.seq
	s.searching = true
	s.showDropdown = false
	return tea.Batch(
		s.spinner.Tick,
		tea.Tick(s.debounce, func(time.Time) tea.Msg {
			return debounceTick{seq: seq}
		}),
	)
}

// tick starts the lookup when msg belongs to the latest keystroke.
func (s *placeSearch) tick(msg debounceTick, query string) tea.Cmd {
	if msg.seq != s.seq {
		return nil
	}
	return s.lookup(query, msg.seq)
}

func (s *placeSearch) lookup(query string, seq int) tea.Cmd {
	client, lat, lng := s.client, s.lat, s.lng
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		results, err := client.SearchKeyword(ctx, query, lat, lng, 20000)
		if err == nil && len(results) == 0 {
			results, err = client.SearchAddress(ctx, query)
		}
		return autocompleteResultMsg{seq: seq, results: results, err: err}
	}
}

// result applies msg when it belongs to the latest keystroke.
func (s *placeSearch) result(msg autocompleteResultMsg) {
	if msg.seq != s.seq {
		return
	}
	s.searching = false
	if msg.err != nil {
		s.err = fmt.Sprintf("Search error: %v", msg.err)
		s.showDropdown = false
		return
	}
	s.err = ""
	s.results = msg.results
	s.cursor = 0
	s.showDropdown = len(msg.results) > 0
}

func (s *placeSearch) updateSpinner(msg spinner.TickMsg) tea.Cmd {
	if !s.searching {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

func (s *placeSearch) close() {
	s.showDropdown = false
	s.results = nil
}

func (s *placeSearch) moveDown() {
	if s.cursor < len(s.results)-1 {
		s.cursor++
	}
}

func (s *placeSearch) moveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *placeSearch) selected() (search.Place, bool) {
	if !s.showDropdown || s.cursor >= len(s.results) {
		return search.Place{}, false
	}
	return s.results[s.cursor], true
}

// view renders the spinner or dropdown under the input, or nothing.
func (s *placeSearch) view(width int) string {
	if s.searching {
		return HelpDescStyle.Render(s.spinner.View() + " Searching...")
	}
	if s.err != "" {
		return ErrorStyle.Render(s.err)
	}
	if !s.showDropdown {
		return ""
	}

	var items []string
	for i, p := range s.results {
		style := NormalRowStyle
		if i == s.cursor {
			style = SelectedRowStyle
		}

		left := util.TruncateString(p.Name, 30)
		if addr := p.Label(); addr != "" && addr != p.Name {
			left += "  ·  " + util.TruncateString(addr, 40)
		}
		right := ""
		if p.Category != "" {
			right = HelpDescStyle.Render(shortCategory(p.Category))
		}

		availableWidth := width - 4
		padding := max(0, availableWidth-lipgloss.Width(left)-lipgloss.Width(right))
		items = append(items, style.Width(availableWidth).Render(left+strings.Repeat(" ", padding)+right))
	}
	return BorderStyle.
		Width(width).
		Render(strings.Join(items, "\n"))
}
