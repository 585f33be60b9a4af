package ui

import (
	"context"
	"fmt"
	"time"

	"localfund/internal/paging"

	tea "github.com/charmbracelet/bubbletea"
)

// pageLoadedMsg carries one page fetched for a paging.Controller. The
// controller drops it when it was reset in the meantime.
type pageLoadedMsg[T any] struct {
	pager  *paging.Controller[T]
	ticket paging.Ticket
	page   paging.Page[T]
	err    error
}

// fetchPageCmd reserves the next page of pager and loads it in the
// background. It returns nil while a fetch is in flight or when the source
// is exhausted.
func fetchPageCmd[T any](pager *paging.Controller[T], timeout time.Duration) tea.Cmd {
	ticket, err := pager.Begin()
	if err != nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := pager.Load(ctx, ticket)
		return pageLoadedMsg[T]{pager: pager, ticket: ticket, page: page, err: err}
	}
}

// applyPage hands msg to its controller. It reports whether the page was
// current and the error to show, if any.
func applyPage[T any](msg pageLoadedMsg[T], what string) (bool, error) {
	if !msg.pager.Apply(msg.ticket, msg.page, msg.err) {
		return false, nil
	}
	if msg.err != nil {
		return true, fmt.Errorf("failed to load %s: %w", what, msg.err)
	}
	return true, nil
}

// pagerStatus describes a controller for a status line.
func pagerStatus[T any](pager *paging.Controller[T]) string {
	switch {
	case pager.Loading():
		return "loading…"
	case pager.Err() != nil:
		return "failed to load, press r to retry"
	case pager.HasMore():
		if total := pager.Total(); total != paging.UnknownTotal {
			return fmt.Sprintf("%d of %d loaded", pager.Len(), total)
		}
		return "more below"
	}
	return "all loaded"
}

// retryPanel is the inline "failed to load" panel of a list screen.
func retryPanel(what string, err error, width int) string {
	body := ErrorStyle.Render("Failed to load "+what+".") + "\n" +
		HelpDescStyle.Render(err.Error()) + "\n\n" +
		HelpKeyStyle.Render("r") + HelpDescStyle.Render(" retry")
	return PanelStyle.Width(max(width-4, 20)).Render(body)
}
