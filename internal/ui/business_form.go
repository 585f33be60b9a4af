package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/search"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	bizName = iota
	bizCategory
	bizPhone
	bizAddress
	bizGoal
	bizStart
	bizEnd
	bizImage
)

// BusinessFormModel submits a request to list a restaurant. Typing the
// restaurant name searches Kakao and a picked place fills the address,
// phone, category and coordinates.
type BusinessFormModel struct {
	client  *api.Client
	member  model.Member
	timeout time.Duration
	fields  fieldSet
	search  placeSearch
	place   *search.Place
	error   string
}

func NewBusinessFormModel(client *api.Client, kakao *search.KakaoClient, member model.Member, debounce, timeout time.Duration, lat, lng float64) *BusinessFormModel {
	return &BusinessFormModel{
		client:  client,
		member:  member,
		timeout: timeout,
		fields: newFieldSet(
			newFormField("Restaurant name *", "Search restaurant...", 100),
			newFormField("Category", "음식점 > 한식", 100),
			newFormField("Phone", "02-000-0000", 20),
			newFormField("Road address *", "Street address", 200),
			newFormField("Funding goal (KRW) *", "5000000", 12),
			newFormField("Funding start", "YYYY-MM-DD (default today)", 10),
			newFormField("Funding end *", "YYYY-MM-DD", 10),
			newFormField("Image file (optional)", "/path/to/photo.jpg", 300),
		),
		search: newPlaceSearch(kakao, debounce, lat, lng),
	}
}

// Update handles all messages.
func (m BusinessFormModel) Update(msg tea.Msg) (BusinessFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case debounceTick:
		return m, m.search.tick(msg, m.fields.value(bizName))
	case autocompleteResultMsg:
		m.search.result(msg)
		return m, nil
	case spinner.TickMsg:
		return m, m.search.updateSpinner(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.search.showDropdown && m.fields.focused == bizName {
		switch keyMsg.String() {
		case "esc":
			m.search.close()
			return m, nil
		case "down", "ctrl+j":
			m.search.moveDown()
			return m, nil
		case "up", "ctrl+k":
			m.search.moveUp()
			return m, nil
		case "enter", "tab":
			if p, ok := m.search.selected(); ok {
				m.selectPlace(p)
				m.search.close()
				m.fields.next()
			}
			return m, nil
		}
	}

	switch keyMsg.String() {
	case "esc":
		return m, func() tea.Msg {
			return model.FormCancelledMsg{}
		}
	case "ctrl+s":
		req, img, err := m.validate()
		if err != nil {
			m.error = err.Error()
			return m, nil
		}
		m.error = ""
		return m, submitBusinessRequestCmd(m.client, req, img, m.timeout)
	case "tab", "down":
		m.search.close()
		m.fields.next()
		return m, nil
	case "shift+tab", "up":
		m.search.close()
		m.fields.prev()
		return m, nil
	}

	before := m.fields.value(bizName)
	cmds := []tea.Cmd{m.fields.update(keyMsg)}
	if m.fields.focused == bizName && m.fields.value(bizName) != before {
		m.place = nil
		cmds = append(cmds, m.search.changed(m.fields.value(bizName)))
	}
	return m, tea.Batch(cmds...)
}

func (m *BusinessFormModel) selectPlace(p search.Place) {
	m.place = &p
	m.fields.set(bizName, p.Name)
	if p.Category != "" {
		m.fields.set(bizCategory, p.Category)
	}
	if p.Phone != "" {
		m.fields.set(bizPhone, p.Phone)
	}
	m.fields.set(bizAddress, p.Label())
}

func (m *BusinessFormModel) validate() (model.BusinessRequest, string, error) {
	req := model.BusinessRequest{
		Name:            m.fields.value(bizName),
		CategoryName:    m.fields.value(bizCategory),
		Phone:           m.fields.value(bizPhone),
		RoadAddressName: m.fields.value(bizAddress),
		MemberEmail:     m.member.Email,
		MemberName:      m.member.DisplayName(),
	}
	if req.Name == "" {
		return req, "", fmt.Errorf("restaurant name is required")
	}
	if req.RoadAddressName == "" {
		return req, "", fmt.Errorf("road address is required")
	}
	goal, err := strconv.ParseInt(strings.ReplaceAll(m.fields.value(bizGoal), ",", ""), 10, 64)
	if err != nil || goal <= 0 {
		return req, "", fmt.Errorf("funding goal must be a positive amount")
	}
	req.FundingGoalAmount = goal

	start, err := util.ParseDateInput(m.fields.value(bizStart))
	if err != nil {
		return req, "", fmt.Errorf("invalid start date (e.g. 2026-11-01)")
	}
	if start == "" {
		start = util.TodayISO()
	}
	end, err := util.ParseDateInput(m.fields.value(bizEnd))
	if err != nil || end == "" {
		return req, "", fmt.Errorf("end date is required (e.g. 2026-12-31)")
	}
	if end < start {
		return req, "", fmt.Errorf("end date must not be before the start date")
	}
	req.FundingStartDate, req.FundingEndDate = start, end

	if m.place != nil {
		req.X, req.Y = m.place.Lng, m.place.Lat
		req.PlaceURL = m.place.PlaceURL
	}

	img := m.fields.value(bizImage)
	if img != "" {
		if _, err := os.Stat(img); err != nil {
			return req, "", fmt.Errorf("image file not found: %s", img)
		}
	}
	return req, img, nil
}

// View renders the form.
func (m *BusinessFormModel) View(width, height int) string {
	views := m.fields.views()
	if m.fields.focused == bizName {
		if s := m.search.view(width - 8); s != "" {
			views[bizName] = lipgloss.JoinVertical(lipgloss.Left, views[bizName], s)
		}
	}

	intro := HelpDescStyle.Render("Request a funding page for your restaurant. An admin reviews every request.")
	fields := append([]string{intro}, views...)
	if m.place != nil {
		fields = append(fields, HelpDescStyle.Render(fmt.Sprintf("Located at %.5f, %.5f", m.place.Lat, m.place.Lng)))
	}
	if m.error != "" {
		fields = append(fields, "")
		fields = append(fields, ErrorStyle.Render(m.error))
	}

	return PanelStyle.
		Width(width - 4).
		Render(strings.Join(fields, "\n"))
}

func submitBusinessRequestCmd(client *api.Client, req model.BusinessRequest, imagePath string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var img *api.Image
		if imagePath != "" {
			f, err := os.Open(imagePath)
			if err != nil {
				return model.ErrorMsg{Err: fmt.Errorf("failed to open image: %w", err)}
			}
			defer f.Close()
			img = &api.Image{Filename: imagePath, Data: f}
		}

		out, err := client.SubmitBusinessRequest(ctx, req, img)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to submit business request: %w", err)}
		}
		return model.BusinessRequestSubmittedMsg{Request: out}
	}
}
