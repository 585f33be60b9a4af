package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpecialtyDetailModel shows a regional specialty and the quantity to buy.
type SpecialtyDetailModel struct {
	specialty model.Specialty
	quantity  int
	preview   string
}

// NewSpecialtyDetailModel starts with a quantity of one.
func NewSpecialtyDetailModel(s model.Specialty) *SpecialtyDetailModel {
	return &SpecialtyDetailModel{specialty: s, quantity: 1}
}

func (m *SpecialtyDetailModel) Increase() {
	if m.quantity < maxMenuQuantity {
		m.quantity++
	}
}

func (m *SpecialtyDetailModel) Decrease() {
	if m.quantity > 1 {
		m.quantity--
	}
}

// Total returns price times quantity.
func (m *SpecialtyDetailModel) Total() int64 {
	return m.specialty.Price * int64(m.quantity)
}

// View renders the specialty detail.
func (m *SpecialtyDetailModel) View(width, height int) string {
	s := m.specialty
	header := renderShortcuts("+/- quantity  p buy  i photo  b back", width)

	fields := []string{
		renderField("Product", s.Title),
		renderField("Region", strings.TrimSpace(s.SidoNm+" "+s.SigunguNm)),
		renderField("Area", s.AreaNm),
		renderField("Price", util.FormatKRW(s.Price)),
	}
	if s.SvcDt != "" {
		fields = append(fields, renderField("Listed", util.FormatDate(s.SvcDt)))
	}
	if s.LinkURL != "" {
		fields = append(fields, renderField("Link", s.LinkURL))
	}

	sections := []string{strings.Join(fields, "\n")}

	if s.FundingGoalAmount > 0 {
		sections = append(sections, LabelStyle.Render("Funding: ")+
			AmountStyle.Render(util.FormatKRW(s.Raised()))+
			HelpDescStyle.Render(" of ")+
			NormalRowStyle.Render(util.FormatKRW(s.FundingGoalAmount))+"\n"+
			ProgressStyle.Render(util.ProgressBar(s.Percent(), 30))+" "+util.FormatPercent(s.Percent()))
	} else {
		sections = append(sections, HelpDescStyle.Render("No funding goal set for this product."))
	}
	if m.preview != "" {
		sections = append(sections, m.preview)
	}

	sections = append(sections, renderDivider(width))
	sections = append(sections,
		LabelStyle.Render("Quantity: ")+NormalRowStyle.Render(fmt.Sprintf("%d", m.quantity))+
			"    "+LabelStyle.Render("Total: ")+AmountStyle.Render(util.FormatKRW(m.Total())))

	info := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, info)
}

func loadSpecialtyDetailCmd(client *api.Client, id int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s, err := client.Specialty(ctx, id)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load specialty: %w", err)}
		}
		return model.SpecialtyDetailLoadedMsg{Specialty: s}
	}
}
