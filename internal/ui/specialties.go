package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"localfund/internal/api"
	"localfund/internal/filter"
	"localfund/internal/model"
	"localfund/internal/paging"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

// specialtiesLoadedMsg carries the full specialty list.
type specialtiesLoadedMsg struct {
	items    []model.Specialty
	progress model.FundingProgress
	err      error
}

// specialtiesRefreshedMsg carries the specialties of the current scope,
// fetched again from the backend.
type specialtiesRefreshedMsg struct {
	items []model.Specialty
	scope string
	err   error
}

// keywordTickMsg rotates the suggested search keyword.
type keywordTickMsg struct{}

// SpecialtiesModel lists regional specialties. The full list is loaded once,
// filtered locally and shown one page at a time.
type SpecialtiesModel struct {
	*dataTable[model.Specialty]

	all      []model.Specialty
	query    filter.SpecialtyQuery
	src      *paging.LocalSource[model.Specialty]
	pager    *paging.Controller[model.Specialty]
	progress model.FundingProgress
	loadErr  error

	keywords []string
	keyword  int
	find     textinput.Model
}

// NewSpecialtiesModel creates an empty listing.
func NewSpecialtiesModel(pageSize int, keywords []string) *SpecialtiesModel {
	find := textinput.New()
	find.Placeholder = "product or region"
	find.Prompt = "find: "
	find.CharLimit = 40

	src := paging.NewLocalSource[model.Specialty](nil)
	m := &SpecialtiesModel{
		src:      src,
		pager:    paging.NewController[model.Specialty](src, pageSize),
		keywords: keywords,
		find:     find,
	}
	m.dataTable = newDataTable("specialties",
		[]tableColumn{
			{key: "title", label: "product", width: 18},
			{key: "region", label: "region", width: 18},
			{key: "price", label: "price", width: 10},
			{key: "raised", label: "raised", width: 12},
			{key: "progress", label: "progress", width: 18},
			{key: "goal", label: "goal", width: 12},
		},
		specialtyValue, specialtyCell)
	m.empty = "No specialties match."
	return m
}

func specialtyValue(s model.Specialty, key string) string {
	switch key {
	case "title":
		return s.Title
	case "region":
		return strings.TrimSpace(s.SidoNm + " " + s.SigunguNm)
	case "price":
		return padAmount(s.Price)
	case "raised":
		return padAmount(s.Raised())
	case "progress":
		return padPercent(s.Percent())
	case "goal":
		return padAmount(s.FundingGoalAmount)
	}
	return ""
}

func specialtyCell(s model.Specialty, col tableColumn) string {
	switch col.key {
	case "price":
		return util.FormatKRW(s.Price)
	case "raised":
		return util.FormatKRW(s.Raised())
	case "progress":
		if s.FundingGoalAmount <= 0 {
			return "no goal"
		}
		return util.ProgressBar(s.Percent(), 8) + " " + util.FormatPercent(s.Percent())
	case "goal":
		if s.FundingGoalAmount <= 0 {
			return "—"
		}
		return util.FormatKRW(s.FundingGoalAmount)
	}
	return specialtyValue(s, col.key)
}

// SetAll replaces the loaded list and reapplies the filter.
func (m *SpecialtiesModel) SetAll(items []model.Specialty, progress model.FundingProgress) {
	m.all = items
	m.progress = progress
	m.loadErr = nil
	m.apply()
}

// Merge replaces the loaded specialties that share an ID with items and
// appends the rest, then reapplies the filter.
func (m *SpecialtiesModel) Merge(items []model.Specialty) {
	index := make(map[int64]int, len(m.all))
	for i, s := range m.all {
		index[s.ID] = i
	}
	for _, s := range items {
		if i, ok := index[s.ID]; ok {
			m.all[i] = s
			continue
		}
		index[s.ID] = len(m.all)
		m.all = append(m.all, s)
	}
	m.apply()
}

// SetError records a failed load. Items already shown stay.
func (m *SpecialtiesModel) SetError(err error) {
	m.loadErr = err
}

// apply filters the full list and restarts paging at page 0.
func (m *SpecialtiesModel) apply() {
	m.src.Set(filter.ApplySpecialties(m.all, m.query))
	m.pager.Reset()
	_ = m.pager.Fetch(context.Background())
	m.SetRows(m.pager.Items())
	m.JumpToTop()
}

// LoadMore appends the next local page when the cursor reached the end.
func (m *SpecialtiesModel) LoadMore() bool {
	if !m.pager.HasMore() {
		return false
	}
	if err := m.pager.Fetch(context.Background()); err != nil {
		return false
	}
	m.SetRows(m.pager.Items())
	return true
}

// CycleSido moves through all, then each sido. The sigungu is reset.
func (m *SpecialtiesModel) CycleSido() string {
	m.query.Sido = cycleValue(filter.Sidos(m.all), m.query.Sido)
	m.query.Sigungu = ""
	m.apply()
	if m.query.Sido == "" {
		return "Region: all"
	}
	return "Region: " + m.query.Sido
}

// CycleSigungu moves through the sigungus of the selected sido.
func (m *SpecialtiesModel) CycleSigungu() string {
	if m.query.Sido == "" {
		return "Pick a province first (p)"
	}
	m.query.Sigungu = cycleValue(filter.Sigungus(m.all, m.query.Sido), m.query.Sigungu)
	m.apply()
	if m.query.Sigungu == "" {
		return "District: all of " + m.query.Sido
	}
	return "District: " + m.query.Sigungu
}

// CycleSort moves to the next funding sort.
func (m *SpecialtiesModel) CycleSort() string {
	m.query.Sort = m.query.Sort.Next()
	m.clearSort()
	m.apply()
	return "Order: " + m.query.Sort.Label()
}

// SetText sets the text filter.
func (m *SpecialtiesModel) SetText(text string) {
	if m.query.Text == text {
		return
	}
	m.query.Text = text
	m.apply()
}

// ResetFilters clears every predicate.
func (m *SpecialtiesModel) ResetFilters() {
	m.query = filter.SpecialtyQuery{Sort: m.query.Sort}
	m.find.SetValue("")
	m.apply()
}

// RotateKeyword advances the suggested keyword.
func (m *SpecialtiesModel) RotateKeyword() {
	if len(m.keywords) > 0 {
		m.keyword = (m.keyword + 1) % len(m.keywords)
	}
}

// Keyword returns the suggested keyword on display.
func (m *SpecialtiesModel) Keyword() string {
	if len(m.keywords) == 0 {
		return ""
	}
	return m.keywords[m.keyword]
}

// UseKeyword applies the suggested keyword as text filter.
func (m *SpecialtiesModel) UseKeyword() string {
	k := m.Keyword()
	if k == "" {
		return ""
	}
	m.find.SetValue(k)
	m.SetText(k)
	return "Searching " + k
}

// View renders the listing.
func (m *SpecialtiesModel) View(width, height int) string {
	var top []string
	if k := m.Keyword(); k != "" && !m.find.Focused() && m.query.Text == "" {
		top = append(top, StatusBarStyle.Render("Popular now: ")+AmountStyle.Render(k)+HelpDescStyle.Render("  (K to search)"))
	}
	if m.find.Focused() || m.query.Text != "" {
		top = append(top, InputStyle.Width(width-2).Render(m.find.View()))
	}
	if m.loadErr != nil && len(m.all) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(top, retryPanel("specialties", m.loadErr, width))...)
	}

	parts := []string{fmt.Sprintf("%d matching", m.src.Len())}
	if m.query.Sido != "" {
		region := m.query.Sido
		if m.query.Sigungu != "" {
			region += " " + m.query.Sigungu
		}
		parts = append(parts, region)
	}
	parts = append(parts, "order "+m.query.Sort.Label())
	if m.progress.TotalGoalAmount > 0 {
		parts = append(parts, fmt.Sprintf("all regions %s (%d funded)",
			util.FormatPercent(model.FundingPercent(m.progress.TotalFundingAmount, m.progress.TotalGoalAmount)),
			m.progress.FundedCount))
	}
	if m.pager.HasMore() {
		parts = append(parts, "more below")
	}

	table := m.dataTable.View(width, height-blockHeight(top), strings.Join(parts, "  ·  "))
	return lipgloss.JoinVertical(lipgloss.Left, append(top, table)...)
}

// cycleValue returns the value after current in values, wrapping to "".
func cycleValue(values []string, current string) string {
	if current == "" {
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}
	for i, v := range values {
		if v == current && i+1 < len(values) {
			return values[i+1]
		}
	}
	return ""
}

// loadSpecialtiesCmd fetches every specialty together with the overall
// funding progress. The progress is optional.
func loadSpecialtiesCmd(client *api.Client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			items    []model.Specialty
			progress model.FundingProgress
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			items, err = client.Specialties(gctx)
			return err
		})
		g.Go(func() error {
			p, err := client.SpecialtyFundingProgress(gctx)
			if err == nil {
				progress = p
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return specialtiesLoadedMsg{err: err}
		}
		return specialtiesLoadedMsg{items: items, progress: progress}
	}
}

// refreshSpecialtiesCmd fetches only the specialties in view: a server-side
// search when there is search text, the region listing when a sido is picked,
// and everything otherwise.
func refreshSpecialtiesCmd(client *api.Client, q filter.SpecialtyQuery, timeout time.Duration) tea.Cmd {
	if q.Text == "" && q.Sido == "" {
		return loadSpecialtiesCmd(client, timeout)
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			items []model.Specialty
			scope string
			err   error
		)
		if q.Text != "" {
			scope = fmt.Sprintf("%q", q.Text)
			items, err = client.SearchSpecialties(ctx, q.Text)
		} else {
			scope = strings.TrimSpace(q.Sido + " " + q.Sigungu)
			items, err = client.SpecialtiesBySido(ctx, q.Sido, q.Sigungu)
		}
		return specialtiesRefreshedMsg{items: items, scope: scope, err: err}
	}
}

func keywordTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return keywordTickMsg{}
	})
}
