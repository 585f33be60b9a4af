package ui

import (
	"sort"
	"strings"

	"localfund/internal/api"
	"localfund/internal/model"
	"localfund/internal/paging"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// maxRelated caps the related keywords offered under the results.
const maxRelated = 5

// SearchResultsModel searches every restaurant on the backend by keyword,
// not only the ones around the current location.
type SearchResultsModel struct {
	*dataTable[model.Restaurant]

	client  *api.Client
	size    int
	input   textinput.Model
	keyword string
	pager   *paging.Controller[model.Restaurant]
	related []string
	nextRel int
}

func NewSearchResultsModel(client *api.Client, pageSize int) *SearchResultsModel {
	input := textinput.New()
	input.Placeholder = "restaurant, menu or neighbourhood"
	input.Prompt = "search: "
	input.CharLimit = 40
	input.Focus()

	m := &SearchResultsModel{client: client, size: pageSize, input: input}
	m.dataTable = newDataTable("search results",
		[]tableColumn{
			{key: "name", label: "name", width: 20},
			{key: "category", label: "category", width: 14},
			{key: "region", label: "region", width: 16},
			{key: "raised", label: "raised", width: 14},
			{key: "progress", label: "progress", width: 18},
		},
		restaurantValue, restaurantCell)
	m.empty = "Type a keyword and press enter."
	return m
}

// Search starts a new result list for keyword. It reports false for an
// empty keyword.
func (m *SearchResultsModel) Search(keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	m.keyword = keyword
	m.input.SetValue(keyword)
	m.input.Blur()
	m.pager = paging.NewController(m.client.RestaurantSearchSource(keyword), m.size)
	m.related = nil
	m.nextRel = 0
	m.SetRows(nil)
	m.empty = `No restaurants match "` + keyword + `".`
	return true
}

// NextRelated returns the next related keyword, cycling.
func (m *SearchResultsModel) NextRelated() (string, bool) {
	if len(m.related) == 0 {
		return "", false
	}
	kw := m.related[m.nextRel%len(m.related)]
	m.nextRel++
	return kw, true
}

func (m *SearchResultsModel) refresh() {
	items := m.pager.Items()
	m.SetRows(items)
	m.related = relatedKeywords(items, m.keyword)
}

// relatedKeywords collects the tags of the results, most common first,
// leaving out the keyword itself.
func relatedKeywords(items []model.Restaurant, keyword string) []string {
	counts := map[string]int{}
	var order []string
	for _, r := range items {
		for _, tag := range strings.Split(r.Tags, ",") {
			tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
			if tag == "" || strings.EqualFold(tag, keyword) {
				continue
			}
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return order[:min(len(order), maxRelated)]
}

// Typing reports whether the keyword input has focus.
func (m *SearchResultsModel) Typing() bool {
	return m.input.Focused()
}

// View renders the input and the results.
func (m *SearchResultsModel) View(width, height int) string {
	top := []string{InputStyle.Width(width - 2).Render(m.input.View())}
	if m.pager == nil {
		top = append(top, EmptyStateStyle.Render(m.empty))
		return lipgloss.JoinVertical(lipgloss.Left, top...)
	}
	if m.pager.Err() != nil && m.pager.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(top, retryPanel("search results", m.pager.Err(), width))...)
	}
	if len(m.related) > 0 {
		top = append(top, HelpDescStyle.Render("related: "+strings.Join(m.related, ", ")+"  (] next)"))
	}
	table := m.dataTable.View(width, height-blockHeight(top), `"`+m.keyword+`"  ·  `+pagerStatus(m.pager))
	return lipgloss.JoinVertical(lipgloss.Left, append(top, table)...)
}
