package ui

import (
	"fmt"
	"sort"
	"strings"

	"localfund/internal/util"

	"github.com/charmbracelet/lipgloss"
)

type tableColumn struct {
	key    string
	label  string
	width  int
	hidden bool
}

// dataTable holds the cursor, column, sort and filter state shared by the
// list screens. value returns the comparable text of a cell; cell returns
// what is drawn.
type dataTable[T any] struct {
	allRows []T
	rows    []T
	cursor  int
	offset  int

	viewportHeight int

	columns      []tableColumn
	activeColumn int
	sortKey      string
	sortDesc     bool
	filterKey    string
	filterValue  string

	noun  string
	empty string
	value func(row T, key string) string
	cell  func(row T, col tableColumn) string
}

func newDataTable[T any](noun string, columns []tableColumn, value func(T, string) string, cell func(T, tableColumn) string) *dataTable[T] {
	return &dataTable[T]{
		columns: columns,
		noun:    noun,
		empty:   "Nothing here yet.",
		value:   value,
		cell:    cell,
	}
}

// SetRows replaces the data and keeps the cursor where it was.
func (t *dataTable[T]) SetRows(rows []T) {
	t.allRows = append([]T(nil), rows...)
	t.rebuild()
}

func (t *dataTable[T]) ApplyPrefs(prefs TablePrefs) {
	if prefs.SortKey != "" {
		t.sortKey = prefs.SortKey
		t.sortDesc = prefs.SortDesc
	}
	hidden := make(map[string]bool, len(prefs.HiddenColumns))
	for _, c := range prefs.HiddenColumns {
		hidden[c] = true
	}
	for i := range t.columns {
		t.columns[i].hidden = hidden[t.columns[i].key]
	}
	if prefs.ActiveColumn != "" {
		for i, c := range t.columns {
			if c.key == prefs.ActiveColumn {
				t.activeColumn = i
				break
			}
		}
	}
	t.ensureVisibleActiveColumn()
	t.rebuild()
}

func (t *dataTable[T]) Prefs() TablePrefs {
	var hidden []string
	for _, c := range t.columns {
		if c.hidden {
			hidden = append(hidden, c.key)
		}
	}
	return TablePrefs{
		SortKey:       t.sortKey,
		SortDesc:      t.sortDesc,
		HiddenColumns: hidden,
		ActiveColumn:  t.columns[t.activeColumn].key,
	}
}

func (t *dataTable[T]) rebuild() {
	rows := append([]T(nil), t.allRows...)

	if t.filterKey != "" && t.filterValue != "" {
		filtered := make([]T, 0, len(rows))
		target := strings.TrimSpace(t.filterValue)
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(t.value(r, t.filterKey)), target) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if t.sortKey != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			left := strings.ToLower(t.value(rows[i], t.sortKey))
			right := strings.ToLower(t.value(rows[j], t.sortKey))
			if t.sortDesc {
				return left > right
			}
			return left < right
		})
	}

	t.rows = rows
	t.clampCursor()
}

func (t *dataTable[T]) clampCursor() {
	if len(t.rows) == 0 {
		t.cursor = 0
		t.offset = 0
		return
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.offset > t.cursor {
		t.offset = t.cursor
	}
}

// Selected returns the row under the cursor.
func (t *dataTable[T]) Selected() (T, bool) {
	var zero T
	if len(t.rows) == 0 {
		return zero, false
	}
	return t.rows[t.cursor], true
}

// AtEnd reports whether the cursor sits on the last row.
func (t *dataTable[T]) AtEnd() bool {
	return len(t.rows) == 0 || t.cursor >= len(t.rows)-1
}

func (t *dataTable[T]) Len() int {
	return len(t.rows)
}

func (t *dataTable[T]) visibleColumnIndexes() []int {
	var idxs []int
	for i, c := range t.columns {
		if !c.hidden {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (t *dataTable[T]) ensureVisibleActiveColumn() {
	if !t.columns[t.activeColumn].hidden {
		return
	}
	for i := range t.columns {
		if !t.columns[i].hidden {
			t.activeColumn = i
			return
		}
	}
	t.columns[0].hidden = false
	t.activeColumn = 0
}

func (t *dataTable[T]) NextColumn() {
	start := t.activeColumn
	for {
		t.activeColumn = (t.activeColumn + 1) % len(t.columns)
		if !t.columns[t.activeColumn].hidden || t.activeColumn == start {
			return
		}
	}
}

func (t *dataTable[T]) PrevColumn() {
	start := t.activeColumn
	for {
		t.activeColumn--
		if t.activeColumn < 0 {
			t.activeColumn = len(t.columns) - 1
		}
		if !t.columns[t.activeColumn].hidden || t.activeColumn == start {
			return
		}
	}
}

func (t *dataTable[T]) JumpToColumn(number int) bool {
	if number < 1 || number > len(t.columns) {
		return false
	}
	idx := number - 1
	if t.columns[idx].hidden {
		return false
	}
	t.activeColumn = idx
	return true
}

func (t *dataTable[T]) SortActiveColumn(desc bool) {
	t.sortKey = t.columns[t.activeColumn].key
	t.sortDesc = desc
	t.rebuild()
}

// clearSort drops the column sort so the source order shows through.
func (t *dataTable[T]) clearSort() {
	t.sortKey = ""
	t.sortDesc = false
	t.rebuild()
}

func (t *dataTable[T]) HideActiveColumn() bool {
	if len(t.visibleColumnIndexes()) <= 1 {
		return false
	}
	t.columns[t.activeColumn].hidden = true
	t.ensureVisibleActiveColumn()
	return true
}

func (t *dataTable[T]) ShowAllColumns() {
	for i := range t.columns {
		t.columns[i].hidden = false
	}
}

func (t *dataTable[T]) FilterBySelectedValue() bool {
	if len(t.rows) == 0 {
		return false
	}
	key := t.columns[t.activeColumn].key
	value := strings.TrimSpace(t.value(t.rows[t.cursor], key))
	if value == "" {
		return false
	}
	t.filterKey = key
	t.filterValue = value
	t.rebuild()
	return true
}

func (t *dataTable[T]) ClearFilter() bool {
	if t.filterKey == "" {
		return false
	}
	t.filterKey = ""
	t.filterValue = ""
	t.rebuild()
	return true
}

func (t *dataTable[T]) TableMeta() string {
	col := strings.ToUpper(t.columns[t.activeColumn].label)
	parts := []string{fmt.Sprintf("col %s", col)}
	if t.sortKey != "" {
		order := "asc"
		if t.sortDesc {
			order = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(t.sortKey), order))
	}
	if t.filterKey != "" {
		parts = append(parts, fmt.Sprintf("filter %s=%q", strings.ToUpper(t.filterKey), t.filterValue))
	}
	return strings.Join(parts, "  ·  ")
}

// View renders the table. extra is appended to the status line.
func (t *dataTable[T]) View(width, height int, extra string) string {
	if len(t.rows) == 0 {
		return EmptyStateStyle.
			Width(width).
			Height(height).
			Render(t.empty)
	}

	visible := t.visibleColumnIndexes()
	if len(visible) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("No visible columns. Press C to show all columns.")
	}

	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		col := t.columns[idx]
		label := formatHeaderLabel(col.label)
		if idx == t.activeColumn {
			label = renderActiveHeaderLabel(label)
		}
		if t.sortKey == col.key {
			if t.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.width+2, lipgloss.Width(label)+4)
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}
	if len(widths) > 0 {
		sepTotal := (len(widths) - 1) * tableSeparatorWidth()
		extraWidth := width - totalFixed - sepTotal - 2
		if extraWidth > 0 {
			widths[len(widths)-1] += extraWidth
		}
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)
	divider := renderTableDivider(widths)

	visibleHeight := height - 3
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	t.viewportHeight = visibleHeight
	if t.cursor >= t.offset+visibleHeight {
		t.offset = t.cursor - visibleHeight + 1
	}

	var rows []string
	for i := t.offset; i < len(t.rows) && i < t.offset+visibleHeight; i++ {
		row := t.rows[i]
		style := NormalRowStyle
		if i == t.cursor {
			style = SelectedRowStyle
		}
		cells := make([]string, 0, len(visible))
		for _, idx := range visible {
			col := t.columns[idx]
			cells = append(cells, util.TruncateString(t.cell(row, col), col.width))
		}
		rows = append(rows, renderTableRow(cells, widths, style))
	}

	filterInfo := ""
	if t.filterKey != "" {
		filterInfo = fmt.Sprintf("  ·  filtered: %d/%d", len(t.rows), len(t.allRows))
	}
	meta := t.TableMeta()
	if meta != "" {
		meta = "  ·  " + meta
	}
	rowPos := fmt.Sprintf("  ·  row %d/%d", t.cursor+1, len(t.rows))
	if extra != "" {
		extra = "  ·  " + extra
	}
	status := StatusBarStyle.Render(fmt.Sprintf("%d %s%s%s%s%s", len(t.rows), t.noun, rowPos, filterInfo, meta, extra))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		divider,
		strings.Join(rows, "\n"),
	)
	spacerHeight := max(0, height-lipgloss.Height(content)-lipgloss.Height(status))
	spacer := lipgloss.NewStyle().Height(spacerHeight).Render("")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		spacer,
		status,
	)
}

// MoveDown moves the cursor down.
func (t *dataTable[T]) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		vh := t.viewportHeight
		if vh == 0 {
			vh = 10
		}
		if t.cursor >= t.offset+vh {
			t.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (t *dataTable[T]) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		if t.cursor < t.offset {
			t.offset--
		}
	}
}

// JumpToTop jumps to the first item.
func (t *dataTable[T]) JumpToTop() {
	t.cursor = 0
	t.offset = 0
}

// JumpToBottom jumps to the last item.
func (t *dataTable[T]) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
		vh := t.viewportHeight
		if vh == 0 {
			vh = 10
		}
		if t.cursor >= vh {
			t.offset = t.cursor - vh + 1
		}
	}
}

// HalfPageDown moves down half a page.
func (t *dataTable[T]) HalfPageDown(pageSize int) {
	if len(t.rows) == 0 {
		return
	}
	t.cursor += pageSize / 2
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	vh := t.viewportHeight
	if vh == 0 {
		vh = 10
	}
	if t.cursor >= t.offset+vh {
		t.offset = t.cursor - vh + 1
	}
}

// HalfPageUp moves up half a page.
func (t *dataTable[T]) HalfPageUp(pageSize int) {
	t.cursor -= pageSize / 2
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
}

func formatHeaderLabel(label string) string {
	return strings.ToUpper(label)
}

func renderActiveHeaderLabel(label string) string {
	return lipgloss.NewStyle().Underline(true).Render(label)
}

func tableSeparatorWidth() int {
	return 0
}

func renderTableDivider(widths []int) string {
	total := 0
	for _, w := range widths {
		total += w
	}
	total += (len(widths) - 1) * tableSeparatorWidth()
	return BreadcrumbStyle.Render(strings.Repeat("─", max(total, 0)))
}

// Helper function to render a table row
func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

// padAmount renders n so that string order matches numeric order.
func padAmount(n int64) string {
	return fmt.Sprintf("%016d", n)
}

func padPercent(p float64) string {
	return fmt.Sprintf("%010.2f", p)
}

// blockHeight returns the rendered height of stacked blocks, 0 for none.
func blockHeight(blocks []string) int {
	if len(blocks) == 0 {
		return 0
	}
	return lipgloss.Height(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}
