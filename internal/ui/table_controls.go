package ui

type tableController interface {
	NextColumn()
	PrevColumn()
	JumpToColumn(number int) bool
	SortActiveColumn(desc bool)
	HideActiveColumn() bool
	ShowAllColumns()
	FilterBySelectedValue() bool
	ClearFilter() bool
	TableMeta() string
}

// listTable is a tableController with a row cursor.
type listTable interface {
	tableController
	MoveDown()
	MoveUp()
	JumpToTop()
	JumpToBottom()
	HalfPageDown(pageSize int)
	HalfPageUp(pageSize int)
	AtEnd() bool
}
