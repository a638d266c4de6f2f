package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusflow/pkg/analytics"
	"focusflow/pkg/config"
	"focusflow/pkg/database"
	"focusflow/pkg/keymaps"
	"focusflow/pkg/session"
	"focusflow/pkg/timer"
)

// InputMode represents the current input mode
type InputMode int

const (
	NormalMode InputMode = iota
	AddMode
	EditMode
	DeleteConfirmMode
	SearchMode   // Mode for searching tasks
	HelpViewMode // Mode for displaying help
	StatsViewMode
)

// number of fields in the add/edit form
const formInputs = 4

// how long a toast stays on screen
const toastTTL = 5 * time.Second

// Options wires the model to the application services
type Options struct {
	Session   *session.Session
	Tasks     *database.TaskStore
	Analytics *analytics.Service
	Styles    config.Styles
	KeyMap    keymaps.KeyMap

	// Context bounds every store call made by the UI
	Context context.Context
	// Now defaults to time.Now
	Now func() time.Time
	// RefreshInterval paces the screen refresh, one second by default
	RefreshInterval time.Duration
	// ManualClock leaves driving the timer to the caller
	ManualClock bool
}

// Model represents the application state
type Model struct {
	ctx       context.Context
	session   *session.Session
	tasks     *database.TaskStore
	analytics *analytics.Service
	notes     <-chan session.Notification
	now       func() time.Time
	refresh   time.Duration
	manual    bool

	table         table.Model
	bar           progress.Model
	items         []database.Task
	rowIDs        []int64
	width, height int
	err           error

	styles config.Styles
	keyMap keymaps.KeyMap

	// Snapshots refreshed from the session
	timer    timer.Session
	progress database.UserProgress
	day      string

	// View state
	taskFilter     database.TaskFilter
	priorityFilter database.Priority
	searchTerm     string
	toast          string
	toastUntil     time.Time
	stats          *statsData

	// Form state
	mode          InputMode
	titleInput    textinput.Model
	descInput     textinput.Model
	dueDateInput  textinput.Model
	priorityInput textinput.Model
	searchInput   textinput.Model
	activeInput   int

	// Edit/delete state
	editingItem *database.Task

	// Sorting and grouping state
	sortBy    database.SortBy
	groupBy   database.GroupBy
	sortOrder database.SortOrder
}

// New creates the UI model and loads the task list
func New(opts Options) Model {
	columns := []table.Column{
		{Title: "", Width: 3},
		{Title: "Pri", Width: 6},
		{Title: "Pts", Width: 4},
		{Title: "Task", Width: defaultTitleWidth},
		{Title: "Due", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(opts.Styles.BorderColor)).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(opts.Styles.SelectedTextColor)).
		Background(lipgloss.Color(opts.Styles.SelectedBgColor)).
		Bold(true)
	t.SetStyles(s)

	titleInput := textinput.New()
	titleInput.Placeholder = "Title"
	titleInput.Focus()
	titleInput.Width = 40

	descInput := textinput.New()
	descInput.Placeholder = "Description"
	descInput.Width = 40

	dueDateInput := textinput.New()
	dueDateInput.Placeholder = "Due Date (YYYY-MM-DD, optional)"
	dueDateInput.Width = 40

	priorityInput := textinput.New()
	priorityInput.Placeholder = "Priority (low, medium, high)"
	priorityInput.Width = 40

	searchInput := textinput.New()
	searchInput.Placeholder = "Search titles and descriptions"
	searchInput.Focus()
	searchInput.Width = 40

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	refresh := opts.RefreshInterval
	if refresh <= 0 {
		refresh = time.Second
	}

	m := Model{
		ctx:           ctx,
		session:       opts.Session,
		tasks:         opts.Tasks,
		analytics:     opts.Analytics,
		now:           now,
		refresh:       refresh,
		manual:        opts.ManualClock,
		table:         t,
		bar:           progress.New(progress.WithSolidFill(opts.Styles.FocusColor), progress.WithoutPercentage(), progress.WithWidth(40)),
		styles:        opts.Styles,
		keyMap:        opts.KeyMap,
		mode:          NormalMode,
		titleInput:    titleInput,
		descInput:     descInput,
		dueDateInput:  dueDateInput,
		priorityInput: priorityInput,
		searchInput:   searchInput,
		taskFilter:    database.AllTasksFilter,
		sortBy:        database.SortByOrder,
		day:           database.DayKey(now()),
	}
	m.notes = opts.Session.Subscribe(64)
	m.syncSession()
	m.loadTasks()

	return m
}

// Init starts the wall clock and the refresh loop
func (m Model) Init() tea.Cmd {
	if !m.manual && !m.session.ClockRunning() {
		m.session.RunClock(0)
	}
	return tea.Batch(waitForNotification(m.notes), refreshCmd(m.refresh))
}

// resetInputs clears all form inputs
func (m *Model) resetInputs() {
	m.titleInput.Reset()
	m.descInput.Reset()
	m.dueDateInput.Reset()
	m.priorityInput.SetValue(string(database.PriorityMedium))

	m.activeInput = 0
	m.titleInput.Focus()
	m.descInput.Blur()
	m.dueDateInput.Blur()
	m.priorityInput.Blur()
}
