package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"focusflow/pkg/database"
	"focusflow/pkg/progress"
	"focusflow/pkg/session"
	"focusflow/pkg/timer"
	"focusflow/pkg/utils"
)

// notificationMsg carries one session notification into Update
type notificationMsg session.Notification

// refreshMsg redraws the timer and checks for a new day
type refreshMsg time.Time

func waitForNotification(ch <-chan session.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func refreshCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case notificationMsg:
		m.handleNotification(session.Notification(msg))
		return m, waitForNotification(m.notes)

	case refreshMsg:
		m.syncSession()
		m.rollover()
		if m.toast != "" && !m.now().Before(m.toastUntil) {
			m.toast = ""
		}
		return m, refreshCmd(m.refresh)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.mode {
		case NormalMode:
			handled, quit := m.handleNormalKey(msg)
			if quit {
				return m, tea.Quit
			}
			if handled {
				return m, nil
			}

		case AddMode, EditMode:
			switch msg.String() {
			case "esc":
				m.mode = NormalMode
				m.resetInputs()
				m.editingItem = nil
				return m, nil

			case "tab":
				m.focusNextInput()
				return m, nil

			case "shift+tab":
				m.focusPreviousInput()
				return m, nil

			case "up", "down":
				if m.activeInput == formInputs-1 {
					current, err := database.ParsePriority(m.priorityInput.Value())
					if err != nil {
						current = database.PriorityHigh
					}
					m.priorityInput.SetValue(string(nextPriority(current)))
					return m, nil
				}

			case "enter":
				if m.activeInput == formInputs-1 {
					m.submitForm()
				} else {
					m.focusNextInput()
				}
				return m, nil
			}

			switch m.activeInput {
			case 0:
				m.titleInput, cmd = m.titleInput.Update(msg)
			case 1:
				m.descInput, cmd = m.descInput.Update(msg)
			case 2:
				m.dueDateInput, cmd = m.dueDateInput.Update(msg)
			case 3:
				m.priorityInput, cmd = m.priorityInput.Update(msg)
			}
			cmds = append(cmds, cmd)

		case SearchMode:
			switch msg.String() {
			case "esc":
				m.mode = NormalMode
				m.searchTerm = ""
				m.loadTasks()
				return m, nil

			case "enter":
				m.searchTerm = m.searchInput.Value()
				utils.Log("Searching for: %s", m.searchTerm)
				m.mode = NormalMode
				m.loadTasks()
				return m, nil
			}

			m.searchInput, cmd = m.searchInput.Update(msg)
			cmds = append(cmds, cmd)

		case DeleteConfirmMode:
			switch msg.String() {
			case "y", "Y":
				if m.editingItem != nil {
					utils.Log("Deleting task ID: %d", m.editingItem.ID)
					if _, err := m.tasks.Delete(m.ctx, m.editingItem.ID); err != nil {
						m.err = err
					} else {
						m.loadTasks()
					}
				}
				m.mode = NormalMode
				m.editingItem = nil

			case "n", "N", "esc":
				m.mode = NormalMode
				m.editingItem = nil
			}

		case HelpViewMode:
			switch {
			case msg.String() == "esc", key.Matches(msg, m.keyMap.ShowHelp):
				m.mode = NormalMode
			case key.Matches(msg, m.keyMap.QuitApp):
				return m, tea.Quit
			}

		case StatsViewMode:
			switch {
			case msg.String() == "esc", key.Matches(msg, m.keyMap.ToggleStats):
				m.mode = NormalMode
				m.stats = nil
			case key.Matches(msg, m.keyMap.QuitApp):
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.loadTasks()
	}

	if m.mode == NormalMode {
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleNormalKey runs the list and timer bindings. Keys it does not
// handle go to the table for navigation.
func (m *Model) handleNormalKey(msg tea.KeyMsg) (handled, quit bool) {
	switch {
	case key.Matches(msg, m.keyMap.ShowHelp):
		m.mode = HelpViewMode

	case key.Matches(msg, m.keyMap.QuitApp):
		return true, true

	case key.Matches(msg, m.keyMap.ToggleStats):
		m.loadStats()
		if m.err == nil {
			m.mode = StatsViewMode
		}

	case key.Matches(msg, m.keyMap.ToggleStatus):
		if task, ok := m.selectedTask(); ok {
			if _, _, err := m.session.ToggleTask(m.ctx, task.ID); err != nil {
				m.err = err
			} else {
				m.err = nil
				m.syncSession()
				m.loadTasks()
			}
		}

	case key.Matches(msg, m.keyMap.AddTask):
		m.mode = AddMode
		m.resetInputs()

	case key.Matches(msg, m.keyMap.EditTask):
		if task, ok := m.selectedTask(); ok {
			m.mode = EditMode
			m.editingItem = &task
			m.resetInputs()

			m.titleInput.SetValue(task.Title)
			m.descInput.SetValue(task.Description)
			if task.DueDate != nil {
				m.dueDateInput.SetValue(task.DueDate.Format("2006-01-02"))
			}
			m.priorityInput.SetValue(string(task.Priority))
		}

	case key.Matches(msg, m.keyMap.DeleteTask):
		if task, ok := m.selectedTask(); ok {
			m.mode = DeleteConfirmMode
			m.editingItem = &task
		}

	case key.Matches(msg, m.keyMap.MoveTaskUp):
		m.moveSelected(-1)

	case key.Matches(msg, m.keyMap.MoveTaskDown):
		m.moveSelected(1)

	case key.Matches(msg, m.keyMap.CyclePriority):
		if task, ok := m.selectedTask(); ok {
			next := nextPriority(task.Priority)
			if _, err := m.tasks.Update(m.ctx, task.ID, database.TaskPatch{Priority: &next}); err != nil {
				m.err = err
			} else {
				m.loadTasks()
			}
		}

	case key.Matches(msg, m.keyMap.ShowDoneTasks):
		if m.taskFilter == database.DoneTasksFilter {
			m.taskFilter = database.AllTasksFilter
		} else {
			m.taskFilter = database.DoneTasksFilter
		}
		m.loadTasks()

	case key.Matches(msg, m.keyMap.ShowUndoneTasks):
		if m.taskFilter == database.PendingTasksFilter {
			m.taskFilter = database.AllTasksFilter
		} else {
			m.taskFilter = database.PendingTasksFilter
		}
		m.loadTasks()

	case key.Matches(msg, m.keyMap.FilterPriority):
		m.priorityFilter = nextPriorityFilter(m.priorityFilter)
		m.loadTasks()

	case key.Matches(msg, m.keyMap.SearchTasks):
		m.mode = SearchMode
		m.searchInput.Focus()
		m.searchInput.SetValue("")

	case key.Matches(msg, m.keyMap.ToggleSortBy):
		m.sortBy = (m.sortBy + 1) % sortFieldCount
		m.loadTasks()

	case key.Matches(msg, m.keyMap.ToggleGroupBy):
		m.groupBy = (m.groupBy + 1) % groupOptionCount
		m.loadTasks()

	case key.Matches(msg, m.keyMap.ToggleSortOrder):
		if m.sortOrder == database.SortAsc {
			m.sortOrder = database.SortDesc
		} else {
			m.sortOrder = database.SortAsc
		}
		m.loadTasks()

	case key.Matches(msg, m.keyMap.StartPause):
		if m.timer.Status == timer.StatusRunning {
			m.session.PauseTimer()
		} else {
			m.session.StartTimer()
		}
		m.syncSession()

	case key.Matches(msg, m.keyMap.StopTimer):
		m.session.StopTimer()
		m.syncSession()

	case key.Matches(msg, m.keyMap.FocusMode):
		m.switchMode(timer.ModeFocus)

	case key.Matches(msg, m.keyMap.ShortBreakMode):
		m.switchMode(timer.ModeShortBreak)

	case key.Matches(msg, m.keyMap.LongBreakMode):
		m.switchMode(timer.ModeLongBreak)

	default:
		return false, false
	}
	return true, false
}

func (m *Model) switchMode(mode timer.Mode) {
	if err := m.session.SwitchMode(mode); err != nil {
		m.err = err
		return
	}
	m.syncSession()
}

// handleNotification folds a session notification into the view
func (m *Model) handleNotification(n session.Notification) {
	switch n.Kind {
	case session.KindTimer:
		m.syncSession()
		if n.Timer.Type == timer.EventSessionCompleted {
			m.showToast(n.Timer.Mode.Label() + " complete!")
		}

	case session.KindLedger:
		m.syncSession()
		if m.session.Settings().MotivationalMessages {
			m.showToast(progress.Motivate(n.Ledger, nil))
		} else {
			m.showToast(progress.Describe(n.Ledger))
		}

	case session.KindTask:
		m.loadTasks()

	case session.KindError:
		m.err = n.Err
	}
}

func (m *Model) showToast(text string) {
	m.toast = text
	m.toastUntil = m.now().Add(toastTTL)
}

// syncSession copies the timer and progress snapshots for rendering
func (m *Model) syncSession() {
	m.timer = m.session.Timer()
	m.progress = m.session.Progress()
}

// rollover closes the accounting day once the clock passes midnight
func (m *Model) rollover() {
	today := database.DayKey(m.now())
	if today == m.day {
		return
	}
	if _, err := m.session.RolloverDay(m.ctx); err != nil {
		m.err = err
		return
	}
	m.day = today
	m.syncSession()
	m.loadTasks()
}
