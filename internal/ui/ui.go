package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"diary/internal/config"
	"diary/internal/diary"
)

type mode int

const (
	modeList mode = iota
	modeAddTitle
	modeAddDescription
	modeEditTitle
	modeEditDescription
	modeConfirmDelete
)

// screen receives controller renders. It sits behind a pointer so the value
// receivers Bubble Tea uses all see the latest snapshot.
type screen struct {
	snap diary.Snapshot
}

func (s *screen) Render(snap diary.Snapshot) {
	s.snap = snap
}

type promptAnswer struct {
	text string
	ok   bool
}

// collected replays edit prompt answers gathered over several key events.
type collected struct {
	answers []promptAnswer
}

func (c *collected) Confirm(string) bool { return false }

func (c *collected) PromptText(_, _ string) (string, bool) {
	if len(c.answers) == 0 {
		return "", false
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a.text, a.ok
}

type Model struct {
	ctrl       *diary.Controller
	screen     *screen
	cfg        config.Config
	focus      diary.List
	cursor     int
	mode       mode
	title      textinput.Model
	desc       textarea.Model
	prompt     textinput.Model
	status     string
	editID     int64
	answers    []promptAnswer
	pendingDel *diary.Record
	width      int
	now        func() time.Time
}

func Run(ctrl *diary.Controller, cfg config.Config) error {
	program := tea.NewProgram(New(ctrl, cfg))
	_, err := program.Run()
	return err
}

// New builds the model and installs it as the controller's renderer.
func New(ctrl *diary.Controller, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = 256
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = "Description"
	ta.ShowLineNumbers = false
	ta.SetWidth(40)
	ta.SetHeight(3)

	pr := textinput.New()
	pr.CharLimit = 1024
	pr.Width = 40

	if cfg.RowCap <= 0 {
		cfg.RowCap = config.DefaultRowCap
	}

	scr := &screen{}
	ctrl.SetRenderer(scr)
	ctrl.Refresh()

	draft := scr.snap.Draft
	ti.SetValue(draft.Title)
	ta.SetValue(draft.Description)

	k := cfg.Keys
	return Model{
		ctrl:   ctrl,
		screen: scr,
		cfg:    cfg,
		focus:  diary.ListPending,
		title:  ti,
		desc:   ta,
		prompt: pr,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, '%s' to complete, '%s' to remove.", k.Add, k.Complete, k.Delete),
		now:    time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 10
		if w < 20 {
			w = 20
		}
		m.title.Width = w
		m.prompt.Width = w
		m.desc.SetWidth(w)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeAddTitle, modeAddDescription:
		return m.updateAddMode(key, msg)
	case modeEditTitle, modeEditDescription:
		return m.updateEditMode(key, msg)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(key)
	}
	return m.updateListMode(key)
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.visible()))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.visible()))
	case k.Switch:
		if m.focus == diary.ListPending {
			m.focus = diary.ListCompleted
		} else {
			m.focus = diary.ListPending
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
	case k.ShowMore:
		m.ctrl.OnToggleShowMore(m.focus)
		m.cursor = clampCursor(m.cursor, len(m.visible()))
	case k.Add:
		m.mode = modeAddTitle
		m.desc.Blur()
		m.title.Focus()
		m.status = fmt.Sprintf("Add: %s next field, %s to save, %s to leave", k.Confirm, k.Submit, k.Cancel)
	case k.Edit:
		rec, ok := m.selected()
		if !ok || m.focus != diary.ListPending {
			return m, nil
		}
		m.editID = rec.ID
		m.answers = nil
		m.mode = modeEditTitle
		m.prompt.SetValue(rec.Title)
		m.prompt.CursorEnd()
		m.prompt.Placeholder = "Title"
		m.prompt.Focus()
		m.status = "Enter new title:"
	case k.Complete:
		rec, ok := m.selected()
		if !ok || m.focus != diary.ListPending {
			return m, nil
		}
		_, err := m.ctrl.OnComplete(rec.ID)
		m.status = m.outcome(err, "Completed task")
		m.cursor = clampCursor(m.cursor, len(m.visible()))
	case k.Delete:
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pendingDel = &rec
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Are you sure you want to remove %q? y/n", rec.Title)
	case k.Save:
		m.status = m.outcome(m.ctrl.Sync(), "Saved")
	case k.Reload:
		if err := m.ctrl.Reload(); err != nil {
			m.status = "reload failed: " + err.Error()
		} else {
			m.status = "Reloaded"
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Cancel:
		m.mode = modeList
		m.title.Blur()
		m.desc.Blur()
		m.status = "Cancelled"
		return m, nil
	case k.Submit:
		return m.submitAdd()
	case k.Switch:
		return m.switchAddField(), nil
	case k.Confirm:
		if m.mode == modeAddTitle {
			return m.switchAddField(), nil
		}
	}

	var cmd tea.Cmd
	if m.mode == modeAddTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

func (m Model) switchAddField() Model {
	if m.mode == modeAddTitle {
		m.mode = modeAddDescription
		m.title.Blur()
		m.desc.Focus()
		return m
	}
	m.mode = modeAddTitle
	m.desc.Blur()
	m.title.Focus()
	return m
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	_, err := m.ctrl.OnAdd(m.title.Value(), m.desc.Value())
	if errors.Is(err, diary.ErrValidation) {
		// keep the form and its contents for another try
		m.mode = modeAddTitle
		m.desc.Blur()
		m.title.Focus()
		return m, nil
	}
	draft := m.screen.snap.Draft
	m.title.SetValue(draft.Title)
	m.desc.SetValue(draft.Description)
	m.title.Blur()
	m.desc.Blur()
	m.mode = modeList
	m.focus = diary.ListPending
	m.cursor = clampCursor(len(m.visible())-1, len(m.visible()))
	m.status = m.outcome(err, "Added task")
	return m, nil
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.answers = append(m.answers, promptAnswer{})
		return m.advanceEdit()
	case m.cfg.Keys.Confirm:
		m.answers = append(m.answers, promptAnswer{text: m.prompt.Value(), ok: true})
		return m.advanceEdit()
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) advanceEdit() (tea.Model, tea.Cmd) {
	if m.mode == modeEditTitle {
		rec, ok := m.ctrl.Lookup(m.editID)
		if !ok {
			return m.finishEdit("Nothing to edit")
		}
		m.mode = modeEditDescription
		m.prompt.SetValue(rec.Description)
		m.prompt.CursorEnd()
		m.prompt.Placeholder = "Description"
		m.status = "Enter new description:"
		return m, nil
	}

	m.ctrl.SetDialogs(&collected{answers: m.answers})
	_, err := m.ctrl.OnEditPrompt(m.editID)
	m.ctrl.SetDialogs(nil)
	if errors.Is(err, diary.ErrValidation) {
		return m.finishEdit("Title cannot be empty; task unchanged")
	}
	return m.finishEdit(m.outcome(err, "Saved changes"))
}

func (m Model) finishEdit(status string) (tea.Model, tea.Cmd) {
	m.mode = modeList
	m.prompt.Blur()
	m.prompt.SetValue("")
	m.answers = nil
	m.editID = 0
	m.status = status
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.mode = modeList
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.mode = modeList
			return m, nil
		}
		err := m.ctrl.OnRemove(m.pendingDel.ID, true)
		m.status = m.outcome(err, "Deleted task")
		m.mode = modeList
		m.pendingDel = nil
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, nil
	default:
		return m, nil
	}
}

// outcome turns a controller error into a status line.
func (m Model) outcome(err error, ok string) string {
	if err == nil {
		return ok
	}
	if errors.Is(err, diary.ErrConflict) {
		return fmt.Sprintf("save failed: %v (press '%s' to reload)", err, m.cfg.Keys.Reload)
	}
	return fmt.Sprintf("save failed: %v (press '%s' to retry)", err, m.cfg.Keys.Save)
}

func (m Model) View() string {
	var b strings.Builder
	snap := m.screen.snap

	b.WriteString(titleStyle.Render("Personal Diary on the go"))
	b.WriteString("\n\n")
	for _, l := range []diary.List{diary.ListPending, diary.ListCompleted} {
		focused := l == m.focus && m.mode == modeList
		b.WriteString(renderSection(l, snap, m.cfg.RowCap, m.cursor, focused, m.cfg.Keys.ShowMore, m.width))
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	switch m.mode {
	case modeAddTitle, modeAddDescription:
		b.WriteString("Title:\n")
		b.WriteString(m.title.View())
		b.WriteString("\nDescription:\n")
		b.WriteString(m.desc.View())
	case modeEditTitle, modeEditDescription:
		b.WriteString(m.prompt.View())
	default:
		if rec, ok := m.selected(); ok {
			b.WriteString(detailLine(m.focus, rec, m.now()))
		} else {
			b.WriteString(mutedStyle.Render("No task selected"))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	if snap.Err != nil && !strings.HasPrefix(m.status, "save failed") {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("unsaved changes: " + snap.Err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s switch list • %s add • %s edit • %s complete • %s remove • %s more • %s save • %s reload • %s quit",
		k.Up, k.Down, k.Switch, k.Add, k.Edit, k.Complete, k.Delete, k.ShowMore, k.Save, k.Reload, k.Quit)
}

func (m Model) visible() []diary.Record {
	snap := m.screen.snap
	return VisibleRows(snap.List(m.focus), snap.ShowMore(m.focus), m.cfg.RowCap)
}

func (m Model) selected() (diary.Record, bool) {
	rows := m.visible()
	if len(rows) == 0 {
		return diary.Record{}, false
	}
	return rows[clampCursor(m.cursor, len(rows))], true
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
