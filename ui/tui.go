package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mediacatalog/models"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState is the screen currently shown.
type ViewState int

const (
	ListView ViewState = iota
	FormView
	ConfirmView
)

const (
	fieldTitle = iota
	fieldReleaseDate
	fieldGenre
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Release date", "Genre"}

// Model is the bubbletea model of the media catalog client.
type Model struct {
	ctx    context.Context
	ctrl   *Controller
	view   ViewState
	width  int
	height int

	table   table.Model
	records []models.MediaRecord
	loadErr string

	formMode Mode
	inputs   [fieldCount]textinput.Model
	focus    int

	prompt string
	reply  chan<- bool

	notice *Notice

	help help.Model
	keys keyMap
}

// NewModel returns a model that routes user actions to ctrl.
func NewModel(ctx context.Context, ctrl *Controller) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Title", Width: 32},
			{Title: "Release date", Width: 12},
			{Title: "Genre", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 255
		in.Width = 32
		inputs[i] = in
	}
	inputs[fieldReleaseDate].Placeholder = models.DateLayout
	inputs[fieldReleaseDate].CharLimit = 32

	return &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		view:     ListView,
		table:    t,
		formMode: Create{},
		inputs:   inputs,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads the records.
func (m *Model) Init() tea.Cmd {
	return m.run(m.ctrl.LoadAll)
}

// run executes a controller action off the update loop.
func (m *Model) run(action func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		_ = action(m.ctx)
		return nil
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case FormView:
			return m.handleFormKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case recordsMsg:
		m.setRecords(msg.records)
		return m, nil

	case emptyMsg:
		m.setRecords(nil)
		m.table.SetRows([]table.Row{{"", "No media records yet", "", ""}})
		return m, nil

	case loadErrorMsg:
		m.setRecords(nil)
		m.loadErr = msg.message
		m.table.SetRows([]table.Row{{"", "Failed to load data", "", ""}})
		return m, nil

	case openFormMsg:
		m.openForm(msg.mode, msg.fields)
		return m, textinput.Blink

	case closeFormMsg:
		m.closeForm()
		return m, nil

	case confirmMsg:
		m.prompt = msg.prompt
		m.reply = msg.reply
		m.view = ConfirmView
		return m, nil

	case showNoticeMsg:
		n := Notice(msg)
		m.notice = &n
		return m, nil

	case hideNoticeMsg:
		m.notice = nil
		return m, nil
	}

	if m.view == FormView {
		return m, m.updateInputs(msg)
	}
	return m, nil
}

func (m *Model) setRecords(records []models.MediaRecord) {
	m.records = records
	m.loadErr = ""
	rows := make([]table.Row, len(records))
	for i, rec := range records {
		rows[i] = table.Row{
			strconv.FormatInt(rec.ID, 10),
			rec.Title,
			rec.ReleaseDate.String(),
			rec.Genre,
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// selected returns the record under the cursor. Placeholder rows select
// nothing.
func (m *Model) selected() (models.MediaRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return models.MediaRecord{}, false
	}
	return m.records[i], true
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.create):
		return m, func() tea.Msg {
			m.ctrl.StartCreate()
			return nil
		}
	case key.Matches(msg, m.keys.edit):
		if rec, ok := m.selected(); ok {
			return m, func() tea.Msg {
				m.ctrl.StartEdit(rec)
				return nil
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if rec, ok := m.selected(); ok {
			return m, m.run(func(ctx context.Context) error {
				return m.ctrl.Delete(ctx, rec)
			})
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.run(m.ctrl.LoadAll)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.submit):
		fields := m.formFields()
		return m, m.run(func(ctx context.Context) error {
			return m.ctrl.Submit(ctx, fields)
		})
	case key.Matches(msg, m.keys.next):
		return m, m.focusField((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.prev):
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)
	}
	return m, m.updateInputs(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.answer(true)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.answer(false)
	}
	return m, nil
}

func (m *Model) answer(ok bool) {
	if m.reply != nil {
		m.reply <- ok
		m.reply = nil
	}
	m.prompt = ""
	m.view = ListView
}

func (m *Model) openForm(mode Mode, fields models.MediaInput) {
	m.formMode = mode
	m.inputs[fieldTitle].SetValue(fields.Title)
	m.inputs[fieldReleaseDate].SetValue(fields.ReleaseDate)
	m.inputs[fieldGenre].SetValue(fields.Genre)
	m.view = FormView
	m.focusField(fieldTitle)
}

func (m *Model) closeForm() {
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.focus = fieldTitle
	m.view = ListView
}

func (m *Model) formFields() models.MediaInput {
	return models.MediaInput{
		Title:       m.inputs[fieldTitle].Value(),
		ReleaseDate: m.inputs[fieldReleaseDate].Value(),
		Genre:       m.inputs[fieldGenre].Value(),
	}
}

func (m *Model) focusField(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
			continue
		}
		m.inputs[j].Blur()
	}
	return cmd
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Media Catalog"))
	b.WriteString("\n")

	switch m.view {
	case FormView:
		b.WriteString(m.renderForm())
	case ConfirmView:
		b.WriteString(m.renderConfirm())
	default:
		b.WriteString(m.renderList())
	}

	if m.notice != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.notice(m.notice.Severity).Render(m.notice.Message))
	}
	return b.String()
}

func (m *Model) renderList() string {
	list := m.table.View()
	if m.loadErr != "" {
		list += "\n" + styles.err.Render(m.loadErr)
	}
	return fmt.Sprintf("%s\n\n%s", list, styles.help.Render(m.help.View(m.keys)))
}

func (m *Model) renderForm() string {
	heading := "Add Media"
	if _, ok := m.formMode.(Edit); ok {
		heading = "Edit Media"
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render(heading))
	b.WriteString("\n\n")
	for i, in := range m.inputs {
		label := styles.label
		if i == m.focus {
			label = styles.focused
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s", styles.form.Render(b.String()), helpView)
}

func (m *Model) renderConfirm() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n\n%s", styles.warn.Render(m.prompt), helpView)
}

// Run starts the terminal client against api and blocks until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, api API) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := &programView{ctx: ctx}
	model := NewModel(ctx, NewController(api, view))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	view.program = p

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
