package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/johntango/milonga/internal/formatter"
	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/planner"
	"github.com/johntango/milonga/internal/repositories"
	"github.com/johntango/milonga/internal/roles"
	"github.com/johntango/milonga/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanListView ViewState = iota
	TandaListView
	TrackListView
	GenerateView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	store     *library.Store
	assembler *planner.Assembler
	plans     *repositories.PlanRepository
	defaults  shared.PlanConfig
	width     int
	height    int
	planList  list.Model
	tandaList list.Model
	trackList list.Model
	selected  *models.SavedPlan
	events    chan planner.Event
	lastEvent planner.Event
	runPlan   *models.Plan
	runErr    error
	result    *models.Plan
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, store *library.Store, assembler *planner.Assembler, plans *repositories.PlanRepository, defaults shared.PlanConfig) *Model {
	return &Model{
		ctx:       ctx,
		view:      PlanListView,
		store:     store,
		assembler: assembler,
		plans:     plans,
		defaults:  defaults,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by loading the saved plan listing.
func (m *Model) Init() tea.Cmd {
	return m.loadPlans()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.planList.Width() == 0 {
			m.planList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.tandaList.Width() == 0 {
			m.tandaList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlanListView:
			return m.handlePlanListKeys(msg)
		case TandaListView:
			return m.handleTandaListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case plansLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.plans))
		for i, p := range msg.plans {
			items[i] = planItem{plan: p}
		}
		m.planList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.planList.Title = "Saved Plans"
		m.planList.SetSize(m.width-4, m.height-8)
		return m, nil

	case runEventMsg:
		m.lastEvent = planner.Event(msg)
		return m, m.waitForEvent()

	case runCompleteMsg:
		m.result = msg.plan
		m.err = msg.err
		m.view = ResultView
		m.events = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlanListView:
		return m.renderPlanList()
	case TandaListView:
		return m.renderTandaList()
	case TrackListView:
		return m.renderTrackList()
	case GenerateView:
		return m.renderGenerate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlanListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "g":
		m.view = GenerateView
		m.lastEvent = planner.Event{}
		return m, m.startRun()
	case "enter":
		selected := m.planList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(planItem); ok {
				m.openPlan(item.plan)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.planList, cmd = m.planList.Update(msg)
	return m, cmd
}

func (m *Model) handleTandaListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlanListView
		return m, nil
	case "enter":
		selected := m.tandaList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(tandaItem); ok {
				m.openTanda(item)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.tandaList, cmd = m.tandaList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TandaListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlanListView
		m.result = nil
		m.err = nil
		return m, m.loadPlans()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlanListView:
		m.planList, cmd = m.planList.Update(msg)
	case TandaListView:
		m.tandaList, cmd = m.tandaList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openPlan(plan *models.SavedPlan) {
	m.selected = plan
	tandas := plan.Plan().Tandas
	items := make([]list.Item, len(tandas))
	for i, tanda := range tandas {
		items[i] = tandaItem{position: i, tanda: tanda}
	}
	m.tandaList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.tandaList.Title = fmt.Sprintf("Tandas in '%s'", plan.Name())
	m.tandaList.SetSize(m.width-4, m.height-8)
	m.view = TandaListView
}

func (m *Model) openTanda(item tandaItem) {
	items := make([]list.Item, len(item.tanda.Tracks))
	for i, track := range item.tanda.Tracks {
		items[i] = trackItem{track: track}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = item.Title()
	m.trackList.SetSize(m.width-4, m.height-8)
	m.view = TrackListView
}

func (m *Model) loadPlans() tea.Cmd {
	return func() tea.Msg {
		if m.plans == nil {
			return plansLoadedMsg{plans: nil}
		}
		plans, err := m.plans.List(nil)
		return plansLoadedMsg{plans: plans, err: err}
	}
}

func (m *Model) startRun() tea.Cmd {
	snap := m.store.Snapshot()
	if snap == nil || snap.Size() == 0 {
		m.err = shared.ErrLibraryNotLoaded
		m.view = ResultView
		return nil
	}

	minutes := m.defaults.Minutes
	if minutes <= 0 {
		minutes = 180
	}
	schedule := &roles.Schedule{Minutes: minutes, Pattern: planner.DefaultPattern(snap, minutes)}

	m.events = make(chan planner.Event, 50)
	events := m.events

	go func() {
		plan, err := m.assembler.Run(m.ctx, planner.RunRequest{
			Minutes:  minutes,
			Slots:    schedule.Slots(),
			Snapshot: snap,
		}, events)
		m.runPlan = plan
		m.runErr = err
		close(events)
	}()

	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		if m.events == nil {
			return runCompleteMsg{plan: m.runPlan, err: m.runErr}
		}

		ev, ok := <-m.events
		if !ok {
			return runCompleteMsg{plan: m.runPlan, err: m.runErr}
		}
		return runEventMsg(ev)
	}
}

func (m *Model) renderPlanList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.generate, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.planList.View(), helpView)
}

func (m *Model) renderTandaList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.tandaList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderGenerate() string {
	title := styles.title.Render("Assembling Plan")

	var status string
	switch m.lastEvent.Type {
	case "start":
		status = fmt.Sprintf("Planning %d tandas over %d minutes...", m.lastEvent.Slots, m.lastEvent.Minutes)
	case "tanda":
		if m.lastEvent.Index != nil && m.lastEvent.Tanda != nil {
			remaining := 0
			if m.lastEvent.RemainingSeconds != nil {
				remaining = *m.lastEvent.RemainingSeconds
			}
			status = fmt.Sprintf("Placed tanda %d (%s), %s remaining",
				*m.lastEvent.Index+1, m.lastEvent.Tanda.Style, shared.FormatDuration(remaining))
		}
	case "warning":
		status = styles.warn.Render(m.lastEvent.Message)
	case "quality", "summary":
		status = m.lastEvent.Message
	default:
		status = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s", title, status)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Generation failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No plan available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Plan Complete")
	body := fmt.Sprintf("\n%s\n\n%s", formatter.Summary(*m.result), formatter.Timeline(*m.result))

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, body, helpView)
}
