// Package simui provides the Bubble Tea simulation viewer.
package simui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/generator"
	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/sim"
	"github.com/verte-zerg/brownian/internal/stats"
	"github.com/verte-zerg/brownian/internal/store"
	"github.com/verte-zerg/brownian/internal/task"
)

const (
	tabPassage = iota
	tabArcsine
	tabTheory
)

const (
	plotHeight   = 10
	densityPlots = 8
)

const (
	fieldDrift = iota
	fieldVolatility
	fieldBarrier
	fieldPaths
	fieldArcsinePaths
	fieldPreset
)

// settingsFields label the form inputs; hints are the usual parameter ranges.
var settingsFields = []struct {
	label string
	hint  string
}{
	{"Drift", "-0.2 .. 0.2"},
	{"Volatility", "0.5 .. 2"},
	{"Barrier", "0.5 .. 5"},
	{"Paths", "100 .. 5000"},
	{"Arcsine paths", "1000 .. 10000"},
	{"Preset", "load a saved preset by name"},
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Options configures the viewer.
type Options struct {
	Passage model.SimulationConfig
	Arcsine model.ArcsineConfig
	Bins    int
	// Seed fixes the first run's seed; later runs use Seed+1, Seed+2 and so on.
	// Zero draws a fresh seed for every run.
	Seed    uint64
	Workers int
	Logger  *slog.Logger
	// Store enables loading presets from the settings form. It may be nil.
	Store *store.Store
}

// Done messages carry the run they report on. snap.ID is the run id and cfg
// the configuration that run was started with.
type passageDoneMsg struct {
	cfg  model.SimulationConfig
	snap task.Snapshot[model.FirstPassageResult]
}

type arcsineDoneMsg struct {
	snap task.Snapshot[model.ArcsineResult]
}

// Model implements the Bubble Tea simulation viewer.
type Model struct {
	ctx  context.Context
	opts Options
	log  *slog.Logger
	runs uint64

	passageCfg    model.SimulationConfig
	arcsineCfg    model.ArcsineConfig
	passageRunCfg model.SimulationConfig
	passageShown  model.SimulationConfig

	passage     *task.Runner[model.FirstPassageResult]
	arcsine     *task.Runner[model.ArcsineResult]
	passageRes  *model.FirstPassageResult
	arcsineRes  *model.ArcsineResult
	passageErr  string
	arcsineErr  string
	passageSeed uint64
	arcsineSeed uint64

	restartPassage bool
	restartArcsine bool

	tabs      []string
	activeTab int
	viewports []viewport.Model
	binTable  table.Model
	showBins  bool
	spinner   spinner.Model

	width  int
	height int

	settingsMode   bool
	settingsInputs []textinput.Model
	settingsIndex  int
	settingsError  string

	status string
}

// New constructs a viewer. ctx bounds every simulation it starts.
func New(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Bins <= 0 {
		opts.Bins = stats.DefaultBinCount
	}
	m := &Model{
		ctx:        ctx,
		opts:       opts,
		log:        logger,
		passageCfg: opts.Passage,
		arcsineCfg: opts.Arcsine,
		passage:    task.NewRunner[model.FirstPassageResult]("first-passage", logger),
		arcsine:    task.NewRunner[model.ArcsineResult]("arcsine", logger),
		tabs:       []string{"First Passage", "Arcsine Laws", "Theory"},
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(busyStyle))
	m.initInputs()
	m.initViewports()
	m.binTable = buildBinTable(nil, opts.Bins, 80, 10)
	m.renderTabContents()
	return m
}

// Init implements tea.Model. Both simulations start immediately.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startPassage(), m.startArcsine())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case passageDoneMsg:
		return m, m.finishPassage(msg)
	case arcsineDoneMsg:
		return m, m.finishArcsine(msg.snap)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.settingsMode && msg.String() == "q") {
			m.passage.Cancel()
			m.arcsine.Cancel()
			return m, tea.Quit
		}
		if m.settingsMode {
			return m.updateSettings(msg)
		}
		m.status = ""
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "1", "2", "3":
			m.activeTab = int(msg.String()[0] - '1')
			m.syncTableFocus()
			return m, tea.ClearScreen
		case "r":
			return m, m.rerunActive()
		case "t":
			if m.activeTab == tabArcsine {
				m.showBins = !m.showBins
				m.syncTableFocus()
			}
			return m, nil
		case "/":
			return m.startSettings()
		case "g", "home":
			if m.tableActive() {
				m.binTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.tableActive() {
				m.binTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.tableActive() {
				m.binTable, cmd = m.binTable.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) busy() bool {
	return m.passage.Busy() || m.arcsine.Busy()
}

func (m *Model) nextSeed() uint64 {
	if m.opts.Seed == 0 {
		return generator.NewSeed()
	}
	seed := m.opts.Seed + m.runs
	m.runs++
	return seed
}

func (m *Model) engineOptions(seed uint64) sim.Options {
	return sim.Options{Seed: seed, Workers: m.opts.Workers, Logger: m.log}
}

func (m *Model) startPassage() tea.Cmd {
	cfg := m.passageCfg
	seed := m.nextSeed()
	opts := m.engineOptions(seed)
	id, err := m.passage.Start(m.ctx, func(ctx context.Context) (model.FirstPassageResult, error) {
		return sim.RunFirstPassage(ctx, cfg, opts)
	})
	if err != nil {
		if errors.Is(err, task.ErrBusy) {
			m.status = "First passage is still running."
		}
		return nil
	}
	m.restartPassage = false
	m.passageRunCfg = cfg
	m.passageSeed = seed
	m.renderTabContents()
	return tea.Batch(waitPassage(m.passage, id, cfg), m.spinner.Tick)
}

func (m *Model) startArcsine() tea.Cmd {
	cfg := m.arcsineCfg
	seed := m.nextSeed()
	opts := m.engineOptions(seed)
	id, err := m.arcsine.Start(m.ctx, func(ctx context.Context) (model.ArcsineResult, error) {
		return sim.RunArcsine(ctx, cfg, opts)
	})
	if err != nil {
		if errors.Is(err, task.ErrBusy) {
			m.status = "Arcsine simulation is still running."
		}
		return nil
	}
	m.restartArcsine = false
	m.arcsineSeed = seed
	m.renderTabContents()
	return tea.Batch(waitArcsine(m.arcsine, id), m.spinner.Tick)
}

// waitPassage reports the run with the given id once it finishes. A run that
// was replaced before the wait began produces no message.
func waitPassage(r *task.Runner[model.FirstPassageResult], id string, cfg model.SimulationConfig) tea.Cmd {
	return func() tea.Msg {
		snap, err := r.WaitRun(context.Background(), id)
		if err != nil {
			return nil
		}
		return passageDoneMsg{cfg: cfg, snap: snap}
	}
}

func waitArcsine(r *task.Runner[model.ArcsineResult], id string) tea.Cmd {
	return func() tea.Msg {
		snap, err := r.WaitRun(context.Background(), id)
		if err != nil {
			return nil
		}
		return arcsineDoneMsg{snap: snap}
	}
}

func (m *Model) finishPassage(msg passageDoneMsg) tea.Cmd {
	snap := msg.snap
	// A newer run owns the tab; its own message will follow.
	if snap.ID != m.passage.Snapshot().ID {
		return nil
	}
	switch {
	case snap.State == task.Completed:
		res := snap.Result
		m.passageRes = &res
		m.passageShown = msg.cfg
		m.passageErr = ""
	case snap.Err != nil && !(m.restartPassage && errors.Is(snap.Err, context.Canceled)):
		m.passageErr = snap.Err.Error()
	}
	var cmd tea.Cmd
	if m.restartPassage {
		m.restartPassage = false
		cmd = m.startPassage()
	}
	m.renderTabContents()
	return cmd
}

func (m *Model) finishArcsine(snap task.Snapshot[model.ArcsineResult]) tea.Cmd {
	if snap.ID != m.arcsine.Snapshot().ID {
		return nil
	}
	switch {
	case snap.State == task.Completed:
		res := snap.Result
		m.arcsineRes = &res
		m.arcsineErr = ""
	case snap.Err != nil && !(m.restartArcsine && errors.Is(snap.Err, context.Canceled)):
		m.arcsineErr = snap.Err.Error()
	}
	var cmd tea.Cmd
	if m.restartArcsine {
		m.restartArcsine = false
		cmd = m.startArcsine()
	}
	m.renderTabContents()
	return cmd
}

func (m *Model) rerunActive() tea.Cmd {
	switch m.activeTab {
	case tabPassage:
		return m.startPassage()
	case tabArcsine:
		return m.startArcsine()
	default:
		m.status = "Nothing to run on this tab."
		return nil
	}
}

// restartPassageRun starts a run now, or cancels the in-flight one and
// starts again once it reports back.
func (m *Model) restartPassageRun() tea.Cmd {
	if m.passage.Busy() {
		m.restartPassage = true
		m.passage.Cancel()
		return nil
	}
	return m.startPassage()
}

func (m *Model) restartArcsineRun() tea.Cmd {
	if m.arcsine.Busy() {
		m.restartArcsine = true
		m.arcsine.Cancel()
		return nil
	}
	return m.startArcsine()
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.settingsInputs = make([]textinput.Model, len(settingsFields))
	for i, f := range settingsFields {
		m.settingsInputs[i] = newSettingsInput(fmt.Sprintf("%-15s", f.label+":"), f.hint)
	}
	m.setInputsFromConfig()
}

func newSettingsInput(prompt, hint string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = hint
	input.CharLimit = 32
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.settingsInputs[fieldDrift].SetValue(formatFloat(m.passageCfg.Drift))
	m.settingsInputs[fieldVolatility].SetValue(formatFloat(m.passageCfg.Volatility))
	m.settingsInputs[fieldBarrier].SetValue(formatFloat(m.passageCfg.Barrier))
	m.settingsInputs[fieldPaths].SetValue(strconv.Itoa(m.passageCfg.PathCount))
	m.settingsInputs[fieldArcsinePaths].SetValue(strconv.Itoa(m.arcsineCfg.PathCount))
	m.settingsInputs[fieldPreset].SetValue("")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.settingsMode && m.status != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.binTable.SetWidth(m.width)
	m.binTable.SetHeight(max(1, vpHeight-1))
	for i := range m.settingsInputs {
		promptWidth := lipgloss.Width(m.settingsInputs[i].Prompt)
		m.settingsInputs[i].Width = max(10, min(40, m.width-promptWidth-2))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.syncTableFocus()
}

func (m *Model) tableActive() bool {
	return m.activeTab == tabArcsine && m.showBins
}

func (m *Model) syncTableFocus() {
	if m.tableActive() {
		m.binTable.Focus()
	} else {
		m.binTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(m.renderSettingsSummary(), m.width)
}

func (m *Model) renderSettingsSummary() string {
	c := m.passageCfg
	summary := fmt.Sprintf("μ=%s σ=%s b=%s T=%s paths=%s  arcsine paths=%s",
		formatFloat(c.Drift), formatFloat(c.Volatility), formatFloat(c.Barrier), formatFloat(c.Horizon),
		humanize.Comma(int64(c.PathCount)), humanize.Comma(int64(m.arcsineCfg.PathCount)))
	if m.busy() {
		running := make([]string, 0, 2)
		if m.passage.Busy() {
			running = append(running, "first passage")
		}
		if m.arcsine.Busy() {
			running = append(running, "arcsine")
		}
		spin := busyStyle.Render(m.spinner.View() + " running " + strings.Join(running, ", "))
		room := max(1, m.width-lipgloss.Width(spin)-2)
		return headerStyle.Render(truncateLine(summary, room)) + "  " + spin
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right/1-3  Scroll: up/down/pgup/pgdn  Rerun: r  Settings: /  Quit: q"
	if m.activeTab == tabArcsine {
		help = "Nav: left/right/1-3  Scroll: up/down/pgup/pgdn  Bins: t  Rerun: r  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.settingsMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply and rerun  esc: cancel")
	}
	if m.status != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.status)
	}
	return m.renderHelp()
}

func (m *Model) renderSettingsForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.settingsInputs {
		lines = append(lines, input.View())
	}
	if m.opts.Store == nil {
		lines = append(lines, headerStyle.Render("Presets are unavailable without a database."))
	}
	if m.settingsError != "" {
		lines = append(lines, errorStyle.Render(m.settingsError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.settingsMode {
		return fitLines(m.renderSettingsForm(), m.width, height)
	}
	if m.tableActive() {
		if m.arcsineRes == nil {
			return fitLines("Running simulations...", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.binTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabPassage].SetContent(renderPassage(m.passageShown, m.passageRes, m.passageErr, m.passageSeed, width))
	m.viewports[tabArcsine].SetContent(renderArcsine(m.arcsineRes, m.arcsineErr, m.opts.Bins, m.arcsineSeed, width))
	m.viewports[tabTheory].SetContent(renderTheory(m.passageCfg, width))
	if m.arcsineRes != nil {
		_, bodyHeight, _ := m.layoutHeights()
		m.binTable = buildBinTable(m.arcsineRes, m.opts.Bins, width, bodyHeight)
		m.syncTableFocus()
	}
}

func plotOptions(width, height int) stats.PlotOptions {
	return stats.PlotOptions{
		Width:       stats.PlotWidthFor(width),
		Height:      height,
		Color:       true,
		SharedScale: true,
	}
}

func renderPassage(cfg model.SimulationConfig, res *model.FirstPassageResult, errMsg string, seed uint64, width int) string {
	if errMsg != "" {
		return errorStyle.Render("First passage failed: " + errMsg)
	}
	if res == nil {
		return "Running simulations..."
	}
	gap := math.Abs(res.EmpiricalProbability - res.TheoreticalProbability)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Empirical", formatPercent(res.EmpiricalProbability),
			fmt.Sprintf("%s/%s paths", humanize.Comma(int64(res.HitCount)), humanize.Comma(int64(res.PathCount)))),
		metricCard("Theoretical", formatPercent(res.TheoreticalProbability), fmt.Sprintf("Error: %.4f", gap)),
		metricCard("Steps", humanize.Comma(int64(res.StepCount)), "seed "+strconv.FormatUint(seed, 10)),
	)
	var buf bytes.Buffer
	if err := stats.PlotSeries(&buf, "Sample Path Realizations", stats.SamplePathSeries(*res, cfg.Barrier), plotOptions(width, plotHeight)); err != nil {
		return fmt.Sprintf("Failed to render paths: %v", err)
	}
	note := headerStyle.Render("Reflection principle: P(reach b before T) = 1 − Φ(d1) + exp(2μb/σ²)·Φ(d2)")
	return strings.TrimRight(cards+"\n\n"+buf.String()+note, "\n")
}

func renderArcsine(res *model.ArcsineResult, errMsg string, bins int, seed uint64, width int) string {
	if errMsg != "" {
		return errorStyle.Render("Arcsine simulation failed: " + errMsg)
	}
	if res == nil {
		return "Running simulations..."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s paths, %d bins, seed %d",
		humanize.Comma(int64(len(res.OccupationFraction))), bins, seed)))
	b.WriteString("\n\n")
	for _, s := range model.Statistics {
		values := res.Values(s)
		hist := stats.BuildHistogram(values, bins)
		b.WriteString(cardValueStyle.Render(s.Title()))
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("F(0.1) %.3f vs %.3f   F(0.5) %.3f vs %.3f   F(0.9) %.3f vs %.3f",
			stats.EmpiricalCDF(values, 0.1), analytic.ArcsineCDF(0.1),
			stats.EmpiricalCDF(values, 0.5), analytic.ArcsineCDF(0.5),
			stats.EmpiricalCDF(values, 0.9), analytic.ArcsineCDF(0.9))))
		b.WriteString("\n")
		if err := stats.PlotSeries(&b, "", stats.DensitySeries(hist), plotOptions(width, densityPlots)); err != nil {
			return fmt.Sprintf("Failed to render densities: %v", err)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTheory(cfg model.SimulationConfig, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderTheory(&buf, cfg, plotOptions(width, plotHeight)); err != nil {
		return fmt.Sprintf("Failed to render theory: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value, detail string) string {
	content := fmt.Sprintf("%s\n%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value), cardTitleStyle.Render(detail))
	return cardStyle.Render(content)
}

func buildBinTable(res *model.ArcsineResult, bins, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Bin", Width: 4},
		{Title: "Midpoint", Width: 9},
		{Title: "Occupation", Width: 11},
		{Title: "Last zero", Width: 10},
		{Title: "Max time", Width: 9},
		{Title: "Arcsine", Width: 8},
	}
	var rows []table.Row
	if res != nil {
		occ := stats.BuildHistogram(res.OccupationFraction, bins)
		last := stats.BuildHistogram(res.LastZeroFraction, bins)
		maxT := stats.BuildHistogram(res.MaxTimeFraction, bins)
		rows = make([]table.Row, 0, len(occ))
		for i := range occ {
			rows = append(rows, table.Row{
				strconv.Itoa(i),
				fmt.Sprintf("%.4f", occ[i].Midpoint),
				fmt.Sprintf("%.4f", occ[i].EmpiricalDensity),
				fmt.Sprintf("%.4f", last[i].EmpiricalDensity),
				fmt.Sprintf("%.4f", maxT[i].EmpiricalDensity),
				fmt.Sprintf("%.4f", occ[i].TheoreticalDensity),
			})
		}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(binTableStyles())
	return t
}

func binTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startSettings() (tea.Model, tea.Cmd) {
	m.settingsMode = true
	m.settingsError = ""
	m.setInputsFromConfig()
	return m, m.setSettingsIndex(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingsMode = false
		m.settingsError = ""
		return m, nil
	case tea.KeyEnter:
		passageChanged, arcsineChanged, err := m.applySettings()
		if err != nil {
			m.settingsError = err.Error()
			return m, nil
		}
		m.settingsMode = false
		m.settingsError = ""
		var cmds []tea.Cmd
		if passageChanged {
			cmds = append(cmds, m.restartPassageRun())
		}
		if arcsineChanged {
			cmds = append(cmds, m.restartArcsineRun())
		}
		m.renderTabContents()
		return m, tea.Batch(cmds...)
	case tea.KeyTab, tea.KeyDown:
		return m, m.setSettingsIndex(m.settingsIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setSettingsIndex(m.settingsIndex - 1)
	}
	var cmd tea.Cmd
	m.settingsInputs[m.settingsIndex], cmd = m.settingsInputs[m.settingsIndex].Update(msg)
	return m, cmd
}

func (m *Model) setSettingsIndex(idx int) tea.Cmd {
	count := len(m.settingsInputs)
	m.settingsIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.settingsInputs {
		if i == m.settingsIndex {
			cmd = m.settingsInputs[i].Focus()
		} else {
			m.settingsInputs[i].Blur()
		}
	}
	return cmd
}

// applySettings parses the form into new configurations and reports which
// simulations changed.
func (m *Model) applySettings() (passageChanged, arcsineChanged bool, err error) {
	passage := m.passageCfg
	if name := strings.TrimSpace(m.settingsInputs[fieldPreset].Value()); name != "" {
		if m.opts.Store == nil {
			return false, false, errors.New("no preset database is open")
		}
		p, err := m.opts.Store.GetPreset(m.ctx, name)
		if err != nil {
			return false, false, err
		}
		passage = p.Config
	} else {
		if passage.Drift, err = parseFloatField(m.settingsInputs[fieldDrift], "drift"); err != nil {
			return false, false, err
		}
		if passage.Volatility, err = parseFloatField(m.settingsInputs[fieldVolatility], "volatility"); err != nil {
			return false, false, err
		}
		if passage.Barrier, err = parseFloatField(m.settingsInputs[fieldBarrier], "barrier"); err != nil {
			return false, false, err
		}
		if passage.PathCount, err = parseIntField(m.settingsInputs[fieldPaths], "paths"); err != nil {
			return false, false, err
		}
	}
	arcsine := m.arcsineCfg
	if arcsine.PathCount, err = parseIntField(m.settingsInputs[fieldArcsinePaths], "arcsine paths"); err != nil {
		return false, false, err
	}
	if _, err := sim.ValidateFirstPassage(passage); err != nil {
		return false, false, err
	}
	if _, _, err := sim.ValidateArcsine(arcsine); err != nil {
		return false, false, err
	}
	passageChanged = passage != m.passageCfg
	arcsineChanged = arcsine != m.arcsineCfg
	m.passageCfg = passage
	m.arcsineCfg = arcsine
	return passageChanged, arcsineChanged, nil
}

func parseFloatField(input textinput.Model, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input.Value()), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (use a number)", name)
	}
	return v, nil
}

func parseIntField(input textinput.Model, name string) (int, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(input.Value()), ",", "")
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (use an integer)", name)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
