// Package tui provides the interactive Bubble Tea dashboard for pbb.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pbb/internal/cli"
	"pbb/internal/config"
	"pbb/internal/model"
	"pbb/internal/pipeline"
	"pbb/internal/source"
	"pbb/internal/tui/components"
	"pbb/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AnalysisDoneMsg is sent when the analysis pipeline finishes.
type AnalysisDoneMsg struct {
	Result  *model.AnalysisResult
	Err     error
	Elapsed time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	// Inputs
	positionsPath string
	budgetsPath   string
	params        config.Analysis

	// Data
	res     *model.AnalysisResult
	loadErr error
	loaded  bool
	elapsed time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	scroll    []int // per-tab scroll offset
	showHelp  bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 70
	maxContentWidth  = 160
	headerHeight     = 5 // title + tab bar + spacing
)

// NewApp builds the dashboard for the given input files.
func NewApp(positionsPath, budgetsPath string, params config.Analysis) App {
	cfg, err := config.Load()
	if err == nil {
		theme.SetActive(cfg.Appearance.Theme)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		positionsPath: positionsPath,
		budgetsPath:   budgetsPath,
		params:        params,
		scroll:        make([]int, len(components.Tabs)),
		spinner:       sp,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, analyzeCmd(a.positionsPath, a.budgetsPath, a.params))
}

// analyzeCmd runs the pipeline off the UI goroutine.
func analyzeCmd(positionsPath, budgetsPath string, params config.Analysis) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		positions, err := source.ReadTableFile(positionsPath)
		if err != nil {
			return AnalysisDoneMsg{Err: err}
		}
		budgets, err := source.ReadTableFile(budgetsPath)
		if err != nil {
			return AnalysisDoneMsg{Err: err}
		}

		res, err := pipeline.Analyze(positions, budgets, params)
		return AnalysisDoneMsg{Result: res, Err: err, Elapsed: time.Since(start)}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case AnalysisDoneMsg:
		a.loaded = true
		a.res = msg.Result
		a.loadErr = msg.Err
		a.elapsed = msg.Elapsed
		return a, nil

	case spinner.TickMsg:
		if a.loaded {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}
		return a, tea.Quit

	case "?":
		a.showHelp = !a.showHelp
		return a, nil

	case "tab", "l", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil

	case "shift+tab", "h", "left":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		return a, nil

	case "j", "down":
		a.scroll[a.activeTab]++
		return a, nil

	case "k", "up":
		if a.scroll[a.activeTab] > 0 {
			a.scroll[a.activeTab]--
		}
		return a, nil

	case "g":
		a.scroll[a.activeTab] = 0
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) contentWidth() int {
	w := a.width
	if w > maxContentWidth {
		w = maxContentWidth
	}
	return w
}

func (a App) View() string {
	if a.width > 0 && a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols, need %d).\n  Resize or press q to quit.\n",
			a.width, minTerminalWidth)
	}

	if !a.loaded {
		return fmt.Sprintf("\n\n  %s Analyzing %s + %s...\n",
			a.spinner.View(), a.positionsPath, a.budgetsPath)
	}

	if a.loadErr != nil {
		t := theme.Active
		errStyle := lipgloss.NewStyle().Foreground(t.Red)
		hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
		return "\n  " + errStyle.Render("Analysis failed: "+a.loadErr.Error()) +
			"\n\n  " + hintStyle.Render("Fix the input files and restart. Press q to quit.") + "\n"
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	lines := []struct{ key, desc string }{
		{"tab / shift+tab", "next / previous tab"},
		{"o p r w", "jump to a tab"},
		{"j / k", "scroll down / up"},
		{"g", "scroll to top"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString("\n  Keys\n\n")
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-16s", l.key)),
			descStyle.Render(l.desc)))
	}
	return b.String()
}

func (a App) viewMain() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	b.WriteString("\n ")
	b.WriteString(titleStyle.Render("pbb"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s + %s  (%dms)",
		a.positionsPath, a.budgetsPath, a.elapsed.Milliseconds())))
	b.WriteString("\n\n")
	b.WriteString(components.RenderTabBar(a.activeTab))
	b.WriteString("\n\n")

	var content string
	switch a.activeTab {
	case 0:
		content = a.viewOverview()
	case 1:
		content = a.viewPrograms()
	case 2:
		content = a.viewRecommendations()
	case 3:
		content = a.viewWarnings()
	}

	b.WriteString(a.clipToViewport(content))
	b.WriteString("\n ")
	b.WriteString(dimStyle.Render("?: help  q: quit"))
	return b.String()
}

// clipToViewport applies the active tab's scroll offset and clips to
// the available height.
func (a App) clipToViewport(content string) string {
	lines := strings.Split(content, "\n")

	offset := a.scroll[a.activeTab]
	if offset >= len(lines) {
		offset = len(lines) - 1
		if offset < 0 {
			offset = 0
		}
	}
	lines = lines[offset:]

	if a.height > 0 {
		avail := a.height - headerHeight
		if avail < 3 {
			avail = 3
		}
		if len(lines) > avail {
			lines = lines[:avail]
		}
	}
	return strings.Join(lines, "\n")
}

func (a App) viewOverview() string {
	s := a.res.Summary
	cards := []struct{ Label, Value, Note string }{
		{"Programs", cli.FormatNumber(int64(s.ProgramCount)), ""},
		{"Total Budget", cli.FormatMoney(s.TotalBudget), ""},
		{"Predicted Cost", cli.FormatMoney(s.TotalPredictedCost), ""},
		{"Variance", cli.FormatSignedMoney(s.TotalVariance), varianceNote(s)},
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(cards, a.contentWidth()-2))
	b.WriteString("\n")

	if body := a.varianceChart(); body != "" {
		b.WriteString(components.ContentCard("Variance by program", body, a.contentWidth()-2))
		b.WriteString("\n")
	}

	if len(a.res.Diagnostics) > 0 {
		b.WriteString(components.ContentCard("Notes",
			" "+strings.Join(a.res.Diagnostics, "\n "), a.contentWidth()-2))
		b.WriteString("\n")
	}
	return b.String()
}

func varianceNote(s model.Summary) string {
	switch {
	case s.TotalVariance.IsPositive():
		return "over budget"
	case s.TotalVariance.IsNegative():
		return "under budget"
	default:
		return "balanced"
	}
}

// varianceChart renders a horizontal bar per program, scaled to the
// largest absolute variance.
func (a App) varianceChart() string {
	progs := a.res.Programs
	if len(progs) == 0 {
		return ""
	}

	sorted := make([]model.Program, len(progs))
	copy(sorted, progs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Variance.Abs().GreaterThan(sorted[j].Variance.Abs())
	})
	if len(sorted) > 12 {
		sorted = sorted[:12]
	}

	maxAbs, _ := sorted[0].Variance.Abs().Float64()
	barWidth := components.CardInnerWidth(a.contentWidth()-2) - 40
	if barWidth < 10 {
		barWidth = 10
	}

	t := theme.Active
	overStyle := lipgloss.NewStyle().Foreground(t.Red)
	underStyle := lipgloss.NewStyle().Foreground(t.Green)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	for _, p := range sorted {
		v, _ := p.Variance.Abs().Float64()
		bar := cli.RenderHorizontalBar(v, maxAbs, barWidth)
		if p.Variance.IsPositive() {
			bar = overStyle.Render(bar)
		} else {
			bar = underStyle.Render(bar)
		}
		b.WriteString(fmt.Sprintf(" %s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-24s", truncStr(cli.FormatProgram(p.Key), 24))),
			bar,
			cli.FormatSignedMoney(p.Variance)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a App) viewPrograms() string {
	rows := make([][]string, 0, len(a.res.Programs))
	for _, p := range a.res.Programs {
		rows = append(rows, []string{
			truncStr(cli.FormatProgram(p.Key), 32),
			cli.FormatNumber(int64(p.PositionCount)),
			cli.FormatMoney(p.AllocatedBudget),
			cli.FormatMoney(p.PredictedCost),
			cli.FormatSignedMoney(p.Variance),
			cli.FormatBasis(p.EstimationBasis),
		})
	}
	return cli.RenderTable(cli.Table{
		Headers: []string{"Program", "Pos", "Budget", "Predicted", "Variance", "Basis"},
		Rows:    rows,
	})
}

func (a App) viewRecommendations() string {
	if len(a.res.Recommendations) == 0 {
		t := theme.Active
		return lipgloss.NewStyle().Foreground(t.TextMuted).
			Render("  No reallocations to recommend.")
	}

	rows := make([][]string, 0, len(a.res.Recommendations))
	for _, r := range a.res.Recommendations {
		rows = append(rows, []string{
			truncStr(cli.FormatProgram(r.ProgramKey), 32),
			cli.FormatAction(r.Action),
			cli.FormatSignedMoney(r.DeltaAmount),
			cli.FormatPercent(r.Confidence),
		})
	}
	return cli.RenderTable(cli.Table{
		Headers: []string{"Program", "Action", "Delta", "Confidence"},
		Rows:    rows,
	})
}

func (a App) viewWarnings() string {
	t := theme.Active
	if len(a.res.Warnings) == 0 && len(a.res.Diagnostics) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).
			Render("  No consistency warnings. Inputs look clean.")
	}

	var b strings.Builder
	for _, w := range a.res.Warnings {
		b.WriteString("  " + cli.RenderWarning(w.Message) + "\n")
	}
	for _, d := range a.res.Diagnostics {
		b.WriteString("  " + cli.RenderDiagnostic(d) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncStr(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 1 {
		return s[:limit]
	}
	return s[:limit-1] + "…"
}
