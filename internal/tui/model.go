// Package tui 在终端里运行猫（Bubble Tea）
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/gonewx/feedcat/internal/ascii"
	"github.com/gonewx/feedcat/pkg/bridge"
	"github.com/gonewx/feedcat/pkg/game"
	"github.com/gonewx/feedcat/pkg/sprites"
)

const (
	tickInterval    = time.Second / 30
	maxDeltaTime    = 0.1
	historyCapacity = 60
)

var (
	canvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7CB342")).
			Foreground(lipgloss.Color("#F09A3E"))
	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).MarginTop(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true).MarginTop(1)
)

// TickMsg 帧定时
type TickMsg time.Time

// Model Bubble Tea 模型
type Model struct {
	state  *game.GameState
	bridge *bridge.Bridge
	canvas *canvas
	rate   *rateHistory

	last time.Time
}

// NewModel 创建终端模型，猫帧预先转换成字符画
func NewModel(state *game.GameState, b *bridge.Bridge, sheet *sprites.Sheet) Model {
	cfg := state.Config()
	catCols := 16
	pxPerCol := cfg.Sprite.DisplayWidth() / float64(catCols)

	c := &canvas{
		pxPerCol: pxPerCol,
		frames:   make(map[[2]int][]string),
		mirrored: make(map[[2]int][]string),
	}
	for row := 0; row < sheet.Rows; row++ {
		for col := 0; col < sheet.Columns; col++ {
			art := ascii.Convert(sheet.Frame(row, col), catCols)
			c.frames[[2]int{row, col}] = art
			c.mirrored[[2]int{row, col}] = ascii.Mirror(art)
		}
	}
	// 行高按猫的字符画高度折算
	rows := len(c.frames[[2]int{0, 0}])
	c.pxPerRow = cfg.Sprite.DisplayHeight() / float64(max(rows, 1))

	return Model{
		state:  state,
		bridge: b,
		canvas: c,
		rate:   newRateHistory(historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Init 启动帧定时
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update 处理按键和帧定时
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.bridge.Close()
			return m, tea.Quit
		}
		m.bridge.OnKeystroke()
		m.rate.Add(time.Now())
	case TickMsg:
		now := time.Time(msg)
		m.step(now)
		return m, tick()
	}
	return m, nil
}

// step 用真实时间推进 GameState
func (m *Model) step(now time.Time) {
	dt := 0.0
	if !m.last.IsZero() {
		dt = min(max(now.Sub(m.last).Seconds(), 0), maxDeltaTime)
	}
	m.last = now
	m.state.Update(dt)
	m.rate.Roll(now)
}

// View 猫 + 统计面板
func (m Model) View() string {
	snap := m.state.Snapshot()
	scene := canvasStyle.Render(strings.Join(m.canvas.render(snap), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, scene, m.statsView(snap))
}

func (m Model) statsView(snap game.Snapshot) string {
	stats := m.bridge.Stats()
	threshold := m.bridge.Threshold()

	var s strings.Builder
	s.WriteString(headerStyle.Render("FEED CAT") + "\n")
	s.WriteString(labelStyle.Render("Keystrokes") + valueStyle.Render(fmt.Sprintf("%d", snap.Keystrokes)) + "\n")
	s.WriteString(labelStyle.Render("Next fish") + valueStyle.Render(fmt.Sprintf("%d", threshold-stats.KeystrokeCount)) + "\n")
	s.WriteString(labelStyle.Render("Fish eaten") + valueStyle.Render(fmt.Sprintf("%d", snap.FishEaten)) + "\n")
	s.WriteString(labelStyle.Render("Cat") + valueStyle.Render(string(snap.Cat.State)) + "\n")
	s.WriteString(labelStyle.Render("Keys/s") + valueStyle.Render(fmt.Sprintf("%.0f", m.rate.Last())) + "\n")

	if samples := m.rate.Samples(); len(samples) > 1 {
		chart := asciigraph.Plot(samples, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("keystrokes/s"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Render("type anything to feed · esc to quit"))
	return statsStyle.Render(s.String())
}

// Run 运行终端界面，直到用户退出
func Run(state *game.GameState, b *bridge.Bridge, sheet *sprites.Sheet) error {
	p := tea.NewProgram(NewModel(state, b, sheet), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
