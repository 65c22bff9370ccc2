// Package ui is the terminal front end for a list engine: a bubbletea model
// that maps key events to scroll ticks and jumps, and renders the engine's
// visible slice. Rows are one terminal line tall, so scroll positions and
// item extents are both measured in rows.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/longlist/pkg/engine"
	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/placeholder"
	"github.com/vanderheijden86/longlist/pkg/viewport"
)

// chrome is the number of rows reserved for the header and footer.
const chrome = 2

// refreshMsg carries a new visible slice from the engine.
type refreshMsg struct {
	items     []model.Item
	positions []viewport.Position
}

// Model drives one engine from terminal input.
type Model struct {
	eng  *engine.Engine
	keys KeyMap

	updates chan refreshMsg

	items     []model.Item
	positions []viewport.Position

	cursor int64
	scroll int64
	width  int
	height int
	status string
	title  string
}

// New builds a model. Construct the engine with this model's RenderFunc,
// then attach it with SetEngine before starting the program.
func New(title string) *Model {
	if title == "" {
		title = "longlist"
	}
	return &Model{
		keys:    DefaultKeyMap(),
		updates: make(chan refreshMsg, 1),
		title:   title,
	}
}

// SetEngine attaches the engine this model drives.
func (m *Model) SetEngine(eng *engine.Engine) {
	m.eng = eng
}

// RenderFunc returns the engine render collaborator feeding this model.
// Latest update wins if the UI falls behind.
func (m *Model) RenderFunc() engine.RenderFunc {
	return func(items []model.Item, positions []viewport.Position) {
		msg := refreshMsg{items: items, positions: positions}
		for {
			select {
			case m.updates <- msg:
				return
			default:
				select {
				case <-m.updates:
				default:
				}
			}
		}
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m *Model) listHeight() int64 {
	h := int64(m.height - chrome)
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eng.SetViewport(m.listHeight())
		return m, nil

	case refreshMsg:
		m.items = msg.items
		m.positions = msg.positions
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.scroll = 0
		if err := m.eng.ScrollToIndex(0); err != nil {
			m.status = err.Error()
		}

	case key.Matches(msg, m.keys.Bottom):
		snap := m.eng.Snapshot()
		if snap.Total > 0 {
			m.cursor = snap.Total - 1
			m.scroll = m.cursor - m.listHeight() + 1
			if m.scroll < 0 {
				m.scroll = 0
			}
			if err := m.eng.ScrollToIndex(m.scroll); err != nil {
				m.status = err.Error()
			}
		}

	case key.Matches(msg, m.keys.Yank):
		m.yankSelected()
	}
	return m, nil
}

func (m *Model) moveCursor(delta int64) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if snap := m.eng.Snapshot(); snap.TotalAuth && snap.Total > 0 && m.cursor >= snap.Total {
		m.cursor = snap.Total - 1
	}

	h := m.listHeight()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+h {
		m.scroll = m.cursor - h + 1
	}
	m.eng.OnScrollTick(m.scroll)
}

func (m *Model) yankSelected() {
	it, ok := m.itemAt(m.cursor)
	if !ok || placeholder.IsPlaceholder(it) {
		m.status = "nothing to copy"
		return
	}
	text := it.Ref
	if text == "" {
		text = it.Title
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.status = fmt.Sprintf("clipboard: %v", err)
		return
	}
	m.status = fmt.Sprintf("copied %q", text)
}

func (m *Model) itemAt(index int64) (model.Item, bool) {
	for _, it := range m.items {
		if it.Index() == index {
			return it, true
		}
	}
	return model.Item{}, false
}

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n")

	h := m.listHeight()
	for row := int64(0); row < h; row++ {
		index := m.scroll + row
		if it, ok := m.itemAt(index); ok {
			b.WriteString(m.renderRow(it, index == m.cursor))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.footerLine())
	return b.String()
}

func (m *Model) headerLine() string {
	snap := m.eng.Snapshot()
	total := "?"
	if snap.Total > 0 {
		total = fmt.Sprintf("%d", snap.Total)
		if !snap.TotalAuth {
			total += "~"
		}
	}
	head := fmt.Sprintf("%s  %d/%s loaded", m.title, snap.LoadedCount, total)
	if m.eng.JumpState() != engine.JumpIdle {
		head += "  " + statusStyle.Render("loading…")
	}
	return headerStyle.Render(truncate(head, m.width))
}

func (m *Model) footerLine() string {
	left := fmt.Sprintf("#%d", m.cursor+1)
	help := "↑/↓ move · pgup/pgdn page · g/G ends · y copy · q quit"
	if m.status != "" {
		help = m.status
	}
	return footerStyle.Render(truncate(left+"  "+help, m.width))
}

func (m *Model) renderRow(it model.Item, selected bool) string {
	// Truncate before styling so ANSI sequences don't skew the width math.
	head := fmt.Sprintf("%7d  %s", it.ID, it.Title)

	// Selected, error, and placeholder rows carry one style end to end.
	if selected || it.Err || it.Placeholder {
		line := head
		if it.Subtitle != "" {
			line += "  " + it.Subtitle
		}
		line = truncate(line, m.width)
		switch {
		case selected:
			return selectedRowStyle.Render(line)
		case it.Err:
			return errorRowStyle.Render(line)
		default:
			return placeholderStyle.Render(line)
		}
	}

	if it.Subtitle == "" {
		return rowStyle.Render(truncate(head, m.width))
	}
	if clipped := truncate(head, m.width); clipped != head {
		// The title alone fills the row; no room left for a subtitle.
		return rowStyle.Render(clipped)
	}
	sub := "  " + it.Subtitle
	if m.width > 0 {
		rem := m.width - runewidth.StringWidth(head)
		if rem < 3 {
			return rowStyle.Render(head)
		}
		sub = truncate(sub, rem)
	}
	return rowStyle.Render(head) + rowSubtitleStyle.Render(sub)
}

// truncate clips a line to the terminal width, accounting for wide runes.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
