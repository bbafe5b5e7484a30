// Package tui is an interactive browser for the provenance of a computed
// return: every line in canonical order, with the record of the selected
// line and navigation along its inputs.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/tui/themes"
)

// step is one level of input navigation: the record we came from and which
// of its sources is shown.
type step struct {
	from   int
	source int
}

// Model holds the browser state.
type Model struct {
	ret      *assembler.ComputedReturn
	index    map[model.NodeKey]int
	theme    themes.Theme
	keymap   KeyMap
	help     help.Model
	detail   viewport.Model
	records  []model.ProvenanceRecord
	visible  []int
	path     []step
	width    int
	height   int
	cursor   int
	offset   int
	computed bool
	quitting bool
}

// New builds a browser over ret.
func New(ret *assembler.ComputedReturn, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	records := ret.Provenance()
	index := make(map[model.NodeKey]int, len(records))
	for i, rec := range records {
		index[rec.Node] = i
	}

	m := Model{
		ret:      ret,
		records:  records,
		index:    index,
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		detail:   viewport.New(0, 0),
		computed: cfg.ComputedOnly,
	}
	m.help.ShowAll = cfg.ShowHelp
	m.filter()
	m.resize(cfg.Width, cfg.Height)

	if cfg.Start != nil {
		if i, ok := index[*cfg.Start]; ok {
			m.jump(i)
		}
	}
	m.refreshDetail()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)

	case key.Matches(msg, m.keymap.Up):
		m.move(-1)
	case key.Matches(msg, m.keymap.Down):
		m.move(1)
	case key.Matches(msg, m.keymap.PageUp):
		m.move(-m.listHeight())
	case key.Matches(msg, m.keymap.PageDown):
		m.move(m.listHeight())
	case key.Matches(msg, m.keymap.Home):
		m.move(-len(m.visible))
	case key.Matches(msg, m.keymap.End):
		m.move(len(m.visible))

	case key.Matches(msg, m.keymap.Follow):
		m.follow()
	case key.Matches(msg, m.keymap.NextSource):
		m.nextSource()
	case key.Matches(msg, m.keymap.Back):
		m.back()

	case key.Matches(msg, m.keymap.Filter):
		current := m.selected()
		m.computed = !m.computed
		m.filter()
		m.jump(current)
	}

	m.refreshDetail()
	return m, nil
}

// Selected returns the record under the cursor.
func (m Model) Selected() model.ProvenanceRecord {
	return m.records[m.selected()]
}

// Path returns the lines followed to reach the selection, outermost first.
func (m Model) Path() []model.NodeKey {
	keys := make([]model.NodeKey, len(m.path))
	for i, s := range m.path {
		keys[i] = m.records[s.from].Node
	}
	return keys
}

func (m *Model) selected() int {
	if len(m.visible) == 0 {
		return 0
	}
	return m.visible[m.cursor]
}

func isInput(rec model.ProvenanceRecord) bool {
	return rec.Rule == forms.RuleInput || rec.Rule == forms.RuleInputDefault
}

func (m *Model) filter() {
	m.visible = make([]int, 0, len(m.records))
	for i, rec := range m.records {
		if m.computed && isInput(rec) {
			continue
		}
		m.visible = append(m.visible, i)
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *Model) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.visible)-1, 0))
	m.path = nil
	m.scroll()
}

// jump selects record i, showing input lines if the filter hides it.
func (m *Model) jump(i int) {
	for pos, idx := range m.visible {
		if idx == i {
			m.cursor = pos
			m.scroll()
			return
		}
	}
	if m.computed {
		m.computed = false
		m.filter()
		m.jump(i)
	}
}

func (m *Model) sources(i int) []int {
	var out []int
	for _, k := range m.records[i].Sources() {
		if j, ok := m.index[k]; ok {
			out = append(out, j)
		}
	}
	return out
}

func (m *Model) follow() {
	from := m.selected()
	srcs := m.sources(from)
	if len(srcs) == 0 {
		return
	}
	path := append(append([]step(nil), m.path...), step{from: from})
	m.jump(srcs[0])
	m.path = path
}

func (m *Model) nextSource() {
	if len(m.path) == 0 {
		return
	}
	path := append([]step(nil), m.path...)
	top := &path[len(path)-1]
	srcs := m.sources(top.from)
	top.source = (top.source + 1) % len(srcs)
	m.jump(srcs[top.source])
	m.path = path
}

func (m *Model) back() {
	if len(m.path) == 0 {
		return
	}
	top := m.path[len(m.path)-1]
	path := m.path[:len(m.path)-1]
	m.jump(top.from)
	m.path = path
}

// scroll keeps the cursor inside the list window.
func (m *Model) scroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}
