package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/typworld/config"
	"github.com/wippyai/typworld/typeset"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD866"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateView
	stateNewFile
)

type fileInfo struct {
	name   string
	kind   string
	size   int
	isMain bool
}

type interactiveModel struct {
	ctx      context.Context
	err      error
	sess     *session
	cfg      *config.Project
	title    string
	status   string
	files    []fileInfo
	view     viewport.Model
	input    textinput.Model
	selected int
	width    int
	height   int
	state    modelState
}

type openedMsg struct {
	err  error
	sess *session
}

type compiledMsg struct {
	title  string
	body   string
	status string
}

func newInteractiveModel(ctx context.Context, cfg *config.Project) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "new file: "
	ti.Placeholder = "chapter.typ"
	ti.Width = 40
	return &interactiveModel{
		ctx:   ctx,
		cfg:   cfg,
		input: ti,
		view:  viewport.New(80, 20),
		state: stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.open
}

func (m *interactiveModel) open() tea.Msg {
	sess, err := open(m.ctx, m.cfg)
	return openedMsg{sess: sess, err: err}
}

func (m *interactiveModel) refresh() {
	world := m.sess.inst.World()
	mainPath := world.Main().Rootless()
	m.files = m.files[:0]
	for _, name := range m.sess.inst.List() {
		info, err := world.Stat(name)
		if err != nil {
			continue
		}
		m.files = append(m.files, fileInfo{
			name:   info.ID.Rootless(),
			kind:   info.Kind.String(),
			size:   info.Size,
			isMain: info.ID.Rootless() == mainPath,
		})
	}
	sort.Slice(m.files, func(i, j int) bool { return m.files[i].name < m.files[j].name })
	if m.selected >= len(m.files) {
		m.selected = max(len(m.files)-1, 0)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-6, 3)

	case tea.KeyMsg:
		if m.state == stateNewFile {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.sess != nil {
				m.sess.close(context.Background())
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.files)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateBrowse && len(m.files) > 0 {
				m.showFile(m.files[m.selected])
			}

		case "c":
			if m.sess != nil {
				return m, m.compile
			}

		case "x":
			if m.sess != nil {
				return m, m.export
			}

		case "n":
			if m.state == stateBrowse && m.sess != nil {
				m.state = stateNewFile
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}

		case "d":
			if m.state == stateBrowse && len(m.files) > 0 {
				name := m.files[m.selected].name
				if err := m.sess.inst.Delete(name); err != nil {
					m.status = errorStyle.Render(err.Error())
				} else {
					m.status = "deleted " + name
				}
				m.refresh()
			}

		case "r":
			if m.sess != nil {
				if _, err := m.sess.mirror.Load(m.ctx); err != nil {
					m.status = errorStyle.Render(err.Error())
				} else {
					m.status = "reloaded " + m.cfg.Root
				}
				m.refresh()
			}

		case "esc":
			m.state = stateBrowse
		}

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.refresh()

	case compiledMsg:
		m.title = msg.title
		m.status = msg.status
		m.view.SetContent(msg.body)
		m.view.GotoTop()
		m.state = stateView
	}

	var cmd tea.Cmd
	switch m.state {
	case stateView:
		m.view, cmd = m.view.Update(msg)
	case stateNewFile:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.state = stateBrowse
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.state = stateBrowse
		if name == "" {
			return m, nil
		}
		if err := m.sess.inst.Write(name, ""); err != nil {
			m.status = errorStyle.Render(err.Error())
		} else {
			m.status = "created " + name
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) showFile(f fileInfo) {
	m.title = f.name
	m.status = ""
	if f.kind != "text" {
		m.view.SetContent(kindStyle.Render(fmt.Sprintf("binary, %d bytes", f.size)))
	} else {
		src, err := m.sess.inst.World().Source(typeset.NewFileID(f.name))
		if err != nil {
			m.view.SetContent(errorStyle.Render(err.Error()))
		} else {
			m.view.SetContent(src.Text())
		}
	}
	m.view.GotoTop()
	m.state = stateView
}

func (m *interactiveModel) compile() tea.Msg {
	svg := m.sess.inst.SVG(m.ctx)
	body := m.diagnostics()
	status := resultStyle.Render(fmt.Sprintf("compiled, %d bytes of svg", len(svg)))
	if m.sess.inst.Report().Failed() {
		status = errorStyle.Render("compilation failed")
	}
	return compiledMsg{title: "compile", body: body, status: status}
}

func (m *interactiveModel) export() tea.Msg {
	cfg := *m.cfg
	cfg.Output = m.target()
	_, ok, err := m.sess.render(m.ctx, &cfg, io.Discard)
	status := resultStyle.Render("wrote " + cfg.Output)
	switch {
	case err != nil:
		status = errorStyle.Render(err.Error())
	case !ok:
		status = errorStyle.Render("compilation failed, nothing written")
	}
	return compiledMsg{title: "export " + m.cfg.Format, body: m.diagnostics(), status: status}
}

// target is the export destination. Stdout belongs to the TUI, so an
// unset output becomes a file next to the main file.
func (m *interactiveModel) target() string {
	if m.cfg.Output != "" {
		return m.cfg.Output
	}
	base := strings.TrimSuffix(m.cfg.Main, filepath.Ext(m.cfg.Main))
	return filepath.Join(m.cfg.Root, base+"."+m.cfg.Format)
}

func (m *interactiveModel) diagnostics() string {
	report := m.sess.inst.Report()
	lines := m.sess.inst.Errors()
	if len(lines) == 0 {
		return resultStyle.Render("no diagnostics")
	}
	var b strings.Builder
	for i, line := range lines {
		style := warningStyle
		if i < len(report.Diagnostics) && report.Diagnostics[i].Severity == typeset.SeverityError {
			style = errorStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.sess == nil {
		return "Loading " + m.cfg.Root + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("typworld"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Root)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse, stateNewFile:
		for i, f := range m.files {
			line := m.formatFile(f)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateNewFile {
			b.WriteString(m.input.View())
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("enter create • esc cancel"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter view • c compile • x export • n new • d delete • r reload • q quit"))
		}

	case stateView:
		b.WriteString(fileStyle.Render(m.title))
		b.WriteString("\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • c compile • x export • q quit"))
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	return b.String()
}

func (m *interactiveModel) formatFile(f fileInfo) string {
	name := fileStyle.Render(f.name)
	if f.isMain {
		name += " (main)"
	}
	return fmt.Sprintf("%s %s", name, kindStyle.Render(fmt.Sprintf("%s, %d bytes", f.kind, f.size)))
}

func runInteractive(ctx context.Context, cfg *config.Project) error {
	p := tea.NewProgram(newInteractiveModel(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
