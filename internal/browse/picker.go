package browse

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobrake/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

const allSourcesLabel = "All sources"

// pickerChoice is the result of the source picker.
type pickerChoice struct {
	sources []model.Source // nil means every source
	quit    bool
}

type pickerModel struct {
	sources []model.Source
	cursor  int // 0 is "All sources"
	chosen  bool
	quit    bool
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sources) {
				m.cursor++
			}
		case "enter":
			m.chosen = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) choice() pickerChoice {
	if m.quit || !m.chosen {
		return pickerChoice{quit: true}
	}
	if m.cursor == 0 {
		return pickerChoice{}
	}
	return pickerChoice{sources: []model.Source{m.sources[m.cursor-1]}}
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Browse postings: select a source") + "\n"

	labels := make([]string, 0, len(m.sources)+1)
	labels = append(labels, allSourcesLabel)
	for _, src := range m.sources {
		labels = append(labels, string(src))
	}
	for i, label := range labels {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunSourcePicker asks which source to browse. It returns nil sources for
// "All sources" and quit=true if the user left without choosing.
func RunSourcePicker(sources []model.Source) (selected []model.Source, quit bool, err error) {
	p := tea.NewProgram(pickerModel{sources: sources})
	result, err := p.Run()
	if err != nil {
		return nil, true, err
	}
	c := result.(pickerModel).choice()
	return c.sources, c.quit, nil
}
