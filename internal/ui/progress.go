// Package ui provides a slim bubbletea progress view that subscribes to the
// launch pipeline's status channel. It is a thin consumer of the
// launch.Status values on that channel, not part of the pipeline itself.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/glauncher/glauncher/internal/launch"
)

// statusMsg wraps a launch.Status delivered over the channel.
type statusMsg launch.Status

// doneMsg signals the status channel closed.
type doneMsg struct{}

// ProgressModel renders the running stage, a progress bar, and recent log
// lines for one launch.
type ProgressModel struct {
	instanceName string
	statusChan   <-chan launch.Status

	bar      progress.Model
	status   launch.Status
	finished bool
	logs     []string
}

// NewProgressModel builds a progress view fed by statusChan.
func NewProgressModel(instanceName string, statusChan <-chan launch.Status) *ProgressModel {
	return &ProgressModel{
		instanceName: instanceName,
		statusChan:   statusChan,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
	}
}

func (m *ProgressModel) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		status, ok := <-m.statusChan
		if !ok {
			return doneMsg{}
		}
		return statusMsg(status)
	}
}

// Init implements tea.Model.
func (m *ProgressModel) Init() tea.Cmd {
	return m.waitForStatus()
}

// Update implements tea.Model.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = launch.Status(msg)
		if m.status.LogLine != nil {
			line := fmt.Sprintf("[%s] %s", m.status.LogLine.Type, m.status.LogLine.Text)
			m.logs = append(m.logs, line)
			if len(m.logs) > 12 {
				m.logs = m.logs[len(m.logs)-12:]
			}
		}
		if m.status.IsComplete {
			m.finished = true
			return m, tea.Quit
		}
		cmd := m.bar.SetPercent(m.status.Progress)
		return m, tea.Batch(cmd, m.waitForStatus())

	case doneMsg:
		m.finished = true
		return m, tea.Quit

	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *ProgressModel) View() string {
	header := TitleStyle.Render(fmt.Sprintf("Launching: %s", m.instanceName))
	stepLine := HelpStyle.Render(m.status.Step)
	msgLine := lipgloss.NewStyle().Foreground(ColorSubtle).Render(m.status.Message)

	var logsView strings.Builder
	if len(m.logs) > 0 {
		logStyle := lipgloss.NewStyle().Foreground(ColorMuted)
		logsView.WriteString("\n")
		for _, line := range m.logs {
			logsView.WriteString(logStyle.Render(line) + "\n")
		}
	}

	footer := HelpStyle.Render("[Ctrl+C] Quit")
	if m.status.Error != nil {
		footer = ErrorStyle.Render(m.status.Error.Error())
	} else if m.finished {
		footer = SuccessStyle.Render("Done.")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		m.bar.View(),
		stepLine,
		msgLine,
		logsView.String(),
		footer,
	)
}
