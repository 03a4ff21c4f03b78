package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gocpu/i8080/cpu"
	"github.com/gocpu/i8080/disassemble"
	"github.com/gocpu/i8080/loader"
	"github.com/gocpu/i8080/memory"
)

var (
	registerStyle = lipgloss.NewStyle().Bold(true)
	haltedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// monitorModel is the Bubbletea model driving the single-step monitor:
// "n" steps one instruction, "c" free-runs until HLT or an error, "q"
// quits. Grounded on the 6502 pack's page-table/status debugger, with
// the page table swapped for a disassembly window since stepping an
// 8080 program is more naturally read as a trace than as a hex grid.
type monitorModel struct {
	cpu     *cpu.Chip
	lastErr error
	history []string
}

func (m monitorModel) Init() tea.Cmd { return nil }

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n":
		m.step()
	case "c":
		for i := 0; i < 1_000_000 && m.lastErr == nil && !m.cpu.Halted(); i++ {
			m.step()
		}
	}
	return m, nil
}

func (m *monitorModel) step() {
	if m.cpu.Halted() || m.lastErr != nil {
		return
	}
	line, _ := disassemble.Step(m.cpu.PC, m.cpu.Mem)
	if _, _, err := m.cpu.Step(); err != nil {
		m.lastErr = err
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > 12 {
		m.history = m.history[len(m.history)-12:]
	}
}

func (m monitorModel) registers() string {
	flags := ""
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"S", m.cpu.F&cpu.FlagS != 0},
		{"Z", m.cpu.F&cpu.FlagZ != 0},
		{"A", m.cpu.F&cpu.FlagAC != 0},
		{"P", m.cpu.F&cpu.FlagP != 0},
		{"C", m.cpu.F&cpu.FlagC != 0},
	} {
		if f.set {
			flags += f.name
		} else {
			flags += "-"
		}
	}
	status := "running"
	if m.cpu.Halted() {
		status = haltedStyle.Render("HALTED")
	}
	return registerStyle.Render(fmt.Sprintf(
		"PC:%04X SP:%04X  A:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X  F:%s [%s]",
		m.cpu.PC, m.cpu.SP, m.cpu.A, m.cpu.B, m.cpu.C, m.cpu.D, m.cpu.E, m.cpu.H, m.cpu.L, flags, status,
	))
}

func (m monitorModel) View() string {
	lines := []string{m.registers(), "", strings.Join(m.history, "\n")}
	if m.lastErr != nil {
		lines = append(lines, "", errorStyle.Render(m.lastErr.Error()))
	}
	lines = append(lines, "", "n: step   c: run   q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// monitorCmd builds the "i8080 monitor" subcommand: load a raw binary
// image and drop into the interactive single-step TUI.
func monitorCmd() *cobra.Command {
	var loadAddr uint16
	var startPC uint16

	cmd := &cobra.Command{
		Use:   "monitor <file>",
		Short: "Load a raw binary image and step through it interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem := memory.NewFlat()
			if _, err := loader.Load(mem, loadAddr, args[0]); err != nil {
				return err
			}
			c := cpu.NewWithMemory(startPC, mem)
			_, err := tea.NewProgram(monitorModel{cpu: c}).Run()
			return err
		},
	}
	cmd.Flags().Uint16Var(&loadAddr, "load-addr", 0x0000, "address to load the image at")
	cmd.Flags().Uint16Var(&startPC, "start-pc", 0x0000, "initial PC")
	return cmd
}
