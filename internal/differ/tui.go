// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fleetctl/fleetctl/internal/replicate"
)

// SelectSnapshots runs a terminal picker over the candidate snapshots and
// returns the ones marked for copying. Quitting without confirming returns
// nil.
func SelectSnapshots(items []*replicate.Snapshot) []*replicate.Snapshot {
	p := tea.NewProgram(model{items: items})
	m, _ := p.Run()
	return m.(model).selected
}

type model struct {
	items    []*replicate.Snapshot
	cursor   int
	selected []*replicate.Snapshot
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "w":
		return m, tea.WindowSize()
	case "q", "esc":
		m.selected = nil
		return m, tea.Quit
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		m = m.toggle()
	case "enter":
		if len(m.selected) > 0 {
			return m, tea.Quit
		}
	}

	return m, nil
}

// toggle adds the snapshot under the cursor to the selection, or removes it
// when already there.
func (m model) toggle() model {
	current := m.items[m.cursor]
	for i, v := range m.selected {
		if v.ID == current.ID {
			m.selected = append(m.selected[:i], m.selected[i+1:]...)
			return m
		}
	}

	m.selected = append(m.selected, current)
	return m
}

func (m model) View() string {
	s := "Select snapshots to copy:\n\n"
	for i, snap := range m.items {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		mark := " "
		if contains(m.selected, snap) {
			mark = "x"
		}

		s += fmt.Sprintf("%s [%s] %s %4dGB %s\n", cursor, mark, snap.ID, snap.StorageGB, snap.Created.Format("2006-01-02T15:04:05Z"))
	}
	return s + "\nSPACE: toggle, ENTER: go, Q/ESCAPE: quit\n"
}

func contains(snapshots []*replicate.Snapshot, snapshot *replicate.Snapshot) bool {
	for _, v := range snapshots {
		if v.ID == snapshot.ID {
			return true
		}
	}
	return false
}
