// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/config"
	"github.com/fleetctl/fleetctl/internal/event"
	"github.com/fleetctl/fleetctl/internal/fleet"
	ec2x "github.com/fleetctl/fleetctl/internal/fleet/ec2"
	"github.com/fleetctl/fleetctl/internal/meta"
)

// watchCommandAction is the action handler for the "watch" subcommand. It
// polls the tagged fleet on an interval and renders live instance states
// until the operator quits.
func watchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "watch") {
		return nil
	}

	config.Config.Namespace = "watch"

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("watch needs a terminal; use iq for scripted output")
	}

	filter, _, region, err := resolveFleet(ctx, cmd, event.Event{})
	if err != nil {
		return err
	}

	client, region, err := NewEC2Client(ctx, cmd, region)
	if err != nil {
		return err
	}

	interval := cmd.Duration("interval")
	if interval <= 0 {
		interval = 5 * time.Second
	}

	p := tea.NewProgram(newWatchModel(ctx, ec2x.New(client, region), filter, region, interval))
	_, err = p.Run()
	return err
}

type watchTickMsg time.Time

type watchResultMsg struct {
	handles []fleet.Handle
	err     error
}

// watchModel is the Bubble Tea model for the watch command.
type watchModel struct {
	ctx      context.Context
	provider *ec2x.Provider
	filter   fleet.Filter
	region   string
	interval time.Duration
	spinner  spinner.Model
	handles  []fleet.Handle
	err      error
	polls    int
	polled   time.Time
}

var (
	watchHeaderStyle   = lipgloss.NewStyle().Bold(true)
	watchRunningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AF5F"))
	watchStoppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D70000"))
	watchChangingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D78700"))
	watchFooterStyle   = lipgloss.NewStyle().Faint(true)
)

func newWatchModel(ctx context.Context, provider *ec2x.Provider, filter fleet.Filter, region string, interval time.Duration) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#623CE4"))

	return watchModel{
		ctx:      ctx,
		provider: provider,
		filter:   filter,
		region:   region,
		interval: interval,
		spinner:  sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

// poll observes the fleet off the UI loop and reports back as a message.
func (m watchModel) poll() tea.Cmd {
	ctx, provider, filter := m.ctx, m.provider, m.filter
	return func() tea.Msg {
		handles, err := provider.LocateInstances(ctx, filter)
		fleet.SortHandles(handles)
		return watchResultMsg{handles: handles, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.poll()
		}
	case watchResultMsg:
		m.handles, m.err = msg.handles, msg.err
		m.polls++
		m.polled = time.Now()
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return watchTickMsg(t)
		})
	case watchTickMsg:
		return m, m.poll()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n",
		m.spinner.View(),
		watchHeaderStyle.Render(fmt.Sprintf("watching %s in %s", m.filter, m.region)))

	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n", watchStoppedStyle.Render(m.err.Error()))
	}

	counts := map[fleet.InstanceState]int{}
	for _, h := range m.handles {
		counts[h.State]++
		fmt.Fprintf(&b, "  %-20s %s\n", h.ID, watchStateStyle(h.State).Render(string(h.State)))
	}

	if m.polls > 0 && len(m.handles) == 0 && m.err == nil {
		b.WriteString("  no instances matched\n")
	}

	fmt.Fprintf(&b, "\n%s\n", watchFooterStyle.Render(watchSummary(counts, m.polls, m.polled)))
	b.WriteString(watchFooterStyle.Render("r: poll now, q: quit"))
	b.WriteString("\n")

	return b.String()
}

func watchStateStyle(state fleet.InstanceState) lipgloss.Style {
	switch state {
	case fleet.StateRunning:
		return watchRunningStyle
	case fleet.StateStopped:
		return watchStoppedStyle
	default:
		return watchChangingStyle
	}
}

func watchSummary(counts map[fleet.InstanceState]int, polls int, polled time.Time) string {
	parts := make([]string, 0, len(counts))
	for _, state := range []fleet.InstanceState{fleet.StateRunning, fleet.StateStopped, fleet.StatePending, fleet.StateStopping} {
		if n := counts[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, state))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing yet")
	}

	summary := strings.Join(parts, ", ")
	if polls > 0 {
		summary += fmt.Sprintf(" (poll %d at %s)", polls, polled.Format("15:04:05"))
	}
	return summary
}

// watchCommandBuilder constructs the cli.Command for "watch", wiring
// metadata, flags, and action handlers.
func watchCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "watch fleet states live",
		UsageText: "fleetctl watch [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "time between polls",
				Value: 5 * time.Second,
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Key=Value tag predicate; repeat to narrow (all must match)",
			},
			NewProfileFlag("watch", meta.Config.Source),
			NewRegionFlag("watch", meta.Config.Source),
			NewSchedulesFlag("watch", meta.Config.Source),
			scheduleFlag,
			tldrFlag,
		},
		Action: watchCommandAction,
	}
}
