// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidewire/agentpilot/agent"
	"github.com/tidewire/agentpilot/notify"
)

var statusColors = map[agent.Status]lipgloss.Color{
	agent.StatusPending:      lipgloss.Color("245"),
	agent.StatusRunning:      lipgloss.Color("39"),
	agent.StatusWaitingHuman: lipgloss.Color("214"),
	agent.StatusCompleted:    lipgloss.Color("42"),
	agent.StatusFailed:       lipgloss.Color("196"),
	agent.StatusCancelled:    lipgloss.Color("133"),
}

var levelColors = map[notify.Level]lipgloss.Color{
	notify.Info:    lipgloss.Color("245"),
	notify.Success: lipgloss.Color("42"),
	notify.Warning: lipgloss.Color("214"),
	notify.Error:   lipgloss.Color("196"),
}

// statusBadge renders the job status as a colored fixed-width tag so
// consecutive status lines align.
func statusBadge(status agent.Status) string {
	color, ok := statusColors[status]
	if !ok {
		color = lipgloss.Color("245")
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Width(14).
		Render(strings.ToUpper(string(status)))
}

// levelBadge renders a notification level tag.
func levelBadge(level notify.Level) string {
	color, ok := levelColors[level]
	if !ok {
		color = lipgloss.Color("245")
	}
	return lipgloss.NewStyle().Foreground(color).Render("[" + string(level) + "]")
}

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// renderStatusLine formats one line of job progress. The caller dedups
// identical lines, so this must be a pure function of the snapshot.
func renderStatusLine(job agent.Job) string {
	var b strings.Builder
	b.WriteString(statusBadge(job.Status))
	fmt.Fprintf(&b, " %3.0f%%", job.Progress*100)
	if job.MaxSteps > 0 {
		fmt.Fprintf(&b, "  step %d/%d", job.CurrentStep, job.MaxSteps)
	}
	if job.CurrentURL != "" {
		b.WriteString("  " + dimStyle.Render(job.CurrentURL))
	}
	return b.String()
}
