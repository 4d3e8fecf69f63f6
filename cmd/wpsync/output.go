package main

import (
	"strings"

	"github.com/fatih/color"

	"github.com/conn-castle/wpsync/internal/changes"
)

// renderChanges draws the change set as a tree with added files green and deleted files red.
func renderChanges(label string, cs changes.ChangeSet) string {
	lines := strings.Split(strings.TrimRight(changes.Render(label, cs), "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.Contains(line, "── + "):
			lines[i] = color.GreenString("%s", line)
		case strings.Contains(line, "── - "):
			lines[i] = color.RedString("%s", line)
		}
	}
	return strings.Join(lines, "\n")
}
