package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable renders rows under headers with rounded borders and dimmed
// odd rows.
func RenderTable(s Styles, headers []string, rows [][]string) string {
	odd := s.TableCell.Foreground(s.Muted.GetForeground())

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.TableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.TableHeader
			case row%2 == 0:
				return s.TableCell
			default:
				return odd
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}
