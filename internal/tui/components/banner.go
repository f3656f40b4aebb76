package components

import "github.com/charmbracelet/lipgloss"

const bannerArt = ` ___ _        _        _         _
/ __| |_ __ _| |_____ | |_ _  _| |_
\__ \  _/ _' | / / -_)| ' \ || |  _|
|___/\__\__,_|_\_\___||_||_\_,_|\__|`

// RenderBanner returns the stakehut banner with its tagline.
func RenderBanner(s Styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(bannerArt),
		s.Muted.Render("  manager instances and neurons, one step at a time"),
	)
}
