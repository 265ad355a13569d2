package tui

import "strings"

// lobbyView shows the shareable room id once the server created it.
func lobbyView(lobbyID, spin string) string {
	if lobbyID == "" {
		return spin + textStyle.Render("Creating private lobby...")
	}
	lines := []string{
		textStyle.Render("Share this room id with your opponent:"),
		"",
		titleStyle.Render(lobbyID),
		"",
		spin + mutedStyle.Render("Waiting for opponent to join..."),
	}
	return strings.Join(lines, "\n")
}
