package chat

import "github.com/charmbracelet/lipgloss"

// card is the title strip and bordered body used for one transcript entry.
type card struct {
	title lipgloss.Style
	body  lipgloss.Style
}

func newCard(accent lipgloss.Color, surface lipgloss.Color) card {
	return card{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(accent).
			Padding(0, 1),
		body: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Background(surface).
			Padding(0, 1),
	}
}

type styles struct {
	banner     lipgloss.Style
	bannerMeta lipgloss.Style
	rule       lipgloss.Style
	bootStep   lipgloss.Style
	bootReady  lipgloss.Style

	user      card
	therapist card
	logical   card
	failure   card
	category  lipgloss.Style

	footer       lipgloss.Style
	footerBusy   lipgloss.Style
	footerFailed lipgloss.Style
	muted        lipgloss.Style
	promptLabel  lipgloss.Style
	promptBox    lipgloss.Style
	transcript   lipgloss.Style
}

// newStyles gives the therapist a warm accent and the logical persona a cool one.
func newStyles() styles {
	failure := newCard(lipgloss.Color("167"), lipgloss.Color("52"))
	failure.title = failure.title.Foreground(lipgloss.Color("231"))
	failure.body = failure.body.Foreground(lipgloss.Color("210"))

	return styles{
		banner: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("24")),
		bannerMeta: lipgloss.NewStyle().Foreground(lipgloss.Color("152")),
		rule:       lipgloss.NewStyle().Foreground(lipgloss.Color("67")),
		bootStep:   lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		bootReady:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),

		user:      newCard(lipgloss.Color("179"), lipgloss.Color("236")),
		therapist: newCard(lipgloss.Color("175"), lipgloss.Color("235")),
		logical:   newCard(lipgloss.Color("80"), lipgloss.Color("234")),
		failure:   failure,
		category: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("146")).
			Padding(0, 1),

		footer:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		footerBusy:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true),
		footerFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("167")).Bold(true),
		muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		promptLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("153")),
		promptBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("67")).
			Padding(0, 1),
		transcript: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1),
	}
}

// reply picks the card for the persona that answered.
func (s styles) reply(persona string) card {
	if persona == "therapist" {
		return s.therapist
	}
	return s.logical
}
