package tui

// Theme defines the console style tokens.
type Theme struct {
	Name string

	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string

	AdminMsg string
	UserMsg  string

	Pending string
	Sent    string
	Failed  string

	Online  string
	Offline string

	Header       string
	Footer       string
	SelectedItem string
	UnreadBadge  string
	ActivePane   string
	InactivePane string
}

// DarkTheme is the baseline palette.
var DarkTheme = Theme{
	Name:         "dark",
	Background:   "234",
	Foreground:   "252",
	Muted:        "245",
	Accent:       "75",
	Border:       "240",
	AdminMsg:     "81",
	UserMsg:      "147",
	Pending:      "220",
	Sent:         "41",
	Failed:       "203",
	Online:       "41",
	Offline:      "203",
	Header:       "111",
	Footer:       "110",
	SelectedItem: "75",
	UnreadBadge:  "203",
	ActivePane:   "75",
	InactivePane: "240",
}

// LightTheme is the high-brightness palette for light terminals.
var LightTheme = Theme{
	Name:         "light",
	Background:   "255",
	Foreground:   "235",
	Muted:        "243",
	Accent:       "26",
	Border:       "250",
	AdminMsg:     "25",
	UserMsg:      "90",
	Pending:      "130",
	Sent:         "28",
	Failed:       "124",
	Online:       "28",
	Offline:      "124",
	Header:       "19",
	Footer:       "19",
	SelectedItem: "26",
	UnreadBadge:  "124",
	ActivePane:   "26",
	InactivePane: "250",
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"dark":  DarkTheme,
	"light": LightTheme,
}
