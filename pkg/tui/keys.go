package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the browser. Bindings for the results pane
// are disabled while a text input has focus so that typing is never
// mistaken for a command.
type KeyMap struct {
	NextInput key.Binding
	PrevInput key.Binding
	Commit    key.Binding
	Leave     key.Binding
	Palette   key.Binding

	SortLeft    key.Binding
	SortRight   key.Binding
	SortAsc     key.Binding
	SortDesc    key.Binding
	PagePrev    key.Binding
	PageNext    key.Binding
	PageOpen    key.Binding
	CycleSelect key.Binding
	Back        key.Binding
	Forward     key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	NextInput: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next filter"),
	),
	PrevInput: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-tab", "prev filter"),
	),
	Commit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	Leave: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "results"),
	),
	Palette: key.NewBinding(
		key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
		key.WithHelp("M-1..9", "insert char"),
	),
	SortLeft: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "sort column"),
	),
	SortRight: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "sort column"),
	),
	SortAsc: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "sort asc"),
	),
	SortDesc: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "sort desc"),
	),
	PagePrev: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "prev link"),
	),
	PageNext: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next link"),
	),
	PageOpen: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open page"),
	),
	CycleSelect: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "cycle language"),
	),
	Back: key.NewBinding(
		key.WithKeys("b", "alt+left"),
		key.WithHelp("b", "back"),
	),
	Forward: key.NewBinding(
		key.WithKeys("f", "alt+right"),
		key.WithHelp("f", "forward"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

// editing switches between input and results bindings.
func (k *KeyMap) editing(on bool) {
	for _, b := range []*key.Binding{&k.Commit, &k.Leave, &k.Palette} {
		b.SetEnabled(on)
	}
	for _, b := range []*key.Binding{
		&k.SortLeft, &k.SortRight, &k.SortAsc, &k.SortDesc,
		&k.PagePrev, &k.PageNext, &k.PageOpen, &k.CycleSelect,
		&k.Back, &k.Forward,
	} {
		b.SetEnabled(!on)
	}
	if on {
		k.Quit.SetKeys("ctrl+c")
	} else {
		k.Quit.SetKeys("ctrl+c", "q")
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextInput, k.Commit, k.Palette, k.Leave, k.SortAsc, k.SortDesc, k.PageNext, k.PageOpen, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextInput, k.PrevInput, k.Commit, k.Leave, k.Palette},
		{k.SortLeft, k.SortRight, k.SortAsc, k.SortDesc},
		{k.PagePrev, k.PageNext, k.PageOpen, k.CycleSelect},
		{k.Back, k.Forward, k.Quit},
	}
}
