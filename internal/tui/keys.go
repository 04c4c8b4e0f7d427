package tui

import "github.com/charmbracelet/bubbles/key"

// browseKeys are the key bindings in browse mode.
type browseKeys struct {
	Next     key.Binding
	Prev     key.Binding
	Insert   key.Binding
	Revert   key.Binding
	Write    key.Binding
	Relaunch key.Binding
	Quit     key.Binding
}

// ShortHelp implements [help.KeyMap].
func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Insert, k.Revert, k.Write, k.Relaunch, k.Quit}
}

// FullHelp implements [help.KeyMap].
func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// insertKeys are the key bindings in insert mode, anything printable not bound
// here is typed into the line.
type insertKeys struct {
	Left      key.Binding
	Right     key.Binding
	Home      key.Binding
	End       key.Binding
	Backspace key.Binding
	Delete    key.Binding
	Leave     key.Binding
}

// ShortHelp implements [help.KeyMap].
func (k insertKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Home, k.End, k.Backspace, k.Delete, k.Leave}
}

// FullHelp implements [help.KeyMap].
func (k insertKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// confirmKeys are the key bindings while confirming a quit.
type confirmKeys struct {
	Yes key.Binding
	No  key.Binding
}

// ShortHelp implements [help.KeyMap].
func (k confirmKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

// FullHelp implements [help.KeyMap].
func (k confirmKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// keyMap is every key binding of the UI.
type keyMap struct {
	browse  browseKeys
	insert  insertKeys
	confirm confirmKeys
	abort   key.Binding // Quits immediately from anywhere, losing unsaved changes
}

// defaultKeys returns the default key bindings.
func defaultKeys() keyMap {
	return keyMap{
		browse: browseKeys{
			Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
			Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous")),
			Insert:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "edit")),
			Revert:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo line")),
			Write:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write")),
			Relaunch: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "relaunch")),
			Quit:     key.NewBinding(key.WithKeys("enter", "esc", "q"), key.WithHelp("q", "quit")),
		},
		insert: insertKeys{
			Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
			Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
			Home:      key.NewBinding(key.WithKeys("up", "home"), key.WithHelp("↑", "start")),
			End:       key.NewBinding(key.WithKeys("down", "end"), key.WithHelp("↓", "end")),
			Backspace: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "delete left")),
			Delete:    key.NewBinding(key.WithKeys("delete"), key.WithHelp("del", "delete")),
			Leave:     key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("esc", "done")),
		},
		confirm: confirmKeys{
			Yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "quit without saving")),
			No:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "keep editing")),
		},
		abort: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
