package ui

// Action is what a key press does in the record view.
type Action string

const (
	ActionNone        Action = ""
	ActionQuit        Action = "quit"
	ActionNextMode    Action = "next_mode"
	ActionDown        Action = "down"
	ActionUp          Action = "up"
	ActionTop         Action = "top"
	ActionBottom      Action = "bottom"
	ActionSearch      Action = "search"
	ActionExpression  Action = "expression"
	ActionKeyFilter   Action = "key_filter"
	ActionColumns     Action = "columns"
	ActionCopy        Action = "copy"
	ActionExport      Action = "export"
	ActionTheme       Action = "theme"
	ActionClear       Action = "clear"
	ActionReload      Action = "reload"
	ActionHelp        Action = "help"
	ActionClearSearch Action = "clear_search"
)

// keyActions maps key strings, as reported by tea.KeyPressMsg.String, to
// actions in the record view.
var keyActions = map[string]Action{
	"q":      ActionQuit,
	"ctrl+c": ActionQuit,
	"tab":    ActionNextMode,
	"j":      ActionDown,
	"down":   ActionDown,
	"k":      ActionUp,
	"up":     ActionUp,
	"g":      ActionTop,
	"home":   ActionTop,
	"G":      ActionBottom,
	"end":    ActionBottom,
	"/":      ActionSearch,
	":":      ActionExpression,
	"f":      ActionKeyFilter,
	"c":      ActionColumns,
	"y":      ActionCopy,
	"e":      ActionExport,
	"t":      ActionTheme,
	"X":      ActionClear,
	"r":      ActionReload,
	"?":      ActionHelp,
	"esc":    ActionClearSearch,
}

// ResolveAction returns the action bound to key.
func ResolveAction(key string) Action {
	return keyActions[key]
}

// helpLines is the key reference shown by "?".
var helpLines = []string{
	"tab      cycle table / tree / json / raw",
	"1-4      jump to table / tree / json / raw",
	"j k      move between records",
	"g G      first / last record",
	"/        search all values",
	":        filter with a CEL expression over _",
	"f        only records that have a key",
	"c        choose table columns",
	"y        copy the selected record",
	"e        export the shown records",
	"t        toggle light / dark theme",
	"r        reload the file",
	"X        clear all data",
	"esc      clear search",
	"q        quit",
}
