package dialog

import "strings"

// Command is a main-menu entry.
type Command string

const (
	CmdStart  Command = "start"
	CmdAdd    Command = "add"
	CmdEdit   Command = "edit"
	CmdList   Command = "list"
	CmdSearch Command = "search"
	CmdShare  Command = "share"
	CmdJoin   Command = "join"
	CmdHelp   Command = "help"
)

// Button labels shown on reply keyboards. Tapping one sends the label as text.
const (
	LabelAdd       = "➕ Add Product"
	LabelEdit      = "✏️ Edit/Delete"
	LabelList      = "📋 List Products"
	LabelSearch    = "🔍 Search Product"
	LabelShare     = "👪 Share List"
	LabelJoin      = "🔐 Enter Code"
	LabelHelp      = "❓ Help"
	LabelCancel    = "❌ Cancel"
	LabelConfirm   = "✅ Confirm"
	LabelEditPrice = "✏️ Edit Price"
	LabelDelete    = "🗑️ Delete"
)

// Inline action payload prefixes.
const (
	actionEdit   = "edit:"
	actionDelete = "delete:"
	actionMenu   = "menu:"
)

var menuLiterals = map[string]Command{
	LabelAdd:    CmdAdd,
	LabelEdit:   CmdEdit,
	LabelList:   CmdList,
	LabelSearch: CmdSearch,
	LabelShare:  CmdShare,
	LabelJoin:   CmdJoin,
	LabelHelp:   CmdHelp,

	"/start":  CmdStart,
	"/add":    CmdAdd,
	"/edit":   CmdEdit,
	"/list":   CmdList,
	"/search": CmdSearch,
	"/share":  CmdShare,
	"/join":   CmdJoin,
	"/help":   CmdHelp,

	"add product":    CmdAdd,
	"edit/delete":    CmdEdit,
	"list products":  CmdList,
	"search product": CmdSearch,
	"share list":     CmdShare,
	"enter code":     CmdJoin,
	"help":           CmdHelp,
}

// Keyboard selects the reply keyboard attached to a message.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMain
	KeyboardCancel
	KeyboardConfirm
	KeyboardEditDelete
)

var keyboardNames = [...]string{"none", "main", "cancel", "confirm", "edit_delete"}

func (k Keyboard) String() string {
	if int(k) < len(keyboardNames) {
		return keyboardNames[k]
	}
	return "unknown"
}

// Rows returns the button labels of the keyboard, row by row.
func (k Keyboard) Rows() [][]string {
	switch k {
	case KeyboardMain:
		return [][]string{
			{LabelAdd, LabelEdit},
			{LabelList, LabelSearch},
			{LabelShare, LabelJoin},
			{LabelHelp},
		}
	case KeyboardCancel:
		return [][]string{{LabelCancel}}
	case KeyboardConfirm:
		return [][]string{{LabelConfirm, LabelCancel}}
	case KeyboardEditDelete:
		return [][]string{{LabelEditPrice, LabelDelete}, {LabelCancel}}
	default:
		return nil
	}
}

// Action is an inline button carrying an opaque payload.
type Action struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// EditAction and DeleteAction build the inline shortcuts for a record.
func EditAction(productID string) Action {
	return Action{Label: LabelEditPrice, Data: actionEdit + productID}
}

func DeleteAction(productID string) Action {
	return Action{Label: LabelDelete, Data: actionDelete + productID}
}

// MenuAction builds an inline button that runs a menu command.
func MenuAction(label string, cmd Command) Action {
	return Action{Label: label, Data: actionMenu + string(cmd)}
}

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Actions  []Action
}

// Input is one inbound turn: free text, or the payload of an inline button.
type Input struct {
	Text   string
	Action string
}

func isCancel(text string) bool {
	return text == LabelCancel || text == "/cancel" || strings.EqualFold(text, "cancel")
}

func isConfirm(text string) bool {
	return text == LabelConfirm || text == "/confirm" || strings.EqualFold(text, "confirm")
}

func lookupCommand(text string) (Command, bool) {
	if cmd, ok := menuLiterals[text]; ok {
		return cmd, true
	}
	// "/add@pricebook_bot" in group chats
	if strings.HasPrefix(text, "/") {
		if at := strings.IndexByte(text, '@'); at > 0 {
			if cmd, ok := menuLiterals[text[:at]]; ok {
				return cmd, true
			}
		}
	}
	cmd, ok := menuLiterals[strings.ToLower(text)]
	return cmd, ok
}
