package dialog

// State is the named position of one user's dialog.
type State int

const (
	// MainMenu is the initial and resting state.
	MainMenu State = iota
	AwaitProductData
	ConfirmProduct
	AwaitEditOrDeleteSelection
	AwaitEntryChoice
	AwaitEditDeleteAction
	AwaitNewPrice
	ConfirmDeletion
	AwaitSearchTerm
	AwaitInviteCodeInput
)

// States lists every state, in declaration order.
var States = []State{
	MainMenu,
	AwaitProductData,
	ConfirmProduct,
	AwaitEditOrDeleteSelection,
	AwaitEntryChoice,
	AwaitEditDeleteAction,
	AwaitNewPrice,
	ConfirmDeletion,
	AwaitSearchTerm,
	AwaitInviteCodeInput,
}

var stateNames = map[State]string{
	MainMenu:                   "main_menu",
	AwaitProductData:           "await_product_data",
	ConfirmProduct:             "confirm_product",
	AwaitEditOrDeleteSelection: "await_edit_or_delete_selection",
	AwaitEntryChoice:           "await_entry_choice",
	AwaitEditDeleteAction:      "await_edit_delete_action",
	AwaitNewPrice:              "await_new_price",
	ConfirmDeletion:            "confirm_deletion",
	AwaitSearchTerm:            "await_search_term",
	AwaitInviteCodeInput:       "await_invite_code_input",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Outcome classifies how a turn ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeValidation means the input was malformed and the user was re-prompted.
	OutcomeValidation
	// OutcomeNotFound means the target record or group is gone or belongs to another group.
	OutcomeNotFound
	// OutcomeFailure means a collaborator failed; the session was reset.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeValidation:
		return "validation"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// inputKind is the category an input falls into for the transition table.
type inputKind int

const (
	kindText inputKind = iota
	kindCancel
	kindMenu
	kindRecordAction
)

var inputKinds = []inputKind{kindText, kindCancel, kindMenu, kindRecordAction}

type handlerFunc func(m *Machine, t *turn) error

// transitions maps state x input kind to the handler producing the next state.
// Cancel, menu commands and inline record actions behave the same in every state.
var transitions = buildTransitions()

func buildTransitions() map[State]map[inputKind]handlerFunc {
	text := map[State]handlerFunc{
		MainMenu:                   (*Machine).onMainMenuText,
		AwaitProductData:           (*Machine).onProductData,
		ConfirmProduct:             (*Machine).onConfirmProduct,
		AwaitEditOrDeleteSelection: (*Machine).onSelectionTerm,
		AwaitEntryChoice:           (*Machine).onEntryChoice,
		AwaitEditDeleteAction:      (*Machine).onEditDeleteAction,
		AwaitNewPrice:              (*Machine).onNewPrice,
		ConfirmDeletion:            (*Machine).onConfirmDeletion,
		AwaitSearchTerm:            (*Machine).onSearchTerm,
		AwaitInviteCodeInput:       (*Machine).onInviteCode,
	}

	table := make(map[State]map[inputKind]handlerFunc, len(text))
	for state, onText := range text {
		table[state] = map[inputKind]handlerFunc{
			kindText:         onText,
			kindCancel:       (*Machine).onCancel,
			kindMenu:         (*Machine).onMenu,
			kindRecordAction: (*Machine).onRecordAction,
		}
	}
	return table
}
