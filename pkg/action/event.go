package action

// EventKind distinguishes a plain message from a button press.
type EventKind int

const (
	EventText EventKind = iota
	EventButtonPress
)

// Event is a transport-agnostic inbound update.
type Event struct {
	ConversationID int64
	Kind           EventKind
	Text           string
	Token          string
	CallbackID     string
	UserName       string
}
