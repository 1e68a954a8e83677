package domain

// Button is one inline choice offered to the operator.
type Button struct {
	Label string
	Data  string
}

// Reply is a transport-neutral outgoing message.
type Reply struct {
	Text    string
	Buttons []Button
}

// InputKind enumerates what the operator sent.
type InputKind int

const (
	InputCommand InputKind = iota + 1
	InputChoice
	InputText
	InputDocument
)

// Upload describes a document sent through the chat.
type Upload struct {
	FileID   string
	FileName string
	MimeType string
	Size     int64
}

// Input is one operator action, already stripped of transport details.
type Input struct {
	ChatID   int64
	UserID   int64
	Kind     InputKind
	Command  string
	Data     string
	Text     string
	Document *Upload
}

// ToolOutput is the captured result of an external process.
type ToolOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
