package types

const (
	TurnRoleUser   = "user"
	TurnRoleModel  = "model"
	TurnRoleSystem = "system"
)

// Turn is one role-tagged entry in a session's history. Part order is
// significant: the sequence is replayed verbatim to the image model.
type Turn struct {
	Role  string     `json:"role"`
	Parts []TurnPart `json:"parts"`
}

// TurnPart carries either text or an inline binary payload, never both.
type TurnPart struct {
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

func TextPart(text string) TurnPart {
	return TurnPart{Text: text}
}

func BinaryPart(mimeType string, data []byte) TurnPart {
	return TurnPart{MimeType: mimeType, Data: data}
}
