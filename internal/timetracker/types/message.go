package types

// InboundMessage is one event from the WhatsApp bridge. Text may be empty
// when the sender only shared a location.
type InboundMessage struct {
	Phone    string    `json:"phone"`
	Text     string    `json:"text,omitempty"`
	Location *Location `json:"location,omitempty"`
}

type InboundReply struct {
	OK      bool   `json:"ok"`
	Command string `json:"command,omitempty"`
	Reply   string `json:"reply"`
}

// WhatsappMessage is the audit-log view of an inbound message.
type WhatsappMessage struct {
	ID        int64  `json:"id"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Command   string `json:"command,omitempty"`
	Processed bool   `json:"processed"`
	Response  string `json:"response,omitempty"`
	Timestamp string `json:"timestamp"`
}
