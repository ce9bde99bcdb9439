package medsenger

import "context"

// Message is the outbound payload of the Medsenger agents API. Optional
// fields are omitted from the wire format when zero, matching what the
// core expects.
type Message struct {
	Text           string       `json:"text"`
	ActionLink     string       `json:"action_link,omitempty"`
	ActionName     string       `json:"action_name,omitempty"`
	ActionOnetime  bool         `json:"action_onetime,omitempty"`
	ActionDeadline int64        `json:"action_deadline,omitempty"`
	OnlyDoctor     bool         `json:"only_doctor,omitempty"`
	OnlyPatient    bool         `json:"only_patient,omitempty"`
	IsUrgent       bool         `json:"is_urgent,omitempty"`
	NeedAnswer     bool         `json:"need_answer,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Attachment is a base64-encoded file shipped with a message.
type Attachment struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Base64 string `json:"base64"`
}

// Client sends messages into a consultation channel through the
// Medsenger core. Decouples the dispatch logic from the HTTP transport.
type Client interface {
	SendMessage(ctx context.Context, contractID int64, msg *Message) error
}
