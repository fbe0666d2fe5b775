package models

import "time"

// ChatMessage belongs to a case. An empty RecipientRole broadcasts the message
// to every role.
type ChatMessage struct {
	ID            string    `json:"id"`
	CaseID        string    `json:"caseId"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	SenderRole    UserRole  `json:"senderRole"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	IsRead        bool      `json:"isRead"`
	RecipientRole UserRole  `json:"recipientRole,omitempty"`
}

func (m ChatMessage) Broadcast() bool {
	return m.RecipientRole == ""
}
