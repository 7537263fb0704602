package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// MailMessage is one queued outbound email.
type MailMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMailMessage(to, subject, body string) *MailMessage {
	return &MailMessage{To: to, Subject: subject, Body: body, Timestamp: time.Now().UTC()}
}

func (m *MailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MailMessageFromJSON decodes a queued message. Messages without a recipient are rejected.
func MailMessageFromJSON(data []byte) (*MailMessage, error) {
	var msg MailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.To == "" {
		return nil, fmt.Errorf("mail message has no recipient")
	}
	return &msg, nil
}
