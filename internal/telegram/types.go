package telegram

import "strconv"

// Update is one incoming Bot API update.
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int    `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      *Chat  `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

// ChatID is the chat id in the form SendMessage accepts.
func (c *Chat) ChatID() string {
	return strconv.FormatInt(c.ID, 10)
}

// IsPrivate reports whether the update is a text message in a one-to-one chat
// with a human.
func (u Update) IsPrivate() bool {
	m := u.Message
	return m != nil && m.Chat != nil && m.Chat.Type == "private" && m.From != nil && !m.From.IsBot
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}
