package domain

import "time"

// MessageAuthorType indicates who authored a conversation message.
type MessageAuthorType string

const (
	AuthorTypeUser  MessageAuthorType = "USER"
	AuthorTypeAdmin MessageAuthorType = "ADMIN"
)

// TicketMessage is one entry in a ticket's conversation thread. Seq is a
// store-assigned monotonic sequence used as the unread watermark: a viewer
// acknowledges a conversation up to the latest Seq seen at open time.
type TicketMessage struct {
	ID         string
	Seq        int64
	TicketID   string
	AuthorType MessageAuthorType
	AuthorID   string
	Body       string
	CreatedAt  time.Time
}
