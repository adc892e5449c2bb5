package server

import (
	"time"
)

// ClientMessage is an inbound frame. Exactly one of the event fields
// is expected to be set.
type ClientMessage struct {
	Search     *Search     `json:"search,omitempty"`
	Message    *MessageReq `json:"message,omitempty"`
	ExtendTime *ExtendTime `json:"extend_time,omitempty"`
	Leave      *Leave      `json:"leave,omitempty"`
	peer       Peer        `json:"-"`
}

type Search struct{}

type MessageReq struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

type ExtendTime struct {
	Room string `json:"room"`
}

type Leave struct {
	Room string `json:"room"`
}

// ServerMessage is an outbound frame. Exactly one of the event fields
// is set; the timestamp is always server-assigned.
type ServerMessage struct {
	Timestamp    time.Time     `json:"timestamp"`
	Matched      *Matched      `json:"matched,omitempty"`
	Message      *ChatMessage  `json:"message,omitempty"`
	TimeExtended *TimeExtended `json:"time_extended,omitempty"`
	PartnerLeft  *PartnerLeft  `json:"partner_left,omitempty"`
	Error        *ErrorEvent   `json:"error,omitempty"`
}

type Matched struct {
	Room string `json:"room"`
}

// ChatMessage carries relayed text. Sender is always a role, never a
// connection id, so peers stay anonymous to each other.
type ChatMessage struct {
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type TimeExtended struct{}

type PartnerLeft struct{}

type ErrorEvent struct {
	Message string `json:"message"`
}

// senderStranger is the role every recipient sees on a relayed message.
const senderStranger = "stranger"

func NewMatched(room string) *ServerMessage {
	return &ServerMessage{
		Timestamp: Now(),
		Matched:   &Matched{Room: room},
	}
}

func NewChatMessage(text string) *ServerMessage {
	ts := Now()
	return &ServerMessage{
		Timestamp: ts,
		Message: &ChatMessage{
			Text:      text,
			Sender:    senderStranger,
			Timestamp: ts,
		},
	}
}

func NewTimeExtended() *ServerMessage {
	return &ServerMessage{
		Timestamp:    Now(),
		TimeExtended: &TimeExtended{},
	}
}

func NewPartnerLeft() *ServerMessage {
	return &ServerMessage{
		Timestamp:   Now(),
		PartnerLeft: &PartnerLeft{},
	}
}

func NewErrorEvent(err error) *ServerMessage {
	return &ServerMessage{
		Timestamp: Now(),
		Error:     &ErrorEvent{Message: err.Error()},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
