package database

// MessageType classifies a stored message.
type MessageType string

const (
	// TypeMessage is a public message, visible to everyone.
	TypeMessage MessageType = "message"
	// TypePrivateMessage is visible only to its sender and named recipient.
	TypePrivateMessage MessageType = "private_message"
	// TypeStatus is a system generated join/leave notice, always broadcast.
	TypeStatus MessageType = "status"
)

// Participant is someone currently in the room. LastSeen is in
// milliseconds since the Unix epoch.
type Participant struct {
	Name     string `db:"name"`
	LastSeen int64  `db:"last_seen"`
}

// Message is an entry of the room log. Time is the display
// timestamp stamped at insertion; CreatedAt (ms since epoch) and ID keep
// insertion order.
type Message struct {
	ID        int64       `db:"id"`
	From      string      `db:"from"`
	To        string      `db:"to"`
	Text      string      `db:"text"`
	Type      MessageType `db:"type"`
	Time      string      `db:"time"`
	CreatedAt int64       `db:"created_at"`
}

// RoomStats counts the rows of the room.
type RoomStats struct {
	Participants int64 `db:"participants"`
	Messages     int64 `db:"messages"`
}
