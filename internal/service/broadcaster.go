package service

// Dashboard feed message types
const (
	MsgInstanceSent      = "instance_sent"
	MsgInstanceOpened    = "instance_opened"
	MsgInstanceCompleted = "instance_completed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, interface{}) {}
