package protocol

type MessageType uint8

const (
	MessageTypeConnect   MessageType = 1
	MessageTypeSubscribe MessageType = 2
	MessageTypePublish   MessageType = 3
	MessageTypeDeliver   MessageType = 4
	MessageTypeAck       MessageType = 5
	MessageTypeClose     MessageType = 6
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeConnect:
		return "CONNECT"
	case MessageTypeSubscribe:
		return "SUBSCRIBE"
	case MessageTypePublish:
		return "PUBLISH"
	case MessageTypeDeliver:
		return "DELIVER"
	case MessageTypeAck:
		return "ACK"
	case MessageTypeClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}
