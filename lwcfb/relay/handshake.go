package relay

import (
	"context"
	"errors"
	"fmt"

	q "github.com/quic-go/quic-go"

	"github.com/TheusHen/lwcfb/lwcfb/protocol"
)

var (
	ErrHandshakeExpectedConnect = errors.New("relay: handshake expected CONNECT")
	ErrHandshakeExpectedAck     = errors.New("relay: handshake expected ACK")
)

// handshakeClient opens the control stream and announces clientID.
func handshakeClient(ctx context.Context, conn q.Connection, clientID string) (q.Stream, error) {
	control, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}

	frame, err := protocol.Encode(protocol.MessageTypeConnect, protocol.NewConnect(clientID))
	if err != nil {
		return nil, err
	}
	if err := protocol.WriteFrame(control, frame); err != nil {
		return nil, err
	}

	reply, err := protocol.ReadFrame(control)
	if err != nil {
		return nil, err
	}
	if reply.Type != protocol.MessageTypeAck {
		return nil, ErrHandshakeExpectedAck
	}
	ack, err := protocol.Decode[protocol.Ack](reply)
	if err != nil {
		return nil, err
	}
	if ack.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, ack.Error)
	}
	return control, nil
}

// handshakeServer accepts the control stream opened by the client.
func handshakeServer(ctx context.Context, conn q.Connection) (q.Stream, protocol.Connect, error) {
	control, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, protocol.Connect{}, err
	}

	frame, err := protocol.ReadFrame(control)
	if err != nil {
		return nil, protocol.Connect{}, err
	}
	if frame.Type != protocol.MessageTypeConnect {
		return nil, protocol.Connect{}, ErrHandshakeExpectedConnect
	}
	hello, err := protocol.Decode[protocol.Connect](frame)
	if err != nil {
		return nil, protocol.Connect{}, err
	}

	ack := protocol.Ack{}
	verr := hello.Validate()
	if verr != nil {
		ack.Error = verr.Error()
	}
	reply, err := protocol.Encode(protocol.MessageTypeAck, ack)
	if err != nil {
		return nil, protocol.Connect{}, err
	}
	if err := protocol.WriteFrame(control, reply); err != nil {
		return nil, protocol.Connect{}, err
	}
	if verr != nil {
		return nil, protocol.Connect{}, verr
	}
	return control, hello, nil
}
