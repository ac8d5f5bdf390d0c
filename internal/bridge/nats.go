package bridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	HeaderMsgID   = "Mavlink-Msg-Id"
	HeaderSysID   = "Mavlink-Sys-Id"
	HeaderCompID  = "Mavlink-Comp-Id"
	HeaderVersion = "Mavlink-Version"
)

var ErrEmptySubject = errors.New("bridge: empty subject")

// NATSPublisher publishes raw packet bytes to one subject, with the
// packet identity in message headers.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// DialNATS connects to url and returns a publisher for subject.
func DialNATS(url, subject, name string) (*NATSPublisher, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Str("url", url).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATSPublisher(conn, subject), nil
}

func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Message builds the NATS message for p.
func (n *NATSPublisher) Message(p *protocol.Packet) *nats.Msg {
	msg := nats.NewMsg(n.subject)
	msg.Data = p.Raw()
	msg.Header.Set(HeaderMsgID, strconv.FormatUint(uint64(p.MessageID()), 10))
	msg.Header.Set(HeaderSysID, strconv.Itoa(int(p.SystemID())))
	msg.Header.Set(HeaderCompID, strconv.Itoa(int(p.ComponentID())))
	msg.Header.Set(HeaderVersion, p.Version().String())
	return msg
}

func (n *NATSPublisher) Publish(_ context.Context, p *protocol.Packet) error {
	return n.conn.PublishMsg(n.Message(p))
}

// Close flushes buffered messages and closes the connection.
func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
