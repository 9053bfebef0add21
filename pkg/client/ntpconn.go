package client

import (
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/event"
)

// ntpAddr names both ends of the tunnelled NTP exchange.
type ntpAddr string

func (a ntpAddr) Network() string { return "ws" }
func (a ntpAddr) String() string  { return string(a) }

func newNTPConn(comm *Communication) net.Conn {
	conn := &ntpConn{
		comm: comm,
		ch:   make(chan []byte, 1),
	}
	comm.SetNTPReceiver(conn.ch)
	return conn
}

// ntpConn carries NTP datagrams as ntp-query and ntp-response events.
type ntpConn struct {
	comm *Communication
	ch   chan []byte

	mu            sync.Mutex
	readDeadline  time.Time
	writeDeadline time.Time
}

func (conn *ntpConn) Write(b []byte) (n int, err error) {
	jsonBytes, err := json.Marshal(b)
	if err != nil {
		return 0, errors.Wrapf(err, "error marshalling %s", conn.comm.name)
	}
	conn.comm.logger.Debug().Msgf("Sending ntp query to %s: %s", conn.comm.name, string(jsonBytes))
	if err := conn.comm.Send(&event.Event{
		Type: event.TypeNTPQuery,
		Data: jsonBytes,
	}); err != nil {
		return 0, errors.Wrapf(err, "cannot send ntp-query event to %s: %v", conn.comm.name, b)
	}
	return len(b), nil
}

func (conn *ntpConn) Close() error {
	conn.comm.RemoveNTPReceiver()
	return nil
}

func (conn *ntpConn) LocalAddr() net.Addr {
	return ntpAddr(conn.comm.name)
}

func (conn *ntpConn) RemoteAddr() net.Addr {
	return ntpAddr("proxy")
}

func (conn *ntpConn) SetDeadline(t time.Time) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.readDeadline = t
	conn.writeDeadline = t
	return nil
}

func (conn *ntpConn) SetReadDeadline(t time.Time) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.readDeadline = t
	return nil
}

// SetWriteDeadline is recorded only, the websocket write does not block on it.
func (conn *ntpConn) SetWriteDeadline(t time.Time) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.writeDeadline = t
	return nil
}

func (conn *ntpConn) Read(b []byte) (n int, err error) {
	conn.mu.Lock()
	deadline := conn.readDeadline
	conn.mu.Unlock()
	if deadline.IsZero() {
		return copy(b, <-conn.ch), nil
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case ret := <-conn.ch:
		return copy(b, ret), nil
	case <-timer.C:
		conn.comm.logger.Error().Msgf("NTP timeout from %s", conn.comm.name)
		return 0, errors.WithStack(os.ErrDeadlineExceeded)
	}
}

var _ net.Conn = (*ntpConn)(nil)
