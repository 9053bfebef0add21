// Package client is the display side of the remote control: the websocket
// link to the proxy and the Remote which maps commands onto players.
package client

import (
	"net"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/beevik/ntp"
	"github.com/gorilla/websocket"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/event"
)

type recFuncType func(evt *event.Event)

const closeTimeout = 10 * time.Second

func NewCommunication(proxy *websocket.Conn, name string, logger zLogger.ZLogger) *Communication {
	return &Communication{
		proxyConn: proxy,
		name:      name,
		logger:    logger,
	}
}

// Communication is the websocket connection of a named display to the proxy.
// Writes are serialized, reads happen on the goroutine started by Start.
type Communication struct {
	proxyConn *websocket.Conn
	name      string
	logger    zLogger.ZLogger
	wg        sync.WaitGroup

	writeMu sync.Mutex

	mu      sync.Mutex
	recFunc recFuncType
	ntpConn chan<- []byte
}

func (comm *Communication) Name() string {
	return comm.name
}

func (comm *Communication) SetNTPReceiver(ch chan<- []byte) {
	comm.mu.Lock()
	defer comm.mu.Unlock()
	comm.ntpConn = ch
}

func (comm *Communication) RemoveNTPReceiver() {
	comm.mu.Lock()
	defer comm.mu.Unlock()
	comm.ntpConn = nil
}

func (comm *Communication) Start() error {
	comm.wg.Add(1)
	go func() {
		defer func() {
			comm.logger.Info().Msgf("closing connection: %s", comm.name)
			if err := comm.proxyConn.Close(); err != nil {
				comm.logger.Error().Err(err).Msgf("cannot close connection: %s", comm.name)
			}
			comm.wg.Done()
		}()
		for {
			evt, err := comm.Receive()
			if err != nil {
				cause := errors.Cause(err)
				if websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
					comm.logger.Debug().Err(err).Msgf("connection closed: %s", comm.name)
					return
				}
				if websocket.IsUnexpectedCloseError(cause, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
					comm.logger.Debug().Err(err).Msgf("unexpected close error: %s", comm.name)
					return
				}
				if errors.Is(cause, net.ErrClosed) {
					return
				}
				comm.logger.Error().Err(err).Msgf("cannot read event: %s", comm.name)
				continue
			}
			comm.dispatch(evt)
		}
	}()
	return nil
}

func (comm *Communication) dispatch(evt *event.Event) {
	comm.logger.Debug().Msgf("received event from %s: %s", evt.GetSource(), evt.Type)
	comm.mu.Lock()
	ntpConn, recFunc := comm.ntpConn, comm.recFunc
	comm.mu.Unlock()
	switch evt.Type {
	case event.TypeNTPResponse, event.TypeNTPError:
		if ntpConn == nil {
			return
		}
		if evt.Type == event.TypeNTPError {
			comm.logger.Error().Msgf("ntp relay error: %s", evt.Data)
			return
		}
		data, err := evt.GetData()
		if err != nil {
			comm.logger.Error().Err(err).Msgf("cannot read event: %s", comm.name)
			return
		}
		select {
		case ntpConn <- data.([]byte):
		default:
			comm.logger.Warn().Msgf("dropping late ntp response: %s", comm.name)
		}
	default:
		if recFunc != nil {
			recFunc(evt)
		} else {
			comm.logger.Debug().Msgf("no receiver function set for event: %s", comm.name)
		}
	}
}

func (comm *Communication) Stop() error {
	comm.writeMu.Lock()
	err := comm.proxyConn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeTimeout),
	)
	comm.writeMu.Unlock()
	if err != nil {
		return errors.Wrapf(err, "cannot send close message: %s", comm.name)
	}
	closeChan := make(chan struct{})
	go func() {
		defer close(closeChan)
		comm.wg.Wait()
	}()
	select {
	case <-closeChan:
	case <-time.After(closeTimeout):
		comm.logger.Warn().Msgf("timeout waiting for connection to close: %s", comm.name)
		if err := comm.proxyConn.Close(); err != nil {
			return errors.Wrapf(err, "cannot close connection: %s", comm.name)
		}
	}
	return nil
}

func (comm *Communication) On(recFunc recFuncType) {
	comm.mu.Lock()
	defer comm.mu.Unlock()
	comm.recFunc = recFunc
}

func (comm *Communication) Receive() (*event.Event, error) {
	var evt event.Event
	if err := comm.proxyConn.ReadJSON(&evt); err != nil {
		return nil, errors.Wrapf(err, "cannot read event")
	}
	return &evt, nil
}

func (comm *Communication) Send(evt *event.Event) error {
	evt.Source = comm.name
	comm.writeMu.Lock()
	defer comm.writeMu.Unlock()
	if err := comm.proxyConn.WriteJSON(evt); err != nil {
		return errors.Wrapf(err, "cannot send event: %v", evt)
	}
	return nil
}

// SendData wraps data into an event for target and sends it.
func (comm *Communication) SendData(data event.DataInterface, target string) error {
	evt, err := event.NewEvent(data, target, "")
	if err != nil {
		return errors.WithStack(err)
	}
	return comm.Send(evt)
}

// NTP queries the clock offset against the proxy. The query travels through
// the websocket and the proxy relays it to its NTP server.
func (comm *Communication) NTP(timeout time.Duration) (time.Duration, error) {
	conn := newNTPConn(comm)
	defer conn.Close()
	options := ntp.QueryOptions{
		Timeout: timeout,
		Dialer: func(localAddress, remoteAddress string) (net.Conn, error) {
			return conn, nil
		},
	}
	response, err := ntp.QueryWithOptions("proxy", options)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot send NTP request")
	}
	comm.logger.Info().Msgf("NTP clock offset: %s", response.ClockOffset)
	return response.ClockOffset, nil
}
