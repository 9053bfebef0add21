package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/work6189/PoPlayers/pkg/event"
)

// secureName returns the client certificate name matching "ws:<name>".
func secureName(r *http.Request) string {
	if r.TLS == nil {
		return ""
	}
	for _, cert := range r.TLS.PeerCertificates {
		for _, dnsName := range cert.DNSNames {
			if strings.HasPrefix(dnsName, "ws:") {
				return dnsName[3:]
			}
		}
	}
	return ""
}

func (srv *SocketServer) ws(ctx *gin.Context) {
	var name = ctx.Param("name")
	secure := secureName(ctx.Request)
	if secure == "" && !srv.allowInsecure {
		srv.logger.Error().Msgf("No TLS certificate found for client %s[%s]", name, ctx.Request.RemoteAddr)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("No TLS certificate found for client %s[%s]", name, ctx.Request.RemoteAddr)})
		return
	}
	if secure != "" && secure != name {
		srv.logger.Error().Msgf("'%s' does not match tls name '%s'", name, secure)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": http.StatusText(http.StatusBadRequest), "message": fmt.Sprintf("'%s' does not match tls name '%s'", name, secure)})
		return
	}
	conn, err := srv.upgrade(ctx, name, pingInterval)
	if err != nil {
		srv.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}
	wsConn := newConnection(conn, name, secure != "")
	if err := srv.connectionManager.addWSConn(wsConn); err != nil {
		srv.logger.Error().Err(err).Msgf("Failed to add connection %s", name)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), deadline())
		_ = conn.Close()
		return
	}
	defer func() {
		srv.connectionManager.closeWSConn(wsConn)
		srv.connectionManager.RemoveFromGroups(name)
	}()

	for {
		var evt = &event.Event{}
		if err := conn.ReadJSON(evt); err != nil {
			if websocket.IsCloseError(errors.Cause(err), websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseGoingAway) {
				srv.logger.Debug().Err(err).Msg("connection closed by client")
			} else {
				srv.logger.Debug().Err(err).Msgf("Failed to read message from %s", name)
			}
			break
		}
		// the connection name is the only trusted source
		evt.Source = name
		srv.logger.Debug().Msgf("Received event: %s", evt)
		srv.handle(name, evt)
	}
}

func (srv *SocketServer) handle(name string, evt *event.Event) {
	switch evt.Type {
	case event.TypeNTPQuery:
		data, err := evt.GetData()
		if err != nil {
			srv.logger.Error().Err(err).Msg("Failed to get raw ntp data")
			return
		}
		result, err := srv.ntpFunc(data.([]byte))
		if err != nil {
			srv.logger.Error().Err(err).Msg("NTP relay failed")
			srv.reply(event.TypeNTPError, name, err.Error())
			return
		}
		srv.logger.Debug().Msgf("Sending ntp response to %s", name)
		srv.reply(event.TypeNTPResponse, name, result)
	case event.TypeAttach, event.TypeDetach:
		data, err := evt.GetData()
		if err != nil {
			srv.logger.Error().Err(err).Msgf("Failed to get data for %s event", evt.Type)
			return
		}
		group, _ := data.(string)
		if group == "" {
			srv.logger.Error().Msgf("%s event from %s without group", evt.Type, name)
			return
		}
		if evt.Type == event.TypeAttach {
			srv.connectionManager.AddToGroup(name, group)
		} else {
			srv.connectionManager.RemoveFromGroup(name, group)
		}
	default:
		if err := srv.connectionManager.send(evt); err != nil {
			srv.logger.Error().Err(err).Msg("Failed to send event")
		}
	}
}

func (srv *SocketServer) reply(t event.EventType, target string, data any) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		srv.logger.Error().Err(err).Msgf("cannot marshal %s", t)
		return
	}
	if err := srv.connectionManager.send(&event.Event{
		Type:   t,
		Target: target,
		Data:   jsonBytes,
	}); err != nil {
		srv.logger.Error().Err(err).Msgf("Failed to send %s", t)
	}
}
