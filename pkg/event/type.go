package event

import "encoding/json"

type EventType string

const TypeAttach EventType = "attach"
const TypeDetach EventType = "detach"
const TypeStringMessage EventType = "message"
const TypeNTPQuery EventType = "ntp-query"
const TypeNTPResponse EventType = "ntp-response"
const TypeNTPError EventType = "ntp-error"
const TypeBrowserNavigate EventType = "browser-navigate"
const TypePlayerCommand EventType = "player-command"
const TypePlayerEvent EventType = "player-event"
const TypePlayerState EventType = "player-state"
const TypeScreenshot EventType = "screenshot"

func NewGenericStringMessage(t EventType, msg string) DataInterface {
	return &GenericStringMessage{
		type_: t,
		msg:   msg,
	}
}

type GenericStringMessage struct {
	type_ EventType
	msg   string
}

func (m *GenericStringMessage) String() string {
	return m.msg
}
func (m *GenericStringMessage) Type() EventType {
	return m.type_
}

func (m *GenericStringMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.msg)
}

var _ DataInterface = (*GenericStringMessage)(nil)

// ControlGroup is the group the controllers of a display attach to.
func ControlGroup(display string) string {
	return display + "-control"
}
