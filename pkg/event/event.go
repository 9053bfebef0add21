// Package event is the wire format between displays, controllers and the
// proxy: a JSON envelope routed by target name with a typed payload.
package event

import (
	"encoding/json"
	"fmt"

	"emperror.dev/errors"
)

type DataInterface interface {
	String() string
	Type() EventType
}

func NewEvent(data DataInterface, target string, token string) (*Event, error) {
	jsonStr, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot marshal event data: %v", data)
	}
	return &Event{
		Type:   data.Type(),
		Target: target,
		Token:  token,
		Data:   jsonStr,
	}, nil
}

type Event struct {
	Type   EventType       `json:"type"`
	Source string          `json:"source"`
	Target string          `json:"target"`
	Token  string          `json:"token"`
	Data   json.RawMessage `json:"data"`
}

func (e *Event) String() string {
	return fmt.Sprintf("%s -> %s", e.Type, e.Target)
}

func (e *Event) GetType() EventType {
	return e.Type
}

func (e *Event) GetSource() string {
	return e.Source
}

func (e *Event) GetTarget() string {
	return e.Target
}

func (e *Event) GetToken() string {
	return e.Token
}

func decode[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal %s event: %s", e.Type, e.Data)
	}
	return &data, nil
}

// GetData decodes the payload according to the event type. NTP events carry
// []byte, player events their payload struct and everything else a string.
func (e *Event) GetData() (interface{}, error) {
	switch e.Type {
	case TypeNTPQuery, TypeNTPResponse, TypeNTPError:
		var raw = []byte{}
		if err := json.Unmarshal(e.Data, &raw); err != nil {
			return nil, errors.Wrapf(err, "cannot unmarshal NTP event: %v", e.Data)
		}
		return raw, nil
	case TypePlayerCommand:
		return decode[Command](e)
	case TypePlayerEvent:
		return decode[PlayerEvent](e)
	case TypePlayerState:
		return decode[PlayerState](e)
	case TypeScreenshot:
		return decode[Screenshot](e)
	default:
		var msg string
		if err := json.Unmarshal(e.Data, &msg); err != nil {
			return nil, errors.Wrapf(err, "cannot unmarshal StringMessage event message: %v", e.Data)
		}
		return msg, nil
	}
}

// Command decodes a player-command payload.
func (e *Event) Command() (*Command, error) {
	if e.Type != TypePlayerCommand {
		return nil, errors.Errorf("%s is not a %s event", e.Type, TypePlayerCommand)
	}
	return decode[Command](e)
}
