package player

import "github.com/work6189/PoPlayers/pkg/eventbus"

type EventName string

const (
	EventReady            EventName = "ready"
	EventPlay             EventName = "play"
	EventPause            EventName = "pause"
	EventEnded            EventName = "ended"
	EventTimeUpdate       EventName = "timeupdate"
	EventDurationChange   EventName = "durationchange"
	EventVolumeChange     EventName = "volumechange"
	EventRateChange       EventName = "ratechange"
	EventFullscreenChange EventName = "fullscreenchange"
	EventError            EventName = "error"
	EventLoadStart        EventName = "loadstart"
	EventLoadedData       EventName = "loadeddata"
	EventCanPlay          EventName = "canplay"
	EventSeeking          EventName = "seeking"
	EventSeeked           EventName = "seeked"
)

// Events lists every domain event.
var Events = []EventName{
	EventReady, EventPlay, EventPause, EventEnded, EventTimeUpdate,
	EventDurationChange, EventVolumeChange, EventRateChange,
	EventFullscreenChange, EventError, EventLoadStart, EventLoadedData,
	EventCanPlay, EventSeeking, EventSeeked,
}

// Event is the payload of a domain event. Only the field belonging to Name is set:
// CurrentTime for timeupdate, Duration for durationchange, Volume for
// volumechange, Rate for ratechange, Fullscreen for fullscreenchange and Err
// for error.
type Event struct {
	Name        EventName
	CurrentTime float64
	Duration    float64
	Volume      float64
	Rate        float64
	Fullscreen  bool
	Err         error
}

type Listener = eventbus.Listener[Event]

// Handler wraps fn into a Listener handle.
func Handler(fn func(Event)) Listener {
	return eventbus.Handler(fn)
}

// HandlerE wraps a failing fn into a Listener handle.
func HandlerE(fn func(Event) error) Listener {
	return eventbus.Func(fn)
}
