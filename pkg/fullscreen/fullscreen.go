// Package fullscreen lists the vendor variants of the browser fullscreen API
// and selects one of them once per document.
package fullscreen

// API names the members of one vendor flavour of the fullscreen API.
type API struct {
	Name string
	// Enabled is the document property telling whether fullscreen is allowed.
	Enabled string
	// Element is the document property holding the element in fullscreen.
	Element string
	// Request is the element method entering fullscreen.
	Request string
	// Exit is the document method leaving fullscreen.
	Exit string
	// ChangeEvent is the document event fired on transitions.
	ChangeEvent string
}

// APIs in probing order.
var APIs = []API{
	{
		Name:        "standard",
		Enabled:     "fullscreenEnabled",
		Element:     "fullscreenElement",
		Request:     "requestFullscreen",
		Exit:        "exitFullscreen",
		ChangeEvent: "fullscreenchange",
	},
	{
		Name:        "webkit",
		Enabled:     "webkitFullscreenEnabled",
		Element:     "webkitFullscreenElement",
		Request:     "webkitRequestFullscreen",
		Exit:        "webkitExitFullscreen",
		ChangeEvent: "webkitfullscreenchange",
	},
	{
		Name:        "moz",
		Enabled:     "mozFullScreenEnabled",
		Element:     "mozFullScreenElement",
		Request:     "mozRequestFullScreen",
		Exit:        "mozCancelFullScreen",
		ChangeEvent: "mozfullscreenchange",
	},
	{
		Name:        "ms",
		Enabled:     "msFullscreenEnabled",
		Element:     "msFullscreenElement",
		Request:     "msRequestFullscreen",
		Exit:        "msExitFullscreen",
		ChangeEvent: "MSFullscreenChange",
	},
}

// Probe returns the first API whose enabled flag is reported true by enabled.
func Probe(enabled func(property string) bool) (API, bool) {
	for _, api := range APIs {
		if enabled(api.Enabled) {
			return api, true
		}
	}
	return API{}, false
}

// EnabledProperties lists the properties Probe asks for, in order.
func EnabledProperties() []string {
	props := make([]string, 0, len(APIs))
	for _, api := range APIs {
		props = append(props, api.Enabled)
	}
	return props
}
