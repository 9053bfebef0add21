package player

import (
	"fmt"

	"emperror.dev/errors"
)

var (
	ErrContainerNotFound = errors.New("container not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ConfigurationError is returned by New when the player cannot be constructed.
type ConfigurationError struct {
	Ref   string
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("container %s: %v", e.Ref, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// PlaybackError is returned by Play and emitted as error event when the
// browser refuses to start playback.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback failed: %v", e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// MediaError is emitted when the media element reports an error.
type MediaError struct {
	Code    int
	Message string
}

var mediaErrorNames = map[int]string{
	1: "MEDIA_ERR_ABORTED",
	2: "MEDIA_ERR_NETWORK",
	3: "MEDIA_ERR_DECODE",
	4: "MEDIA_ERR_SRC_NOT_SUPPORTED",
}

func (e *MediaError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = mediaErrorNames[e.Code]
	}
	return fmt.Sprintf("video error: %s (code %d)", msg, e.Code)
}
