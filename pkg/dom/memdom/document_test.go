package memdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work6189/PoPlayers/pkg/dom"
)

func TestElementByID_Nested(t *testing.T) {
	doc := New()
	container := doc.AddContainer("player")
	inner, err := doc.CreateElement("div", "inner")
	require.NoError(t, err)
	require.NoError(t, container.AppendChild(inner))
	video, err := doc.CreateMedia("video", "video-element")
	require.NoError(t, err)
	require.NoError(t, inner.AppendChild(video))

	el, ok := doc.ElementByID("player")
	require.True(t, ok)
	assert.Same(t, container, el)

	el, ok = doc.ElementByID(inner.ID())
	require.True(t, ok)
	assert.Same(t, inner, el)

	el, ok = doc.ElementByID(video.ID())
	require.True(t, ok)
	_, isMedia := el.(dom.MediaElement)
	assert.True(t, isMedia)

	_, ok = doc.ElementByID("missing")
	assert.False(t, ok)
	_, ok = doc.ElementByID(doc.Body().ID())
	assert.False(t, ok)
}

func TestAppendChild_Moves(t *testing.T) {
	doc := New()
	a := doc.AddContainer("a")
	b := doc.AddContainer("b")
	child, err := doc.CreateElement("span", "")
	require.NoError(t, err)

	require.NoError(t, a.AppendChild(child))
	require.NoError(t, b.AppendChild(child))
	assert.Empty(t, a.Children())
	assert.Len(t, b.Children(), 1)
	assert.Error(t, a.RemoveChild(child))
	assert.Error(t, a.AppendChild(a))
}
