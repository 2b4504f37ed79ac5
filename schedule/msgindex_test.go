package schedule

import (
	"testing"

	"github.com/meeow/eventbot/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemMessageIndex(t *testing.T) {
	index := NewMemMessageIndex()
	ref := links.Ref{GuildID: 1, EventID: primitive.NewObjectID()}

	_, ok, err := index.Get(555)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, index.Set(555, ref))

	got, ok, err := index.Get(555)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ref, got)

	require.NoError(t, index.Delete(555))

	_, ok, err = index.Get(555)
	require.NoError(t, err)
	assert.False(t, ok)
}
