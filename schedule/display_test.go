package schedule

import (
	"context"
	"strings"
	"testing"

	"github.com/meeow/eventbot/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEvent(t *testing.T) {
	p, _ := newTestPlugin()
	ctx := context.Background()

	evt, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "bring snacks")
	require.NoError(t, err)

	out := p.RenderEvent(ctx, evt, p.GuildLocation(ctx, 1))

	assert.Contains(t, out, "**scrims**")
	assert.Contains(t, out, "7/20 6:30PM")
	assert.Contains(t, out, "bring snacks")
	assert.Contains(t, out, "<@100>")
	assert.Contains(t, out, "😃 **Yes (0):** None yet!")
	assert.Contains(t, out, links.RefTo(evt).String())
	assert.Contains(t, out, "Update your status by reacting")
}

func TestRenderEventShowsPartnerAttendance(t *testing.T) {
	p, _ := newTestPlugin()
	ctx := context.Background()

	origin, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	local, err := p.Links.Join(ctx, 2, "300", links.RefTo(origin))
	require.NoError(t, err)

	_, err = p.Attendance.SetStatus(ctx, 1, "scrims", "500", "Yes")
	require.NoError(t, err)

	local, err = p.Store.Get(ctx, 2, "scrims")
	require.NoError(t, err)

	out := p.RenderEvent(ctx, local, p.GuildLocation(ctx, 2))
	assert.Contains(t, out, "Linked attendance from the partner community")
	assert.Contains(t, out, "<@500>")
}

func TestRenderEventReportsBrokenLink(t *testing.T) {
	p, store := newTestPlugin()
	ctx := context.Background()

	origin, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	local, err := p.Links.Join(ctx, 2, "300", links.RefTo(origin))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, 1, "scrims"))

	local, err = p.Store.Get(ctx, 2, "scrims")
	require.NoError(t, err)

	out := p.RenderEvent(ctx, local, p.GuildLocation(ctx, 2))
	assert.Contains(t, out, "The formerly linked event has been deleted.")
}

func TestRenderAllEvents(t *testing.T) {
	p, _ := newTestPlugin()
	ctx := context.Background()

	out, err := p.RenderAllEvents(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "No upcoming events.", out)

	_, err = p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)
	_, err = p.CreateEvent(ctx, 1, "100", "practice", "7/19/2099", "6:30pm", "")
	require.NoError(t, err)

	out, err = p.RenderAllEvents(ctx, 1)
	require.NoError(t, err)

	assert.Contains(t, out, "Showing all events.")
	// ordered by start time
	assert.Less(t, strings.Index(out, "practice"), strings.Index(out, "scrims"))
}
