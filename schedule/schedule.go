// Package schedule is the user facing plugin: the command set, the reaction
// surface and the rendering of events back into chat.
package schedule

import (
	"time"

	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/eventstore"
	"github.com/meeow/eventbot/links"
	"github.com/meeow/eventbot/reminders"
	"github.com/meeow/eventbot/times"
)

var logger = common.GetPluginLogger(&Plugin{})

// how long transient error replies stay around before they are deleted
const errMessageDuration = 5 * time.Second

// the reaction that registers a reminder instead of a status
const reminderEmoji = "⏰"

type Plugin struct {
	Store      eventstore.Store
	Configs    eventstore.ConfigStore
	Times      *times.Service
	Attendance *attendance.Engine
	Reminders  *reminders.Plugin
	Links      *links.Coordinator
	Messages   MessageIndex
	Perms      PermissionOracle
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Schedule",
		SysName:  "schedule",
		Category: common.PluginCategoryEvents,
	}
}

func RegisterPlugin(store eventstore.Store, configs eventstore.ConfigStore, remindersPlugin *reminders.Plugin, messages MessageIndex) *Plugin {
	p := &Plugin{
		Store:      store,
		Configs:    configs,
		Times:      times.NewService(),
		Attendance: attendance.NewEngine(store),
		Reminders:  remindersPlugin,
		Links:      links.NewCoordinator(store),
		Messages:   messages,
		Perms:      &RolePositionOracle{Configs: configs},
	}
	common.RegisterPlugin(p)
	return p
}
