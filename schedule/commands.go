package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/jonas747/dcmd/v4"
	"github.com/jonas747/discordgo/v2"
	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/eventstore"
	"github.com/meeow/eventbot/links"
)

func temporaryReply(msg string) *dcmd.TemporaryResponse {
	return dcmd.NewTemporaryResponse(errMessageDuration, msg, true)
}

// replyForError turns the rejection sentinels into the chat replies users
// see. Anything unrecognized is treated as an internal failure.
func replyForError(err error, name string) (interface{}, error) {
	switch {
	case errors.Is(err, eventstore.ErrDuplicateName):
		return temporaryReply(fmt.Sprintf("`%s` already exists in upcoming events.", name)), nil
	case errors.Is(err, eventstore.ErrNotFound):
		return temporaryReply(fmt.Sprintf("Warning: Cannot find event called `%s`.", name)), nil
	case errors.Is(err, eventstore.ErrTimeConflict):
		return temporaryReply("There is already an event scheduled for that time."), nil
	case errors.Is(err, ErrPastTime):
		return temporaryReply("The specified date/time occurred in the past."), nil
	case errors.Is(err, ErrInsufficientPrivileges),
		errors.Is(err, links.ErrMalformedRef),
		errors.Is(err, links.ErrSameCommunity),
		errors.Is(err, links.ErrAlreadyLinked):
		return temporaryReply(err.Error()), nil
	}

	var uerr interface{ IsUserError() bool }
	if errors.As(err, &uerr) && uerr.IsUserError() {
		return temporaryReply(uerr.(error).Error()), nil
	}

	return "Something went wrong.", err
}

// requireManage passes for the event author and community admins
func (p *Plugin) requireManage(data *dcmd.Data, evt *eventstore.Event) error {
	if evt.Author == discordgo.StrID(data.Author.ID) {
		return nil
	}
	return p.requireAdmin(data)
}

func (p *Plugin) requireAdmin(data *dcmd.Data) error {
	isAdmin, err := p.Perms.IsAdmin(data.GuildData.GS.ID, data.Author.ID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrInsufficientPrivileges
	}
	return nil
}

// AddCommands registers the full command set on the container.
func (p *Plugin) AddCommands(container *dcmd.Container) {
	container.AddCommand(p.cmdSchedule(), dcmd.NewTrigger("schedule", "s").SetEnableInDM(false))
	container.AddCommand(p.cmdReschedule(), dcmd.NewTrigger("reschedule", "rs").SetEnableInDM(false))
	container.AddCommand(p.cmdUnschedule(), dcmd.NewTrigger("unschedule", "us").SetEnableInDM(false))
	container.AddCommand(p.cmdUnschedulePast(), dcmd.NewTrigger("unschedulepast").SetEnableInDM(false))
	container.AddCommand(p.cmdShow(), dcmd.NewTrigger("show").SetEnableInDM(false))
	container.AddCommand(p.cmdShowAll(), dcmd.NewTrigger("showall", "events").SetEnableInDM(false))
	container.AddCommand(p.cmdEdit(), dcmd.NewTrigger("edit").SetEnableInDM(false))
	container.AddCommand(p.cmdJoin(), dcmd.NewTrigger("join").SetEnableInDM(false))
	container.AddCommand(p.cmdTimezone(), dcmd.NewTrigger("timezone", "tz").SetEnableInDM(false))
	container.AddCommand(p.cmdAdminLevel(), dcmd.NewTrigger("adminlevel").SetEnableInDM(false))

	// debug surface
	container.AddCommand(p.cmdSetAttendance(), dcmd.NewTrigger("setattendance").SetEnableInDM(false).SetHideFromHelp(true))
	container.AddCommand(p.cmdFactory(), dcmd.NewTrigger("factory").SetEnableInDM(false).SetHideFromHelp(true))
	container.AddCommand(p.cmdTeardown(), dcmd.NewTrigger("teardown").SetEnableInDM(false).SetHideFromHelp(true))
	container.AddCommand(p.cmdRoles(), dcmd.NewTrigger("roles").SetEnableInDM(false).SetHideFromHelp(true))

	container.AddCommand(dcmd.NewStdHelpCommand(), dcmd.NewTrigger("help", "h"))
}

func (p *Plugin) cmdSchedule() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Schedules a new event, e.g. `schedule scrims friday 8pm`",
		RequiredArgDefs: 3,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "name", Type: dcmd.String},
			{Name: "date", Type: dcmd.String, Help: "A date like `7/20`, `tomorrow` or `friday`"},
			{Name: "time", Type: dcmd.String, Help: "A clock time like `8pm` or `20:30`"},
			{Name: "description", Type: dcmd.String, Default: ""},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			name := data.Args[0].Str()

			evt, err := p.CreateEvent(data.Context(), data.GuildData.GS.ID,
				discordgo.StrID(data.Author.ID), name,
				data.Args[1].Str(), data.Args[2].Str(), data.Args[3].Str())
			if err != nil {
				return replyForError(err, name)
			}

			err = p.PostEventMessage(data.Context(), data.ChannelID, evt)
			if err != nil {
				return "Something went wrong.", err
			}
			return "", nil
		},
	}
}

func (p *Plugin) cmdReschedule() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Moves an existing event to a new date/time",
		RequiredArgDefs: 2,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "name", Type: dcmd.String},
			{Name: "when", Type: dcmd.String},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			guildID := data.GuildData.GS.ID
			name := data.Args[0].Str()

			evt, err := p.Store.Get(ctx, guildID, name)
			if err != nil {
				return replyForError(err, name)
			}
			if err = p.requireManage(data, evt); err != nil {
				return replyForError(err, name)
			}

			ts, err := p.Reschedule(ctx, guildID, name, data.Args[1].Str())
			if err != nil {
				return replyForError(err, name)
			}

			loc := p.GuildLocation(ctx, guildID)
			return fmt.Sprintf("Moved **%s** to %s.", name, p.Times.Format(ts, loc)), nil
		},
	}
}

func (p *Plugin) cmdUnschedule() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Removes an event from upcoming events",
		RequiredArgDefs: 1,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "name", Type: dcmd.String},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			guildID := data.GuildData.GS.ID
			name := data.Args[0].Str()

			evt, err := p.Store.Get(ctx, guildID, name)
			if err != nil {
				return replyForError(err, name)
			}
			if err = p.requireManage(data, evt); err != nil {
				return replyForError(err, name)
			}

			if err = p.DeleteEvent(ctx, guildID, name); err != nil {
				return replyForError(err, name)
			}
			return fmt.Sprintf("Removed **%s** from upcoming events.", name), nil
		},
	}
}

func (p *Plugin) cmdUnschedulePast() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Removes every event that has already started",
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			deleted, err := p.DeletePastEvents(data.Context(), data.GuildData.GS.ID)
			if err != nil {
				return "Something went wrong.", err
			}
			if len(deleted) == 0 {
				return "No past events to remove.", nil
			}

			names := make([]string, 0, len(deleted))
			for _, evt := range deleted {
				names = append(names, "**"+evt.Name+"**")
			}
			return "Removed " + strings.Join(names, ", ") + " from upcoming events.", nil
		},
	}
}

func (p *Plugin) cmdShow() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Shows an event with its attendance lists",
		RequiredArgDefs: 1,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "name", Type: dcmd.String},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			name := data.Args[0].Str()

			evt, err := p.Store.Get(ctx, data.GuildData.GS.ID, name)
			if err != nil {
				return replyForError(err, name)
			}

			err = p.PostEventMessage(ctx, data.ChannelID, evt)
			if err != nil {
				return "Something went wrong.", err
			}
			return "", nil
		},
	}
}

func (p *Plugin) cmdShowAll() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Lists all upcoming events",
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			out, err := p.RenderAllEvents(data.Context(), data.GuildData.GS.ID)
			if err != nil {
				return "Something went wrong.", err
			}
			return out, nil
		},
	}
}

func (p *Plugin) cmdEdit() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Edits an event field. Editable: `description`, `author`",
		RequiredArgDefs: 3,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "name", Type: dcmd.String},
			{Name: "field", Type: dcmd.String},
			{Name: "value", Type: dcmd.String},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			guildID := data.GuildData.GS.ID
			name := data.Args[0].Str()
			value := data.Args[2].Str()

			evt, err := p.Store.Get(ctx, guildID, name)
			if err != nil {
				return replyForError(err, name)
			}

			var field eventstore.Field
			switch strings.ToLower(data.Args[1].Str()) {
			case "description":
				if err = p.requireManage(data, evt); err != nil {
					return replyForError(err, name)
				}
				field = eventstore.FieldDescription
			case "author":
				// reassigning ownership is an admin action even for the author
				if err = p.requireAdmin(data); err != nil {
					return replyForError(err, name)
				}
				field = eventstore.FieldAuthor
			case "time":
				return temporaryReply("Use `reschedule` to change an event's time."), nil
			default:
				return temporaryReply(fmt.Sprintf("`%s` is not an editable field.", data.Args[1].Str())), nil
			}

			err = p.Store.UpdateField(ctx, guildID, evt.ID, field, value)
			if err != nil {
				return replyForError(err, name)
			}
			return fmt.Sprintf("Updated %s of **%s**.", field, name), nil
		},
	}
}

func (p *Plugin) cmdJoin() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Joins an event hosted by another community, by its event reference",
		RequiredArgDefs: 1,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "reference", Type: dcmd.String},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			raw := data.Args[0].Str()

			ref, err := links.ParseRef(raw)
			if err != nil {
				return replyForError(err, raw)
			}

			origin, err := p.Links.Resolve(ctx, ref)
			if err != nil {
				return replyForError(err, raw)
			}
			if p.Times.IsPast(origin.Time) {
				return replyForError(ErrPastTime, raw)
			}

			local, err := p.Links.Join(ctx, data.GuildData.GS.ID, discordgo.StrID(data.Author.ID), ref)
			if err != nil {
				return replyForError(err, origin.Name)
			}

			err = p.PostEventMessage(ctx, data.ChannelID, local)
			if err != nil {
				return "Something went wrong.", err
			}
			return "", nil
		},
	}
}

func (p *Plugin) cmdTimezone() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Shows the community timezone, or sets it to an IANA zone like `Europe/Berlin`",
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "zone", Type: dcmd.String, Default: ""},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			guildID := data.GuildData.GS.ID
			zone := data.Args[0].Str()

			if zone == "" {
				conf, err := p.Configs.Get(ctx, guildID)
				if err != nil {
					return "Something went wrong.", err
				}
				return fmt.Sprintf("Current timezone: `%s`. Current time: %s",
					conf.Timezone, p.Times.Format(time.Now(), conf.Location())), nil
			}

			if err := p.requireAdmin(data); err != nil {
				return replyForError(err, "")
			}
			if _, err := time.LoadLocation(zone); err != nil {
				return temporaryReply(fmt.Sprintf("`%s` is not a valid timezone.", zone)), nil
			}

			if err := p.Configs.SetTimezone(ctx, guildID, zone); err != nil {
				return "Something went wrong.", err
			}
			return fmt.Sprintf("Timezone set to `%s`.", zone), nil
		},
	}
}

func (p *Plugin) cmdAdminLevel() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Shows or sets how many top roles count as event admins",
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "level", Type: dcmd.Int, Default: -1},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			ctx := data.Context()
			guildID := data.GuildData.GS.ID
			level := data.Args[0].Int()

			if level < 0 {
				conf, err := p.Configs.Get(ctx, guildID)
				if err != nil {
					return "Something went wrong.", err
				}
				return fmt.Sprintf("Members holding any of the top `%d` roles are event admins.",
					conf.EffectiveAdminLevel()), nil
			}

			if err := p.requireAdmin(data); err != nil {
				return replyForError(err, "")
			}

			if err := p.Configs.SetAdminLevel(ctx, guildID, level); err != nil {
				return "Something went wrong.", err
			}
			return fmt.Sprintf("Admin level set to `%d`.", level), nil
		},
	}
}

func (p *Plugin) cmdSetAttendance() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc:       "Sets another member's attendance status",
		RequiredArgDefs: 3,
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "name", Type: dcmd.String},
			{Name: "user", Type: dcmd.UserID},
			{Name: "status", Type: dcmd.String, Help: "One of yes, partly, maybe, no"},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			if err := p.requireAdmin(data); err != nil {
				return replyForError(err, "")
			}

			name := data.Args[0].Str()
			status, ok := attendance.ParseStatus(data.Args[2].Str())
			if !ok {
				return temporaryReply(fmt.Sprintf("`%s` is not a valid status.", data.Args[2].Str())), nil
			}

			target := discordgo.StrID(data.Args[1].Int64())
			changed, err := p.Attendance.SetStatus(data.Context(), data.GuildData.GS.ID, name, target, status)
			if err != nil {
				return replyForError(err, name)
			}
			if !changed {
				return fmt.Sprintf("%s is already marked %s for **%s**.", mention(target), status, name), nil
			}
			return fmt.Sprintf("Marked %s as %s for **%s**.", mention(target), status, name), nil
		},
	}
}

func (p *Plugin) cmdFactory() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Creates a few placeholder events for testing",
		CmdArgDefs: []*dcmd.ArgDef{
			{Name: "count", Type: dcmd.Int, Default: 3},
		},
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			if err := p.requireAdmin(data); err != nil {
				return replyForError(err, "")
			}

			ctx := data.Context()
			guildID := data.GuildData.GS.ID
			author := discordgo.StrID(data.Author.ID)

			count := data.Args[0].Int()
			if count < 1 || count > 25 {
				count = 3
			}

			base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
			created := 0
			for i := 0; i < count; i++ {
				evt := &eventstore.Event{
					Name:        fmt.Sprintf("test-event-%d", i+1),
					Author:      author,
					Time:        base.Add(time.Duration(i) * time.Hour),
					Description: eventstore.DefaultDescription,
					Statuses:    attendance.NewStatusLists(),
					Metadata:    eventstore.Metadata{Reminders: map[string]int{}},
				}
				_, err := p.Store.Insert(ctx, guildID, evt)
				if err != nil {
					if errors.Is(err, eventstore.ErrDuplicateName) {
						continue
					}
					return "Something went wrong.", err
				}
				created++
			}
			return fmt.Sprintf("Created `%d` test events.", created), nil
		},
	}
}

func (p *Plugin) cmdTeardown() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Removes every event in this community",
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			if err := p.requireAdmin(data); err != nil {
				return replyForError(err, "")
			}

			ctx := data.Context()
			guildID := data.GuildData.GS.ID

			events, err := p.Store.ListAll(ctx, guildID)
			if err != nil {
				return "Something went wrong.", err
			}

			for _, evt := range events {
				err = p.DeleteEvent(ctx, guildID, evt.Name)
				if err != nil {
					logger.WithError(err).WithField("guild", guildID).Error("teardown failed deleting ", evt.Name)
				}
			}
			return fmt.Sprintf("Removed `%d` events.", len(events)), nil
		},
	}
}

func (p *Plugin) cmdRoles() *dcmd.SimpleCmd {
	return &dcmd.SimpleCmd{
		ShortDesc: "Lists this community's roles by position, highest first",
		RunFunc: func(data *dcmd.Data) (interface{}, error) {
			conf, err := p.Configs.Get(data.Context(), data.GuildData.GS.ID)
			if err != nil {
				return "Something went wrong.", err
			}

			roles := append([]discordgo.Role(nil), data.GuildData.GS.Roles...)
			sort.Slice(roles, func(i, j int) bool {
				return roles[i].Position > roles[j].Position
			})

			var b strings.Builder
			fmt.Fprintf(&b, "Roles (top `%d` count as event admins):\n", conf.EffectiveAdminLevel())
			for _, role := range roles {
				fmt.Fprintf(&b, "`%2d` %s\n", role.Position, role.Name)
			}
			return b.String(), nil
		},
	}
}
