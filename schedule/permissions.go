package schedule

import (
	"context"
	"sort"

	"emperror.dev/errors"
	"github.com/jonas747/discordgo/v2"
	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/eventstore"
)

const ErrInsufficientPrivileges = errors.Sentinel("Error: You have insufficient privileges to perform this action.")

// PermissionOracle answers admin checks so the command logic stays
// independent of any particular platform's role model.
type PermissionOracle interface {
	IsAdmin(guildID int64, userID int64) (bool, error)
}

// RolePositionOracle treats members holding one of the guild's top N roles
// as admins, N being the guild's configured admin level.
type RolePositionOracle struct {
	Configs eventstore.ConfigStore
}

var _ PermissionOracle = (*RolePositionOracle)(nil)

func (o *RolePositionOracle) IsAdmin(guildID int64, userID int64) (bool, error) {
	guild, err := common.BotSession.Guild(guildID)
	if err != nil {
		return false, errors.WrapIf(err, "fetch guild")
	}

	if guild.OwnerID == userID {
		return true, nil
	}

	member, err := common.BotSession.GuildMember(guildID, userID)
	if err != nil {
		return false, errors.WrapIf(err, "fetch member")
	}

	conf, err := o.Configs.Get(context.Background(), guildID)
	if err != nil {
		return false, err
	}

	adminLevel := conf.EffectiveAdminLevel()
	if adminLevel > len(guild.Roles) {
		adminLevel = len(guild.Roles)
	}

	// the top adminLevel roles by position count as admin roles
	sorted := append([]*discordgo.Role(nil), guild.Roles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position > sorted[j].Position })

	for _, adminRole := range sorted[:adminLevel] {
		for _, held := range member.Roles {
			if held == adminRole.ID {
				return true, nil
			}
		}
	}

	return false, nil
}
