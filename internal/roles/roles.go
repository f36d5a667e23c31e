package roles

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Manager applies and reverses the role side effect of an achievement grant.
type Manager interface {
	Grant(guildID, discordID, roleID string) error
	Revoke(guildID, discordID, roleID string) error
	RoleName(guildID, roleID string) (string, error)
}

type DiscordManager struct {
	session *discordgo.Session
}

func NewDiscordManager(session *discordgo.Session) *DiscordManager {
	return &DiscordManager{session: session}
}

func (m *DiscordManager) Grant(guildID, discordID, roleID string) error {
	if m.session == nil {
		return fmt.Errorf("discord session is nil")
	}

	if err := m.session.GuildMemberRoleAdd(guildID, discordID, roleID); err != nil {
		log.Printf("Failed to add role %s to %s in guild %s: %v", roleID, discordID, guildID, err)
		return err
	}

	return nil
}

func (m *DiscordManager) Revoke(guildID, discordID, roleID string) error {
	if m.session == nil {
		return fmt.Errorf("discord session is nil")
	}

	if err := m.session.GuildMemberRoleRemove(guildID, discordID, roleID); err != nil {
		log.Printf("Failed to remove role %s from %s in guild %s: %v", roleID, discordID, guildID, err)
		return err
	}

	return nil
}

func (m *DiscordManager) RoleName(guildID, roleID string) (string, error) {
	if m.session == nil {
		return "", fmt.Errorf("discord session is nil")
	}

	if role, err := m.session.State.Role(guildID, roleID); err == nil {
		return role.Name, nil
	}

	guildRoles, err := m.session.GuildRoles(guildID)
	if err != nil {
		return "", err
	}
	for _, role := range guildRoles {
		if role.ID == roleID {
			return role.Name, nil
		}
	}

	return "", fmt.Errorf("role %s not found in guild %s", roleID, guildID)
}
