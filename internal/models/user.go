package models

import (
	"gorm.io/gorm"
)

// User is a guild member known to the bot. Users are provisioned lazily the
// first time a command touches them; the first user ever provisioned in a
// guild becomes an admin.
type User struct {
	gorm.Model
	GuildID   string `gorm:"uniqueIndex:idx_guild_user" json:"guild_id"`
	DiscordID string `gorm:"uniqueIndex:idx_guild_user" json:"discord_id"`
	Admin     bool   `json:"admin"`
}
