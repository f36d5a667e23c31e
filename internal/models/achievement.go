package models

import (
	"gorm.io/gorm"
)

// Achievement is a per-guild achievement definition. DiscordRoleID, when set,
// is granted to a user on achievement grant and revoked on achievement
// revoke. Definitions are immutable apart from create/delete.
type Achievement struct {
	gorm.Model
	GuildID       string `gorm:"uniqueIndex:idx_guild_achievement" json:"guild_id"`
	Name          string `gorm:"uniqueIndex:idx_guild_achievement" json:"name"`
	Description   string `json:"description"`
	DiscordRoleID string `json:"discord_role_id"`
	RequiresProof bool   `json:"requires_proof"`
}

// Grant links a user to an achievement definition by name. The reference is
// by value, not a foreign key: deleting a definition does not remove grants
// at the database level. The registry's cascading delete removes them
// explicitly, so a crash mid-cascade can leave a grant whose definition is
// gone; readers must tolerate that.
type Grant struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_user_grant" json:"user_id"`
	Name   string `gorm:"uniqueIndex:idx_user_grant" json:"name"`
	Proof  string `json:"proof"`
}
