package store

import (
	"github.com/gdg-garage/achievement-bot/internal/models"
	"gorm.io/gorm"
)

// Store hands out guild-scoped views of the database. It carries no business
// logic; the registry and ledger sit on top of it.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Guild returns a view of the store restricted to one guild. All entities are
// partitioned by guild; nothing reachable from a GuildStore can see another
// guild's rows.
func (s *Store) Guild(guildID string) *GuildStore {
	return &GuildStore{db: s.db, guildID: guildID}
}

// GuildStore exposes the two per-guild collections (users, achievements) plus
// the grant rows hanging off users. Lookups that miss return
// gorm.ErrRecordNotFound, which callers check with errors.Is.
type GuildStore struct {
	db      *gorm.DB
	guildID string
}

// GuildID returns the guild this view is scoped to.
func (g *GuildStore) GuildID() string {
	return g.guildID
}

// Transaction runs fn against a GuildStore bound to a database transaction.
func (g *GuildStore) Transaction(fn func(tx *GuildStore) error) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GuildStore{db: tx, guildID: g.guildID})
	})
}

func (g *GuildStore) FindUser(discordID string) (models.User, error) {
	var user models.User
	err := g.db.Where("guild_id = ? AND discord_id = ?", g.guildID, discordID).First(&user).Error
	return user, err
}

func (g *GuildStore) CountUsers() (int64, error) {
	var count int64
	err := g.db.Model(&models.User{}).Where("guild_id = ?", g.guildID).Count(&count).Error
	return count, err
}

func (g *GuildStore) InsertUser(user *models.User) error {
	user.GuildID = g.guildID
	return g.db.Create(user).Error
}

func (g *GuildStore) SaveUser(user *models.User) error {
	return g.db.Save(user).Error
}

func (g *GuildStore) ListUsers() ([]models.User, error) {
	var users []models.User
	err := g.db.Where("guild_id = ?", g.guildID).Order("id").Find(&users).Error
	return users, err
}

func (g *GuildStore) FindAchievement(name string) (models.Achievement, error) {
	var achievement models.Achievement
	err := g.db.Where("guild_id = ? AND name = ?", g.guildID, name).First(&achievement).Error
	return achievement, err
}

func (g *GuildStore) InsertAchievement(achievement *models.Achievement) error {
	achievement.GuildID = g.guildID
	return g.db.Create(achievement).Error
}

// DeleteAchievement removes the row outright. A soft delete would keep the
// (guild, name) pair occupied in the unique index and block re-creating the
// achievement under the same name.
func (g *GuildStore) DeleteAchievement(name string) error {
	return g.db.Unscoped().Where("guild_id = ? AND name = ?", g.guildID, name).Delete(&models.Achievement{}).Error
}

// ListAchievements returns the guild's definitions in insertion order.
func (g *GuildStore) ListAchievements() ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := g.db.Where("guild_id = ?", g.guildID).Order("id").Find(&achievements).Error
	return achievements, err
}

func (g *GuildStore) FindGrant(userID uint, name string) (models.Grant, error) {
	var grant models.Grant
	err := g.db.Where("user_id = ? AND name = ?", userID, name).First(&grant).Error
	return grant, err
}

func (g *GuildStore) InsertGrant(grant *models.Grant) error {
	return g.db.Create(grant).Error
}

// DeleteGrant removes the row outright so the user can be granted the same
// achievement again later.
func (g *GuildStore) DeleteGrant(userID uint, name string) error {
	return g.db.Unscoped().Where("user_id = ? AND name = ?", userID, name).Delete(&models.Grant{}).Error
}

// ListGrants returns a user's grants in grant order.
func (g *GuildStore) ListGrants(userID uint) ([]models.Grant, error) {
	var grants []models.Grant
	err := g.db.Where("user_id = ?", userID).Order("id").Find(&grants).Error
	return grants, err
}
