package registry

import (
	"errors"
	"fmt"
	"log"

	"github.com/gdg-garage/achievement-bot/internal/models"
	"github.com/gdg-garage/achievement-bot/internal/roles"
	"github.com/gdg-garage/achievement-bot/internal/store"
	"gorm.io/gorm"
)

var (
	ErrAlreadyExists = errors.New("achievement already exists")
	ErrNotFound      = errors.New("achievement not found")
)

// Registry manages a guild's achievement definitions.
type Registry struct {
	gs    *store.GuildStore
	roles roles.Manager
}

func New(gs *store.GuildStore, roles roles.Manager) *Registry {
	return &Registry{gs: gs, roles: roles}
}

// Define creates a new achievement. roleID may be empty; requiresProof marks
// the achievement as needing a proof link on grant.
func (r *Registry) Define(name, description, roleID string, requiresProof bool) error {
	if _, err := r.gs.FindAchievement(name); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	achievement := models.Achievement{
		Name:          name,
		Description:   description,
		DiscordRoleID: roleID,
		RequiresProof: requiresProof,
	}
	return r.gs.InsertAchievement(&achievement)
}

// Lookup returns the definition for name, or ErrNotFound.
func (r *Registry) Lookup(name string) (models.Achievement, error) {
	achievement, err := r.gs.FindAchievement(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Achievement{}, ErrNotFound
	}
	return achievement, err
}

// Remove deletes a definition after revoking it from every holder. The
// cascade is not atomic: each holder's grant is removed and their role
// reversed one at a time, then the definition itself is deleted. A role
// reversal failure is logged and skipped rather than aborting the cascade.
func (r *Registry) Remove(name string) error {
	achievement, err := r.Lookup(name)
	if err != nil {
		return err
	}

	users, err := r.gs.ListUsers()
	if err != nil {
		return err
	}

	for _, user := range users {
		_, err := r.gs.FindGrant(user.ID, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		if err := r.gs.DeleteGrant(user.ID, name); err != nil {
			return fmt.Errorf("failed to revoke %q from %s: %w", name, user.DiscordID, err)
		}
		if achievement.DiscordRoleID != "" {
			if err := r.roles.Revoke(r.gs.GuildID(), user.DiscordID, achievement.DiscordRoleID); err != nil {
				log.Printf("Cascade for %q: could not remove role from %s: %v", name, user.DiscordID, err)
			}
		}
	}

	return r.gs.DeleteAchievement(name)
}

// ListAll returns the guild's definitions in the order they were created.
func (r *Registry) ListAll() ([]models.Achievement, error) {
	return r.gs.ListAchievements()
}
