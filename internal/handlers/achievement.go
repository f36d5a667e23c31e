package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/achievement-bot/internal/auth"
	"github.com/gdg-garage/achievement-bot/internal/ledger"
	"github.com/gdg-garage/achievement-bot/internal/models"
	"github.com/gdg-garage/achievement-bot/internal/registry"
	"github.com/gdg-garage/achievement-bot/internal/roles"
	"github.com/gdg-garage/achievement-bot/internal/store"
	"gorm.io/gorm"
)

// AchievementsHandler serves the read-only view of guild achievements over
// HTTP. All writes go through the chat commands.
type AchievementsHandler struct {
	db          *gorm.DB
	store       *store.Store
	roles       roles.Manager
	authHandler *auth.AuthHandler
}

func NewAchievementsHandler(db *gorm.DB, st *store.Store, rm roles.Manager, authHandler *auth.AuthHandler) *AchievementsHandler {
	return &AchievementsHandler{db: db, store: st, roles: rm, authHandler: authHandler}
}

// GuildAuthInput accepts either the session cookie or an API key header.
type GuildAuthInput struct {
	auth.AuthInput
	APIKey string `header:"X-API-KEY" doc:"API key" required:"false"`
}

// authorize resolves the request to a user ID via API key first, then the
// JWT cookie, mirroring the auth middleware's order.
func (h *AchievementsHandler) authorize(ctx context.Context, input GuildAuthInput) (uint, error) {
	if input.APIKey != "" {
		var keyModel models.APIKey
		if err := h.db.Where("key = ?", input.APIKey).First(&keyModel).Error; err == nil {
			if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
				return 0, huma.Error401Unauthorized("Unauthorized: API Key expired")
			}
			h.db.Model(&keyModel).Update("last_used_at", time.Now())
			return keyModel.UserID, nil
		}
	}
	return h.authHandler.Authorize(ctx, input.Cookie)
}

type ListAchievementsInput struct {
	GuildAuthInput
	GuildID string `path:"guildID" doc:"Guild to list achievements for"`
}

type AchievementResponse struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DiscordRoleID string `json:"discord_role_id,omitempty"`
	RequiresProof bool   `json:"requires_proof"`
}

type ListAchievementsOutput struct {
	Body []AchievementResponse
}

func (h *AchievementsHandler) HandleList(ctx context.Context, input *ListAchievementsInput) (*ListAchievementsOutput, error) {
	if _, err := h.authorize(ctx, input.GuildAuthInput); err != nil {
		return nil, err
	}

	reg := registry.New(h.store.Guild(input.GuildID), h.roles)
	achievements, err := reg.ListAll()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list achievements: " + err.Error())
	}

	response := make([]AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		response = append(response, AchievementResponse{
			Name:          a.Name,
			Description:   a.Description,
			DiscordRoleID: a.DiscordRoleID,
			RequiresProof: a.RequiresProof,
		})
	}
	return &ListAchievementsOutput{Body: response}, nil
}

type ListUserGrantsInput struct {
	GuildAuthInput
	GuildID   string `path:"guildID" doc:"Guild the user belongs to"`
	DiscordID string `path:"discordID" doc:"Discord ID of the user"`
}

type GrantResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Proof       string `json:"proof,omitempty"`
}

type ListUserGrantsOutput struct {
	Body []GrantResponse
}

func (h *AchievementsHandler) HandleUserGrants(ctx context.Context, input *ListUserGrantsInput) (*ListUserGrantsOutput, error) {
	if _, err := h.authorize(ctx, input.GuildAuthInput); err != nil {
		return nil, err
	}

	gs := h.store.Guild(input.GuildID)
	reg := registry.New(gs, h.roles)
	led := ledger.New(gs, reg, h.roles)

	// Provisioning stays on the chat path: an unknown user has no grants,
	// and a GET must not create rows (let alone claim the first-user admin
	// seat of an empty guild).
	user, err := gs.FindUser(input.DiscordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ListUserGrantsOutput{Body: []GrantResponse{}}, nil
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load user: " + err.Error())
	}

	entries, err := led.GrantsFor(user)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list grants: " + err.Error())
	}

	response := make([]GrantResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, GrantResponse{
			Name:        entry.Name,
			Description: entry.Description,
			Proof:       entry.Proof,
		})
	}
	return &ListUserGrantsOutput{Body: response}, nil
}
