package handlers

import (
	"context"
	"testing"

	"github.com/gdg-garage/achievement-bot/internal/models"
)

func TestHandleCreateRequiresAdmin(t *testing.T) {
	_, authHandler, db, _ := setup(t)
	handler := NewAPIKeyHandler(db, authHandler)

	admin := models.User{GuildID: "guild-1", DiscordID: "alice", Admin: true}
	member := models.User{GuildID: "guild-1", DiscordID: "bob"}
	db.Create(&admin)
	db.Create(&member)

	t.Run("AdminCanCreate", func(t *testing.T) {
		token, _ := authHandler.GenerateToken(admin.ID)
		input := &CreateAPIKeyInput{}
		input.Cookie = "auth_token=" + token
		input.Body.Name = "ci"

		out, err := handler.HandleCreate(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleCreate returned error: %v", err)
		}
		if out.Body.Key == "" {
			t.Error("expected a key to be generated")
		}
		if out.Body.Name != "ci" {
			t.Errorf("unexpected key name %q", out.Body.Name)
		}
	})

	t.Run("MemberCannotCreate", func(t *testing.T) {
		token, _ := authHandler.GenerateToken(member.ID)
		input := &CreateAPIKeyInput{}
		input.Cookie = "auth_token=" + token
		input.Body.Name = "sneaky"

		if _, err := handler.HandleCreate(context.Background(), input); err == nil {
			t.Fatal("expected error for non-admin key creation")
		}

		var count int64
		db.Model(&models.APIKey{}).Where("user_id = ?", member.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no key rows for non-admin, got %d", count)
		}
	})
}

func TestHandleListMasksKeys(t *testing.T) {
	_, authHandler, db, _ := setup(t)
	handler := NewAPIKeyHandler(db, authHandler)

	user := models.User{GuildID: "guild-1", DiscordID: "alice", Admin: true}
	db.Create(&user)
	db.Create(&models.APIKey{UserID: user.ID, Key: "0123456789abcdef", Name: "ci"})

	token, _ := authHandler.GenerateToken(user.ID)
	input := &ListAPIKeysInput{}
	input.Cookie = "auth_token=" + token

	out, err := handler.HandleList(context.Background(), input)
	if err != nil {
		t.Fatalf("HandleList returned error: %v", err)
	}
	if len(out.Body) != 1 {
		t.Fatalf("expected 1 key, got %d", len(out.Body))
	}
	if out.Body[0].Key != "...cdef" {
		t.Errorf("expected masked key, got %q", out.Body[0].Key)
	}
}
