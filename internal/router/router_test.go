package router

import (
	"errors"
	"strings"
	"testing"

	"github.com/gdg-garage/achievement-bot/internal/ledger"
	"github.com/gdg-garage/achievement-bot/internal/models"
	"github.com/gdg-garage/achievement-bot/internal/registry"
	"github.com/gdg-garage/achievement-bot/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeRoleManager struct {
	granted   map[string]bool
	failGrant bool
}

func (f *fakeRoleManager) Grant(guildID, discordID, roleID string) error {
	if f.failGrant {
		return errors.New("discord unavailable")
	}
	if f.granted == nil {
		f.granted = map[string]bool{}
	}
	f.granted[discordID+":"+roleID] = true
	return nil
}

func (f *fakeRoleManager) Revoke(guildID, discordID, roleID string) error {
	delete(f.granted, discordID+":"+roleID)
	return nil
}

func (f *fakeRoleManager) RoleName(guildID, roleID string) (string, error) {
	return "Role " + roleID, nil
}

type fakeNamer struct{}

func (fakeNamer) DisplayName(guildID, discordID string) string {
	return discordID
}

func setup(t *testing.T) (*Router, *ledger.Ledger, *fakeRoleManager) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.AutoMigrate(&models.User{}, &models.Achievement{}, &models.Grant{})

	st := store.New(db)
	rm := &fakeRoleManager{}
	r := New("!", st, rm, fakeNamer{})

	gs := st.Guild("guild-1")
	led := ledger.New(gs, registry.New(gs, rm), rm)
	return r, led, rm
}

func message(author, content string) Message {
	return Message{GuildID: "guild-1", AuthorID: author, Content: content}
}

func mention(author, content string, userIDs ...string) Message {
	msg := message(author, content)
	msg.UserMentions = userIDs
	return msg
}

func TestUnknownCommand(t *testing.T) {
	r, _, _ := setup(t)

	reply := r.Handle(message("alice", "!frobnicate"))
	want := "This is an unrecognised command, please use `!help` for help"
	if reply != want {
		t.Errorf("expected %q, got %q", want, reply)
	}
}

func TestNewAchievementRequiringProof(t *testing.T) {
	r, _, _ := setup(t)

	// alice is the first user the guild ever sees, so the admin gate
	// provisions her as admin.
	reply := r.Handle(message("alice", "!new-achievement 'quiz-master' 'Completed the quiz' true"))
	if reply != "`quiz-master` successfully created!" {
		t.Fatalf("unexpected reply %q", reply)
	}

	reply = r.Handle(message("alice", "!add-achievement 'quiz-master'"))
	if reply != "`quiz-master` requires proof!" {
		t.Fatalf("expected proof-required reply, got %q", reply)
	}

	reply = r.Handle(message("alice", "!list-achievements"))
	if strings.Contains(reply, "quiz-master") {
		t.Errorf("expected no grant recorded, got %q", reply)
	}

	reply = r.Handle(message("alice", "!add-achievement 'quiz-master' 'https://example.com/run'"))
	if reply != "Congratulations to alice for achieving `quiz-master`" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestNewAchievementDuplicate(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!new-achievement 'veteran' 'Around for a year'"))
	reply := r.Handle(message("alice", "!new-achievement 'veteran' 'Other description'"))
	if reply != "`veteran` already exists!" {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestBadlyFormattedCommands(t *testing.T) {
	r, _, _ := setup(t)

	cases := []string{
		"!new-achievement 'only-name'",
		"!new-achievement no quotes at all",
		"!new-achievement 'a' 'b' 'c'",
		"!delete-achievement veteran",
		"!add-achievement",
		"!remove-achievement 'a' 'b'",
	}
	for _, content := range cases {
		if reply := r.Handle(message("alice", content)); reply != badFormatReply {
			t.Errorf("%q: expected bad format reply, got %q", content, reply)
		}
	}
}

func TestPermissionDenied(t *testing.T) {
	r, led, _ := setup(t)

	// Provision the admin seat first.
	r.Handle(message("alice", "!help"))

	reply := r.Handle(mention("mallory", "!add-admin <@bob>", "bob"))
	if reply != "`add-admin` requires admin permissions to run" {
		t.Fatalf("unexpected reply %q", reply)
	}

	admin, err := led.IsAdmin("bob")
	if err != nil {
		t.Fatalf("IsAdmin returned error: %v", err)
	}
	if admin {
		t.Error("expected bob's admin flag unchanged")
	}
}

func TestAdminPromotionAndDemotion(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!help"))

	if reply := r.Handle(mention("alice", "!add-admin <@bob>", "bob")); reply != "Successfully made bob an admin" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := r.Handle(mention("alice", "!add-admin <@bob>", "bob")); reply != "bob is already an admin" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := r.Handle(mention("alice", "!remove-admin <@bob>", "bob")); reply != "Successfully removed bob as an admin" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := r.Handle(mention("alice", "!remove-admin <@bob>", "bob")); reply != "bob is not an admin" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestAdminCommandsRequireMention(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!help"))

	if reply := r.Handle(message("alice", "!add-admin")); reply != userMustBeMentioned {
		t.Errorf("unexpected reply %q", reply)
	}
	if reply := r.Handle(mention("alice", "!add-admin <@bob> <@carol>", "bob", "carol")); reply != onlyOneUserMention {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestGrantToOtherRequiresAdmin(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!new-achievement 'veteran' 'Around for a year'"))

	reply := r.Handle(mention("mallory", "!add-achievement <@bob> 'veteran'", "bob"))
	if reply != "Must be admin to add someone else's achievement" {
		t.Fatalf("unexpected reply %q", reply)
	}

	reply = r.Handle(mention("alice", "!add-achievement <@bob> 'veteran'", "bob"))
	if reply != "Congratulations to bob for achieving `veteran`" {
		t.Fatalf("unexpected reply %q", reply)
	}

	reply = r.Handle(mention("alice", "!add-achievement <@bob> <@carol> 'veteran'", "bob", "carol"))
	if reply != onlyOneUserMention {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestRemoveAchievement(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!new-achievement 'veteran' 'Around for a year'"))
	r.Handle(message("alice", "!add-achievement 'veteran'"))

	reply := r.Handle(message("alice", "!remove-achievement 'veteran'"))
	if reply != "`veteran` has been successfully removed" {
		t.Fatalf("unexpected reply %q", reply)
	}

	reply = r.Handle(message("alice", "!remove-achievement 'veteran'"))
	if reply != "alice hasn't achieved `veteran` anyways" {
		t.Fatalf("unexpected reply %q", reply)
	}

	reply = r.Handle(mention("mallory", "!remove-achievement <@alice> 'veteran'", "alice"))
	if reply != "Must be admin to remove someone else's achievement" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestAvailableAchievements(t *testing.T) {
	r, _, _ := setup(t)

	roleMsg := message("alice", "!new-achievement 'first-blood' 'First to do the thing'")
	roleMsg.RoleMentions = []string{"role-1"}
	r.Handle(roleMsg)
	r.Handle(message("alice", "!new-achievement 'quiz-master' 'Completed the quiz' true"))

	reply := r.Handle(message("bob", "!available-achievements"))
	for _, want := range []string{
		"Available achievements:",
		"`first-blood`: First to do the thing",
		"Gives the role \"Role role-1\"",
		"`quiz-master`: Completed the quiz",
		"This achievement requires proof",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("expected reply to contain %q, got %q", want, reply)
		}
	}
}

func TestNewAchievementSingleRoleOnly(t *testing.T) {
	r, _, _ := setup(t)

	msg := message("alice", "!new-achievement 'first-blood' 'First to do the thing'")
	msg.RoleMentions = []string{"role-1", "role-2"}
	if reply := r.Handle(msg); reply != onlyOneRoleMention {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestListAchievementsShowsProof(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!new-achievement 'quiz-master' 'Completed the quiz' true"))
	r.Handle(message("alice", "!add-achievement 'quiz-master' 'https://example.com/run'"))

	reply := r.Handle(message("alice", "!list-achievements"))
	for _, want := range []string{
		"alice's Achievements:",
		"`quiz-master` - Completed the quiz",
		"Proof: https://example.com/run",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("expected reply to contain %q, got %q", want, reply)
		}
	}

	// Listing another user needs no admin rights.
	reply = r.Handle(mention("bob", "!list-achievements <@alice>", "alice"))
	if !strings.Contains(reply, "alice's Achievements:") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestDeleteAchievementCascade(t *testing.T) {
	r, _, rm := setup(t)

	msg := message("alice", "!new-achievement 'first-blood' 'First to do the thing'")
	msg.RoleMentions = []string{"role-1"}
	r.Handle(msg)
	r.Handle(message("alice", "!add-achievement 'first-blood'"))
	r.Handle(mention("alice", "!add-achievement <@bob> 'first-blood'", "bob"))

	if !rm.granted["alice:role-1"] || !rm.granted["bob:role-1"] {
		t.Fatal("expected roles granted before the cascade")
	}

	if reply := r.Handle(message("alice", "!delete-achievement 'first-blood'")); reply != "`first-blood` successfully deleted!" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if rm.granted["alice:role-1"] || rm.granted["bob:role-1"] {
		t.Error("expected roles revoked by the cascade")
	}

	reply := r.Handle(message("alice", "!list-achievements"))
	if strings.Contains(reply, "first-blood") {
		t.Errorf("expected grant removed by cascade, got %q", reply)
	}

	if reply := r.Handle(message("alice", "!delete-achievement 'first-blood'")); reply != "`first-blood` doesn't exist!" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestHelpHidesAdminCommands(t *testing.T) {
	r, _, _ := setup(t)

	adminReply := r.Handle(message("alice", "!help"))
	if !strings.Contains(adminReply, "new-achievement") {
		t.Error("expected admin help to list admin commands")
	}
	if !strings.Contains(adminReply, "(admin)") {
		t.Error("expected admin help to mark admin commands")
	}

	userReply := r.Handle(message("bob", "!help"))
	if strings.Contains(userReply, "new-achievement") {
		t.Error("expected non-admin help to hide admin commands")
	}
	if !strings.Contains(userReply, "list-achievements") {
		t.Error("expected non-admin help to list public commands")
	}
}

func TestRoleFailureReportedInReply(t *testing.T) {
	r, _, rm := setup(t)

	msg := message("alice", "!new-achievement 'first-blood' 'First to do the thing'")
	msg.RoleMentions = []string{"role-1"}
	r.Handle(msg)

	rm.failGrant = true
	reply := r.Handle(message("alice", "!add-achievement 'first-blood'"))
	if !strings.Contains(reply, "Congratulations to alice") {
		t.Fatalf("expected grant to succeed, got %q", reply)
	}
	if !strings.Contains(reply, "role could not be updated") {
		t.Errorf("expected role warning in reply, got %q", reply)
	}
}

func TestGuildsAreIsolated(t *testing.T) {
	r, _, _ := setup(t)

	r.Handle(message("alice", "!new-achievement 'veteran' 'Around for a year'"))

	other := Message{GuildID: "guild-2", AuthorID: "alice", Content: "!available-achievements"}
	reply := r.Handle(other)
	if strings.Contains(reply, "veteran") {
		t.Errorf("expected guild-2 to have no achievements, got %q", reply)
	}
}
