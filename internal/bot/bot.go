package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/achievement-bot/internal/config"
	"github.com/gdg-garage/achievement-bot/internal/roles"
	"github.com/gdg-garage/achievement-bot/internal/router"
	"github.com/gdg-garage/achievement-bot/internal/store"
)

// Bot owns the Discord session and feeds prefixed messages to the router.
type Bot struct {
	session *discordgo.Session
	router  *router.Router
	prefix  string
}

// New creates the session and wires the router on top of the store. The
// session is not opened yet; Run does that.
func New(cfg *config.Config, st *store.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		session: session,
		prefix:  cfg.CommandPrefix,
	}
	b.router = router.New(cfg.CommandPrefix, st, roles.NewDiscordManager(session), b)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)

	return b, nil
}

// Session exposes the underlying Discord session for collaborators that need
// it (the HTTP handlers' role manager, for one).
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.session.Close()

	<-ctx.Done()
	log.Println("Shutdown signal received, closing Discord session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("Logged in as %s#%s", r.User.Username, r.User.Discriminator)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	// Commands only make sense inside a guild.
	if m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, b.prefix) {
		return
	}

	msg := router.Message{
		GuildID:      m.GuildID,
		AuthorID:     m.Author.ID,
		Content:      m.Content,
		UserMentions: mentionIDs(m.Mentions),
		RoleMentions: m.MentionRoles,
	}

	reply := b.router.Handle(msg)
	if reply == "" {
		return
	}

	if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); err != nil {
		log.Printf("Failed to send reply in channel %s: %v", m.ChannelID, err)
	}
}

// DisplayName implements router.Namer: member nickname first, then username,
// then a raw mention so the client renders something sensible either way.
func (b *Bot) DisplayName(guildID, discordID string) string {
	if member, err := b.session.State.Member(guildID, discordID); err == nil {
		if member.Nick != "" {
			return member.Nick
		}
		if member.User != nil {
			return member.User.Username
		}
	}

	if member, err := b.session.GuildMember(guildID, discordID); err == nil {
		if member.Nick != "" {
			return member.Nick
		}
		if member.User != nil {
			return member.User.Username
		}
	}

	return "<@" + discordID + ">"
}

func mentionIDs(users []*discordgo.User) []string {
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids
}
