package router

import (
	"fmt"
	"log"
	"strings"

	"github.com/gdg-garage/achievement-bot/internal/ledger"
	"github.com/gdg-garage/achievement-bot/internal/registry"
	"github.com/gdg-garage/achievement-bot/internal/roles"
	"github.com/gdg-garage/achievement-bot/internal/store"
)

// Message is an inbound chat message, already known to start with the
// command prefix. Mentions carry user/role IDs only; the transport resolves
// them before the router runs.
type Message struct {
	GuildID      string
	AuthorID     string
	Content      string
	UserMentions []string
	RoleMentions []string
}

// Namer renders a user ID as a display name for reply text.
type Namer interface {
	DisplayName(guildID, discordID string) string
}

// Command describes one chat command. The table of commands is built once by
// New and never mutated afterwards.
type Command struct {
	Name        string
	Usage       string
	Description string
	AdminOnly   bool
	// QuoteCounts lists the accepted numbers of quoted fields. A message
	// whose quote count matches none of them is rejected as badly formatted
	// before the handler runs. Empty means the command takes no quoted
	// fields and quotes are not checked at all.
	QuoteCounts []int
	Run         func(*Context) (string, error)
}

// Context is the per-invocation state handed to a command handler.
type Context struct {
	Msg      Message
	Args     []string // whitespace tokens after the command name
	Quoted   []string // quoted fields, in order of appearance
	Prefix   string
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Roles    roles.Manager
	Namer    Namer
}

// Name resolves discordID to a display name.
func (c *Context) Name(discordID string) string {
	return c.Namer.DisplayName(c.Msg.GuildID, discordID)
}

// Router parses prefixed messages, gates them on the invoker's admin flag
// and dispatches to the command table. Every outcome, including errors, is a
// reply string.
type Router struct {
	prefix   string
	store    *store.Store
	roles    roles.Manager
	namer    Namer
	commands map[string]*Command
}

func New(prefix string, st *store.Store, rm roles.Manager, namer Namer) *Router {
	r := &Router{
		prefix:   prefix,
		store:    st,
		roles:    rm,
		namer:    namer,
		commands: make(map[string]*Command),
	}
	for _, cmd := range commandTable() {
		r.commands[cmd.Name] = cmd
	}
	return r
}

const (
	badFormatReply = "The command is badly formatted"
	internalReply  = "Something went wrong while running the command, please try again later"
)

// Handle runs one command invocation end to end and returns the reply.
func (r *Router) Handle(msg Message) string {
	name, args := splitCommand(msg.Content, r.prefix)

	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Sprintf("This is an unrecognised command, please use `%shelp` for help", r.prefix)
	}

	gs := r.store.Guild(msg.GuildID)
	reg := registry.New(gs, r.roles)
	led := ledger.New(gs, reg, r.roles)

	if cmd.AdminOnly {
		admin, err := led.IsAdmin(msg.AuthorID)
		if err != nil {
			log.Printf("Admin check for %s failed: %v", msg.AuthorID, err)
			return internalReply
		}
		if !admin {
			return fmt.Sprintf("`%s` requires admin permissions to run", name)
		}
	}

	var quoted []string
	if len(cmd.QuoteCounts) > 0 {
		quoted, ok = quotedFields(msg.Content, cmd.QuoteCounts)
		if !ok {
			return badFormatReply
		}
	}

	ctx := &Context{
		Msg:      msg,
		Args:     args,
		Quoted:   quoted,
		Prefix:   r.prefix,
		Ledger:   led,
		Registry: reg,
		Roles:    r.roles,
		Namer:    r.namer,
	}

	reply, err := cmd.Run(ctx)
	if err != nil {
		log.Printf("Command %s from %s failed: %v", name, msg.AuthorID, err)
		return internalReply
	}
	return reply
}

// splitCommand strips the prefix off the first token and returns the command
// name and the remaining whitespace tokens.
func splitCommand(content, prefix string) (string, []string) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.TrimPrefix(fields[0], prefix), fields[1:]
}

// quotedFields extracts the single-quoted segments of content and validates
// their count against the accepted counts. The quote characters must pair up
// exactly; any stray quote fails the match.
func quotedFields(content string, accepted []int) ([]string, bool) {
	segments := strings.Split(content, "'")
	quotes := len(segments) - 1

	for _, n := range accepted {
		if quotes != 2*n {
			continue
		}
		fields := make([]string, 0, n)
		for i := 1; i < len(segments); i += 2 {
			fields = append(fields, segments[i])
		}
		return fields, true
	}
	return nil, false
}
