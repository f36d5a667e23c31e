package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdg-garage/achievement-bot/internal/ledger"
	"github.com/gdg-garage/achievement-bot/internal/registry"
)

const (
	userMustBeMentioned = "A user must be mentioned"
	onlyOneUserMention  = "Only one user can be mentioned"
	onlyOneRoleMention  = "Can only have a single role"
	roleUpdateWarning   = ", but the role could not be updated"
)

func commandTable() []*Command {
	return []*Command{
		{
			Name:        "help",
			Usage:       "help",
			Description: "Lists available commands",
			Run:         runHelp,
		},
		{
			Name:        "new-achievement",
			Usage:       "new-achievement '<name>' '<desc>' <role>? <req proof>?",
			Description: "Creates a new achievement <name> with the description <desc>. If a <role> is given, upon completing the achievement, the achiever will get it. If <req proof> is 'true', a proof must be given upon completing the achievement. The single quotes are necessary.",
			AdminOnly:   true,
			QuoteCounts: []int{2},
			Run:         runNewAchievement,
		},
		{
			Name:        "delete-achievement",
			Usage:       "delete-achievement '<name>'",
			Description: "Deletes the achievement specified by <name>. The single quotes are necessary.",
			AdminOnly:   true,
			QuoteCounts: []int{1},
			Run:         runDeleteAchievement,
		},
		{
			Name:        "available-achievements",
			Usage:       "available-achievements",
			Description: "Lists all the available achievements and their descriptions",
			Run:         runAvailableAchievements,
		},
		{
			Name:        "add-achievement",
			Usage:       "add-achievement <user>? '<name>' '<proof>'?",
			Description: "If a <user> is given, it adds the achievement to the <user>, otherwise to the caller. <proof> is only required if the achievement needs it. Single quotes are necessary.",
			QuoteCounts: []int{1, 2},
			Run:         runAddAchievement,
		},
		{
			Name:        "remove-achievement",
			Usage:       "remove-achievement <user>? '<name>'",
			Description: "If a user is given, it removes their achievement, otherwise it removes the caller's.",
			QuoteCounts: []int{1},
			Run:         runRemoveAchievement,
		},
		{
			Name:        "list-achievements",
			Usage:       "list-achievements <user>?",
			Description: "If the user is given, it displays their achievements, otherwise the caller's.",
			Run:         runListAchievements,
		},
		{
			Name:        "add-admin",
			Usage:       "add-admin <user>",
			Description: "Makes the <user> an admin",
			AdminOnly:   true,
			Run:         runAddAdmin,
		},
		{
			Name:        "remove-admin",
			Usage:       "remove-admin <user>",
			Description: "Removes admin status from user",
			AdminOnly:   true,
			Run:         runRemoveAdmin,
		},
	}
}

func runHelp(ctx *Context) (string, error) {
	admin, err := ctx.Ledger.IsAdmin(ctx.Msg.AuthorID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("This is the list of available commands: \n")
	for _, cmd := range commandTable() {
		if cmd.AdminOnly {
			if admin {
				fmt.Fprintf(&b, "\n`%s%s` (admin): %s", ctx.Prefix, cmd.Usage, cmd.Description)
			}
		} else {
			fmt.Fprintf(&b, "\n`%s%s`: %s", ctx.Prefix, cmd.Usage, cmd.Description)
		}
	}
	return b.String(), nil
}

func runNewAchievement(ctx *Context) (string, error) {
	name, description := ctx.Quoted[0], ctx.Quoted[1]

	var roleID string
	switch len(ctx.Msg.RoleMentions) {
	case 0:
	case 1:
		roleID = ctx.Msg.RoleMentions[0]
	default:
		return onlyOneRoleMention, nil
	}

	requiresProof := len(ctx.Args) > 0 && ctx.Args[len(ctx.Args)-1] == "true"

	err := ctx.Registry.Define(name, description, roleID, requiresProof)
	if errors.Is(err, registry.ErrAlreadyExists) {
		return fmt.Sprintf("`%s` already exists!", name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("`%s` successfully created!", name), nil
}

func runDeleteAchievement(ctx *Context) (string, error) {
	name := ctx.Quoted[0]

	err := ctx.Registry.Remove(name)
	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Sprintf("`%s` doesn't exist!", name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("`%s` successfully deleted!", name), nil
}

func runAvailableAchievements(ctx *Context) (string, error) {
	achievements, err := ctx.Registry.ListAll()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Available achievements:")
	for _, achievement := range achievements {
		fmt.Fprintf(&b, "\n`%s`: %s", achievement.Name, achievement.Description)
		if achievement.DiscordRoleID != "" {
			roleName, err := ctx.Roles.RoleName(ctx.Msg.GuildID, achievement.DiscordRoleID)
			if err != nil {
				roleName = achievement.DiscordRoleID
			}
			fmt.Fprintf(&b, "\n\tGives the role \"%s\"", roleName)
		}
		if achievement.RequiresProof {
			b.WriteString("\n\tThis achievement requires proof")
		}
	}
	return b.String(), nil
}

// target resolves the user a command acts on: no mention means the invoker,
// exactly one mention means that user, anything else is rejected.
func target(ctx *Context) (string, string, bool) {
	switch len(ctx.Msg.UserMentions) {
	case 0:
		return ctx.Msg.AuthorID, "", true
	case 1:
		return ctx.Msg.UserMentions[0], "", true
	default:
		return "", onlyOneUserMention, false
	}
}

// requireAdminForOther re-checks the invoker's admin flag whenever a command
// mutates someone other than the invoker. The router's gate only covers
// admin-only commands; grant and revoke are open to everyone for themselves.
func requireAdminForOther(ctx *Context, targetID string, action string) (string, bool, error) {
	if targetID == ctx.Msg.AuthorID {
		return "", true, nil
	}
	admin, err := ctx.Ledger.IsAdmin(ctx.Msg.AuthorID)
	if err != nil {
		return "", false, err
	}
	if !admin {
		return fmt.Sprintf("Must be admin to %s someone else's achievement", action), false, nil
	}
	return "", true, nil
}

func runAddAchievement(ctx *Context) (string, error) {
	name := ctx.Quoted[0]
	var proof string
	if len(ctx.Quoted) == 2 {
		proof = ctx.Quoted[1]
	}

	targetID, reply, ok := target(ctx)
	if !ok {
		return reply, nil
	}
	if reply, ok, err := requireAdminForOther(ctx, targetID, "add"); err != nil || !ok {
		return reply, err
	}

	result, err := ctx.Ledger.Grant(targetID, name, proof)
	switch {
	case errors.Is(err, ledger.ErrUnknownAchievement):
		return fmt.Sprintf("`%s` doesn't exist!", name), nil
	case errors.Is(err, ledger.ErrAlreadyGranted):
		return fmt.Sprintf("%s has already achieved `%s`", ctx.Name(targetID), name), nil
	case errors.Is(err, ledger.ErrProofRequired):
		return fmt.Sprintf("`%s` requires proof!", name), nil
	case err != nil:
		return "", err
	}

	reply = fmt.Sprintf("Congratulations to %s for achieving `%s`", ctx.Name(targetID), name)
	if result.RoleErr != nil {
		reply += roleUpdateWarning
	}
	return reply, nil
}

func runRemoveAchievement(ctx *Context) (string, error) {
	name := ctx.Quoted[0]

	targetID, reply, ok := target(ctx)
	if !ok {
		return reply, nil
	}
	if reply, ok, err := requireAdminForOther(ctx, targetID, "remove"); err != nil || !ok {
		return reply, err
	}

	result, err := ctx.Ledger.Revoke(targetID, name)
	switch {
	case errors.Is(err, ledger.ErrUnknownAchievement):
		return fmt.Sprintf("`%s` doesn't exist!", name), nil
	case errors.Is(err, ledger.ErrNotGranted):
		return fmt.Sprintf("%s hasn't achieved `%s` anyways", ctx.Name(targetID), name), nil
	case err != nil:
		return "", err
	}

	reply = fmt.Sprintf("`%s` has been successfully removed", name)
	if result.RoleErr != nil {
		reply += roleUpdateWarning
	}
	return reply, nil
}

func runListAchievements(ctx *Context) (string, error) {
	targetID, reply, ok := target(ctx)
	if !ok {
		return reply, nil
	}

	entries, err := ctx.Ledger.ListGrants(targetID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s's Achievements:", ctx.Name(targetID))
	for _, entry := range entries {
		fmt.Fprintf(&b, "\n`%s` - %s", entry.Name, entry.Description)
		if entry.Proof != "" {
			fmt.Fprintf(&b, "\n\tProof: %s", entry.Proof)
		}
	}
	return b.String(), nil
}

func runAddAdmin(ctx *Context) (string, error) {
	switch len(ctx.Msg.UserMentions) {
	case 0:
		return userMustBeMentioned, nil
	case 1:
	default:
		return onlyOneUserMention, nil
	}
	targetID := ctx.Msg.UserMentions[0]

	changed, err := ctx.Ledger.SetAdmin(targetID, true)
	if err != nil {
		return "", err
	}
	if !changed {
		return fmt.Sprintf("%s is already an admin", ctx.Name(targetID)), nil
	}
	return fmt.Sprintf("Successfully made %s an admin", ctx.Name(targetID)), nil
}

func runRemoveAdmin(ctx *Context) (string, error) {
	switch len(ctx.Msg.UserMentions) {
	case 0:
		return userMustBeMentioned, nil
	case 1:
	default:
		return onlyOneUserMention, nil
	}
	targetID := ctx.Msg.UserMentions[0]

	changed, err := ctx.Ledger.SetAdmin(targetID, false)
	if err != nil {
		return "", err
	}
	if !changed {
		return fmt.Sprintf("%s is not an admin", ctx.Name(targetID)), nil
	}
	return fmt.Sprintf("Successfully removed %s as an admin", ctx.Name(targetID)), nil
}
