package ledger

import (
	"errors"

	"github.com/gdg-garage/achievement-bot/internal/models"
	"github.com/gdg-garage/achievement-bot/internal/registry"
	"github.com/gdg-garage/achievement-bot/internal/roles"
	"github.com/gdg-garage/achievement-bot/internal/store"
	"gorm.io/gorm"
)

var (
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrAlreadyGranted     = errors.New("achievement already granted")
	ErrNotGranted         = errors.New("achievement not granted")
	ErrProofRequired      = errors.New("achievement requires proof")
)

// UnknownDescription is rendered for a grant whose definition no longer
// exists (a crash mid-cascade can leave such grants behind).
const UnknownDescription = "<unknown>"

// Ledger manages a guild's user records and their achievement grants.
type Ledger struct {
	gs    *store.GuildStore
	reg   *registry.Registry
	roles roles.Manager
}

func New(gs *store.GuildStore, reg *registry.Registry, roles roles.Manager) *Ledger {
	return &Ledger{gs: gs, reg: reg, roles: roles}
}

// Provision creates the user's record if it does not exist. The first user
// ever provisioned in a guild becomes an admin. The existence check, the
// count and the insert run in one transaction, so two racing first
// provisions cannot both end up admin.
func (l *Ledger) Provision(discordID string) (models.User, error) {
	var user models.User
	err := l.gs.Transaction(func(tx *store.GuildStore) error {
		existing, err := tx.FindUser(discordID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		count, err := tx.CountUsers()
		if err != nil {
			return err
		}

		user = models.User{DiscordID: discordID, Admin: count == 0}
		return tx.InsertUser(&user)
	})
	return user, err
}

// Get returns the user's record, provisioning it first if needed.
func (l *Ledger) Get(discordID string) (models.User, error) {
	return l.Provision(discordID)
}

func (l *Ledger) IsAdmin(discordID string) (bool, error) {
	user, err := l.Get(discordID)
	if err != nil {
		return false, err
	}
	return user.Admin, nil
}

// SetAdmin sets the user's admin flag. It reports false if the flag already
// had the requested value and nothing was changed.
func (l *Ledger) SetAdmin(discordID string, admin bool) (bool, error) {
	user, err := l.Get(discordID)
	if err != nil {
		return false, err
	}
	if user.Admin == admin {
		return false, nil
	}

	user.Admin = admin
	if err := l.gs.SaveUser(&user); err != nil {
		return false, err
	}
	return true, nil
}

// GrantResult reports a successful grant. RoleErr is set when the grant was
// persisted but the role side effect failed; callers surface it in the reply
// instead of failing the whole operation.
type GrantResult struct {
	Achievement models.Achievement
	RoleErr     error
}

// Grant records the achievement for the user and applies the definition's
// role, if any. Proof is mandatory when the definition requires it.
func (l *Ledger) Grant(discordID, name, proof string) (GrantResult, error) {
	achievement, err := l.reg.Lookup(name)
	if errors.Is(err, registry.ErrNotFound) {
		return GrantResult{}, ErrUnknownAchievement
	}
	if err != nil {
		return GrantResult{}, err
	}

	user, err := l.Get(discordID)
	if err != nil {
		return GrantResult{}, err
	}

	if _, err := l.gs.FindGrant(user.ID, name); err == nil {
		return GrantResult{}, ErrAlreadyGranted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return GrantResult{}, err
	}

	if achievement.RequiresProof && proof == "" {
		return GrantResult{}, ErrProofRequired
	}

	grant := models.Grant{UserID: user.ID, Name: name}
	if achievement.RequiresProof {
		grant.Proof = proof
	}
	if err := l.gs.InsertGrant(&grant); err != nil {
		return GrantResult{}, err
	}

	result := GrantResult{Achievement: achievement}
	if achievement.DiscordRoleID != "" {
		result.RoleErr = l.roles.Grant(l.gs.GuildID(), discordID, achievement.DiscordRoleID)
	}
	return result, nil
}

// Revoke removes the achievement from the user and reverses the role side
// effect. Like Grant, a role failure is reported, not fatal.
func (l *Ledger) Revoke(discordID, name string) (GrantResult, error) {
	achievement, err := l.reg.Lookup(name)
	if errors.Is(err, registry.ErrNotFound) {
		return GrantResult{}, ErrUnknownAchievement
	}
	if err != nil {
		return GrantResult{}, err
	}

	user, err := l.Get(discordID)
	if err != nil {
		return GrantResult{}, err
	}

	if _, err := l.gs.FindGrant(user.ID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GrantResult{}, ErrNotGranted
		}
		return GrantResult{}, err
	}

	if err := l.gs.DeleteGrant(user.ID, name); err != nil {
		return GrantResult{}, err
	}

	result := GrantResult{Achievement: achievement}
	if achievement.DiscordRoleID != "" {
		result.RoleErr = l.roles.Revoke(l.gs.GuildID(), discordID, achievement.DiscordRoleID)
	}
	return result, nil
}

// GrantEntry is one line of a user's achievement list: the grant plus its
// definition's description, resolved at read time.
type GrantEntry struct {
	Name        string
	Description string
	Proof       string
}

// ListGrants returns the user's grants in grant order, provisioning the user
// first if needed. A grant whose definition has been deleted out from under
// it resolves to UnknownDescription rather than erroring.
func (l *Ledger) ListGrants(discordID string) ([]GrantEntry, error) {
	user, err := l.Get(discordID)
	if err != nil {
		return nil, err
	}
	return l.GrantsFor(user)
}

// GrantsFor lists the grants of an already-loaded user record. Unlike
// ListGrants it never provisions anything, so read-only callers can use it
// without creating user rows as a side effect.
func (l *Ledger) GrantsFor(user models.User) ([]GrantEntry, error) {
	grants, err := l.gs.ListGrants(user.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]GrantEntry, 0, len(grants))
	for _, grant := range grants {
		entry := GrantEntry{Name: grant.Name, Proof: grant.Proof, Description: UnknownDescription}
		if achievement, err := l.reg.Lookup(grant.Name); err == nil {
			entry.Description = achievement.Description
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
