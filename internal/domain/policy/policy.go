// Package policy is the access-control core: pure decision functions over the
// current persisted user record. Nothing here performs I/O or trusts a role
// claim carried in a token; callers fetch the user fresh and ask.
package policy

import (
	"lodge_archive/internal/domain/model"
)

// Engine answers allow/deny questions for every guarded action. The admin and
// super-admin allow-lists are independent fixed sets injected at construction;
// neither is required to contain the other.
type Engine struct {
	adminEmails      map[string]struct{}
	superAdminEmails map[string]struct{}
}

func NewEngine(adminEmails, superAdminEmails []string) *Engine {
	e := &Engine{
		adminEmails:      make(map[string]struct{}, len(adminEmails)),
		superAdminEmails: make(map[string]struct{}, len(superAdminEmails)),
	}
	for _, email := range adminEmails {
		e.adminEmails[model.NormalizeEmail(email)] = struct{}{}
	}
	for _, email := range superAdminEmails {
		e.superAdminEmails[model.NormalizeEmail(email)] = struct{}{}
	}
	return e
}

func (e *Engine) IsAdmin(u *model.User) bool {
	if u == nil {
		return false
	}
	_, ok := e.adminEmails[model.NormalizeEmail(u.Email)]
	return ok
}

func (e *Engine) IsSuperAdmin(u *model.User) bool {
	if u == nil {
		return false
	}
	_, ok := e.superAdminEmails[model.NormalizeEmail(u.Email)]
	return ok
}

// IsProtected reports whether the email belongs to the union of both
// allow-lists. Protected identities can never be deleted or demoted through
// the standard user-management actions.
func (e *Engine) IsProtected(email string) bool {
	email = model.NormalizeEmail(email)
	if _, ok := e.adminEmails[email]; ok {
		return true
	}
	_, ok := e.superAdminEmails[email]
	return ok
}

// Role derives the effective role for a user. Super-admin wins over admin
// when an email appears on both lists.
func (e *Engine) Role(u *model.User) model.Role {
	switch {
	case e.IsSuperAdmin(u):
		return model.RoleSuperAdmin
	case e.IsAdmin(u):
		return model.RoleAdmin
	default:
		return model.RoleMember
	}
}

// VisibleTiers returns the tiers whose works the user may see: 1..user.Tier
// for approved users, nothing otherwise. A pending or rejected user gets no
// visibility regardless of tier.
func (e *Engine) VisibleTiers(u *model.User) []model.Tier {
	if u == nil || u.Status != model.StatusApproved || !u.Tier.Valid() {
		return nil
	}
	var tiers []model.Tier
	for _, t := range model.Tiers() {
		if t <= u.Tier {
			tiers = append(tiers, t)
		}
	}
	return tiers
}

// CanView reports whether the user may see works at the given tier.
func (e *Engine) CanView(u *model.User, tier model.Tier) bool {
	if u == nil || u.Status != model.StatusApproved {
		return false
	}
	return tier.Valid() && tier <= u.Tier
}

// CanUploadAt allows uploading at a target tier only for approved users at or
// above that tier.
func (e *Engine) CanUploadAt(u *model.User, tier model.Tier) bool {
	if u == nil || u.Status != model.StatusApproved {
		return false
	}
	return tier.Valid() && tier <= u.Tier
}

// CanDeleteWork grants deletion to admins, super-admins, and any master-tier
// user. The master grant is a standing one, independent of admin identity.
func (e *Engine) CanDeleteWork(u *model.User) bool {
	if u == nil {
		return false
	}
	return e.IsAdmin(u) || e.IsSuperAdmin(u) || u.Tier == model.TierMaster
}

// CanChangeUserTier allows super-admins and masters to set another user's
// tier. Protected identities are immune, the new tier must be valid, and a
// master may not change their own tier.
func (e *Engine) CanChangeUserTier(actor, target *model.User, newTier model.Tier) bool {
	if actor == nil || target == nil || !newTier.Valid() {
		return false
	}
	if !e.IsSuperAdmin(actor) && actor.Tier != model.TierMaster {
		return false
	}
	if e.IsProtected(target.Email) {
		return false
	}
	if actor.ID == target.ID && !e.IsSuperAdmin(actor) {
		return false
	}
	return true
}

// CanDeleteUser allows admins and super-admins to hard-delete a user, except
// protected identities.
func (e *Engine) CanDeleteUser(actor, target *model.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if !e.IsAdmin(actor) && !e.IsSuperAdmin(actor) {
		return false
	}
	return !e.IsProtected(target.Email)
}

// CanApproveOrReject gates the pending-user approval queue.
func (e *Engine) CanApproveOrReject(actor *model.User) bool {
	return e.IsAdmin(actor) || e.IsSuperAdmin(actor)
}

// CanViewSecrets gates any surface exposing password hashes. Deliberately the
// narrowest grant in the system.
func (e *Engine) CanViewSecrets(actor *model.User) bool {
	return e.IsSuperAdmin(actor)
}
