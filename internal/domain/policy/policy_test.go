package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge_archive/internal/domain/model"
)

const (
	adminEmail      = "admin@lodge.test"
	superAdminEmail = "root@lodge.test"
)

func newTestEngine() *Engine {
	return NewEngine([]string{adminEmail}, []string{superAdminEmail})
}

func user(email string, tier model.Tier, status model.Status) *model.User {
	return &model.User{ID: "id-" + email, Email: email, Tier: tier, Status: status}
}

func TestVisibleTiers(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		u    *model.User
		want []model.Tier
	}{
		{"approved apprentice", user("a@x.test", model.TierApprentice, model.StatusApproved), []model.Tier{1}},
		{"approved companion", user("b@x.test", model.TierCompanion, model.StatusApproved), []model.Tier{1, 2}},
		{"approved master", user("c@x.test", model.TierMaster, model.StatusApproved), []model.Tier{1, 2, 3}},
		{"pending companion", user("d@x.test", model.TierCompanion, model.StatusPending), nil},
		{"rejected master", user("e@x.test", model.TierMaster, model.StatusRejected), nil},
		{"nil user", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.VisibleTiers(tt.u))
		})
	}
}

func TestCanUploadAt(t *testing.T) {
	e := newTestEngine()

	approved := user("u@x.test", model.TierCompanion, model.StatusApproved)
	assert.True(t, e.CanUploadAt(approved, model.TierApprentice))
	assert.True(t, e.CanUploadAt(approved, model.TierCompanion))
	assert.False(t, e.CanUploadAt(approved, model.TierMaster), "upload above own tier")
	assert.False(t, e.CanUploadAt(approved, model.Tier(0)))
	assert.False(t, e.CanUploadAt(approved, model.Tier(4)))

	pending := user("p@x.test", model.TierMaster, model.StatusPending)
	for _, tier := range model.Tiers() {
		assert.False(t, e.CanUploadAt(pending, tier), "non-approved user must never upload")
	}
}

func TestCanDeleteWork(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.CanDeleteWork(user("m@x.test", model.TierMaster, model.StatusApproved)),
		"any master holds the delete grant")
	assert.True(t, e.CanDeleteWork(user(adminEmail, model.TierApprentice, model.StatusApproved)))
	assert.True(t, e.CanDeleteWork(user(superAdminEmail, model.TierApprentice, model.StatusApproved)))
	assert.False(t, e.CanDeleteWork(user("u@x.test", model.TierApprentice, model.StatusApproved)))
	assert.False(t, e.CanDeleteWork(user("u@x.test", model.TierCompanion, model.StatusApproved)))
	assert.False(t, e.CanDeleteWork(nil))
}

func TestCanChangeUserTier(t *testing.T) {
	e := newTestEngine()

	superAdmin := user(superAdminEmail, model.TierApprentice, model.StatusApproved)
	master := user("m@x.test", model.TierMaster, model.StatusApproved)
	member := user("u@x.test", model.TierCompanion, model.StatusApproved)
	target := user("t@x.test", model.TierApprentice, model.StatusApproved)

	assert.True(t, e.CanChangeUserTier(superAdmin, target, model.TierMaster))
	assert.True(t, e.CanChangeUserTier(master, target, model.TierCompanion))
	assert.False(t, e.CanChangeUserTier(member, target, model.TierCompanion))

	// Protected identities cannot be demoted, even by a super-admin.
	protected := user(adminEmail, model.TierMaster, model.StatusApproved)
	assert.False(t, e.CanChangeUserTier(superAdmin, protected, model.TierApprentice))
	assert.False(t, e.CanChangeUserTier(master, superAdmin, model.TierApprentice),
		"super-admin email is itself protected")

	// Masters cannot change their own tier; super-admins can.
	assert.False(t, e.CanChangeUserTier(master, master, model.TierApprentice))

	assert.False(t, e.CanChangeUserTier(superAdmin, target, model.Tier(0)))
	assert.False(t, e.CanChangeUserTier(superAdmin, target, model.Tier(7)))
}

func TestCanDeleteUser(t *testing.T) {
	e := newTestEngine()

	admin := user(adminEmail, model.TierApprentice, model.StatusApproved)
	superAdmin := user(superAdminEmail, model.TierApprentice, model.StatusApproved)
	member := user("u@x.test", model.TierMaster, model.StatusApproved)
	target := user("t@x.test", model.TierApprentice, model.StatusApproved)

	assert.True(t, e.CanDeleteUser(admin, target))
	assert.True(t, e.CanDeleteUser(superAdmin, target))
	assert.False(t, e.CanDeleteUser(member, target), "master tier grants work deletion, not user deletion")

	// The allow-list union is immune.
	assert.False(t, e.CanDeleteUser(superAdmin, admin))
	assert.False(t, e.CanDeleteUser(admin, superAdmin))
}

func TestRoleDerivation(t *testing.T) {
	e := newTestEngine()

	assert.Equal(t, model.RoleAdmin, e.Role(user(adminEmail, model.TierApprentice, model.StatusApproved)))
	assert.Equal(t, model.RoleSuperAdmin, e.Role(user(superAdminEmail, model.TierApprentice, model.StatusApproved)))
	assert.Equal(t, model.RoleMember, e.Role(user("u@x.test", model.TierMaster, model.StatusApproved)))

	// Email comparison is case-insensitive.
	assert.Equal(t, model.RoleAdmin, e.Role(user("Admin@Lodge.Test", model.TierApprentice, model.StatusApproved)))
}

func TestCanViewSecrets(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.CanViewSecrets(user(superAdminEmail, model.TierApprentice, model.StatusApproved)))
	assert.False(t, e.CanViewSecrets(user(adminEmail, model.TierMaster, model.StatusApproved)),
		"plain admins never see password hashes")
	assert.False(t, e.CanViewSecrets(user("u@x.test", model.TierMaster, model.StatusApproved)))
}

func TestCanApproveOrReject(t *testing.T) {
	e := newTestEngine()

	require.True(t, e.CanApproveOrReject(user(adminEmail, model.TierApprentice, model.StatusApproved)))
	require.True(t, e.CanApproveOrReject(user(superAdminEmail, model.TierApprentice, model.StatusApproved)))
	require.False(t, e.CanApproveOrReject(user("m@x.test", model.TierMaster, model.StatusApproved)))
}
