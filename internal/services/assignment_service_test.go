package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
)

type assignmentFixture struct {
	svc *AssignmentService
	db  *gorm.DB
	now time.Time
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	f := &assignmentFixture{
		db:  openTestDB(t),
		now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	svc, err := NewAssignmentService(f.db, nil, WithAssignmentClock(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestGrantCreatesAssignment(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	admin := seedUser(t, f.db, "admin")
	role := seedRole(t, f.db, "editor")

	assignment, err := f.svc.Grant(context.Background(), GrantInput{
		UserID:    user.ID,
		RoleID:    role.ID,
		GrantedBy: admin.ID,
	})
	require.NoError(t, err)
	require.Equal(t, admin.ID, assignment.GrantedBy)
	require.Nil(t, assignment.ExpiresAt)
	require.True(t, assignment.GrantedAt.Equal(f.now))
}

func TestGrantUnknownUserOrRole(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	role := seedRole(t, f.db, "editor")

	_, err := f.svc.Grant(context.Background(), GrantInput{
		UserID: "d4b0c960-0000-4000-8000-000000000000",
		RoleID: role.ID,
	})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Grant(context.Background(), GrantInput{
		UserID: user.ID,
		RoleID: "d4b0c960-0000-4000-8000-000000000001",
	})
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestGrantTwiceCoalescesToSingleRow(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	first := seedUser(t, f.db, "granter1")
	second := seedUser(t, f.db, "granter2")
	role := seedRole(t, f.db, "editor")

	expiry := f.now.Add(24 * time.Hour)
	_, err := f.svc.Grant(context.Background(), GrantInput{
		UserID:    user.ID,
		RoleID:    role.ID,
		GrantedBy: first.ID,
		ExpiresAt: &expiry,
	})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)

	// Regrant as permanent: the existing row is refreshed, not duplicated.
	assignment, err := f.svc.Grant(context.Background(), GrantInput{
		UserID:    user.ID,
		RoleID:    role.ID,
		GrantedBy: second.ID,
	})
	require.NoError(t, err)
	require.Nil(t, assignment.ExpiresAt)
	require.Equal(t, second.ID, assignment.GrantedBy)
	require.True(t, assignment.GrantedAt.Equal(f.now))

	var count int64
	require.NoError(t, f.db.Model(&models.RoleAssignment{}).
		Where("user_id = ? AND role_id = ?", user.ID, role.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGrantRejectsPastExpiry(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	role := seedRole(t, f.db, "editor")

	past := f.now.Add(-time.Minute)
	_, err := f.svc.Grant(context.Background(), GrantInput{
		UserID:    user.ID,
		RoleID:    role.ID,
		ExpiresAt: &past,
	})
	require.ErrorIs(t, err, ErrAssignmentExpiryInPast)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	role := seedRole(t, f.db, "editor")

	_, err := f.svc.Grant(context.Background(), GrantInput{UserID: user.ID, RoleID: role.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(context.Background(), user.ID, role.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.RoleAssignment{}).Count(&count).Error)
	require.Zero(t, count)

	// Revoking an absent binding is not an error.
	require.NoError(t, f.svc.Revoke(context.Background(), user.ID, role.ID))
}

func TestListActiveFiltersByExpiry(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	permanent := seedRole(t, f.db, "permanent")
	shortLived := seedRole(t, f.db, "short-lived")
	another := seedRole(t, f.db, "untouched")
	_ = another

	expiry := f.now.Add(time.Hour)
	_, err := f.svc.Grant(context.Background(), GrantInput{UserID: user.ID, RoleID: permanent.ID})
	require.NoError(t, err)
	_, err = f.svc.Grant(context.Background(), GrantInput{UserID: user.ID, RoleID: shortLived.ID, ExpiresAt: &expiry})
	require.NoError(t, err)

	active, err := f.svc.ListActive(context.Background(), user.ID, f.now)
	require.NoError(t, err)
	require.Len(t, active, 2)

	// Past the expiry only the permanent grant remains.
	active, err = f.svc.ListActive(context.Background(), user.ID, f.now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, permanent.ID, active[0].RoleID)
	require.NotNil(t, active[0].Role)
	require.Equal(t, "permanent", active[0].Role.Name)
}

func TestPruneExpiredKeepsRecentRows(t *testing.T) {
	f := newAssignmentFixture(t)

	user := seedUser(t, f.db, "u1")
	oldRole := seedRole(t, f.db, "old")
	recentRole := seedRole(t, f.db, "recent")
	foreverRole := seedRole(t, f.db, "forever")

	longGone := f.now.Add(-90 * 24 * time.Hour)
	justExpired := f.now.Add(-time.Hour)

	require.NoError(t, f.db.Create(&models.RoleAssignment{
		UserID: user.ID, RoleID: oldRole.ID, GrantedAt: longGone, ExpiresAt: &longGone,
	}).Error)
	require.NoError(t, f.db.Create(&models.RoleAssignment{
		UserID: user.ID, RoleID: recentRole.ID, GrantedAt: f.now, ExpiresAt: &justExpired,
	}).Error)
	require.NoError(t, f.db.Create(&models.RoleAssignment{
		UserID: user.ID, RoleID: foreverRole.ID, GrantedAt: f.now,
	}).Error)

	removed, err := f.svc.PruneExpired(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, f.db.Model(&models.RoleAssignment{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}
