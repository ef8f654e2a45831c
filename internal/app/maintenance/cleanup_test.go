package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/eduleads/authcore/internal/database/testutil"
	"github.com/eduleads/authcore/internal/models"
	"github.com/eduleads/authcore/internal/services"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	assignments, err := services.NewAssignmentService(db, nil)
	require.NoError(t, err)

	// Stale audit entry beyond the retention window.
	staleLog := models.AuditLog{Action: "auth.login", Result: "success"}
	require.NoError(t, db.Create(&staleLog).Error)
	require.NoError(t, db.Model(&staleLog).
		Update("created_at", time.Now().AddDate(0, 0, -120)).Error)

	freshLog := models.AuditLog{Action: "auth.login", Result: "success"}
	require.NoError(t, db.Create(&freshLog).Error)

	// Assignment whose expiry passed long ago.
	user := models.User{Username: "u1", Email: "u1@example.com", Password: "hashed", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	role := models.Role{Name: "temp"}
	require.NoError(t, db.Create(&role).Error)

	longGone := time.Now().Add(-60 * 24 * time.Hour)
	require.NoError(t, db.Create(&models.RoleAssignment{
		UserID:    user.ID,
		RoleID:    role.ID,
		GrantedAt: longGone,
		ExpiresAt: &longGone,
	}).Error)

	cleaner := NewCleaner(audit, assignments,
		WithAuditRetentionDays(90),
		WithAssignmentGrace(30*24*time.Hour),
	)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var auditCount, assignmentCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.NoError(t, db.Model(&models.RoleAssignment{}).Count(&assignmentCount).Error)
	require.EqualValues(t, 1, auditCount)
	require.Zero(t, assignmentCount)
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	assignments, err := services.NewAssignmentService(db, nil)
	require.NoError(t, err)

	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	cleaner := NewCleaner(audit, assignments, WithCron(scheduler))

	require.NoError(t, cleaner.Start())
	require.Len(t, scheduler.Entries(), 2)

	<-cleaner.Stop().Done()
}

func TestCleanerWithoutDependenciesIsNoop(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}

func TestCleanerInvalidScheduleFails(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(audit, nil, WithAuditSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}
