package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/db/dbtest"
	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/angelmondragon/canyonbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/canyonbook-backend/pkg/errors"
	"github.com/angelmondragon/canyonbook-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*service, Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Schema...)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	s := svc.(*service)
	s.now = func() time.Time { return fixedNow }
	return s, repo, conn
}

func seed(t *testing.T, repo Repository, userID uuid.UUID, at time.Time, read bool) models.Notification {
	t.Helper()
	n := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationBookingCreated,
		Title:     "New booking",
		Message:   "Ana Ruiz booked 2 place(s).",
		CreatedAt: at,
	}
	if read {
		readAt := at.Add(time.Minute)
		n.ReadAt = &readAt
	}
	require.NoError(t, repo.Create(context.Background(), &n))
	return n
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	oldest := seed(t, repo, user, fixedNow.Add(-3*time.Hour), false)
	middle := seed(t, repo, user, fixedNow.Add(-2*time.Hour), true)
	newest := seed(t, repo, user, fixedNow.Add(-time.Hour), false)
	seed(t, repo, uuid.New(), fixedNow, false)

	page, err := svc.List(ctx, ListParams{UserID: user, Params: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newest.ID, page.Items[0].ID)
	assert.Equal(t, middle.ID, page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.List(ctx, ListParams{UserID: user, Params: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, oldest.ID, next.Items[0].ID)
	assert.Empty(t, next.NextCursor)

	unread, err := svc.List(ctx, ListParams{UserID: user, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 2)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.List(context.Background(), ListParams{UserID: uuid.New(), Params: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkReadScopesToOwner(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	n := seed(t, repo, user, fixedNow.Add(-time.Hour), false)

	err := svc.MarkRead(ctx, uuid.New(), n.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.MarkRead(ctx, user, n.ID))
	require.NoError(t, svc.MarkRead(ctx, user, n.ID))

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", n.ID).Error)
	require.NotNil(t, stored.ReadAt)
	assert.True(t, stored.ReadAt.Equal(fixedNow))
}

func TestMarkAllRead(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := uuid.New()
	seed(t, repo, user, fixedNow.Add(-2*time.Hour), false)
	seed(t, repo, user, fixedNow.Add(-time.Hour), false)
	seed(t, repo, user, fixedNow.Add(-time.Hour), true)

	count, err := svc.MarkAllRead(context.Background(), user)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestDeleteOlderThanKeepsUnread(t *testing.T) {
	_, repo, conn := newTestService(t)
	user := uuid.New()
	seed(t, repo, user, fixedNow.Add(-40*24*time.Hour), true)
	keep := seed(t, repo, user, fixedNow.Add(-40*24*time.Hour), false)
	recent := seed(t, repo, user, fixedNow.Add(-time.Hour), true)

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, fixedNow.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var ids []uuid.UUID
	require.NoError(t, conn.Model(&models.Notification{}).Order("created_at").Pluck("id", &ids).Error)
	assert.ElementsMatch(t, []uuid.UUID{keep.ID, recent.ID}, ids)
}
