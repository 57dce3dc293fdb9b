package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
)

func seedVisit(t *testing.T, db *gorm.DB, owner uint, domain, country string, at time.Time) {
	t.Helper()
	v := &models.VisitorLog{UserID: owner, ReferrerDomain: domain, VisitedAt: at}
	if country != "" {
		v.Country = &country
	}
	require.NoError(t, NewVisitorRepository(db).Create(context.Background(), v))
}

func TestStatsRepository_Totals(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	r := NewStatsRepository(db)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	alice := seedUser(t, db, "alice@example.com", models.RoleUser)
	bob := seedUser(t, db, "bob@example.com", models.RoleUser)
	p := seedPost(t, db, alice.ID, "one", true, base, nil)
	seedPost(t, db, alice.ID, "two", false, base.Add(time.Hour), nil)
	seedPost(t, db, bob.ID, "three", true, base, nil)

	posts := NewPostRepository(db)
	require.NoError(t, posts.IncrementView(ctx, p.ID))
	require.NoError(t, posts.IncrementView(ctx, p.ID))

	n, err := r.CountPosts(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.CountPosts(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = r.CountPosts(ctx, 0, false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = r.SumViews(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.SumViews(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestStatsRepository_TopBuckets(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	r := NewStatsRepository(db)
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	alice := seedUser(t, db, "alice@example.com", models.RoleUser)
	bob := seedUser(t, db, "bob@example.com", models.RoleUser)
	seedVisit(t, db, alice.ID, "google.com", "Germany", at)
	seedVisit(t, db, alice.ID, "google.com", "France", at)
	seedVisit(t, db, alice.ID, "direct", "Germany", at)
	seedVisit(t, db, alice.ID, "news.ycombinator.com", "", at)
	seedVisit(t, db, bob.ID, "direct", "Japan", at)

	refs, err := r.TopReferrers(ctx, alice.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []Bucket{
		{Name: "google.com", Count: 2},
		{Name: "direct", Count: 1},
		{Name: "news.ycombinator.com", Count: 1},
	}, refs)

	countries, err := r.TopCountries(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []Bucket{{Name: "Germany", Count: 2}}, countries)

	all, err := r.TopReferrers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, Bucket{Name: "direct", Count: 2}, all[0])

	n, err := r.CountVisits(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestStatsRepository_Between(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	r := NewStatsRepository(db)

	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	alice := seedUser(t, db, "alice@example.com", models.RoleUser)
	seedPost(t, db, alice.ID, "feb", true, march.Add(-time.Hour), nil)
	seedPost(t, db, alice.ID, "mar start", true, march, nil)
	seedPost(t, db, alice.ID, "mar end", true, april.Add(-time.Hour), nil)
	seedPost(t, db, alice.ID, "apr", true, april, nil)
	seedVisit(t, db, alice.ID, "direct", "", march.Add(24*time.Hour))
	seedVisit(t, db, alice.ID, "direct", "", april.Add(24*time.Hour))

	n, err := r.CountPostsBetween(ctx, alice.ID, march, april)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.CountVisitsBetween(ctx, alice.ID, march, april)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStatsRepository_CountUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	seedUser(t, db, "adm@example.com", models.RoleAdmin)
	seedUser(t, db, "usr@example.com", models.RoleUser)
	seedUser(t, db, "pen@example.com", models.RolePending)
	gone := seedUser(t, db, "del@example.com", models.RoleUser)
	require.NoError(t, users.SoftDelete(ctx, gone.ID, &models.UserDeleteLog{
		UserID: gone.ID, Email: gone.Email, DeletedBy: "adm@example.com", RoleAtDelete: models.RoleUser, DeletedAt: time.Now(),
	}))

	c, err := NewStatsRepository(db).CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserCounts{Total: 4, Pending: 1, Active: 2, Admins: 1, Deleted: 1}, c)
}
