package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/repository"
)

// countingStats answers fixed numbers and records every monthly range query.
type countingStats struct {
	postRanges   []MonthWindow
	visitRanges  []MonthWindow
	signupRanges []MonthWindow
	owners       []uint
}

func (s *countingStats) CountPosts(_ context.Context, ownerID uint, publishedOnly bool) (int64, error) {
	s.owners = append(s.owners, ownerID)
	if publishedOnly {
		return 3, nil
	}
	return 5, nil
}

func (s *countingStats) SumViews(context.Context, uint) (int64, error) { return 120, nil }
func (s *countingStats) CountVisits(context.Context, uint) (int64, error) { return 40, nil }

func (s *countingStats) CountPostsBetween(_ context.Context, _ uint, from, to time.Time) (int64, error) {
	s.postRanges = append(s.postRanges, MonthWindow{from, to})
	return 1, nil
}

func (s *countingStats) CountVisitsBetween(_ context.Context, _ uint, from, to time.Time) (int64, error) {
	s.visitRanges = append(s.visitRanges, MonthWindow{from, to})
	return 2, nil
}

func (s *countingStats) CountSignupsBetween(_ context.Context, from, to time.Time) (int64, error) {
	s.signupRanges = append(s.signupRanges, MonthWindow{from, to})
	return 4, nil
}

func (s *countingStats) TopReferrers(context.Context, uint, int) ([]repository.Bucket, error) {
	return []repository.Bucket{{Name: "google.com", Count: 9}, {Name: "direct", Count: 3}}, nil
}

func (s *countingStats) TopCountries(context.Context, uint, int) ([]repository.Bucket, error) {
	return nil, nil
}

func (s *countingStats) CountUsers(context.Context) (repository.UserCounts, error) {
	return repository.UserCounts{Total: 3, Pending: 1, Active: 2}, nil
}

func TestLastMonths(t *testing.T) {
	now := time.Date(2026, time.March, 15, 13, 0, 0, 0, time.Local)
	w := LastMonths(now, 6)

	require.Len(t, w, 6)
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.Local), w[0].Start)
	assert.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, time.Local), w[0].End)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local), w[5].Start)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.Local), w[5].End)
	for i := 1; i < len(w); i++ {
		assert.Equal(t, w[i-1].End, w[i].Start)
	}
}

func TestStatsService_UserStats(t *testing.T) {
	store := &countingStats{}
	svc := NewStatsService(store)
	svc.now = func() time.Time { return time.Date(2026, time.January, 31, 23, 59, 0, 0, time.Local) }

	st, err := svc.UserStats(context.Background(), userCaller)
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.TotalPosts)
	assert.EqualValues(t, 3, st.PublishedPosts)
	assert.EqualValues(t, 120, st.TotalViews)
	assert.EqualValues(t, 40, st.TotalVisits)
	assert.Len(t, st.TopReferrers, 2)
	assert.NotNil(t, st.TopCountries)

	require.Len(t, st.Monthly, 6)
	assert.Equal(t, "2025-08", st.Monthly[0].Month)
	assert.Equal(t, "2026-01", st.Monthly[5].Month)
	assert.Len(t, store.postRanges, 6, "one query per month")
	assert.Len(t, store.visitRanges, 6)
	assert.Empty(t, store.signupRanges)
	assert.Equal(t, []uint{userCaller.UserID, userCaller.UserID}, store.owners)

	_, err = svc.UserStats(context.Background(), Anonymous)
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestStatsService_AdminStats(t *testing.T) {
	store := &countingStats{}
	svc := NewStatsService(store)

	_, err := svc.AdminStats(context.Background(), userCaller)
	assert.True(t, IsKind(err, KindUnauthorized))

	st, err := svc.AdminStats(context.Background(), adminCaller)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Users.Pending)
	assert.Len(t, store.signupRanges, 6)
	assert.EqualValues(t, 4, st.Monthly[0].Signups)
	assert.Equal(t, []uint{0}, store.owners)
}
