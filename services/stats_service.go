package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

const (
	statsMonths   = 6
	statsTopN     = 10
	adminStatsKey = "stats:admin"
	adminStatsTTL = 60 * time.Second
)

// StatsStore runs the dashboard aggregates. Owner id 0 means every blog.
type StatsStore interface {
	CountPosts(ctx context.Context, ownerID uint, publishedOnly bool) (int64, error)
	SumViews(ctx context.Context, ownerID uint) (int64, error)
	CountVisits(ctx context.Context, ownerID uint) (int64, error)
	CountPostsBetween(ctx context.Context, ownerID uint, from, to time.Time) (int64, error)
	CountVisitsBetween(ctx context.Context, ownerID uint, from, to time.Time) (int64, error)
	CountSignupsBetween(ctx context.Context, from, to time.Time) (int64, error)
	TopReferrers(ctx context.Context, ownerID uint, limit int) ([]repository.Bucket, error)
	TopCountries(ctx context.Context, ownerID uint, limit int) ([]repository.Bucket, error)
	CountUsers(ctx context.Context) (repository.UserCounts, error)
}

// MonthWindow is the half-open range [Start, End) of one calendar month.
type MonthWindow struct {
	Start time.Time
	End   time.Time
}

// LastMonths returns the n calendar months ending with the month of now,
// oldest first, in now's location.
func LastMonths(now time.Time, n int) []MonthWindow {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]MonthWindow, n)
	for i := 0; i < n; i++ {
		start := first.AddDate(0, -(n - 1 - i), 0)
		out[i] = MonthWindow{Start: start, End: start.AddDate(0, 1, 0)}
	}
	return out
}

// MonthlyPoint is one month of a dashboard chart.
type MonthlyPoint struct {
	Month   string `json:"month"`
	Posts   int64  `json:"posts"`
	Visits  int64  `json:"visits"`
	Signups int64  `json:"signups,omitempty"`
}

type UserStats struct {
	TotalPosts     int64               `json:"total_posts"`
	PublishedPosts int64               `json:"published_posts"`
	TotalViews     int64               `json:"total_views"`
	TotalVisits    int64               `json:"total_visits"`
	TopReferrers   []repository.Bucket `json:"top_referrers"`
	TopCountries   []repository.Bucket `json:"top_countries"`
	Monthly        []MonthlyPoint      `json:"monthly"`
}

type AdminStats struct {
	Users        repository.UserCounts `json:"users"`
	TotalPosts   int64                 `json:"total_posts"`
	TotalViews   int64                 `json:"total_views"`
	TotalVisits  int64                 `json:"total_visits"`
	TopReferrers []repository.Bucket   `json:"top_referrers"`
	TopCountries []repository.Bucket   `json:"top_countries"`
	Monthly      []MonthlyPoint        `json:"monthly"`
}

type StatsService struct {
	store StatsStore
	now   func() time.Time
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// UserStats builds the caller's own dashboard.
func (s *StatsService) UserStats(ctx context.Context, caller CallerContext) (*UserStats, error) {
	if !caller.Authenticated() {
		return nil, Unauthorized("login required")
	}
	id := caller.UserID
	out := &UserStats{}
	var err error
	if out.TotalPosts, err = s.store.CountPosts(ctx, id, false); err != nil {
		return nil, err
	}
	if out.PublishedPosts, err = s.store.CountPosts(ctx, id, true); err != nil {
		return nil, err
	}
	if out.TotalViews, err = s.store.SumViews(ctx, id); err != nil {
		return nil, err
	}
	if out.TotalVisits, err = s.store.CountVisits(ctx, id); err != nil {
		return nil, err
	}
	if out.TopReferrers, out.TopCountries, err = s.tops(ctx, id); err != nil {
		return nil, err
	}
	if out.Monthly, err = s.monthly(ctx, id, false); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminStats builds the global dashboard. Results are cached briefly in Redis.
func (s *StatsService) AdminStats(ctx context.Context, caller CallerContext) (*AdminStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	var cached AdminStats
	if utils.CacheGetJSON(adminStatsKey, &cached) {
		return &cached, nil
	}

	out := &AdminStats{}
	var err error
	if out.Users, err = s.store.CountUsers(ctx); err != nil {
		return nil, err
	}
	if out.TotalPosts, err = s.store.CountPosts(ctx, 0, false); err != nil {
		return nil, err
	}
	if out.TotalViews, err = s.store.SumViews(ctx, 0); err != nil {
		return nil, err
	}
	if out.TotalVisits, err = s.store.CountVisits(ctx, 0); err != nil {
		return nil, err
	}
	if out.TopReferrers, out.TopCountries, err = s.tops(ctx, 0); err != nil {
		return nil, err
	}
	if out.Monthly, err = s.monthly(ctx, 0, true); err != nil {
		return nil, err
	}
	utils.CacheSetJSON(adminStatsKey, out, adminStatsTTL)
	return out, nil
}

func (s *StatsService) tops(ctx context.Context, ownerID uint) ([]repository.Bucket, []repository.Bucket, error) {
	refs, err := s.store.TopReferrers(ctx, ownerID, statsTopN)
	if err != nil {
		return nil, nil, err
	}
	countries, err := s.store.TopCountries(ctx, ownerID, statsTopN)
	if err != nil {
		return nil, nil, err
	}
	if refs == nil {
		refs = []repository.Bucket{}
	}
	if countries == nil {
		countries = []repository.Bucket{}
	}
	return refs, countries, nil
}

// monthly issues one range query per month and metric.
func (s *StatsService) monthly(ctx context.Context, ownerID uint, signups bool) ([]MonthlyPoint, error) {
	windows := LastMonths(s.now(), statsMonths)
	out := make([]MonthlyPoint, len(windows))
	for i, w := range windows {
		p := MonthlyPoint{Month: w.Start.Format("2006-01")}
		var err error
		if p.Posts, err = s.store.CountPostsBetween(ctx, ownerID, w.Start, w.End); err != nil {
			return nil, fmt.Errorf("monthly posts %s: %w", p.Month, err)
		}
		if p.Visits, err = s.store.CountVisitsBetween(ctx, ownerID, w.Start, w.End); err != nil {
			return nil, fmt.Errorf("monthly visits %s: %w", p.Month, err)
		}
		if signups {
			if p.Signups, err = s.store.CountSignupsBetween(ctx, w.Start, w.End); err != nil {
				return nil, fmt.Errorf("monthly signups %s: %w", p.Month, err)
			}
		}
		out[i] = p
	}
	return out, nil
}
