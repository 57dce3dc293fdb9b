package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

// DirectReferrer labels visits without a usable referrer.
const DirectReferrer = "direct"

// VisitorStore appends visitor log rows.
type VisitorStore interface {
	Create(ctx context.Context, v *models.VisitorLog) error
}

// BlogResolver finds blog owners by id or address.
type BlogResolver interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByURLID(ctx context.Context, urlID string) (*models.User, error)
}

// PostFinder loads a single post.
type PostFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Post, error)
}

// VisitInput describes one page view. The blog is given either by owner id or
// by address.
type VisitInput struct {
	BlogUserID uint
	URLID      string
	PostID     *uint
	Referrer   string
	IP         string
	UserAgent  string
}

type VisitorService struct {
	visits VisitorStore
	blogs  BlogResolver
	posts  PostFinder
	geo    utils.GeoLocator
	now    func() time.Time
}

func NewVisitorService(visits VisitorStore, blogs BlogResolver, posts PostFinder, geo utils.GeoLocator) *VisitorService {
	return &VisitorService{visits: visits, blogs: blogs, posts: posts, geo: geo, now: time.Now}
}

// Record appends a visitor log row unless the viewer owns the blog. It reports
// whether a row was written. Geo lookup failures leave country and city empty.
func (s *VisitorService) Record(ctx context.Context, viewer CallerContext, in VisitInput) (bool, error) {
	blog, err := s.resolveBlog(ctx, in)
	if err != nil {
		return false, err
	}
	if viewer.Authenticated() && viewer.UserID == blog.ID {
		return false, nil
	}

	var postID *uint
	if in.PostID != nil && *in.PostID != 0 {
		p, err := s.posts.FindByID(ctx, *in.PostID)
		if errors.Is(err, repository.ErrNotFound) {
			return false, NotFound("post")
		}
		if err != nil {
			return false, err
		}
		if p.AuthorID != blog.ID {
			return false, Validation("post does not belong to this blog")
		}
		id := p.ID
		postID = &id
	}

	agent := utils.ParseUserAgent(in.UserAgent)
	entry := &models.VisitorLog{
		UserID:         blog.ID,
		PostID:         postID,
		Referrer:       truncate(in.Referrer, 512),
		ReferrerDomain: ReferrerDomain(in.Referrer),
		UserAgent:      truncate(in.UserAgent, 512),
		Browser:        truncate(agent.Browser, 64),
		OS:             truncate(agent.OS, 64),
		Device:         agent.Device,
		IPAddress:      in.IP,
		VisitedAt:      s.now(),
	}
	s.locate(ctx, entry)

	if err := s.visits.Create(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

func (s *VisitorService) resolveBlog(ctx context.Context, in VisitInput) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case in.BlogUserID != 0:
		u, err = s.blogs.FindByID(ctx, in.BlogUserID)
	case strings.TrimSpace(in.URLID) != "":
		u, err = s.blogs.FindByURLID(ctx, strings.ToLower(strings.TrimSpace(in.URLID)))
	default:
		return nil, Validation("blog is required")
	}
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !ActiveBlog(u)) {
		return nil, NotFound("blog")
	}
	return u, err
}

func (s *VisitorService) locate(ctx context.Context, entry *models.VisitorLog) {
	if s.geo == nil || entry.IPAddress == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	loc, err := s.geo.Locate(ctx, entry.IPAddress)
	if err != nil {
		if !errors.Is(err, utils.ErrGeoDisabled) {
			utils.Sugar.Debugw("geo lookup failed", "ip", entry.IPAddress, "err", err)
		}
		return
	}
	if loc.Country != "" {
		c := loc.Country
		entry.Country = &c
	}
	if loc.City != "" {
		c := loc.City
		entry.City = &c
	}
}

// ReferrerDomain reduces a referrer URL to its lowercase host without "www.".
// Empty or unparsable referrers count as direct traffic.
func ReferrerDomain(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return DirectReferrer
	}
	if !strings.Contains(ref, "://") {
		ref = "http://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Hostname() == "" {
		return DirectReferrer
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
