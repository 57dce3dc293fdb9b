package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/utils"
)

// UserStore is the persistence behind account management and authentication.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByURLID(ctx context.Context, urlID string) (*models.User, error)
	URLIDTaken(ctx context.Context, urlID string, exceptID uint) (bool, error)
	Create(ctx context.Context, u *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uint, entry *models.UserDeleteLog) error
	Restore(ctx context.Context, id uint, role models.Role) error
	LatestDeleteLog(ctx context.Context, userID uint) (*models.UserDeleteLog, error)
	DeleteLogs(ctx context.Context, userID uint) ([]models.UserDeleteLog, error)
	List(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error)
	PromoteAdmins(ctx context.Context, emails []string) (int64, error)
}

// Notifier delivers account notifications.
type Notifier interface {
	Notify(to, subject, body string) error
}

// MailNotifier sends notifications over SMTP when it is configured and drops
// them otherwise.
type MailNotifier struct{}

func (MailNotifier) Notify(to, subject, body string) error {
	if !utils.MailConfigured() {
		return nil
	}
	return utils.SendMail(to, subject, body)
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Items      []models.User    `json:"items"`
	Pagination utils.Pagination `json:"pagination"`
}

// UserDetail is an account with its deletion history.
type UserDetail struct {
	User       *models.User           `json:"user"`
	DeleteLogs []models.UserDeleteLog `json:"delete_logs"`
}

// UserManager runs the account lifecycle: approve, soft delete, restore and
// role changes. Every operation requires an ADMIN caller.
type UserManager struct {
	users    UserStore
	notifier Notifier
	now      func() time.Time
}

func NewUserManager(users UserStore, notifier Notifier) *UserManager {
	if notifier == nil {
		notifier = MailNotifier{}
	}
	return &UserManager{users: users, notifier: notifier, now: time.Now}
}

func requireAdmin(caller CallerContext) error {
	if !caller.IsAdmin() {
		return Unauthorized("administrator role required")
	}
	return nil
}

func (m *UserManager) load(ctx context.Context, id uint) (*models.User, error) {
	u, err := m.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Approve grants USER and stamps approvedAt. Approving twice is harmless.
func (m *UserManager) Approve(ctx context.Context, caller CallerContext, id uint) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	u, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if err := m.users.UpdateFields(ctx, u.ID, map[string]interface{}{
		"role":        models.RoleUser,
		"approved_at": now,
	}); err != nil {
		return nil, fmt.Errorf("approve user %d: %w", u.ID, err)
	}
	u.Role = models.RoleUser
	u.ApprovedAt = &now
	utils.Sugar.Infow("user approved", "user", u.ID, "by", caller.UserID)

	body := fmt.Sprintf("Hi %s,\n\nYour blog \"%s\" has been approved. You can now sign in and start writing.\n", u.Name, u.URLID)
	if err := m.notifier.Notify(u.Email, "Your account has been approved", body); err != nil {
		utils.Sugar.Warnw("approval mail failed", "user", u.ID, "err", err)
	}
	return u, nil
}

// SoftDelete marks the user deleted and records who did it, why, and the role
// the user had. The role itself is left unchanged.
func (m *UserManager) SoftDelete(ctx context.Context, caller CallerContext, id uint, reason string) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	u, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	entry := &models.UserDeleteLog{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		DeletedBy:    caller.Email,
		Reason:       strings.TrimSpace(reason),
		RoleAtDelete: u.Role,
		DeletedAt:    now,
	}
	if err := m.users.SoftDelete(ctx, u.ID, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("user")
		}
		return nil, fmt.Errorf("soft delete user %d: %w", u.ID, err)
	}
	u.DeletedAt = &now
	utils.Sugar.Infow("user soft-deleted", "user", u.ID, "by", caller.Email, "role", u.Role)
	return u, nil
}

// Restore clears deletedAt and puts back the role captured by the newest
// deletion record, USER when there is none.
func (m *UserManager) Restore(ctx context.Context, caller CallerContext, id uint) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	u, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	role := models.RoleUser
	last, err := m.users.LatestDeleteLog(ctx, u.ID)
	switch {
	case err == nil && last.RoleAtDelete.Valid():
		role = last.RoleAtDelete
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	if err := m.users.Restore(ctx, u.ID, role); err != nil {
		return nil, fmt.Errorf("restore user %d: %w", u.ID, err)
	}
	u.DeletedAt = nil
	u.Role = role
	utils.Sugar.Infow("user restored", "user", u.ID, "by", caller.UserID, "role", role)
	return u, nil
}

// ChangeRole switches an account between USER and ADMIN. Admins cannot demote
// themselves.
func (m *UserManager) ChangeRole(ctx context.Context, caller CallerContext, id uint, role models.Role) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, Validation("role must be USER or ADMIN")
	}
	u, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID == caller.UserID && role != models.RoleAdmin {
		return nil, Validation("administrators cannot demote themselves")
	}
	fields := map[string]interface{}{"role": role}
	if u.ApprovedAt == nil {
		now := m.now()
		fields["approved_at"] = now
		u.ApprovedAt = &now
	}
	if err := m.users.UpdateFields(ctx, u.ID, fields); err != nil {
		return nil, err
	}
	u.Role = role
	utils.Sugar.Infow("user role changed", "user", u.ID, "by", caller.UserID, "role", role)
	return u, nil
}

func (m *UserManager) Get(ctx context.Context, caller CallerContext, id uint) (*UserDetail, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	u, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := m.users.DeleteLogs(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.UserDeleteLog{}
	}
	return &UserDetail{User: u, DeleteLogs: logs}, nil
}

func (m *UserManager) List(ctx context.Context, caller CallerContext, f repository.UserFilter) (*UserPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	switch f.Status {
	case "":
		f.Status = repository.UserStatusAll
	case repository.UserStatusAll, repository.UserStatusPending, repository.UserStatusActive, repository.UserStatusDeleted:
	default:
		return nil, Validation("unknown status %q", f.Status)
	}
	f.Offset, f.Limit = normalizePage(f.Offset, f.Limit)
	users, total, err := m.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{Items: users, Pagination: utils.NewPagination(f.Offset, f.Limit, total)}, nil
}

// EnsureAdmins promotes the listed accounts to ADMIN. It runs at boot.
func (m *UserManager) EnsureAdmins(ctx context.Context, emails []string) error {
	n, err := m.users.PromoteAdmins(ctx, emails)
	if err != nil {
		return fmt.Errorf("promote admins: %w", err)
	}
	if n > 0 {
		utils.Sugar.Infow("bootstrap admins promoted", "count", n)
	}
	return nil
}
