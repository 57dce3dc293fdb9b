package services

import "github.com/cppla/aiblog/models"

// CallerContext identifies who performs an operation.
type CallerContext struct {
	UserID uint
	Email  string
	Role   models.Role
}

// Anonymous is the caller of unauthenticated requests.
var Anonymous = CallerContext{}

func (c CallerContext) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

func (c CallerContext) Authenticated() bool {
	return c.UserID != 0
}

// CanManage reports whether the caller may modify something owned by ownerID.
func (c CallerContext) CanManage(ownerID uint) bool {
	return c.Authenticated() && (c.UserID == ownerID || c.IsAdmin())
}
