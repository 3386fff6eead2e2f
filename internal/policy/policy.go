// Package policy decides who may read and write which resources.
//
// A check has two halves. HasPermission runs before the handler with only
// the method and the caller. HasObjectPermission runs once the target object
// is loaded. A nil user is an anonymous caller.
package policy

import (
	"errors"
	"net/http"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
)

// Resource identifies the people an object belongs to. UserID is set for
// user objects, AuthorID for authored content. Either may be uuid.Nil.
type Resource struct {
	UserID   uuid.UUID
	AuthorID uuid.UUID
}

type Policy interface {
	HasPermission(method string, user *models.User) bool
	HasObjectPermission(method string, user *models.User, obj Resource) bool
}

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isOwner(user *models.User, obj Resource) bool {
	if user == nil || user.ID == uuid.Nil {
		return false
	}
	return obj.UserID == user.ID || obj.AuthorID == user.ID
}

func isAdmin(user *models.User) bool {
	return user != nil && user.IsAdmin()
}

func isModerator(user *models.User) bool {
	return user != nil && user.IsModerator()
}

// AdminOrReadOnly lets anyone read and only admins write.
var AdminOrReadOnly Policy = adminOrReadOnly{}

type adminOrReadOnly struct{}

func (adminOrReadOnly) HasPermission(method string, user *models.User) bool {
	return IsSafeMethod(method) || isAdmin(user)
}

func (adminOrReadOnly) HasObjectPermission(method string, user *models.User, _ Resource) bool {
	return IsSafeMethod(method) || isAdmin(user)
}

// OwnerOnly admits authenticated callers acting on themselves or on their
// own content.
var OwnerOnly Policy = ownerOnly{}

type ownerOnly struct{}

func (ownerOnly) HasPermission(_ string, user *models.User) bool {
	return user != nil
}

func (ownerOnly) HasObjectPermission(_ string, user *models.User, obj Resource) bool {
	return isOwner(user, obj)
}

// ModeratorOnly admits moderators. Admins are not moderators.
var ModeratorOnly Policy = moderatorOnly{}

type moderatorOnly struct{}

func (moderatorOnly) HasPermission(_ string, user *models.User) bool {
	return isModerator(user)
}

func (moderatorOnly) HasObjectPermission(string, *models.User, Resource) bool {
	return true
}

// AdminOnly admits admins, superusers included.
var AdminOnly Policy = adminOnly{}

type adminOnly struct{}

func (adminOnly) HasPermission(_ string, user *models.User) bool {
	return isAdmin(user)
}

func (adminOnly) HasObjectPermission(string, *models.User, Resource) bool {
	return true
}

// OwnerModeratorAdmin admits authenticated callers; on objects the caller
// must own the object or be staff.
var OwnerModeratorAdmin Policy = ownerModeratorAdmin{}

type ownerModeratorAdmin struct{}

func (ownerModeratorAdmin) HasPermission(_ string, user *models.User) bool {
	return user != nil
}

func (ownerModeratorAdmin) HasObjectPermission(_ string, user *models.User, obj Resource) bool {
	return isOwner(user, obj) || isModerator(user) || isAdmin(user)
}

// OwnerModeratorAdminOrReadOnly lets anyone read. Writes need an
// authenticated caller who owns the object or is staff.
var OwnerModeratorAdminOrReadOnly Policy = ownerModeratorAdminOrReadOnly{}

type ownerModeratorAdminOrReadOnly struct{}

func (ownerModeratorAdminOrReadOnly) HasPermission(method string, user *models.User) bool {
	return IsSafeMethod(method) || user != nil
}

func (ownerModeratorAdminOrReadOnly) HasObjectPermission(method string, user *models.User, obj Resource) bool {
	if IsSafeMethod(method) {
		return true
	}
	return isOwner(user, obj) || isModerator(user) || isAdmin(user)
}

// OwnerAdmin is OwnerModeratorAdmin without the moderator exemption.
var OwnerAdmin Policy = ownerAdmin{}

type ownerAdmin struct{}

func (ownerAdmin) HasPermission(_ string, user *models.User) bool {
	return user != nil
}

func (ownerAdmin) HasObjectPermission(_ string, user *models.User, obj Resource) bool {
	return isOwner(user, obj) || isAdmin(user)
}

// ModeratorAdmin admits any staff member.
var ModeratorAdmin Policy = moderatorAdmin{}

type moderatorAdmin struct{}

func (moderatorAdmin) HasPermission(_ string, user *models.User) bool {
	return isModerator(user) || isAdmin(user)
}

func (moderatorAdmin) HasObjectPermission(string, *models.User, Resource) bool {
	return true
}

// Check runs the request-level half of p.
func Check(p Policy, method string, user *models.User) error {
	if p.HasPermission(method, user) {
		return nil
	}
	return denial(user)
}

// Authorize runs both halves of p against obj.
func Authorize(p Policy, method string, user *models.User, obj Resource) error {
	if err := Check(p, method, user); err != nil {
		return err
	}
	if !p.HasObjectPermission(method, user, obj) {
		return denial(user)
	}
	return nil
}

func denial(user *models.User) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	return ErrPermissionDenied
}
