// Package policy holds the authorization predicates for circle-scoped
// resources. Predicates are pure: they consume a role snapshot and return
// a verdict, leaving persistence and error mapping to the calling service.
package policy

import (
	"context"

	"github.com/circlesapp/circles-backend/pkg/enums"
	"github.com/google/uuid"
)

// RoleFinder answers role questions for a (user, circle) pair.
type RoleFinder interface {
	HasRole(ctx context.Context, userID, circleID uuid.UUID, roles ...enums.CircleRole) (bool, error)
	IsMember(ctx context.Context, userID, circleID uuid.UUID) (bool, error)
}

// CanManageCircle reports whether the actor may rename or delete the circle.
// Only the owner qualifies; admins administer membership, not the circle itself.
func CanManageCircle(ctx context.Context, roles RoleFinder, actorID, circleID uuid.UUID) (bool, error) {
	return roles.HasRole(ctx, actorID, circleID, enums.CircleRoleOwner)
}

// CanViewCircle reports whether the actor may read the circle and its roster.
func CanViewCircle(ctx context.Context, roles RoleFinder, actorID, circleID uuid.UUID) (bool, error) {
	return roles.IsMember(ctx, actorID, circleID)
}

// CanInvite reports whether the actor may issue invitations for the circle.
func CanInvite(ctx context.Context, roles RoleFinder, actorID, circleID uuid.UUID) (bool, error) {
	return roles.HasRole(ctx, actorID, circleID, enums.CircleRoleOwner, enums.CircleRoleAdmin)
}

// CanViewInvitation reports whether the actor may read the invitation:
// the invitee themselves, or an owner/admin of the inviting circle.
func CanViewInvitation(ctx context.Context, roles RoleFinder, actorID, inviteeID, circleID uuid.UUID) (bool, error) {
	if actorID == inviteeID {
		return true, nil
	}
	return CanInvite(ctx, roles, actorID, circleID)
}

// CanRevokeInvitation mirrors CanViewInvitation: the invitee may decline,
// and circle owners/admins may retract.
func CanRevokeInvitation(ctx context.Context, roles RoleFinder, actorID, inviteeID, circleID uuid.UUID) (bool, error) {
	return CanViewInvitation(ctx, roles, actorID, inviteeID, circleID)
}

// CanAcceptInvitation reports whether the actor may accept: the invitee exactly.
func CanAcceptInvitation(actorID, inviteeID uuid.UUID) bool {
	return actorID == inviteeID
}

// CanEditPost reports whether the actor may update or delete the post.
func CanEditPost(actorID, authorID uuid.UUID) bool {
	return actorID == authorID
}

// CanViewPost reports whether the actor may read the post: any member of
// the post's circle.
func CanViewPost(ctx context.Context, roles RoleFinder, actorID, circleID uuid.UUID) (bool, error) {
	return roles.IsMember(ctx, actorID, circleID)
}
