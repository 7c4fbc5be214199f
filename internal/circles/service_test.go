package circles

import (
	"context"
	"errors"
	"testing"

	"github.com/circlesapp/circles-backend/internal/invitations"
	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/internal/posts"
	"github.com/circlesapp/circles-backend/pkg/db/models"
	"github.com/circlesapp/circles-backend/pkg/enums"
	pkgerrors "github.com/circlesapp/circles-backend/pkg/errors"
	"github.com/circlesapp/circles-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCirclesRepo struct {
	circle  *models.Circle
	findErr error

	created     *models.Circle
	renamedTo   string
	deletedID   uuid.UUID
	listByIDRes []models.Circle
}

func (s *stubCirclesRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCirclesRepo) Create(_ context.Context, name string) (*models.Circle, error) {
	s.created = &models.Circle{ID: uuid.New(), Name: name}
	return s.created, nil
}

func (s *stubCirclesRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Circle, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.circle == nil || s.circle.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	found := *s.circle
	return &found, nil
}

func (s *stubCirclesRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Circle, error) {
	return s.listByIDRes, nil
}

func (s *stubCirclesRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	s.renamedTo = name
	return nil
}

func (s *stubCirclesRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deletedID = id
	return nil
}

type stubMembershipsRepo struct {
	role     enums.CircleRole
	isMember bool

	roster    []memberships.MemberDTO
	circleIDs []uuid.UUID

	created        []uuid.UUID
	createErrAfter int
	circleDeleted  bool
}

func (s *stubMembershipsRepo) WithTx(tx *gorm.DB) memberships.Repository { return s }

func (s *stubMembershipsRepo) Create(_ context.Context, circleID, userID uuid.UUID, role enums.CircleRole) (*models.CircleMembership, error) {
	if s.createErrAfter > 0 && len(s.created) >= s.createErrAfter {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateMembership, "user already belongs to circle")
	}
	s.created = append(s.created, userID)
	return &models.CircleMembership{ID: uuid.New(), CircleID: circleID, UserID: userID, Role: role}, nil
}

func (s *stubMembershipsRepo) CreateBulk(ctx context.Context, circleID uuid.UUID, role enums.CircleRole, userIDs []uuid.UUID) ([]*models.CircleMembership, error) {
	out := make([]*models.CircleMembership, 0, len(userIDs))
	for _, userID := range userIDs {
		m, err := s.Create(ctx, circleID, userID, role)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *stubMembershipsRepo) RoleOf(_ context.Context, _, _ uuid.UUID) (enums.CircleRole, error) {
	if s.role == "" {
		return "", gorm.ErrRecordNotFound
	}
	return s.role, nil
}

func (s *stubMembershipsRepo) HasRole(_ context.Context, _, _ uuid.UUID, roles ...enums.CircleRole) (bool, error) {
	for _, role := range roles {
		if role == s.role {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMembershipsRepo) IsMember(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return s.isMember || s.role != "", nil
}

func (s *stubMembershipsRepo) Delete(_ context.Context, _, _ uuid.UUID) error { return nil }

func (s *stubMembershipsRepo) DeleteByCircle(_ context.Context, _ uuid.UUID) error {
	s.circleDeleted = true
	return nil
}

func (s *stubMembershipsRepo) ListCircleMembers(_ context.Context, _ uuid.UUID) ([]memberships.MemberDTO, error) {
	return s.roster, nil
}

func (s *stubMembershipsRepo) ListUserCircleIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return s.circleIDs, nil
}

type stubInvitationsRepo struct {
	circleDeleted bool
}

func (s *stubInvitationsRepo) WithTx(tx *gorm.DB) invitations.Repository { return s }

func (s *stubInvitationsRepo) Create(_ context.Context, _, _ uuid.UUID, _ enums.CircleRole) (*models.CircleInvitation, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInvitationsRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.CircleInvitation, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubInvitationsRepo) ListByCircle(_ context.Context, _ uuid.UUID) ([]models.CircleInvitation, error) {
	return nil, nil
}

func (s *stubInvitationsRepo) ListByInvitee(_ context.Context, _ uuid.UUID) ([]models.CircleInvitation, error) {
	return nil, nil
}

func (s *stubInvitationsRepo) MarkAccepted(_ context.Context, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubInvitationsRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubInvitationsRepo) DeleteByCircle(_ context.Context, _ uuid.UUID) error {
	s.circleDeleted = true
	return nil
}

type stubPostsRepo struct {
	circleDeleted bool
}

func (s *stubPostsRepo) WithTx(tx *gorm.DB) posts.Repository { return s }

func (s *stubPostsRepo) Create(_ context.Context, post *models.Post) (*models.Post, error) {
	return post, nil
}

func (s *stubPostsRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Post, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPostsRepo) ListByCircleIDs(_ context.Context, _ []uuid.UUID, _ *pagination.Cursor, _ int) ([]models.Post, error) {
	return nil, nil
}

func (s *stubPostsRepo) ListByAuthor(_ context.Context, _ uuid.UUID) ([]models.Post, error) {
	return nil, nil
}

func (s *stubPostsRepo) Update(_ context.Context, _ *models.Post) error { return nil }

func (s *stubPostsRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubPostsRepo) DeleteByCircle(_ context.Context, _ uuid.UUID) error {
	s.circleDeleted = true
	return nil
}

func newTestService(t *testing.T, repo *stubCirclesRepo, members *stubMembershipsRepo) (Service, *stubInvitationsRepo, *stubPostsRepo) {
	t.Helper()
	invRepo := &stubInvitationsRepo{}
	postRepo := &stubPostsRepo{}
	svc, err := NewService(stubTx{}, repo, members, invRepo, postRepo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, invRepo, postRepo
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, &stubCirclesRepo{}, &stubMembershipsRepo{}, &stubInvitationsRepo{}, &stubPostsRepo{}); err == nil {
		t.Fatal("expected error without tx runner")
	}
	if _, err := NewService(stubTx{}, nil, &stubMembershipsRepo{}, &stubInvitationsRepo{}, &stubPostsRepo{}); err == nil {
		t.Fatal("expected error without circles repo")
	}
	if _, err := NewService(stubTx{}, &stubCirclesRepo{}, nil, &stubInvitationsRepo{}, &stubPostsRepo{}); err == nil {
		t.Fatal("expected error without memberships repo")
	}
}

func TestServiceCreateMakesOwnerMembership(t *testing.T) {
	repo := &stubCirclesRepo{}
	members := &stubMembershipsRepo{}
	svc, _, _ := newTestService(t, repo, members)

	ownerID := uuid.New()
	detail, err := svc.Create(context.Background(), ownerID, "Book Club")
	if err != nil {
		t.Fatalf("create circle: %v", err)
	}
	if detail.Name != "Book Club" {
		t.Fatalf("expected circle name, got %s", detail.Name)
	}
	if detail.Role != enums.CircleRoleOwner {
		t.Fatalf("expected creator role owner, got %s", detail.Role)
	}
	if len(members.created) != 1 || members.created[0] != ownerID {
		t.Fatalf("expected exactly one owner membership, got %v", members.created)
	}
}

func TestServiceCreateRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t, &stubCirclesRepo{}, &stubMembershipsRepo{})

	_, err := svc.Create(context.Background(), uuid.New(), "   ")
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceRenameOwnerOnly(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Old Name"}

	cases := []struct {
		name     string
		role     enums.CircleRole
		wantCode pkgerrors.Code
	}{
		{"owner may rename", enums.CircleRoleOwner, ""},
		{"admin denied", enums.CircleRoleAdmin, pkgerrors.CodeForbidden},
		{"member denied", enums.CircleRoleMember, pkgerrors.CodeForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubCirclesRepo{circle: circle}
			members := &stubMembershipsRepo{role: tc.role}
			svc, _, _ := newTestService(t, repo, members)

			dto, err := svc.Rename(context.Background(), uuid.New(), circle.ID, "New Name")
			if tc.wantCode != "" {
				if !pkgerrors.Is(err, tc.wantCode) {
					t.Fatalf("expected %s, got %v", tc.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("rename: %v", err)
			}
			if dto.Name != "New Name" || repo.renamedTo != "New Name" {
				t.Fatalf("expected rename to persist, got %q", repo.renamedTo)
			}
		})
	}
}

func TestServiceRenameMissingCircleIsNotFound(t *testing.T) {
	// absence wins over policy: even a non-member sees 404, not 403
	repo := &stubCirclesRepo{}
	members := &stubMembershipsRepo{}
	svc, _, _ := newTestService(t, repo, members)

	_, err := svc.Rename(context.Background(), uuid.New(), uuid.New(), "New Name")
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceDeleteCascades(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Doomed"}
	repo := &stubCirclesRepo{circle: circle}
	members := &stubMembershipsRepo{role: enums.CircleRoleOwner}
	svc, invRepo, postRepo := newTestService(t, repo, members)

	if err := svc.Delete(context.Background(), uuid.New(), circle.ID); err != nil {
		t.Fatalf("delete circle: %v", err)
	}
	if !postRepo.circleDeleted || !invRepo.circleDeleted || !members.circleDeleted {
		t.Fatal("expected posts, invitations, and memberships to be removed")
	}
	if repo.deletedID != circle.ID {
		t.Fatalf("expected circle row deleted, got %s", repo.deletedID)
	}
}

func TestServiceDeleteNonOwnerForbidden(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Protected"}
	repo := &stubCirclesRepo{circle: circle}
	members := &stubMembershipsRepo{role: enums.CircleRoleAdmin}
	svc, _, _ := newTestService(t, repo, members)

	err := svc.Delete(context.Background(), uuid.New(), circle.ID)
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestServiceGetNonMemberForbidden(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Private"}
	repo := &stubCirclesRepo{circle: circle}
	members := &stubMembershipsRepo{}
	svc, _, _ := newTestService(t, repo, members)

	_, err := svc.Get(context.Background(), uuid.New(), circle.ID)
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestServiceGetReturnsRoster(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Private"}
	roster := []memberships.MemberDTO{
		{UserID: uuid.New(), Name: "Ana", Role: enums.CircleRoleOwner},
		{UserID: uuid.New(), Name: "Ben", Role: enums.CircleRoleMember},
	}
	repo := &stubCirclesRepo{circle: circle}
	members := &stubMembershipsRepo{role: enums.CircleRoleMember, roster: roster}
	svc, _, _ := newTestService(t, repo, members)

	detail, err := svc.Get(context.Background(), uuid.New(), circle.ID)
	if err != nil {
		t.Fatalf("get circle: %v", err)
	}
	if len(detail.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(detail.Members))
	}
	if detail.Role != enums.CircleRoleMember {
		t.Fatalf("unexpected role %s", detail.Role)
	}
}

func TestServiceAddMembersFailFastKeepsEarlierInserts(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Growing"}
	repo := &stubCirclesRepo{circle: circle}
	members := &stubMembershipsRepo{role: enums.CircleRoleOwner, createErrAfter: 1}
	svc, _, _ := newTestService(t, repo, members)

	userIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	created, err := svc.AddMembers(context.Background(), uuid.New(), circle.ID, enums.CircleRoleMember, userIDs)
	if !pkgerrors.Is(err, pkgerrors.CodeDuplicateMembership) {
		t.Fatalf("expected DUPLICATE_MEMBERSHIP, got %v", err)
	}
	if len(created) != 1 || created[0].UserID != userIDs[0] {
		t.Fatalf("expected first insert to survive, got %d", len(created))
	}
}

func TestServiceAddMembersNonOwnerForbidden(t *testing.T) {
	circle := &models.Circle{ID: uuid.New(), Name: "Guarded"}
	repo := &stubCirclesRepo{circle: circle}
	members := &stubMembershipsRepo{role: enums.CircleRoleAdmin}
	svc, _, _ := newTestService(t, repo, members)

	_, err := svc.AddMembers(context.Background(), uuid.New(), circle.ID, enums.CircleRoleMember, []uuid.UUID{uuid.New()})
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestServiceListForUser(t *testing.T) {
	circleA := models.Circle{ID: uuid.New(), Name: "Alpha"}
	circleB := models.Circle{ID: uuid.New(), Name: "Beta"}
	repo := &stubCirclesRepo{listByIDRes: []models.Circle{circleA, circleB}}
	members := &stubMembershipsRepo{
		role:      enums.CircleRoleMember,
		circleIDs: []uuid.UUID{circleA.ID, circleB.ID},
		roster: []memberships.MemberDTO{
			{UserID: uuid.New(), Name: "Ana"},
		},
	}
	svc, _, _ := newTestService(t, repo, members)

	list, err := svc.ListForUser(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list circles: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 circles, got %d", len(list))
	}
	if list[0].Members[0] != "Ana" {
		t.Fatalf("expected member names, got %v", list[0].Members)
	}
}
