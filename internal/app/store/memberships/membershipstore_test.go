package membershipstore

import (
	"errors"
	"sync"
	"testing"

	"github.com/huddleapp/huddle/internal/app/system/indexes"
	"github.com/huddleapp/huddle/internal/domain/models"
	"github.com/huddleapp/huddle/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestAddValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())
	g := testutil.CreateGroup(t, db, "")
	u := testutil.CreateUser(t, db, "", "")

	tests := []struct {
		name    string
		role    string
		points  int
		wantErr bool
	}{
		{"valid member", models.RoleMember, 0, false},
		{"bad role", "owner", 0, true},
		{"negative points", models.RoleMember, -1, true},
		{"points too high", models.RoleMember, models.MaxPoints + 1, true},
		{"max points ok", models.RoleModerator, models.MaxPoints, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := u
			if !tc.wantErr {
				target = testutil.CreateUser(t, db, "", "")
			}
			_, err := s.Add(ctx, g.ID, target.ID, tc.role, tc.points)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	// Second membership for the same pair hits the unique index.
	m := testutil.CreateUser(t, db, "", "")
	if _, err := s.Add(ctx, g.ID, m.ID, models.RoleMember, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(ctx, g.ID, m.ID, models.RoleMember, 0); !errors.Is(err, ErrDuplicateMembership) {
		t.Errorf("dup: got %v, want ErrDuplicateMembership", err)
	}
}

func TestRemoveLastAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g := testutil.CreateGroup(t, db, "")
	admin := testutil.CreateUser(t, db, "", "")
	member := testutil.CreateUser(t, db, "", "")
	testutil.CreateMembership(t, db, g.ID, admin.ID, models.RoleAdmin, 0)
	testutil.CreateMembership(t, db, g.ID, member.ID, models.RoleMember, 10)

	// Sole admin cannot leave.
	if err := s.Remove(ctx, g.ID, admin.ID); !errors.Is(err, ErrLastAdmin) {
		t.Errorf("remove sole admin: got %v, want ErrLastAdmin", err)
	}

	// A regular member can.
	if err := s.Remove(ctx, g.ID, member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if err := s.Remove(ctx, g.ID, member.ID); !errors.Is(err, ErrNotAMember) {
		t.Errorf("remove twice: got %v, want ErrNotAMember", err)
	}

	// With a second admin present the first may leave.
	admin2 := testutil.CreateUser(t, db, "", "")
	testutil.CreateMembership(t, db, g.ID, admin2.ID, models.RoleAdmin, 0)
	if err := s.Remove(ctx, g.ID, admin.ID); err != nil {
		t.Fatalf("remove admin with backup: %v", err)
	}
}

func TestRemoveLastAdminConcurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.RequireTransactions(t, db)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g := testutil.CreateGroup(t, db, "")
	a1 := testutil.CreateUser(t, db, "", "")
	a2 := testutil.CreateUser(t, db, "", "")
	testutil.CreateMembership(t, db, g.ID, a1.ID, models.RoleAdmin, 0)
	testutil.CreateMembership(t, db, g.ID, a2.ID, models.RoleAdmin, 0)

	// Both admins try to leave at once. Exactly one removal may succeed.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = s.Remove(ctx, g.ID, a1.ID) }()
	go func() { defer wg.Done(); errs[1] = s.Remove(ctx, g.ID, a2.ID) }()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrLastAdmin) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d removals succeeded, want exactly 1", succeeded)
	}
	n, err := db.Collection("memberships").CountDocuments(ctx, bson.M{"group_id": g.ID, "role": models.RoleAdmin})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("%d admins left, want 1", n)
	}
}

func TestUpdateRoleAndPoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g := testutil.CreateGroup(t, db, "")
	admin := testutil.CreateUser(t, db, "", "")
	member := testutil.CreateUser(t, db, "", "")
	testutil.CreateMembership(t, db, g.ID, admin.ID, models.RoleAdmin, 0)
	testutil.CreateMembership(t, db, g.ID, member.ID, models.RoleMember, 0)

	// Sole admin cannot be demoted.
	if err := s.UpdateRole(ctx, g.ID, admin.ID, models.RoleMember); !errors.Is(err, ErrLastAdmin) {
		t.Errorf("demote sole admin: got %v, want ErrLastAdmin", err)
	}
	// Promoting a member is fine.
	if err := s.UpdateRole(ctx, g.ID, member.ID, models.RoleModerator); err != nil {
		t.Fatalf("promote: %v", err)
	}
	m, err := s.Get(ctx, g.ID, member.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Role != models.RoleModerator {
		t.Errorf("role = %q, want moderator", m.Role)
	}

	if err := s.UpdatePoints(ctx, g.ID, member.ID, 250); err != nil {
		t.Fatalf("set points: %v", err)
	}
	if err := s.UpdatePoints(ctx, g.ID, member.ID, models.MaxPoints+1); err == nil {
		t.Error("out-of-range points accepted")
	}
}

func TestTotalPointsAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g := testutil.CreateGroup(t, db, "")
	for i, pts := range []int{100, 250, 50} {
		u := testutil.CreateUser(t, db, "", "")
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		testutil.CreateMembership(t, db, g.ID, u.ID, role, pts)
	}

	total, err := s.TotalPoints(ctx, g.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 400 {
		t.Errorf("total = %d, want 400", total)
	}

	all, err := s.CountByGroup(ctx, g.ID, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if all != 3 {
		t.Errorf("count = %d, want 3", all)
	}
	admins, err := s.CountByGroup(ctx, g.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if admins != 1 {
		t.Errorf("admins = %d, want 1", admins)
	}
}

func TestInviteByEmails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g := testutil.CreateGroup(t, db, "")
	inviter := testutil.CreateUser(t, db, "", "")
	existing := testutil.CreateUser(t, db, "dave", "dave@example.com")
	already := testutil.CreateUser(t, db, "erin", "erin@example.com")
	testutil.CreateMembership(t, db, g.ID, already.ID, models.RoleMember, 0)

	rep, err := s.InviteByEmails(ctx, g.ID, inviter.ID,
		[]string{"Dave@Example.com", "erin@example.com", "stranger@example.com", "not-an-email"},
		models.RoleMember)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if rep.Invited != 1 {
		t.Errorf("invited = %d, want 1", rep.Invited)
	}
	if rep.Pending != 1 {
		t.Errorf("pending = %d, want 1", rep.Pending)
	}
	if len(rep.Skipped) != 2 {
		t.Errorf("skipped = %v, want 2 entries", rep.Skipped)
	}

	if ok, _ := s.Exists(ctx, g.ID, existing.ID); !ok {
		t.Error("existing user not added to group")
	}
	n, err := db.Collection("pending_invites").CountDocuments(ctx, bson.M{"email": "stranger@example.com", "group_id": g.ID})
	if err != nil {
		t.Fatalf("count invites: %v", err)
	}
	if n != 1 {
		t.Errorf("pending invite rows = %d, want 1", n)
	}

	// Admin cannot be granted through invites.
	if _, err := s.InviteByEmails(ctx, g.ID, inviter.ID, []string{"x@y.com"}, models.RoleAdmin); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("admin invite: got %v, want ErrInvalidRole", err)
	}
}
