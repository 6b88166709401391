package groups_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/huddleapp/huddle/internal/app/features/groups"
	"github.com/huddleapp/huddle/internal/app/system/indexes"
	"github.com/huddleapp/huddle/internal/domain/models"
	"github.com/huddleapp/huddle/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// newTestRouter mounts the groups routes the same way the app does, so
// URL params and the auth middleware behave as in production.
func newTestRouter(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	handler := groups.NewHandler(db, zap.NewNop())
	return groups.Routes(handler), db
}

func TestHandleCreateGroup_Success(t *testing.T) {
	router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	creator := testutil.CreateUser(t, db, "", "")

	form := url.Values{
		"name":          {"Test Group"},
		"description":   {"A test group description"},
		"invite_emails": {""},
		"invite_role":   {"member"},
	}
	req := testutil.PostForm(t, "/create", form)
	req = testutil.WithUser(req, creator)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	var g models.Group
	if err := db.Collection("groups").FindOne(ctx, bson.M{"name": "Test Group"}).Decode(&g); err != nil {
		t.Fatalf("group not created: %v", err)
	}
	var m models.Membership
	if err := db.Collection("memberships").
		FindOne(ctx, bson.M{"group_id": g.ID, "user_id": creator.ID}).Decode(&m); err != nil {
		t.Fatalf("creator membership not created: %v", err)
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("creator role = %q, want admin", m.Role)
	}
	if loc := rec.Header().Get("Location"); loc != "/groups/"+g.ID.Hex() {
		t.Errorf("redirect = %q, want group page", loc)
	}
}

func TestHandleCreateGroup_WithInvites(t *testing.T) {
	router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	creator := testutil.CreateUser(t, db, "", "")
	invitee := testutil.CreateUser(t, db, "gina", "gina@example.com")

	form := url.Values{
		"name":          {"Invite Group"},
		"description":   {""},
		"invite_emails": {"gina@example.com, nobody@example.com"},
		"invite_role":   {"moderator"},
	}
	req := testutil.PostForm(t, "/create", form)
	req = testutil.WithUser(req, creator)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	var g models.Group
	if err := db.Collection("groups").FindOne(ctx, bson.M{"name": "Invite Group"}).Decode(&g); err != nil {
		t.Fatalf("group not created: %v", err)
	}
	var m models.Membership
	if err := db.Collection("memberships").
		FindOne(ctx, bson.M{"group_id": g.ID, "user_id": invitee.ID}).Decode(&m); err != nil {
		t.Fatalf("invitee membership not created: %v", err)
	}
	if m.Role != models.RoleModerator {
		t.Errorf("invitee role = %q, want moderator", m.Role)
	}
	n, err := db.Collection("pending_invites").CountDocuments(ctx, bson.M{"email": "nobody@example.com", "group_id": g.ID})
	if err != nil {
		t.Fatalf("count invites: %v", err)
	}
	if n != 1 {
		t.Errorf("pending invites = %d, want 1", n)
	}
}

func TestHandleLeaveGroup_LastAdminRedirectsBack(t *testing.T) {
	router, db := newTestRouter(t)
	admin := testutil.CreateUser(t, db, "", "")
	g := testutil.CreateGroup(t, db, "")
	testutil.CreateMembership(t, db, g.ID, admin.ID, models.RoleAdmin, 0)

	req := testutil.PostForm(t, "/"+g.ID.Hex()+"/leave", url.Values{})
	req = testutil.WithUser(req, admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/groups/"+g.ID.Hex()) || !strings.Contains(loc, "notice=") {
		t.Errorf("redirect = %q, want back to group with notice", loc)
	}
}

func TestHandleLeaveGroup_MemberLeaves(t *testing.T) {
	router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	admin := testutil.CreateUser(t, db, "", "")
	member := testutil.CreateUser(t, db, "", "")
	g := testutil.CreateGroup(t, db, "")
	testutil.CreateMembership(t, db, g.ID, admin.ID, models.RoleAdmin, 0)
	testutil.CreateMembership(t, db, g.ID, member.ID, models.RoleMember, 0)

	req := testutil.PostForm(t, "/"+g.ID.Hex()+"/leave", url.Values{})
	req = testutil.WithUser(req, member)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	n, err := db.Collection("memberships").CountDocuments(ctx, bson.M{"group_id": g.ID, "user_id": member.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("membership still present after leaving")
	}
}

func TestHandleDeleteGroup_AdminCascades(t *testing.T) {
	router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	admin := testutil.CreateUser(t, db, "", "")
	member := testutil.CreateUser(t, db, "", "")
	g := testutil.CreateGroup(t, db, "")
	testutil.CreateMembership(t, db, g.ID, admin.ID, models.RoleAdmin, 0)
	testutil.CreateMembership(t, db, g.ID, member.ID, models.RoleMember, 0)

	req := testutil.PostForm(t, "/"+g.ID.Hex()+"/delete", url.Values{})
	req = testutil.WithUser(req, admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	for _, coll := range []string{"memberships"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{"group_id": g.ID})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("%s rows left after delete: %d", coll, n)
		}
	}
	n, err := db.Collection("groups").CountDocuments(ctx, bson.M{"_id": g.ID})
	if err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if n != 0 {
		t.Error("group still present after delete")
	}
}

func TestHandleSetRoleAndPoints(t *testing.T) {
	router, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	admin := testutil.CreateUser(t, db, "", "")
	member := testutil.CreateUser(t, db, "", "")
	g := testutil.CreateGroup(t, db, "")
	testutil.CreateMembership(t, db, g.ID, admin.ID, models.RoleAdmin, 0)
	testutil.CreateMembership(t, db, g.ID, member.ID, models.RoleMember, 0)

	req := testutil.PostForm(t, "/"+g.ID.Hex()+"/members/"+member.ID.Hex()+"/role",
		url.Values{"role": {"moderator"}})
	req = testutil.WithUser(req, admin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("set role: expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	req = testutil.PostForm(t, "/"+g.ID.Hex()+"/members/"+member.ID.Hex()+"/points",
		url.Values{"points": {"1234"}})
	req = testutil.WithUser(req, admin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("set points: expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	var m models.Membership
	if err := db.Collection("memberships").
		FindOne(ctx, bson.M{"group_id": g.ID, "user_id": member.ID}).Decode(&m); err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if m.Role != models.RoleModerator {
		t.Errorf("role = %q, want moderator", m.Role)
	}
	if m.Points != 1234 {
		t.Errorf("points = %d, want 1234", m.Points)
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.GetRequest(t, "/new")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("redirect = %q, want /login", loc)
	}
}
