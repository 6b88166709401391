package invitestore

import (
	"testing"

	"github.com/huddleapp/huddle/internal/app/system/indexes"
	"github.com/huddleapp/huddle/internal/domain/models"
	"github.com/huddleapp/huddle/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestRecordIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g := testutil.CreateGroup(t, db, "")
	inviter := testutil.CreateUser(t, db, "", "")

	inv, created, err := s.Record(ctx, "New@Example.com", g.ID, models.RoleMember, inviter.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !created {
		t.Error("first record reported created = false")
	}
	if inv.Email != "new@example.com" {
		t.Errorf("email not normalized: %q", inv.Email)
	}
	if inv.Token == "" {
		t.Error("empty invite token")
	}

	again, created, err := s.Record(ctx, "new@example.com", g.ID, models.RoleMember, inviter.ID)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if created {
		t.Error("second record reported created = true")
	}
	if again.Token != inv.Token {
		t.Errorf("second record token = %q, want existing %q", again.Token, inv.Token)
	}
	n, err := db.Collection("pending_invites").CountDocuments(ctx, bson.M{"email": "new@example.com", "group_id": g.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestConvertOnRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	s := New(db, zap.NewNop())

	g1 := testutil.CreateGroup(t, db, "Alive")
	g2 := testutil.CreateGroup(t, db, "Doomed")
	inviter := testutil.CreateUser(t, db, "", "")

	if _, _, err := s.Record(ctx, "frank@example.com", g1.ID, models.RoleModerator, inviter.ID); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, _, err := s.Record(ctx, "frank@example.com", g2.ID, models.RoleMember, inviter.ID); err != nil {
		t.Fatalf("record: %v", err)
	}
	// The second group disappears before Frank registers.
	if _, err := db.Collection("groups").DeleteOne(ctx, bson.M{"_id": g2.ID}); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	frank := testutil.CreateUser(t, db, "frank", "frank@example.com")
	converted, err := s.Convert(ctx, "frank@example.com", frank.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if converted != 1 {
		t.Errorf("converted = %d, want 1", converted)
	}

	var m models.Membership
	if err := db.Collection("memberships").
		FindOne(ctx, bson.M{"group_id": g1.ID, "user_id": frank.ID}).Decode(&m); err != nil {
		t.Fatalf("membership missing: %v", err)
	}
	if m.Role != models.RoleModerator {
		t.Errorf("role = %q, want moderator", m.Role)
	}

	left, err := db.Collection("pending_invites").CountDocuments(ctx, bson.M{"email": "frank@example.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if left != 0 {
		t.Errorf("%d invites left after convert, want 0", left)
	}
}
