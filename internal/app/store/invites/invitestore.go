// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"github.com/huddleapp/huddle/internal/app/system/normalize"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection("pending_invites"), log: log}
}

// Record stores an invite for an address that has no account yet. A second
// invite to the same address for the same group returns the existing invite
// with created false. The existence check runs before the insert so a
// repeat invite inside a transaction does not abort it; the unique
// (email, group_id) index still catches racing inserts.
func (s *Store) Record(ctx context.Context, email string, groupID primitive.ObjectID, role string, invitedBy primitive.ObjectID) (models.PendingInvite, bool, error) {
	addr := normalize.Email(email)

	var existing models.PendingInvite
	err := s.c.FindOne(ctx, bson.M{"email": addr, "group_id": groupID}).Decode(&existing)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.PendingInvite{}, false, err
	}

	inv := models.PendingInvite{
		ID:        primitive.NewObjectID(),
		Token:     uuid.NewString(),
		Email:     addr,
		GroupID:   groupID,
		Role:      role,
		InvitedBy: invitedBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return inv, false, nil
		}
		return models.PendingInvite{}, false, err
	}
	return inv, true, nil
}

// ListByEmail returns the invites waiting for an address.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]models.PendingInvite, error) {
	cur, err := s.c.Find(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return nil, err
	}
	var invs []models.PendingInvite
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// ListByGroup returns the outstanding invites for a group.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.PendingInvite, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	var invs []models.PendingInvite
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// DeleteByGroup drops all invites for the group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	return err
}

// Convert turns every pending invite for the address into a membership for
// the newly registered user, then removes the invites. Groups deleted since
// the invite was recorded are skipped. Returns how many memberships were
// created.
func (s *Store) Convert(ctx context.Context, email string, userID primitive.ObjectID) (int, error) {
	invs, err := s.ListByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if len(invs) == 0 {
		return 0, nil
	}
	groups := s.db.Collection("groups")
	memberships := s.db.Collection("memberships")
	converted := 0
	for _, inv := range invs {
		n, err := groups.CountDocuments(ctx, bson.M{"_id": inv.GroupID})
		if err != nil {
			return converted, err
		}
		if n > 0 {
			m := models.Membership{
				ID:       primitive.NewObjectID(),
				GroupID:  inv.GroupID,
				UserID:   userID,
				Role:     inv.Role,
				Points:   0,
				IsActive: true,
				JoinedAt: time.Now().UTC(),
			}
			if _, err := memberships.InsertOne(ctx, m); err != nil && !wafflemongo.IsDup(err) {
				return converted, err
			} else if err == nil {
				converted++
			}
		}
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": inv.ID}); err != nil {
			return converted, err
		}
	}
	if converted > 0 {
		s.log.Info("converted pending invites",
			zap.String("email", normalize.Email(email)),
			zap.Int("count", converted))
	}
	return converted, nil
}
