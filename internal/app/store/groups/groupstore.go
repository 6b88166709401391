// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	invitestore "github.com/huddleapp/huddle/internal/app/store/invites"
	"github.com/huddleapp/huddle/internal/app/system/normalize"
	"github.com/huddleapp/huddle/internal/app/system/txn"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	invites *invitestore.Store
	log     *zap.Logger
}

// ErrDuplicateGroupName is returned when a group with the same folded name
// already exists.
var ErrDuplicateGroupName = errors.New("a group with this name already exists")

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("groups"),
		invites: invitestore.New(db, log),
		log:     log,
	}
}

// GetByID loads a group by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateWithAdmin inserts a new group and makes creator its admin in one
// transaction. If the deployment does not support transactions the two
// writes run sequentially; a failed membership insert then leaves an
// orphaned group, which the unique membership index keeps harmless.
func (s *Store) CreateWithAdmin(ctx context.Context, name, description string, creator primitive.ObjectID) (models.Group, error) {
	name = normalize.Name(name)
	now := time.Now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m := models.Membership{
		ID:       primitive.NewObjectID(),
		GroupID:  g.ID,
		UserID:   creator,
		Role:     models.RoleAdmin,
		Points:   0,
		IsActive: true,
		JoinedAt: now,
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, g); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrDuplicateGroupName
			}
			return err
		}
		_, err := s.db.Collection("memberships").InsertOne(ctx, m)
		return err
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo changes a group's name and description.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, description string) error {
	name = normalize.Name(name)
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":        name,
			"name_ci":     text.Fold(name),
			"description": description,
			"updated_at":  time.Now().UTC(),
		}})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateGroupName
	}
	return err
}

// Delete removes the group together with all of its memberships and any
// pending invites, in one transaction where supported.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.db.Collection("memberships").DeleteMany(ctx, bson.M{"group_id": id}); err != nil {
			return err
		}
		if err := s.invites.DeleteByGroup(ctx, id); err != nil {
			return err
		}
		_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
}

// ListByUser returns the groups the user belongs to, sorted by name.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	cur, err := s.db.Collection("memberships").Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	var ms []models.Membership
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.GroupID)
	}
	gcur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var gs []models.Group
	if err := gcur.All(ctx, &gs); err != nil {
		return nil, err
	}
	return gs, nil
}

// ListAll returns every group, sorted by name. Superuser views use this.
func (s *Store) ListAll(ctx context.Context) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var gs []models.Group
	if err := cur.All(ctx, &gs); err != nil {
		return nil, err
	}
	return gs, nil
}
