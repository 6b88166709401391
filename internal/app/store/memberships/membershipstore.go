// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	invitestore "github.com/huddleapp/huddle/internal/app/store/invites"
	"github.com/huddleapp/huddle/internal/app/system/emailutil"
	"github.com/huddleapp/huddle/internal/app/system/normalize"
	"github.com/huddleapp/huddle/internal/app/system/txn"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	invites *invitestore.Store
	log     *zap.Logger
}

var (
	// ErrDuplicateMembership is returned when the user already belongs to the group.
	ErrDuplicateMembership = errors.New("user is already a member of this group")
	// ErrNotAMember is returned when no membership links the user to the group.
	ErrNotAMember = errors.New("user is not a member of this group")
	// ErrLastAdmin is returned when removing the membership would leave the
	// group without an admin.
	ErrLastAdmin = errors.New("cannot remove the last admin of a group")
	// ErrInvalidRole is returned for a role outside admin/moderator/member.
	ErrInvalidRole = errors.New("invalid role")
)

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("memberships"),
		invites: invitestore.New(db, log),
		log:     log,
	}
}

// Member pairs a membership with the user it belongs to, for group views.
type Member struct {
	Membership models.Membership
	User       models.User
}

// InviteReport summarizes the outcome of a batch invite.
type InviteReport struct {
	Invited int      // memberships created
	Pending int      // invites recorded for unregistered addresses
	Skipped []string // addresses that were malformed or already members
}

// Add creates a membership. The role must be valid and points must lie in
// [MinPoints, MaxPoints].
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, role string, points int) (models.Membership, error) {
	if !models.ValidRole(role) {
		return models.Membership{}, ErrInvalidRole
	}
	if points < models.MinPoints || points > models.MaxPoints {
		return models.Membership{}, fmt.Errorf("points %d out of range [%d, %d]", points, models.MinPoints, models.MaxPoints)
	}
	m := models.Membership{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		Points:   points,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicateMembership
		}
		return models.Membership{}, err
	}
	return m, nil
}

// Get returns the membership linking user and group, or ErrNotAMember.
func (s *Store) Get(ctx context.Context, groupID, userID primitive.ObjectID) (*models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Exists reports whether the user belongs to the group.
func (s *Store) Exists(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "user_id": userID})
	return n > 0, err
}

// Remove deletes the user's membership. The admin count check and the
// delete run inside one transaction so two concurrent removals cannot both
// strip the group of its final admin.
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var m models.Membership
		err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotAMember
		}
		if err != nil {
			return err
		}
		if m.Role == models.RoleAdmin {
			n, err := s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "role": models.RoleAdmin})
			if err != nil {
				return err
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}
		_, err = s.c.DeleteOne(ctx, bson.M{"_id": m.ID})
		return err
	})
}

// UpdateRole changes a member's role. Demoting the group's only admin is
// refused with ErrLastAdmin.
func (s *Store) UpdateRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	if !models.ValidRole(role) {
		return ErrInvalidRole
	}
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var m models.Membership
		err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotAMember
		}
		if err != nil {
			return err
		}
		if m.Role == models.RoleAdmin && role != models.RoleAdmin {
			n, err := s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "role": models.RoleAdmin})
			if err != nil {
				return err
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}
		_, err = s.c.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{"role": role}})
		return err
	})
}

// UpdatePoints sets a member's point balance, clamped to the valid range by
// rejection rather than truncation.
func (s *Store) UpdatePoints(ctx context.Context, groupID, userID primitive.ObjectID, points int) error {
	if points < models.MinPoints || points > models.MaxPoints {
		return fmt.Errorf("points %d out of range [%d, %d]", points, models.MinPoints, models.MaxPoints)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"points": points}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotAMember
	}
	return nil
}

// ListByGroup returns all members of the group joined with their user
// records, admins first, then by username.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
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
		ids = append(ids, m.UserID)
	}
	ucur, err := s.db.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var us []models.User
	if err := ucur.All(ctx, &us); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(us))
	for _, u := range us {
		byID[u.ID] = u
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		out = append(out, Member{Membership: m, User: u})
	}
	sortMembers(out)
	return out, nil
}

func sortMembers(ms []Member) {
	rank := map[string]int{models.RoleAdmin: 0, models.RoleModerator: 1, models.RoleMember: 2}
	sort.Slice(ms, func(i, j int) bool {
		ri, rj := rank[ms[i].Membership.Role], rank[ms[j].Membership.Role]
		if ri != rj {
			return ri < rj
		}
		return ms[i].User.UsernameCI < ms[j].User.UsernameCI
	})
}

// ListByUser returns all of the user's memberships.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	var ms []models.Membership
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// CountByGroup counts members of the group, optionally filtered to a role.
// An empty role counts everyone.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"group_id": groupID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// TotalPoints sums the points of the group's active members.
func (s *Store) TotalPoints(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"group_id": groupID, "is_active": true}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$points"}}}},
	})
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// DeleteByUser removes every membership the user holds. Account removal
// uses this after the last-admin checks have been settled per group.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// InviteByEmails adds each address to the group with the given role.
// Registered users become members immediately; unknown addresses get a
// pending invite that converts when they register. Malformed addresses,
// existing members, and already-invited addresses are reported in Skipped
// and never fail the batch. Only moderator and member are grantable
// through invites.
//
// The whole batch is one transaction: an infrastructure error rolls every
// write back. When the caller is already inside a transaction the batch
// joins it, so group creation with invites commits or aborts as one unit.
func (s *Store) InviteByEmails(ctx context.Context, groupID primitive.ObjectID, invitedBy primitive.ObjectID, emails []string, role string) (InviteReport, error) {
	if role != models.RoleModerator && role != models.RoleMember {
		return InviteReport{}, ErrInvalidRole
	}
	var rep InviteReport
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		rep = InviteReport{}
		return s.inviteAll(ctx, &rep, groupID, invitedBy, emails, role)
	})
	return rep, err
}

// inviteAll runs the per-address loop. Existence is checked before every
// insert because a duplicate-key write would abort the surrounding
// transaction instead of being skippable.
func (s *Store) inviteAll(ctx context.Context, rep *InviteReport, groupID, invitedBy primitive.ObjectID, emails []string, role string) error {
	users := s.db.Collection("users")
	for _, raw := range emails {
		addr := normalize.Email(raw)
		if !emailutil.ValidSyntax(addr) {
			rep.Skipped = append(rep.Skipped, raw)
			continue
		}
		var u models.User
		err := users.FindOne(ctx, bson.M{"email": addr}).Decode(&u)
		if errors.Is(err, mongo.ErrNoDocuments) {
			_, created, err := s.invites.Record(ctx, addr, groupID, role, invitedBy)
			if err != nil {
				return err
			}
			if created {
				rep.Pending++
			} else {
				rep.Skipped = append(rep.Skipped, raw)
			}
			continue
		}
		if err != nil {
			return err
		}
		already, err := s.Exists(ctx, groupID, u.ID)
		if err != nil {
			return err
		}
		if already {
			rep.Skipped = append(rep.Skipped, raw)
			continue
		}
		if _, err := s.Add(ctx, groupID, u.ID, role, 0); err != nil {
			if errors.Is(err, ErrDuplicateMembership) {
				rep.Skipped = append(rep.Skipped, raw)
				continue
			}
			return err
		}
		rep.Invited++
	}
	return nil
}
