// internal/app/policy/grouppolicy.go
package grouppolicy

import (
	"context"

	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func roleOf(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (string, error) {
	var m struct {
		Role string `bson:"role"`
	}
	err := db.Collection("memberships").
		FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// CanView reports whether p may see the group's detail page. Any member can;
// superusers always can. Returns an error only on a database failure, so
// callers can tell "not authorized" (false, nil) from "check failed".
func CanView(ctx context.Context, db *mongo.Database, p models.Principal, groupID primitive.ObjectID) (bool, error) {
	if p.Superuser {
		return true, nil
	}
	role, err := roleOf(ctx, db, groupID, p.UserID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

// CanModerate reports whether p may invite members and moderate content:
// admins and moderators of the group, plus superusers.
func CanModerate(ctx context.Context, db *mongo.Database, p models.Principal, groupID primitive.ObjectID) (bool, error) {
	if p.Superuser {
		return true, nil
	}
	role, err := roleOf(ctx, db, groupID, p.UserID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin || role == models.RoleModerator, nil
}

// CanManage reports whether p may edit, delete, or change member roles in
// the group: group admins and superusers only.
func CanManage(ctx context.Context, db *mongo.Database, p models.Principal, groupID primitive.ObjectID) (bool, error) {
	if p.Superuser {
		return true, nil
	}
	role, err := roleOf(ctx, db, groupID, p.UserID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}
