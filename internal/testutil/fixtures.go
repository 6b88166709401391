// internal/testutil/fixtures.go
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// CreateUser inserts a user with a working password of "password123".
func CreateUser(t *testing.T, db *mongo.Database, username, email string) models.User {
	t.Helper()
	return createUser(t, db, username, email, false)
}

// CreateSuperuser inserts a superuser with a working password of "password123".
func CreateSuperuser(t *testing.T, db *mongo.Database, username, email string) models.User {
	t.Helper()
	return createUser(t, db, username, email, true)
}

func createUser(t *testing.T, db *mongo.Database, username, email string, super bool) models.User {
	t.Helper()
	if username == "" {
		username = fmt.Sprintf("user%d", nextSeq())
	}
	if email == "" {
		email = fmt.Sprintf("%s@example.com", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:             primitive.NewObjectID(),
		Username:       username,
		UsernameCI:     text.Fold(username),
		Email:          email,
		HashedPassword: string(hash),
		Superuser:      super,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := db.Collection("users").InsertOne(TestContext(t), u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

// CreateGroup inserts a group.
func CreateGroup(t *testing.T, db *mongo.Database, name string) models.Group {
	t.Helper()
	if name == "" {
		name = fmt.Sprintf("Group %d", nextSeq())
	}
	now := time.Now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.Collection("groups").InsertOne(TestContext(t), g); err != nil {
		t.Fatalf("insert group: %v", err)
	}
	return g
}

// CreateMembership links a user to a group with the given role and points.
func CreateMembership(t *testing.T, db *mongo.Database, groupID, userID primitive.ObjectID, role string, points int) models.Membership {
	t.Helper()
	m := models.Membership{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		Points:   points,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := db.Collection("memberships").InsertOne(TestContext(t), m); err != nil {
		t.Fatalf("insert membership: %v", err)
	}
	return m
}
