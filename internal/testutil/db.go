// internal/testutil/db.go
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTestURI = "mongodb://localhost:27017"

// SetupTestDB connects to the test MongoDB instance and returns a database
// scoped to this test. The test is skipped when no server is reachable, so
// the suite still passes on machines without Mongo. The database is dropped
// when the test finishes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("HUDDLE_TEST_MONGO_URI")
	if uri == "" {
		uri = defaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongo unavailable at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable at %s: %v", uri, err)
	}

	name := fmt.Sprintf("huddle_test_%d", time.Now().UnixNano())
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context that is cancelled when the test ends.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// RequireTransactions skips the test when the deployment cannot run
// multi-document transactions (standalone servers cannot).
func RequireTransactions(t *testing.T, db *mongo.Database) {
	t.Helper()
	sess, err := db.Client().StartSession()
	if err != nil {
		t.Skipf("sessions unsupported: %v", err)
	}
	defer sess.EndSession(context.Background())

	ctx := context.Background()
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return db.Collection("txn_probe").InsertOne(sc, bson.M{"ok": true})
	})
	if err != nil {
		t.Skipf("transactions unsupported: %v", err)
	}
	_, _ = db.Collection("txn_probe").DeleteMany(ctx, bson.M{})
}
