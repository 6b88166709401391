// Package txn wraps multi-document MongoDB transactions.
//
// Transactions require a replica set or sharded deployment. On standalone
// servers the callback runs without a transaction so the app still works
// in local development; multi-document atomicity is only guaranteed on
// transaction-capable deployments.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a MongoDB transaction. The context passed to fn
// carries the session; all collection operations inside fn must use it.
// If ctx already carries a session, fn joins that transaction instead of
// opening a new one. If the deployment does not support transactions, fn
// runs directly.
//
// Errors returned by fn abort the transaction and are returned unchanged,
// so sentinel domain errors survive the round trip.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Debug("sessions unsupported; running without transaction")
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions unsupported; running without transaction")
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone deployment, old server, or a
// command rejected inside a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if ce, ok := err.(mongo.CommandError); ok {
		// 20 IllegalOperation, 51 (transaction numbers require a replica
		// set), 263 OperationNotSupportedInTransaction.
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "illegal operation") && strings.Contains(msg, "transaction") {
		return true
	}
	if strings.Contains(msg, "transaction") &&
		(strings.Contains(msg, "replica set") || strings.Contains(msg, "session")) {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	return false
}
