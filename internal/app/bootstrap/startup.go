// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/huddleapp/huddle/internal/app/resources"
	"github.com/huddleapp/huddle/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.SuperuserEmail != "" {
		if err := promoteSuperuser(ctx, deps, appCfg.SuperuserEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// promoteSuperuser flags the configured account as a superuser. The account
// may not exist yet; that's logged, not fatal, so a fresh deployment can
// register it later and restart.
func promoteSuperuser(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	res, err := deps.MongoDatabase.Collection("users").UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"superuser": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		logger.Warn("superuser account not found yet", zap.String("email", email))
		return nil
	}
	logger.Info("superuser ensured", zap.String("email", email))
	return nil
}
