// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/trinetra/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// AuditRetention is how long auth audit events are kept.
const AuditRetention = 90 * 24 * time.Hour

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	if err := ensureIndexSet(ctx, db.Collection(audit.CollectionName), auditIndexes(), logger); err != nil {
		problems = append(problems, audit.CollectionName+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Time-based queries; also expires old events
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().
				SetName("idx_audit_created").
				SetExpireAfterSeconds(int32(AuditRetention.Seconds())),
		},
		// Per-username trail (failed attempts for one account)
		{
			Keys:    bson.D{{Key: "username", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_username_created"),
		},
		// Event type + time
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_event_type_created"),
		},
	}
}

type existingIndex struct {
	Name        string
	Key         bson.D
	ExpireAfter *int32
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// sameExpiry compares TTLs in seconds. nil means no TTL.
func sameExpiry(want, have *int32) bool {
	if want == nil || have == nil {
		return want == nil && have == nil
	}
	return *want == *have
}

// ensureIndexSet creates each index, reusing one with the same keys and TTL
// and replacing one whose TTL changed.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	var errs []string
	for _, m := range models {
		name := ""
		var expire *int32
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			expire = m.Options.ExpireAfterSeconds
		}
		sig := keySig(m.Keys.(bson.D))
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig))

		if ex, ok := existing[sig]; ok {
			if sameExpiry(expire, ex.ExpireAfter) {
				log.Debug("reusing existing index")
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s: drop failed: %v", name, err))
				continue
			}
			log.Info("dropped index with stale options", zap.String("old_name", ex.Name))
		}

		start := time.Now()
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var raw struct {
			Name   string `bson:"name"`
			Key    bson.D `bson:"key"`
			Expire any    `bson:"expireAfterSeconds,omitempty"`
		}
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		idx := existingIndex{Name: raw.Name, Key: raw.Key}
		if v, ok := toInt32(raw.Expire); ok {
			idx.ExpireAfter = &v
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func toInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int64:
		return int32(n), true
	case float64:
		return int32(n), true
	}
	return 0, false
}
