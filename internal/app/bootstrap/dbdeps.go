// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds backend dependencies for this WAFFLE app.
//
// Trinetra keeps no time-tracking data of its own. The only local backend is
// the optional audit database; both fields are nil when mongo_uri is blank.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}
