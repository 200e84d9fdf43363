package config

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used across the application.
const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	UploadsCollection  = "uploads"
)

var database *mongo.Database

// InitDatabase establishes a connection to MongoDB using configuration values
// and bootstraps the indexes the handlers rely on. Fatal on failure: the
// service cannot run without its document store.
func InitDatabase() *mongo.Database {
	if database != nil {
		return database
	}

	c := Get()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}

	// Surface network/auth problems at boot instead of on the first query.
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("mongodb ping failed: %v", err)
	}

	database = client.Database(c.DBName)

	if err := ensureIndexes(ctx, database); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	return database
}

// DB provides access to the initialized database handle.
func DB() *mongo.Database {
	if database == nil {
		log.Fatal("database not initialized, call InitDatabase first")
	}
	return database
}

// GetCollection returns a handle to the named collection.
func GetCollection(name string) *mongo.Collection {
	return DB().Collection(name)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(PostsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "tags", Value: "text"},
		}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "publishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CommentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "blogPost", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "parent", Value: 1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(UploadsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "publicId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
