package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/yumyai/orthologs/logger"
	"github.com/yumyai/orthologs/pkg/model"
)

const (
	DefaultMongoDatabase   = "yeast_db"
	DefaultMongoCollection = "orthologs"
)

// Server error codes the query planner uses when it cannot serve a $text
// clause next to unindexed $or branches.
const (
	codeBadValue              = 2
	codeIndexNotFound         = 27
	codeNoQueryExecutionPlans = 291
)

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects once. The client pools connections, so the store is
// shared by every request for the life of the process.
func NewMongoStore(uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty connection string")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	logger.Info("Connected to document store",
		zap.String("database", database),
		zap.String("collection", collection))

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) Find(ctx context.Context, filter Filter) ([]model.OrthologRecord, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}})

	cursor, err := s.collection.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, classifyMongoError(err)
	}
	defer cursor.Close(ctx)

	records := []model.OrthologRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, classifyMongoError(err)
	}
	return records, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoFilter builds {$or: [...]} with one branch per clause.
func mongoFilter(filter Filter) bson.D {
	branches := bson.A{}
	for _, c := range filter.Any {
		switch c.Kind {
		case ClausePattern:
			branches = append(branches, bson.D{{
				Key:   c.Field.String(),
				Value: bson.Regex{Pattern: regexp.QuoteMeta(c.Value), Options: "i"},
			}})
		case ClauseFullText:
			branches = append(branches, bson.D{{
				Key:   "$text",
				Value: bson.D{{Key: "$search", Value: c.Value}},
			}})
		}
	}
	return bson.D{{Key: "$or", Value: branches}}
}

func classifyMongoError(err error) error {
	if isMongoPlannerRejection(err) {
		return &PlannerRejectedError{Store: "mongo", Err: err}
	}
	return err
}

func isMongoPlannerRejection(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	if se.HasErrorCode(codeNoQueryExecutionPlans) || se.HasErrorCode(codeIndexNotFound) {
		return true
	}
	if !se.HasErrorCode(codeBadValue) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "planner returned error") ||
		strings.Contains(msg, "text under or")
}
