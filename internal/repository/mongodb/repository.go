package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// ErrNoSnapshot is returned when no archived report matches.
var ErrNoSnapshot = errors.New("no report snapshot")

// Repository defines the interface for report archiving.
type Repository interface {
	SaveReportSnapshot(ctx context.Context, summary models.ReportSummary) error
	LatestSnapshot(ctx context.Context, preset string) (models.ReportSummary, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "report_snapshots",
	}, nil
}

// SaveReportSnapshot archives a generated report summary.
func (r *MongoDBRepository) SaveReportSnapshot(ctx context.Context, summary models.ReportSummary) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	_, err := collection.InsertOne(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to insert report snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently generated snapshot for a preset.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context, preset string) (models.ReportSummary, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})

	var summary models.ReportSummary
	err := collection.FindOne(ctx, bson.M{"preset": preset}, opts).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ReportSummary{}, fmt.Errorf("%s: %w", preset, ErrNoSnapshot)
	}
	if err != nil {
		return models.ReportSummary{}, fmt.Errorf("failed to load report snapshot: %w", err)
	}
	return summary, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
