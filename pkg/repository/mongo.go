package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository keeps the order audit trail.
type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	collection := m.database.Collection(m.config.Collection)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := collection.InsertOne(ctx, log)
	return err
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	collection := m.database.Collection(m.config.Collection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

// Record stores an order transition. It satisfies order.Journal.
func (m *MongoRepository) Record(ctx context.Context, event models.OrderEvent) error {
	return m.CreateAuditLog(ctx, &AuditLog{
		Service:  "storefront",
		Action:   event.Action,
		EntityID: event.OrderID,
		Data: bson.M{
			"status": string(event.Status),
			"total":  event.Total.String(),
		},
		CreatedAt: event.At,
	})
}

// OrderEvents returns the most recent transitions of an order, newest first.
func (m *MongoRepository) OrderEvents(ctx context.Context, orderID string, limit int64) ([]models.OrderEvent, error) {
	logs, err := m.GetAuditLogs(ctx, orderID, limit)
	if err != nil {
		return nil, err
	}

	events := make([]models.OrderEvent, 0, len(logs))
	for _, l := range logs {
		e := models.OrderEvent{
			Action:  l.Action,
			OrderID: l.EntityID,
			At:      l.CreatedAt,
		}
		if s, ok := l.Data["status"].(string); ok {
			e.Status = models.OrderStatus(s)
		}
		if s, ok := l.Data["total"].(string); ok {
			e.Total, _ = decimal.NewFromString(s)
		}
		events = append(events, e)
	}
	return events, nil
}
