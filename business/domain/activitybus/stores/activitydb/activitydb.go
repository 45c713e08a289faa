// Package activitydb stores the activity feed in MongoDB.
package activitydb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "activities"

type activityDoc struct {
	ID         string         `bson:"_id"`
	Event      string         `bson:"event"`
	EntityType string         `bson:"entity_type"`
	EntityID   string         `bson:"entity_id"`
	TenantID   string         `bson:"tenant_id,omitempty"`
	UserID     string         `bson:"user_id"`
	Metadata   map[string]any `bson:"metadata,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
}

// Store manages the set of APIs for activity database access.
type Store struct {
	log  *logger.Logger
	coll *mongo.Collection
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *mongo.Database) *Store {
	return &Store{
		log:  log,
		coll: db.Collection(collection),
	}
}

// EnsureIndexes creates the indexes the feed queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("tenant_created"),
		},
		{
			Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetName("entity"),
		},
	}

	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("createmany: %w", err)
	}

	return nil
}

// Create inserts the activity.
func (s *Store) Create(ctx context.Context, act activitybus.Activity) error {
	doc := activityDoc{
		ID:         act.ID.String(),
		Event:      act.Event,
		EntityType: act.EntityType,
		EntityID:   act.EntityID,
		UserID:     act.UserID.String(),
		Metadata:   act.Metadata,
		CreatedAt:  act.CreatedAt.UTC(),
	}

	if act.TenantID != uuid.Nil {
		doc.TenantID = act.TenantID.String()
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insertone: %w", err)
	}

	return nil
}

// Query retrieves a page of activities, newest first.
func (s *Store) Query(ctx context.Context, filter activitybus.QueryFilter, page page.Page) ([]activitybus.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.RowsPerPage()))

	cur, err := s.coll.Find(ctx, toBSON(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("all: %w", err)
	}

	acts := make([]activitybus.Activity, 0, len(docs))
	for _, doc := range docs {
		act, err := toBusActivity(doc)
		if err != nil {
			return nil, err
		}
		acts = append(acts, act)
	}

	return acts, nil
}

// Count returns the number of activities matching the filter.
func (s *Store) Count(ctx context.Context, filter activitybus.QueryFilter) (int, error) {
	n, err := s.coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("countdocuments: %w", err)
	}

	return int(n), nil
}

// =============================================================================

func toBSON(filter activitybus.QueryFilter) bson.M {
	m := bson.M{}

	if filter.TenantID != nil {
		m["tenant_id"] = filter.TenantID.String()
	}

	if filter.EntityType != nil {
		m["entity_type"] = *filter.EntityType
	}

	if filter.EntityID != nil {
		m["entity_id"] = *filter.EntityID
	}

	if filter.UserID != nil {
		m["user_id"] = filter.UserID.String()
	}

	return m
}

func toBusActivity(doc activityDoc) (activitybus.Activity, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return activitybus.Activity{}, fmt.Errorf("parse id: %w", err)
	}

	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return activitybus.Activity{}, fmt.Errorf("parse user id: %w", err)
	}

	var tenantID uuid.UUID
	if doc.TenantID != "" {
		if tenantID, err = uuid.Parse(doc.TenantID); err != nil {
			return activitybus.Activity{}, fmt.Errorf("parse tenant id: %w", err)
		}
	}

	act := activitybus.Activity{
		ID:         id,
		Event:      doc.Event,
		EntityType: doc.EntityType,
		EntityID:   doc.EntityID,
		TenantID:   tenantID,
		UserID:     userID,
		Metadata:   doc.Metadata,
		CreatedAt:  doc.CreatedAt.In(time.Local),
	}

	return act, nil
}
