package repositories

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	routesCollection   = "routes"
	heldBackCollection = "held_back_locations"
)

type mongoRouteSet struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	RouteSetDocument `bson:",inline"`
}

// MongoRouteRepository stores route sets and held-back records as documents,
// using ObjectID hex strings as route set ids.
type MongoRouteRepository struct {
	client   *mongo.Client
	routes   *mongo.Collection
	heldBack *mongo.Collection
}

// ConnectMongo opens a client, verifies it and prepares the collections.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoRouteRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	repo := NewMongoRouteRepository(client, database)
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return repo, nil
}

func NewMongoRouteRepository(client *mongo.Client, database string) *MongoRouteRepository {
	db := client.Database(database)
	return &MongoRouteRepository{
		client:   client,
		routes:   db.Collection(routesCollection),
		heldBack: db.Collection(heldBackCollection),
	}
}

func (m *MongoRouteRepository) ensureIndexes(ctx context.Context) error {
	_, err := m.routes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date_of_generation", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create routes index: %w", err)
	}

	_, err = m.heldBack.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "routes_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: create held-back index: %w", err)
	}

	return nil
}

func (m *MongoRouteRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRouteRepository) Create(ctx context.Context, set *domain.RouteSet) (_ string, err error) {
	defer obs.Time(ctx, "routes.mongo.Create")(&err)

	doc := mongoRouteSet{ID: primitive.NewObjectID(), RouteSetDocument: NewRouteSetDocument(set)}
	if _, err := m.routes.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("create route set: insert: %w", err)
	}

	return doc.ID.Hex(), nil
}

func (m *MongoRouteRepository) Get(ctx context.Context, id string) (_ *domain.RouteSet, err error) {
	defer obs.Time(ctx, "routes.mongo.Get")(&err)

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NotFoundf("route set %q not found", id)
	}

	var doc mongoRouteSet
	err = m.routes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("route set %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get route set %q: %w", id, err)
	}

	return doc.ToDomain(id), nil
}

func (m *MongoRouteRepository) Replace(ctx context.Context, set *domain.RouteSet) (err error) {
	defer obs.Time(ctx, "routes.mongo.Replace")(&err)

	oid, err := primitive.ObjectIDFromHex(set.ID)
	if err != nil {
		return domain.NotFoundf("route set %q not found", set.ID)
	}

	res, err := m.routes.ReplaceOne(ctx, bson.M{"_id": oid}, mongoRouteSet{ID: oid, RouteSetDocument: NewRouteSetDocument(set)})
	if err != nil {
		return fmt.Errorf("replace route set %q: %w", set.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFoundf("route set %q not found", set.ID)
	}

	return nil
}

func (m *MongoRouteRepository) List(ctx context.Context, userID string, activeOnly bool) (_ []*domain.RouteSet, err error) {
	defer obs.Time(ctx, "routes.mongo.List")(&err)

	filter := bson.M{"user_id": userID}
	if activeOnly {
		filter["completed"] = false
	}

	opts := options.Find().SetSort(bson.D{{Key: "date_of_generation", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.routes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list route sets: find: %w", err)
	}
	defer cur.Close(ctx)

	sets := make([]*domain.RouteSet, 0, 16)
	for cur.Next(ctx) {
		var doc mongoRouteSet
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list route sets: decode: %w", err)
		}
		sets = append(sets, doc.ToDomain(doc.ID.Hex()))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list route sets: cursor: %w", err)
	}

	return sets, nil
}

func (m *MongoRouteRepository) Delete(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "routes.mongo.Delete")(&err)

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.NotFoundf("route set %q not found", id)
	}

	res, err := m.routes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete route set %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFoundf("route set %q not found", id)
	}

	return nil
}

func (m *MongoRouteRepository) GetHeldBack(ctx context.Context, routeSetID string) (*domain.HeldBackLocations, error) {
	var doc HeldBackDocument
	err := m.heldBack.FindOne(ctx, bson.M{"routes_id": routeSetID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("held-back locations for %q not found", routeSetID)
	}
	if err != nil {
		return nil, fmt.Errorf("get held-back locations %q: %w", routeSetID, err)
	}

	return doc.ToDomain(), nil
}

func (m *MongoRouteRepository) SaveHeldBack(ctx context.Context, h *domain.HeldBackLocations) error {
	_, err := m.heldBack.ReplaceOne(
		ctx,
		bson.M{"routes_id": h.RouteSetID},
		NewHeldBackDocument(h),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save held-back locations %q: %w", h.RouteSetID, err)
	}

	return nil
}

func (m *MongoRouteRepository) DeleteHeldBack(ctx context.Context, routeSetID string) error {
	if _, err := m.heldBack.DeleteOne(ctx, bson.M{"routes_id": routeSetID}); err != nil {
		return fmt.Errorf("delete held-back locations %q: %w", routeSetID, err)
	}
	return nil
}
