package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-landing/internal/models"
	"ms-landing/internal/testimonials"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores testimonials as documents in the comentarios collection.
type Repository struct {
	col *mongo.Collection
}

var _ testimonials.Repository = (*Repository)(nil)

// Connect dials uri and waits for the server to answer a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// NewRepository also makes sure the lookup indexes exist.
func NewRepository(ctx context.Context, client *mongo.Client, dbName, collection string) (*Repository, error) {
	col := client.Database(dbName).Collection(collection)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}, {Key: "comentario", Value: 1}}},
		{Keys: bson.D{{Key: "criadoEm", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create testimonial indexes: %w", err)
	}

	return &Repository{col: col}, nil
}

func (r *Repository) Create(ctx context.Context, t *models.Testimonial) error {
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Testimonial, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) Update(ctx context.Context, t *models.Testimonial) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": t.ID}, bson.M{
		"$set": bson.M{
			"estrelas":     t.Rating,
			"comentario":   t.Comment,
			"atualizadoEm": t.UpdatedAt,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return testimonials.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return testimonials.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]models.Testimonial, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "criadoEm", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	list := make([]models.Testimonial, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) FindByAuthorAndComment(ctx context.Context, uid, comment string) (*models.Testimonial, error) {
	return r.findOne(ctx, bson.M{"uid": uid, "comentario": comment})
}

func (r *Repository) Summary(ctx context.Context) (models.TestimonialSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$estrelas"}}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return models.TestimonialSummary{}, err
	}

	var rows []struct {
		Count   int     `bson:"count"`
		Average float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.TestimonialSummary{}, err
	}
	if len(rows) == 0 {
		return models.TestimonialSummary{}, nil
	}
	return models.TestimonialSummary{Count: rows[0].Count, Average: rows[0].Average}, nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*models.Testimonial, error) {
	var t models.Testimonial
	err := r.col.FindOne(ctx, filter).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, testimonials.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
