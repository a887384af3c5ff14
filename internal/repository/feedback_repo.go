package repository

import (
	"context"
	"errors"
	"feedbackbot/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrInvalidID = errors.New("invalid feedback id")

// FeedbackRepo handles MongoDB operations for feedback records.
// Records are append-only; only the mirrored flag changes after insert.
type FeedbackRepo interface {
	Create(ctx context.Context, record *model.FeedbackRecord) error
	MarkMirrored(ctx context.Context, id string) error
	Find(ctx context.Context, filter model.FeedbackFilter) ([]model.FeedbackRecord, error)
	EnsureIndexes(ctx context.Context) error
}

type feedbackRepo struct {
	collection *mongo.Collection
}

// NewFeedbackRepo creates a new feedback repository
func NewFeedbackRepo(db *mongo.Database) FeedbackRepo {
	return &feedbackRepo{
		collection: db.Collection("feedbacks"),
	}
}

func (r *feedbackRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "branch", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "criticalityLevel", Value: 1}}},
		{Keys: bson.D{{Key: "sentiment", Value: 1}}},
	})
	return err
}

// Create inserts the record and sets its ID
func (r *feedbackRepo) Create(ctx context.Context, record *model.FeedbackRecord) error {
	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *feedbackRepo) MarkMirrored(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"mirrored": true}})
	return err
}

func (r *feedbackRepo) Find(ctx context.Context, filter model.FeedbackFilter) ([]model.FeedbackRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, FilterDocument(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []feedbackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]model.FeedbackRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.toModel())
	}
	return records, nil
}

// FilterDocument translates a filter into a MongoDB query; an empty filter matches all
func FilterDocument(f model.FeedbackFilter) bson.M {
	q := bson.M{}
	if f.Branch != nil {
		q["branch"] = *f.Branch
	}
	if f.Role != nil {
		q["role"] = string(*f.Role)
	}
	if f.Criticality != nil {
		q["criticalityLevel"] = *f.Criticality
	}
	if f.Sentiment != nil {
		q["sentiment"] = string(*f.Sentiment)
	}
	return q
}

// feedbackDocument adds the stored ObjectID, which the record itself carries as a hex string
type feedbackDocument struct {
	ID                   primitive.ObjectID `bson:"_id"`
	model.FeedbackRecord `bson:",inline"`
}

func (d feedbackDocument) toModel() model.FeedbackRecord {
	rec := d.FeedbackRecord
	rec.ID = d.ID.Hex()
	return rec
}
