package repository

import (
	"context"
	"feedbackbot/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepo handles MongoDB operations for chat sessions
type SessionRepo interface {
	GetByChatID(ctx context.Context, chatID int64) (*model.Session, error)
	Upsert(ctx context.Context, session *model.Session) error
	EnsureIndexes(ctx context.Context) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("user_sessions"),
	}
}

func (r *sessionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chatId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *sessionRepo) GetByChatID(ctx context.Context, chatID int64) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"chatId": chatID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Upsert replaces the session for its chat, keeping the original createdAt
func (r *sessionRepo) Upsert(ctx context.Context, session *model.Session) error {
	update := bson.M{
		"$set": bson.M{
			"state":     session.State,
			"role":      session.Role,
			"branch":    session.Branch,
			"updatedAt": session.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"chatId":    session.ChatID,
			"createdAt": session.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"chatId": session.ChatID}, update, opts)
	return err
}
