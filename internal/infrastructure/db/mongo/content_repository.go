package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

const (
	contentCollection = "content"
	viewCollection    = "view_counters"
)

// ContentRepository implements ports.ContentRepository on MongoDB.
type ContentRepository struct {
	db *mongo.Database
}

func NewContentRepository(db *mongo.Database) ports.ContentRepository {
	return &ContentRepository{db: db}
}

type mongoContent struct {
	Kind     string `bson:"kind"`
	ID       int64  `bson:"content_id"`
	AuthorID int64  `bson:"author_id"`
}

func contentFilter(kind domain.ContentKind, id int64) bson.M {
	return bson.M{"kind": string(kind), "content_id": id}
}

func (r *ContentRepository) Put(ctx context.Context, item ports.ContentItem) error {
	doc := mongoContent{Kind: string(item.Kind), ID: item.ID, AuthorID: item.AuthorID}
	_, err := r.db.Collection(contentCollection).ReplaceOne(ctx,
		contentFilter(item.Kind, item.ID), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put content: %w", err)
	}
	return nil
}

func (r *ContentRepository) Find(ctx context.Context, kind domain.ContentKind, id int64) (*ports.ContentItem, error) {
	var doc mongoContent
	if err := r.db.Collection(contentCollection).FindOne(ctx, contentFilter(kind, id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("find content: %w", err)
	}

	item := &ports.ContentItem{Kind: domain.ContentKind(doc.Kind), ID: doc.ID, AuthorID: doc.AuthorID}

	var views struct {
		Count int64 `bson:"count"`
	}
	err := r.db.Collection(viewCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&views)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find views: %w", err)
	}
	item.Views = views.Count
	return item, nil
}

func (r *ContentRepository) Delete(ctx context.Context, kind domain.ContentKind, id int64) error {
	res, err := r.db.Collection(contentCollection).DeleteOne(ctx, contentFilter(kind, id))
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// IncrementViews atomically bumps the counter of resource id.
func (r *ContentRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views struct {
		Count int64 `bson:"count"`
	}
	err := r.db.Collection(viewCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"count": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&views)
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views.Count, nil
}
