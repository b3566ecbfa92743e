package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"docmigrate/internal/domain"
)

// MongoStore はMongoDBのデータベースをドキュメントストアとして扱う。
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore はMongoDBに接続し、疎通を確認する。
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(database),
	}, nil
}

// FindOne は条件に一致する最初のドキュメントを取得する。
func (s *MongoStore) FindOne(ctx context.Context, collection string, filter domain.Filter) (domain.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, toBSON(filter)).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find document",
			"operation", "find_one",
			"collection", collection,
			"error", err,
		)
		return nil, err
	}
	return fromBSON(raw), nil
}

// Find は条件に一致する全ドキュメントを取得する。
func (s *MongoStore) Find(ctx context.Context, collection string, filter domain.Filter) ([]domain.Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, toBSON(filter))
	if err != nil {
		slog.ErrorContext(ctx, "failed to find documents",
			"operation", "find",
			"collection", collection,
			"error", err,
		)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []domain.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %s document: %w", collection, err)
		}
		docs = append(docs, fromBSON(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Upsert は条件に一致するドキュメントを置き換え、なければ挿入する。
func (s *MongoStore) Upsert(ctx context.Context, collection string, filter domain.Filter, doc domain.Document) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		toBSON(filter),
		bson.M(doc),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert document",
			"operation", "upsert",
			"collection", collection,
			"error", err,
		)
		return err
	}
	return nil
}

// Close はMongoDBとの接続を閉じる。
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toBSON(filter domain.Filter) bson.M {
	m := bson.M{}
	for k, v := range filter {
		m[k] = v
	}
	return m
}

// fromBSON はデコード結果をドメインの表現（map[string]any と []any）に揃える。
func fromBSON(raw bson.M) domain.Document {
	doc := domain.Document{}
	for k, v := range raw {
		doc[k] = normalize(v)
	}
	return doc
}

func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = normalize(x)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = normalize(x)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = normalize(x)
		}
		return s
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = normalize(x)
		}
		return s
	default:
		return v
	}
}
