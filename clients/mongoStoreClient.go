package clients

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/sharethoughts/courier/models"
)

const (
	invitationsCollection = "invitations"
	documentsCollection   = "documents"

	defaultConnectTimeout = 20 * time.Second
)

type (
	MongoConfig struct {
		ConnectionString string `split_words:"true" required:"true"`
		Database         string `default:"courier"`
	}

	MongoStoreClient struct {
		client      *mongo.Client
		invitations *mongo.Collection
		documents   *mongo.Collection
	}
)

func mongoConfigProvider() (MongoConfig, error) {
	var config MongoConfig
	if err := envconfig.Process("mongo", &config); err != nil {
		return MongoConfig{}, err
	}
	return config, nil
}

func mongoStoreProvider(lifecycle fx.Lifecycle, config MongoConfig) (StoreClient, error) {
	store, err := NewMongoStoreClient(&config)
	if err != nil {
		return nil, err
	}
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close(ctx)
		},
	})
	return store, nil
}

// MongoModule provides the production store backed by MongoDB.
var MongoModule = fx.Options(fx.Provide(mongoConfigProvider, mongoStoreProvider))

func NewMongoStoreClient(config *MongoConfig) (*MongoStoreClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.ConnectionString))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	db := client.Database(config.Database)
	return &MongoStoreClient{
		client:      client,
		invitations: db.Collection(invitationsCollection),
		documents:   db.Collection(documentsCollection),
	}, nil
}

func (c *MongoStoreClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *MongoStoreClient) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *MongoStoreClient) UpsertInvitation(ctx context.Context, invitation *models.Invitation) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := c.invitations.ReplaceOne(ctx, bson.M{"_id": invitation.Token}, invitation, opts); err != nil {
		return errors.Wrap(err, "upserting invitation")
	}
	return nil
}

func (c *MongoStoreClient) FindInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	var result models.Invitation
	err := c.invitations.FindOne(ctx, bson.M{"_id": token}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding invitation")
	}
	return &result, nil
}

func (c *MongoStoreClient) FindInvitations(ctx context.Context, filter *models.Invitation, statuses ...models.Status) ([]*models.Invitation, error) {
	query := bson.M{}
	if filter.Email != "" {
		query["email"] = filter.Email
	}
	if filter.InviterId != "" {
		query["inviterId"] = filter.InviterId
	}
	if filter.DocumentId != "" {
		query["documentId"] = filter.DocumentId
	}
	if filter.UserId != "" {
		query["userId"] = filter.UserId
	}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := c.invitations.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding invitations")
	}
	var results []*models.Invitation
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "decoding invitations")
	}
	return results, nil
}

// ExpireInvitation is a single conditional update, so concurrent readers
// cannot double-transition an invitation or resurrect a terminal status.
func (c *MongoStoreClient) ExpireInvitation(ctx context.Context, token string, now time.Time) (bool, error) {
	result, err := c.invitations.UpdateOne(ctx,
		bson.M{"_id": token, "status": models.StatusPending, "expiresAt": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.StatusExpired, "modified": now}},
	)
	if err != nil {
		return false, errors.Wrap(err, "expiring invitation")
	}
	return result.ModifiedCount > 0, nil
}

func (c *MongoStoreClient) UpsertDocument(ctx context.Context, document *models.Document) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := c.documents.ReplaceOne(ctx, bson.M{"_id": document.Id}, document, opts); err != nil {
		return errors.Wrap(err, "upserting document")
	}
	return nil
}

func (c *MongoStoreClient) FindDocument(ctx context.Context, id string) (*models.Document, error) {
	var result models.Document
	err := c.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding document")
	}
	return &result, nil
}

func (c *MongoStoreClient) FindDocumentsForUser(ctx context.Context, userId string) ([]*models.Document, error) {
	query := bson.M{"$or": []bson.M{
		{"ownerId": userId},
		{"access." + userId: bson.M{"$exists": true}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := c.documents.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding documents for user")
	}
	var results []*models.Document
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "decoding documents")
	}
	return results, nil
}

// GrantAccess relies on the atomicity of a single-document update: two
// concurrent grants for different invitations on the same document cannot
// lose each other's access entries.
func (c *MongoStoreClient) GrantAccess(ctx context.Context, documentId, userId string, entry models.AccessEntry) error {
	result, err := c.documents.UpdateOne(ctx,
		bson.M{"_id": documentId},
		bson.M{"$set": bson.M{"access." + userId: entry, "updatedAt": entry.Timestamp}},
	)
	if err != nil {
		return errors.Wrap(err, "granting document access")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoStoreClient) SetDocumentContent(ctx context.Context, id, content string, at time.Time) error {
	result, err := c.documents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updatedAt": at}},
	)
	if err != nil {
		return errors.Wrap(err, "saving document content")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoStoreClient) RemoveDocument(ctx context.Context, id string) error {
	if _, err := c.documents.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(err, "removing document")
	}
	return nil
}
