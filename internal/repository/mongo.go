package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/namewall-backend/internal/database"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// Collection names and field names match the data already in production, so
// existing databases need no migration.
const (
	NamesCollection    = "names"
	FeedbackCollection = "feedbacks"
)

// nameDocument is the stored shape of a NameEntry. nameKey is always written,
// including for the empty name. Documents written by older deployments have
// no nameKey; they are still matched by the regex lookup.
type nameDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	NameKey   string             `bson:"nameKey"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d nameDocument) entry() models.NameEntry {
	return models.NameEntry{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type feedbackDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Message   string             `bson:"message"`
	Rating    int                `bson:"rating"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d feedbackDocument) entry() models.FeedbackEntry {
	return models.FeedbackEntry{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Message:   d.Message,
		Rating:    models.Rating(d.Rating),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// nameIndexes are the indexes of the names collection. The nameKey index only
// covers string keys, so legacy documents without a key don't collide while
// the empty name still gets one.
func nameIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "nameKey", Value: 1}},
			Options: options.Index().
				SetName("uniq_name_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"nameKey": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	}
}

// EnsureMongoIndexes configures indexes for the names and feedbacks collections.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(NamesCollection).Indexes().CreateMany(ctx, nameIndexes()); err != nil {
		return err
	}

	feedbackIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_created_at_desc"),
	}
	_, err := db.Collection(FeedbackCollection).Indexes().CreateOne(ctx, feedbackIndex)
	return err
}

func isMongoConnErr(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err) || database.IsNetError(err)
}

// MongoNames stores names in the "names" collection.
type MongoNames struct {
	col   *mongo.Collection
	newID func() primitive.ObjectID
}

func NewMongoNames(col *mongo.Collection) *MongoNames {
	return &MongoNames{col: col, newID: primitive.NewObjectID}
}

// ListNames returns every stored document, oldest first. Duplicates are left
// for the registry to drop.
func (m *MongoNames) ListNames(ctx context.Context) ([]models.NameEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, database.Wrap("list names", err, isMongoConnErr)
	}
	defer cursor.Close(ctx)

	var docs []nameDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, database.Wrap("list names", err, isMongoConnErr)
	}

	entries := make([]models.NameEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

// FindOrCreateName looks for a case-insensitive match first, then inserts.
// If a concurrent request inserts the same key in between, the unique index
// rejects this insert and the winner is returned instead.
func (m *MongoNames) FindOrCreateName(ctx context.Context, entry models.NameEntry) (models.NameEntry, bool, error) {
	filter := bson.M{"name": bson.M{
		"$regex":   "^" + regexp.QuoteMeta(entry.Name) + "$",
		"$options": "i",
	}}
	existing, err := m.findOne(ctx, filter)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.NameEntry{}, false, database.Wrap("find name", err, isMongoConnErr)
	}

	doc := nameDocument{
		ID:        m.newID(),
		Name:      entry.Name,
		NameKey:   entry.Key(),
		CreatedAt: entry.CreatedAt.Truncate(time.Millisecond), // BSON dates hold milliseconds
	}
	_, err = m.col.InsertOne(ctx, doc)
	if err == nil {
		return doc.entry(), true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return models.NameEntry{}, false, database.Wrap("insert name", err, isMongoConnErr)
	}

	existing, err = m.findOne(ctx, bson.M{"nameKey": doc.NameKey})
	if err != nil {
		return models.NameEntry{}, false, database.Wrap("find name", err, isMongoConnErr)
	}
	return existing, false, nil
}

func (m *MongoNames) findOne(ctx context.Context, filter bson.M) (models.NameEntry, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	var doc nameDocument
	if err := m.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return models.NameEntry{}, err
	}
	return doc.entry(), nil
}

// MongoFeedback stores feedback in the "feedbacks" collection.
type MongoFeedback struct {
	col   *mongo.Collection
	newID func() primitive.ObjectID
}

func NewMongoFeedback(col *mongo.Collection) *MongoFeedback {
	return &MongoFeedback{col: col, newID: primitive.NewObjectID}
}

func (m *MongoFeedback) InsertFeedback(ctx context.Context, entry models.FeedbackEntry) (models.FeedbackEntry, error) {
	doc := feedbackDocument{
		ID:        m.newID(),
		Name:      entry.Name,
		Email:     entry.Email,
		Message:   entry.Message,
		Rating:    int(entry.Rating),
		CreatedAt: entry.CreatedAt.Truncate(time.Millisecond),
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return models.FeedbackEntry{}, database.Wrap("insert feedback", err, isMongoConnErr)
	}
	return doc.entry(), nil
}

// ListFeedback returns all feedback sorted by createdAt descending (newest first).
func (m *MongoFeedback) ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, database.Wrap("list feedback", err, isMongoConnErr)
	}
	defer cursor.Close(ctx)

	var docs []feedbackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, database.Wrap("list feedback", err, isMongoConnErr)
	}

	entries := make([]models.FeedbackEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}
