package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

// NewMongoStore wires the document stores around a database handle.
// Collections and field names follow the original document schema.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:    &MongoUserStore{coll: db.Collection("users")},
		Items:    newMongoListingStore(db, models.ItemKind),
		Needs:    newMongoListingStore(db, models.NeedKind),
		Messages: &MongoMessageStore{coll: db.Collection("messages")},
		closeFn: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}
}

// EnsureMongoIndexes creates the indexes every query path relies on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	collections := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"items": {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isAvailable", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"needs": {
			{Keys: bson.D{{Key: "requester", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"messages": {
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}}},
		},
	}

	for name, indexes := range collections {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	Location  string    `bson:"location"`
	Image     string    `bson:"image"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d userDoc) model() models.User {
	return models.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Location:     d.Location,
		Image:        d.Image,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type MongoUserStore struct {
	coll *mongo.Collection
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	user.ID = newID()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	_, err := s.coll.InsertOne(ctx, userDoc{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Location:  user.Location,
		Image:     user.Image,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	return translateMongoError(err)
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	user := doc.model()
	return &user, nil
}

func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		users[doc.ID] = doc.model()
	}
	return users, nil
}

func (s *MongoUserStore) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.model())
	}
	return users, nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = now()
	result, err := s.coll.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"name":      user.Name,
		"location":  user.Location,
		"image":     user.Image,
		"updatedAt": user.UpdatedAt,
	}})
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mongoListingFields names the kind-specific document fields.
type mongoListingFields struct {
	collection string
	facet      string
	owner      string
	open       string
}

func fieldsFor(kind models.ListingKind) mongoListingFields {
	name := "items"
	if kind.Name == models.NeedKind.Name {
		name = "needs"
	}
	return mongoListingFields{
		collection: name,
		facet:      kind.FacetField,
		owner:      kind.OwnerField,
		open:       kind.StatusField,
	}
}

// buildListingFilter is the document-store twin of buildListingQuery.
func buildListingFilter(f mongoListingFields, filter models.ListingFilter) bson.M {
	query := bson.M{}
	if filter.OpenOnly {
		query[f.open] = true
	}
	if filter.OwnerID != "" {
		query[f.owner] = filter.OwnerID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Facet != "" {
		query[f.facet] = filter.Facet
	}
	if filter.Search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}

type MongoListingStore struct {
	coll   *mongo.Collection
	kind   models.ListingKind
	fields mongoListingFields
}

func newMongoListingStore(db *mongo.Database, kind models.ListingKind) *MongoListingStore {
	fields := fieldsFor(kind)
	return &MongoListingStore{
		coll:   db.Collection(fields.collection),
		kind:   kind,
		fields: fields,
	}
}

func (s *MongoListingStore) Kind() models.ListingKind {
	return s.kind
}

func (s *MongoListingStore) document(l *models.Listing) bson.D {
	return bson.D{
		{Key: "_id", Value: l.ID},
		{Key: "title", Value: l.Title},
		{Key: "description", Value: l.Description},
		{Key: "category", Value: l.Category},
		{Key: s.fields.facet, Value: l.Facet},
		{Key: "image", Value: l.Image},
		{Key: s.fields.owner, Value: l.OwnerID},
		{Key: "location", Value: l.Location},
		{Key: s.fields.open, Value: l.Open},
		{Key: "createdAt", Value: l.CreatedAt},
		{Key: "updatedAt", Value: l.UpdatedAt},
	}
}

func (s *MongoListingStore) decode(raw bson.M) models.Listing {
	str := func(key string) string {
		v, _ := raw[key].(string)
		return v
	}
	ts := func(key string) time.Time {
		if v, ok := raw[key].(bson.DateTime); ok {
			return v.Time().UTC()
		}
		return time.Time{}
	}
	open, _ := raw[s.fields.open].(bool)

	return models.Listing{
		ID:          str("_id"),
		Kind:        s.kind,
		Title:       str("title"),
		Description: str("description"),
		Category:    str("category"),
		Facet:       str(s.fields.facet),
		Image:       str("image"),
		OwnerID:     str(s.fields.owner),
		Location:    str("location"),
		Open:        open,
		CreatedAt:   ts("createdAt"),
		UpdatedAt:   ts("updatedAt"),
	}
}

func (s *MongoListingStore) Create(ctx context.Context, listing *models.Listing) error {
	listing.ID = newID()
	listing.Kind = s.kind
	listing.CreatedAt = now()
	listing.UpdatedAt = listing.CreatedAt

	_, err := s.coll.InsertOne(ctx, s.document(listing))
	return translateMongoError(err)
}

func (s *MongoListingStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var raw bson.M
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		return nil, translateMongoError(err)
	}
	listing := s.decode(raw)
	return &listing, nil
}

func (s *MongoListingStore) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, buildListingFilter(s.fields, filter), opts)
	if err != nil {
		return nil, err
	}
	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(raws))
	for _, raw := range raws {
		listings = append(listings, s.decode(raw))
	}
	return listings, nil
}

func (s *MongoListingStore) Update(ctx context.Context, listing *models.Listing) error {
	listing.UpdatedAt = now()
	set := bson.M{
		"title":       listing.Title,
		"description": listing.Description,
		"category":    listing.Category,
		"image":       listing.Image,
		"location":    listing.Location,
		"updatedAt":   listing.UpdatedAt,
	}
	set[s.fields.facet] = listing.Facet
	set[s.fields.open] = listing.Open

	result, err := s.coll.UpdateByID(ctx, listing.ID, bson.M{"$set": set})
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoListingStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type messageDoc struct {
	ID        string    `bson:"_id"`
	Sender    string    `bson:"sender"`
	Recipient string    `bson:"recipient"`
	Content   string    `bson:"content"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d messageDoc) model() models.Message {
	return models.Message{
		ID:          d.ID,
		SenderID:    d.Sender,
		RecipientID: d.Recipient,
		Content:     d.Content,
		Read:        d.Read,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// MongoMessageStore marks and reads a thread in two operations. A message
// inserted between them is returned unread and stays unread.
type MongoMessageStore struct {
	coll *mongo.Collection
}

func (s *MongoMessageStore) Create(ctx context.Context, message *models.Message) error {
	message.ID = newID()
	message.CreatedAt = now()

	_, err := s.coll.InsertOne(ctx, messageDoc{
		ID:        message.ID,
		Sender:    message.SenderID,
		Recipient: message.RecipientID,
		Content:   message.Content,
		Read:      message.Read,
		CreatedAt: message.CreatedAt,
	})
	return translateMongoError(err)
}

func (s *MongoMessageStore) find(ctx context.Context, filter bson.M) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, doc.model())
	}
	return messages, nil
}

func (s *MongoMessageStore) ListForUser(ctx context.Context, userID string) ([]models.Message, error) {
	return s.find(ctx, bson.M{"$or": bson.A{
		bson.M{"sender": userID},
		bson.M{"recipient": userID},
	}})
}

func (s *MongoMessageStore) ReadThread(ctx context.Context, userID, partnerID string) ([]models.Message, error) {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"sender": partnerID, "recipient": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return nil, err
	}

	return s.find(ctx, bson.M{"$or": bson.A{
		bson.M{"sender": userID, "recipient": partnerID},
		bson.M{"sender": partnerID, "recipient": userID},
	}})
}
