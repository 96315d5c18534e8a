package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"restaurant-review-api/models"
)

const (
	usersCollection       = "users"
	restaurantsCollection = "restaurants"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and ensures the indexes the store relies on,
// in particular the unique index on users.email.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "creating users.email index")
	}
	_, err = s.db.Collection(restaurantsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "creator", Value: 1}},
	})
	return errors.Wrap(err, "creating restaurants.creator index")
}

func (s *MongoStore) Users() UserRepository {
	return &mongoUsers{coll: s.db.Collection(usersCollection)}
}

func (s *MongoStore) Restaurants() RestaurantRepository {
	return &mongoRestaurants{
		coll:  s.db.Collection(restaurantsCollection),
		users: usersCollection,
	}
}

// WithTx runs fn inside a session transaction. The session travels in the
// context handed to fn, so the same store serves as the transactional handle.
func (s *MongoStore) WithTx(ctx context.Context, fn TxFunc) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}
	return s.client.UseSession(ctx, func(sessCtx mongo.SessionContext) error {
		return runTransaction(sessCtx, sessCtx, func() error { return fn(sessCtx, s) })
	})
}

// txSession is the part of mongo.Session that runTransaction drives.
type txSession interface {
	StartTransaction(opts ...*options.TransactionOptions) error
	AbortTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
}

func runTransaction(ctx context.Context, sess txSession, fn func() error) error {
	if err := sess.StartTransaction(); err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	if err := fn(); err != nil {
		if abortErr := sess.AbortTransaction(ctx); abortErr != nil {
			return errors.Wrapf(err, "aborting transaction failed (%v)", abortErr)
		}
		return err
	}
	// A failed commit cannot be aborted afterwards; the server discards it.
	if err := sess.CommitTransaction(ctx); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes both collections. Used by tests.
func (s *MongoStore) Drop(ctx context.Context) error {
	if err := s.db.Collection(restaurantsCollection).Drop(ctx); err != nil {
		return err
	}
	return s.db.Collection(usersCollection).Drop(ctx)
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateKey
	default:
		return err
	}
}

var createdAsc = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

type mongoUsers struct {
	coll *mongo.Collection
}

func (r *mongoUsers) Insert(ctx context.Context, u *models.User) error {
	if u.Restaurants == nil {
		u.Restaurants = []string{}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return errors.Wrapf(translateMongo(err), "inserting user '%s'", u.ID)
	}
	return nil
}

func (r *mongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, errors.Wrap(translateMongo(err), "finding user")
	}
	if u.Restaurants == nil {
		u.Restaurants = []string{}
	}
	return &u, nil
}

func (r *mongoUsers) FindAll(ctx context.Context) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, createdAsc)
	if err != nil {
		return nil, errors.Wrap(err, "finding users")
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	for i := range users {
		if users[i].Restaurants == nil {
			users[i].Restaurants = []string{}
		}
	}
	return users, nil
}

func (r *mongoUsers) Update(ctx context.Context, u *models.User) error {
	if u.Restaurants == nil {
		u.Restaurants = []string{}
	}
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return errors.Wrapf(translateMongo(err), "updating user '%s'", u.ID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNotFound, "updating user '%s'", u.ID)
	}
	return nil
}

type mongoRestaurants struct {
	coll  *mongo.Collection
	users string
}

func (r *mongoRestaurants) Insert(ctx context.Context, rest *models.Restaurant) error {
	now := time.Now().UTC()
	rest.CreatedAt, rest.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, rest); err != nil {
		return errors.Wrapf(translateMongo(err), "inserting restaurant '%s'", rest.ID)
	}
	return nil
}

func (r *mongoRestaurants) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rest); err != nil {
		return nil, errors.Wrapf(translateMongo(err), "finding restaurant '%s'", id)
	}
	return &rest, nil
}

func (r *mongoRestaurants) FindAll(ctx context.Context) ([]models.Restaurant, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoRestaurants) FindByCreator(ctx context.Context, userID string) ([]models.Restaurant, error) {
	return r.find(ctx, bson.M{"creator": userID})
}

func (r *mongoRestaurants) find(ctx context.Context, filter bson.M) ([]models.Restaurant, error) {
	cur, err := r.coll.Find(ctx, filter, createdAsc)
	if err != nil {
		return nil, errors.Wrap(err, "finding restaurants")
	}
	restaurants := []models.Restaurant{}
	if err := cur.All(ctx, &restaurants); err != nil {
		return nil, errors.Wrap(err, "decoding restaurants")
	}
	return restaurants, nil
}

// FindByIDWithCreator joins the creator in with a $lookup stage.
func (r *mongoRestaurants) FindByIDWithCreator(ctx context.Context, id string) (*models.RestaurantWithCreator, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.users,
			"localField":   "creator",
			"foreignField": "_id",
			"as":           "creator_user",
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrapf(err, "finding restaurant '%s'", id)
	}
	var rows []struct {
		models.Restaurant `bson:",inline"`
		CreatorUser       []models.User `bson:"creator_user"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "decoding restaurant '%s'", id)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "finding restaurant '%s'", id)
	}
	if len(rows[0].CreatorUser) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "finding creator of restaurant '%s'", id)
	}
	return &models.RestaurantWithCreator{
		Restaurant: rows[0].Restaurant,
		Creator:    rows[0].CreatorUser[0],
	}, nil
}

func (r *mongoRestaurants) Update(ctx context.Context, rest *models.Restaurant) error {
	rest.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": rest.ID}, bson.M{"$set": bson.M{
		"title":       rest.Title,
		"description": rest.Description,
		"updated_at":  rest.UpdatedAt,
	}})
	if err != nil {
		return errors.Wrapf(err, "updating restaurant '%s'", rest.ID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNotFound, "updating restaurant '%s'", rest.ID)
	}
	return nil
}

func (r *mongoRestaurants) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "deleting restaurant '%s'", id)
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNotFound, "deleting restaurant '%s'", id)
	}
	return nil
}
