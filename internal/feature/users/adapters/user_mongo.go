package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"task_backend/internal/feature/users/domain/entity"
	"task_backend/internal/feature/users/usecase"
)

// UsersCollection is the name of the users collection.
const UsersCollection = "users"

// userDocument is the stored shape of a user. Tokens are embedded.
type userDocument struct {
	ID        string          `bson:"_id"`
	Name      string          `bson:"name"`
	Email     string          `bson:"email"`
	Age       int             `bson:"age"`
	Password  string          `bson:"password"`
	Tokens    []tokenDocument `bson:"tokens"`
	Avatar    []byte          `bson:"avatar,omitempty"`
	CreatedAt time.Time       `bson:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

type tokenDocument struct {
	Token string `bson:"token"`
}

func (d *userDocument) toEntity() *entity.User {
	tokens := make([]string, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		tokens = append(tokens, t.Token)
	}
	return &entity.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Age:       d.Age,
		Password:  d.Password,
		Tokens:    tokens,
		Avatar:    d.Avatar,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func userDocumentFromEntity(u *entity.User) *userDocument {
	d := &userDocument{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Password:  u.Password,
		Tokens:    make([]tokenDocument, 0, len(u.Tokens)),
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	for _, t := range u.Tokens {
		d.Tokens = append(d.Tokens, tokenDocument{Token: t})
	}
	return d
}

// profileUpdate builds the $set/$unset document written by Update.
func profileUpdate(u *entity.User, now time.Time) bson.D {
	set := bson.D{
		{Key: "name", Value: u.Name},
		{Key: "email", Value: u.Email},
		{Key: "age", Value: u.Age},
		{Key: "password", Value: u.Password},
		{Key: "updatedAt", Value: now},
	}
	if len(u.Avatar) > 0 {
		set = append(set, bson.E{Key: "avatar", Value: u.Avatar})
		return bson.D{{Key: "$set", Value: set}}
	}
	return bson.D{
		{Key: "$set", Value: set},
		{Key: "$unset", Value: bson.D{{Key: "avatar", Value: ""}}},
	}
}

// userMongo is the document-store implementation of UserRepository.
type userMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Compile-time check to ensure userMongo implements UserRepository.
var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo creates a new instance of userMongo on the users collection of database.
func NewUserMongo(database *mongo.Database) *userMongo {
	return &userMongo{coll: database.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index.
func (r *userMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, userDocumentFromEntity(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userMongo) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var d userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return d.toEntity(), nil
}

func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *userMongo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userMongo) FindByToken(ctx context.Context, id, token string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "tokens.token", Value: token}})
}

func (r *userMongo) Update(ctx context.Context, u *entity.User) error {
	now := r.now().UTC()
	res, err := r.coll.UpdateByID(ctx, u.ID, profileUpdate(u, now))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}
	u.UpdatedAt = now
	return nil
}

func (r *userMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userMongo) updateTokens(ctx context.Context, id string, update bson.D) error {
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userMongo) AddToken(ctx context.Context, id, token string) error {
	return r.updateTokens(ctx, id, bson.D{
		{Key: "$push", Value: bson.D{{Key: "tokens", Value: tokenDocument{Token: token}}}},
	})
}

func (r *userMongo) RemoveToken(ctx context.Context, id, token string) error {
	return r.updateTokens(ctx, id, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "tokens", Value: bson.D{{Key: "token", Value: token}}}}},
	})
}

func (r *userMongo) ClearTokens(ctx context.Context, id string) error {
	return r.updateTokens(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{{Key: "tokens", Value: bson.A{}}}},
	})
}
