package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/feature/tasks/usecase"
)

// TasksCollection is the name of the tasks collection.
const TasksCollection = "tasks"

type taskDocument struct {
	ID          string    `bson:"_id"`
	Description string    `bson:"description"`
	Completed   bool      `bson:"completed"`
	Owner       string    `bson:"owner"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d *taskDocument) toEntity() *entity.Task {
	return &entity.Task{
		ID:          d.ID,
		Description: d.Description,
		Completed:   d.Completed,
		Owner:       d.Owner,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func taskDocumentFromEntity(t *entity.Task) *taskDocument {
	return &taskDocument{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.Owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ownedBy matches one task of one owner.
func ownedBy(owner, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner", Value: owner}}
}

// listFilter builds the filter of a list query.
func listFilter(owner string, q entity.ListQuery) bson.D {
	filter := bson.D{{Key: "owner", Value: owner}}
	if q.Completed != nil {
		filter = append(filter, bson.E{Key: "completed", Value: *q.Completed})
	}
	return filter
}

// listSort builds the sort document of a list query. Document field names
// match the SortField values.
func listSort(q entity.ListQuery) bson.D {
	field := q.Sort
	if field == "" {
		field = entity.SortCreatedAt
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	return bson.D{{Key: string(field), Value: dir}, {Key: "_id", Value: 1}}
}

// taskMongo is the document-store implementation of TaskRepository.
type taskMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Compile-time check to ensure taskMongo implements TaskRepository.
var _ usecase.TaskRepository = (*taskMongo)(nil)

// NewTaskMongo creates a new instance of taskMongo on the tasks collection of database.
func NewTaskMongo(database *mongo.Database) *taskMongo {
	return &taskMongo{coll: database.Collection(TasksCollection), now: time.Now}
}

// EnsureIndexes creates the owner index used by every query.
func (r *taskMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (r *taskMongo) Create(ctx context.Context, t *entity.Task) error {
	if t == nil {
		return errors.New("task is nil")
	}
	now := r.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, taskDocumentFromEntity(t))
	return err
}

func (r *taskMongo) FindByID(ctx context.Context, owner, id string) (*entity.Task, error) {
	var d taskDocument
	if err := r.coll.FindOne(ctx, ownedBy(owner, id)).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrTaskNotFound
		}
		return nil, err
	}
	return d.toEntity(), nil
}

func (r *taskMongo) List(ctx context.Context, owner string, q entity.ListQuery) ([]entity.Task, error) {
	opts := options.Find().SetSort(listSort(q))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}

	cursor, err := r.coll.Find(ctx, listFilter(owner, q), opts)
	if err != nil {
		return nil, err
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]entity.Task, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toEntity())
	}
	return out, nil
}

func (r *taskMongo) Update(ctx context.Context, t *entity.Task) error {
	now := r.now().UTC()
	res, err := r.coll.UpdateOne(ctx, ownedBy(t.Owner, t.ID), bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "description", Value: t.Description},
			{Key: "completed", Value: t.Completed},
			{Key: "updatedAt", Value: now},
		}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrTaskNotFound
	}
	t.UpdatedAt = now
	return nil
}

func (r *taskMongo) Delete(ctx context.Context, owner, id string) (*entity.Task, error) {
	var d taskDocument
	if err := r.coll.FindOneAndDelete(ctx, ownedBy(owner, id)).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrTaskNotFound
		}
		return nil, err
	}
	return d.toEntity(), nil
}

func (r *taskMongo) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "owner", Value: owner}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
