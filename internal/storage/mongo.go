package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
	"github.com/nikmy/roombook/pkg/mongotools"
)

type MongoConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`

	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`

	Auth struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
}

func newMongoStore(ctx context.Context, cfg MongoConfig, log logger.Logger) (*mongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetTimeout(cfg.Timeout)

	if cfg.Auth.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.WrapFail(err, "connect to mongo db")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "resources"
	}

	return &mongoStore{
		coll: client.Database(cfg.Database).Collection(collection),
		log:  log.With("mongo_store"),
	}, nil
}

type mongoStore struct {
	coll *mongo.Collection
	log  logger.Logger
}

// resourceDoc is one resource with its confirmed bookings in index order.
type resourceDoc struct {
	Key      string       `bson:"_id"`
	Bookings []bookingDoc `bson:"bookings"`
}

type bookingDoc struct {
	ID        string    `bson:"id"`
	Requester string    `bson:"requester"`
	Start     int64     `bson:"start"`
	End       int64     `bson:"end"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDoc(snap ledger.ResourceSnapshot) resourceDoc {
	doc := resourceDoc{
		Key:      snap.Key,
		Bookings: make([]bookingDoc, 0, len(snap.Bookings)),
	}

	for _, b := range snap.Bookings {
		doc.Bookings = append(doc.Bookings, bookingDoc{
			ID:        b.ID,
			Requester: b.Requester,
			Start:     b.Interval.Start(),
			End:       b.Interval.End(),
			CreatedAt: b.CreatedAt,
		})
	}
	return doc
}

func fromDoc(doc resourceDoc) (ledger.ResourceSnapshot, error) {
	snap := ledger.ResourceSnapshot{
		Key:      doc.Key,
		Bookings: make([]ledger.Booking, 0, len(doc.Bookings)),
	}

	for _, b := range doc.Bookings {
		i, err := interval.New(b.Start, b.End)
		if err != nil {
			return ledger.ResourceSnapshot{}, errors.Wrapf(errors.Join(ledger.ErrCorruptData, err), "booking %s", b.ID)
		}

		snap.Bookings = append(snap.Bookings, ledger.Booking{
			ID:        b.ID,
			Resource:  doc.Key,
			Requester: b.Requester,
			Interval:  i,
			Status:    ledger.StatusConfirmed,
			CreatedAt: b.CreatedAt,
		})
	}
	return snap, nil
}

func (m *mongoStore) Save(ctx context.Context, snapshots []ledger.ResourceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(snapshots))
	for _, snap := range snapshots {
		models = append(models, mongotools.UpsertByID(snap.Key, toDoc(snap)))
	}

	result, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return errors.WrapFail(err, "bulk write resources")
	}

	m.log.Debugf("saved resources: %d upserted, %d modified", result.UpsertedCount, result.ModifiedCount)
	return nil
}

func (m *mongoStore) Load(ctx context.Context) ([]ledger.ResourceSnapshot, error) {
	cur, err := m.coll.Find(ctx, mongotools.All(), mongotools.SortByID())
	if err != nil {
		return nil, errors.WrapFail(err, "find resources")
	}

	snapshots, err := mongotools.DecodeAll(ctx, cur, fromDoc)
	if err != nil {
		return nil, errors.WrapFail(err, "load resources")
	}
	return snapshots, nil
}

func (m *mongoStore) Close(ctx context.Context) error {
	err := m.coll.Database().Client().Disconnect(ctx)
	return errors.WrapFail(err, "close mongo db connection")
}
