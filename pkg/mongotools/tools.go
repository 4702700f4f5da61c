package mongotools

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikmy/roombook/pkg/errors"
)

func All() bson.D {
	return bson.D{}
}

func FilterByID(id string) bson.M {
	return bson.M{"_id": id}
}

func SortByID() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

// UpsertByID replaces the document with the given id or inserts it.
func UpsertByID(id string, doc any) mongo.WriteModel {
	return mongo.NewReplaceOneModel().
		SetFilter(FilterByID(id)).
		SetReplacement(doc).
		SetUpsert(true)
}

// DecodeAll drains the cursor, converting every document with convert.
// The cursor is closed in any case.
func DecodeAll[T, R any](ctx context.Context, c *mongo.Cursor, convert func(T) (R, error)) ([]R, error) {
	defer c.Close(ctx)

	var out []R
	for c.Next(ctx) {
		var item T
		err := c.Decode(&item)
		if err != nil {
			return nil, errors.WrapFail(err, "decode item")
		}

		converted, err := convert(item)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}

	return out, errors.WrapFail(c.Err(), "iterate cursor")
}
