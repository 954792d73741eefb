package repository

import (
	"context"
	"errors"
	"testing"

	"songservice/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "songs.songs"

func songDoc(oid primitive.ObjectID, id int64, title string) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "id", Value: id},
		{Key: "title", Value: title},
	}
}

func TestMongoSongRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("Count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		count, err := NewMongoSongRepository(mt.Coll).Count(ctx)
		if err != nil {
			mt.Fatalf("Count returned error: %v", err)
		}
		if count != 3 {
			mt.Errorf("expected count 3, got %d", count)
		}
	})

	mt.Run("FindAll", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			songDoc(primitive.NewObjectID(), 1, "a"),
			songDoc(primitive.NewObjectID(), 2, "b"),
		))

		songs, err := NewMongoSongRepository(mt.Coll).FindAll(ctx)
		if err != nil {
			mt.Fatalf("FindAll returned error: %v", err)
		}
		if len(songs) != 2 {
			mt.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if songs[1]["title"] != "b" {
			mt.Errorf("expected second title b, got %v", songs[1]["title"])
		}
	})

	mt.Run("FindAll empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		songs, err := NewMongoSongRepository(mt.Coll).FindAll(ctx)
		if err != nil {
			mt.Fatalf("FindAll returned error: %v", err)
		}
		if songs == nil || len(songs) != 0 {
			mt.Errorf("expected empty non-nil slice, got %#v", songs)
		}
	})

	mt.Run("FindAll error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		if _, err := NewMongoSongRepository(mt.Coll).FindAll(ctx); err == nil {
			mt.Fatal("expected an error")
		}
	})

	mt.Run("FindByID", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, songDoc(oid, 7, "seven")))

		song, err := NewMongoSongRepository(mt.Coll).FindByID(ctx, 7)
		if err != nil {
			mt.Fatalf("FindByID returned error: %v", err)
		}
		if song["_id"] != oid {
			mt.Errorf("expected _id %v, got %v", oid, song["_id"])
		}
		if song["title"] != "seven" {
			mt.Errorf("expected title seven, got %v", song["title"])
		}
	})

	mt.Run("FindByID not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewMongoSongRepository(mt.Coll).FindByID(ctx, 404)
		if !errors.Is(err, ErrSongNotFound) {
			mt.Fatalf("expected ErrSongNotFound, got %v", err)
		}
	})

	mt.Run("Insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		insertedID, err := NewMongoSongRepository(mt.Coll).Insert(ctx, model.Song{"id": int64(999), "title": "X"})
		if err != nil {
			mt.Fatalf("Insert returned error: %v", err)
		}
		if _, ok := insertedID.(primitive.ObjectID); !ok {
			mt.Errorf("expected generated ObjectID, got %#v", insertedID)
		}
	})

	mt.Run("Update modified", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, songDoc(oid, 1, "old")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, songDoc(oid, 1, "new")),
		)

		updated, modified, err := NewMongoSongRepository(mt.Coll).Update(ctx, 1, model.Song{"title": "new"})
		if err != nil {
			mt.Fatalf("Update returned error: %v", err)
		}
		if !modified {
			mt.Error("expected modified to be true")
		}
		if updated["title"] != "new" {
			mt.Errorf("expected updated title new, got %v", updated["title"])
		}
	})

	mt.Run("Update nothing modified", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, songDoc(oid, 1, "same")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
		)

		_, modified, err := NewMongoSongRepository(mt.Coll).Update(ctx, 1, model.Song{"title": "same"})
		if err != nil {
			mt.Fatalf("Update returned error: %v", err)
		}
		if modified {
			mt.Error("expected modified to be false")
		}
	})

	mt.Run("Update not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, _, err := NewMongoSongRepository(mt.Coll).Update(ctx, 5, model.Song{"title": "x"})
		if !errors.Is(err, ErrSongNotFound) {
			mt.Fatalf("expected ErrSongNotFound, got %v", err)
		}
	})

	mt.Run("Delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		deleted, err := NewMongoSongRepository(mt.Coll).Delete(ctx, 1)
		if err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
		if deleted != 1 {
			mt.Errorf("expected 1 deleted, got %d", deleted)
		}
	})

	mt.Run("Delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		deleted, err := NewMongoSongRepository(mt.Coll).Delete(ctx, 1)
		if err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
		if deleted != 0 {
			mt.Errorf("expected 0 deleted, got %d", deleted)
		}
	})

	mt.Run("Reset", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // drop
			mtest.CreateSuccessResponse(), // insertMany
		)

		seed := []model.Song{{"id": int64(1)}, {"id": int64(2)}}
		if err := NewMongoSongRepository(mt.Coll).Reset(ctx, seed); err != nil {
			mt.Fatalf("Reset returned error: %v", err)
		}
	})

	mt.Run("Reset drop failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 18, Name: "AuthenticationFailed", Message: "auth failed"}))

		if err := NewMongoSongRepository(mt.Coll).Reset(ctx, []model.Song{{"id": int64(1)}}); err == nil {
			mt.Fatal("expected Reset to fail when drop fails")
		}
	})
}
