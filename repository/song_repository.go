package repository

import (
	"context"
	"errors"
	"fmt"

	"songservice/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSongNotFound is returned when no document carries the requested id.
var ErrSongNotFound = errors.New("song not found")

// SongRepository 定义歌曲集合的数据库操作接口。
// 每个方法对应一次（或一组紧邻的）数据库调用，不做额外业务处理。
type SongRepository interface {
	// Count 返回集合中的文档数量
	Count(ctx context.Context) (int64, error)

	// FindAll 返回全部文档
	FindAll(ctx context.Context) ([]model.Song, error)

	// FindByID 根据客户端 id 查找第一条匹配的文档。
	// id 可以是任意类型，创建接口用请求体里的原始值查重
	FindByID(ctx context.Context, id interface{}) (model.Song, error)

	// Insert 插入文档并返回数据库生成的 _id
	Insert(ctx context.Context, song model.Song) (interface{}, error)

	// Update 以 $set 方式合并字段；modified 为 false 表示没有字段发生变化
	Update(ctx context.Context, id int64, fields model.Song) (updated model.Song, modified bool, err error)

	// Delete 删除匹配 id 的第一条文档，返回删除数量
	Delete(ctx context.Context, id int64) (int64, error)

	// Reset 删除集合并批量写入种子数据
	Reset(ctx context.Context, seed []model.Song) error
}

// MongoSongRepository MongoDB实现的歌曲仓库
type MongoSongRepository struct {
	coll *mongo.Collection
}

// NewMongoSongRepository 创建新的MongoDB歌曲仓库实例
func NewMongoSongRepository(coll *mongo.Collection) *MongoSongRepository {
	return &MongoSongRepository{coll: coll}
}

func byID(id interface{}) bson.M {
	return bson.M{model.IDField: id}
}

// Count 返回集合中的文档数量
func (r *MongoSongRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

// FindAll 返回全部文档
func (r *MongoSongRepository) FindAll(ctx context.Context) ([]model.Song, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find songs: %w", err)
	}
	defer cursor.Close(ctx)

	songs := make([]model.Song, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode song document: %w", err)
		}
		songs = append(songs, model.Song(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error while iterating songs cursor: %w", err)
	}
	return songs, nil
}

// FindByID 根据客户端 id 查找文档
func (r *MongoSongRepository) FindByID(ctx context.Context, id interface{}) (model.Song, error) {
	return r.findOne(ctx, byID(id))
}

func (r *MongoSongRepository) findOne(ctx context.Context, filter bson.M) (model.Song, error) {
	var doc bson.M
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("failed to find song: %w", err)
	}
	return model.Song(doc), nil
}

// Insert 插入文档
func (r *MongoSongRepository) Insert(ctx context.Context, song model.Song) (interface{}, error) {
	result, err := r.coll.InsertOne(ctx, song)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}
	return result.InsertedID, nil
}

// Update 查找文档后以 $set 合并字段，再按 _id 重新读取更新后的文档
func (r *MongoSongRepository) Update(ctx context.Context, id int64, fields model.Song) (model.Song, bool, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return existing, false, nil
	}

	filter := bson.M{"_id": existing["_id"]}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return nil, false, fmt.Errorf("failed to update song: %w", err)
	}
	if result.ModifiedCount == 0 {
		return existing, false, nil
	}

	// 请求体里可能改了 id，所以按 _id 取回
	updated, err := r.findOne(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// Delete 删除匹配 id 的文档
func (r *MongoSongRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete song: %w", err)
	}
	return result.DeletedCount, nil
}

// Reset 删除集合并写入种子数据
func (r *MongoSongRepository) Reset(ctx context.Context, seed []model.Song) error {
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop songs collection: %w", err)
	}
	if len(seed) == 0 {
		return nil
	}

	docs := make([]interface{}, len(seed))
	for i, song := range seed {
		docs[i] = song
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert seed songs: %w", err)
	}
	return nil
}
