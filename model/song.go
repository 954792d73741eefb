package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// IDField 是客户端提供的歌曲编号字段名，区别于数据库生成的 _id
const IDField = "id"

// ErrNotObject is returned when a payload is valid JSON but not a JSON object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Song 表示 songs 集合中的一条文档。
// 除 id 外的字段均由客户端决定，不做任何结构校验。
type Song map[string]interface{}

// ID 返回歌曲的客户端编号
func (s Song) ID() (interface{}, bool) {
	id, ok := s[IDField]
	return id, ok
}

// DecodeSong 将请求体解析为单个歌曲文档
func DecodeSong(data []byte) (Song, error) {
	var raw interface{}
	if err := decodeNumbers(data, &raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}
	return Song(normalize(obj).(map[string]interface{})), nil
}

// DecodeSongs parses a JSON array of song documents, as found in the seed file.
func DecodeSongs(data []byte) ([]Song, error) {
	var raw []interface{}
	if err := decodeNumbers(data, &raw); err != nil {
		return nil, err
	}

	songs := make([]Song, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("seed entry %d: %w", i, ErrNotObject)
		}
		songs = append(songs, Song(normalize(obj).(map[string]interface{})))
	}
	return songs, nil
}

// ToPlainJSON converts a stored document into a value that encoding/json can
// emit directly. BSON-specific types such as ObjectID and DateTime are
// rendered in relaxed Extended JSON, e.g. {"$oid": "..."}.
func ToPlainJSON(doc interface{}) (interface{}, error) {
	ext, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document to extended json: %w", err)
	}

	var plain interface{}
	if err := decodeNumbers(ext, &plain); err != nil {
		return nil, fmt.Errorf("failed to decode extended json: %w", err)
	}
	return plain, nil
}

func decodeNumbers(data []byte, dest interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(dest)
}

// normalize 把 json.Number 转成 int64 或 float64，便于按整数 id 查询
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}
