package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"songservice/config"
	"songservice/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// SongsCollection 是唯一使用的集合名
const SongsCollection = "songs"

const connectTimeout = 10 * time.Second

// BuildMongoURI 根据环境配置拼接连接串。
// 用户名和密码同时存在时才带认证信息；MONGODB_PORT 只在 service 未带端口时追加。
func BuildMongoURI(cfg *config.Config) (string, error) {
	if cfg.MongoService == "" {
		return "", config.ErrMissingMongoService
	}

	host := cfg.MongoService
	if cfg.MongoPort != "" && !hasPort(host) {
		host = net.JoinHostPort(host, cfg.MongoPort)
	}

	u := url.URL{Scheme: "mongodb", Host: host, Path: "/"}
	if cfg.MongoUsername != "" && cfg.MongoPassword != "" {
		u.User = url.UserPassword(cfg.MongoUsername, cfg.MongoPassword)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// hasPort reports whether host already carries a port, or is a host list
// such as "a:27017,b:27017" that must be passed through untouched.
func hasPort(host string) bool {
	if strings.Contains(host, ",") {
		return true
	}
	_, _, err := net.SplitHostPort(host)
	return err == nil
}

// ConnectMongo 建立 MongoDB 连接并 ping 一次。
// ping 或认证失败只记录日志，连接对象仍然返回给调用方。
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	uri, err := BuildMongoURI(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Connecting to MongoDB", logger.String("url", redactURI(uri)))

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if isAuthError(err) {
			logger.Error("Authentication error", logger.ErrorField(err))
		} else {
			logger.Error("Failed to ping MongoDB", logger.ErrorField(err))
		}
		return client, nil
	}

	logger.Info("Successfully connected to MongoDB")
	return client, nil
}

// DisconnectMongo 关闭连接，带超时
func DisconnectMongo(client *mongo.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("Error during MongoDB disconnection", logger.ErrorField(err))
	}
}

// SongsCollectionFor returns the songs collection in the configured database.
func SongsCollectionFor(client *mongo.Client, cfg *config.Config) *mongo.Collection {
	return client.Database(cfg.MongoDatabase).Collection(SongsCollection)
}

func isAuthError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 18 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "auth")
}

func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "mongodb://<invalid>"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
