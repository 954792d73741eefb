package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"songservice/db"
	"songservice/logger"
	"songservice/model"
	"songservice/repository"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventPublisher 发布歌曲变更事件；发布失败不影响 HTTP 响应
type EventPublisher interface {
	Publish(ctx context.Context, event db.SongEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, db.SongEvent) error { return nil }

// SongHandler 处理 /song 相关的请求。
// repo 在进程生命周期内只有一个实例，所有请求共享。
type SongHandler struct {
	repo    repository.SongRepository
	events  EventPublisher
	timeout time.Duration
}

// NewSongHandler creates a handler. A nil publisher disables change events.
func NewSongHandler(repo repository.SongRepository, events EventPublisher, timeout time.Duration) *SongHandler {
	if events == nil {
		events = noopPublisher{}
	}
	return &SongHandler{repo: repo, events: events, timeout: timeout}
}

// NewRouter 注册所有路由并套上中间件
func NewRouter(h *SongHandler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/count", h.CountHandler).Methods(http.MethodGet)
	router.HandleFunc("/song", h.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/song", h.CreateSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/song/{id:[0-9]+}", h.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/song/{id:[0-9]+}", h.UpdateSongHandler).Methods(http.MethodPut)
	router.HandleFunc("/song/{id:[0-9]+}", h.DeleteSongHandler).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	return requestIDMiddleware(loggingMiddleware(corsMiddleware(router)))
}

func (h *SongHandler) dbContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *SongHandler) publish(ctx context.Context, eventType string, id interface{}) {
	if err := h.events.Publish(ctx, db.NewSongEvent(eventType, id)); err != nil {
		logger.Warn("Failed to publish song event",
			logger.String("type", eventType),
			logger.Any("id", id),
			logger.ErrorField(err),
		)
	}
}

// songIDFromPath 路由已限制为数字，超出 int64 范围时 ok 为 false
func songIDFromPath(r *http.Request) (int64, string, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, raw, err == nil
}

// HealthHandler 固定返回 OK，不检查依赖
func (h *SongHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// CountHandler 返回集合中的文档数
func (h *SongHandler) CountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.dbContext(r)
	defer cancel()

	count, err := h.repo.Count(ctx)
	if err != nil {
		logger.Error("Failed to count songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// ListSongsHandler 返回全部歌曲
func (h *SongHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.dbContext(r)
	defer cancel()

	songs, err := h.repo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to list songs", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	list := make([]interface{}, 0, len(songs))
	for _, song := range songs {
		plain, err := model.ToPlainJSON(song)
		if err != nil {
			logger.Error("Failed to serialize song", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		list = append(list, plain)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": list})
}

// GetSongHandler 根据 id 返回单首歌曲
func (h *SongHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id, raw, ok := songIDFromPath(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("song with id %s not found", raw))
		return
	}

	ctx, cancel := h.dbContext(r)
	defer cancel()

	song, err := h.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			writeMessage(w, http.StatusNotFound, fmt.Sprintf("song with id %d not found", id))
			return
		}
		logger.Error("Failed to get song", logger.Int64("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	plain, err := model.ToPlainJSON(song)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, plain)
}

func readSong(r *http.Request) (model.Song, error) {
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return model.DecodeSong(body)
}

// CreateSongHandler 创建歌曲。
// 查重和插入不是原子操作，并发创建相同 id 可能产生重复文档。
func (h *SongHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	song, err := readSong(r)
	if err != nil || len(song) == 0 {
		writeMessage(w, http.StatusBadRequest, "Wrong input data")
		return
	}

	id, ok := song.ID()
	if !ok {
		writeMessage(w, http.StatusBadRequest, "ID not in request")
		return
	}

	ctx, cancel := h.dbContext(r)
	defer cancel()

	existing, err := h.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		// 重复 id 返回 302，与既有客户端保持一致
		writeJSON(w, http.StatusFound, map[string]string{
			"Message": fmt.Sprintf("song with id %v already present", existing[model.IDField]),
		})
		return
	case !errors.Is(err, repository.ErrSongNotFound):
		logger.Error("Failed to check existing song", logger.Any("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	insertedID, err := h.repo.Insert(ctx, song)
	if err != nil {
		logger.Error("Failed to insert song", logger.Any("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("Song created", logger.Any("id", id), logger.String("insertedId", formatInsertedID(insertedID)))
	h.publish(ctx, db.EventCreated, id)
	writeJSON(w, http.StatusCreated, map[string]string{"inserted id": formatInsertedID(insertedID)})
}

func formatInsertedID(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

// UpdateSongHandler 用请求体字段 $set 合并到已有文档。
//
//	200 找到但没有字段变化
//	201 已更新，返回完整文档
//	404 不存在
func (h *SongHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	id, _, ok := songIDFromPath(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "song not found")
		return
	}

	fields, err := readSong(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Wrong input data")
		return
	}

	ctx, cancel := h.dbContext(r)
	defer cancel()

	updated, modified, err := h.repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			writeMessage(w, http.StatusNotFound, "song not found")
			return
		}
		logger.Error("Failed to update song", logger.Int64("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if !modified {
		writeMessage(w, http.StatusOK, "song found, but nothing updated")
		return
	}

	plain, err := model.ToPlainJSON(updated)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.publish(ctx, db.EventUpdated, id)
	writeJSON(w, http.StatusCreated, plain)
}

// DeleteSongHandler 删除歌曲，成功返回 204 空响应
func (h *SongHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	id, _, ok := songIDFromPath(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "song not found")
		return
	}

	ctx, cancel := h.dbContext(r)
	defer cancel()

	deleted, err := h.repo.Delete(ctx, id)
	if err != nil {
		logger.Error("Failed to delete song", logger.Int64("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if deleted == 0 {
		writeMessage(w, http.StatusNotFound, "song not found")
		return
	}

	h.publish(ctx, db.EventDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
