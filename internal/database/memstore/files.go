package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/GoArmGo/BlogApp/internal/core/ports"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
)

// Object хранит файл в памяти.
type Object struct {
	Data        []byte
	ContentType string
}

// Files реализует FileStorage в памяти.
type Files struct {
	mu      sync.Mutex
	objects map[string]Object
	// FailUpload, если задан, возвращается из UploadFile.
	FailUpload error
}

var _ ports.FileStorage = (*Files)(nil)

func NewFiles() *Files {
	return &Files{objects: make(map[string]Object)}
}

func (f *Files) UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if f.FailUpload != nil {
		return "", f.FailUpload
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("memstore: read upload %q: %w", key, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = Object{Data: data, ContentType: contentType}
	return key, nil
}

func (f *Files) GetFile(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("memstore: object %q: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

func (f *Files) DeleteFile(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// Get возвращает объект по ключу.
func (f *Files) Get(key string) (Object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

// Len возвращает число сохранённых объектов.
func (f *Files) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// Queue запоминает опубликованные задачи очистки картинок.
type Queue struct {
	mu        sync.Mutex
	published []payloads.ImageCleanupPayload
	// FailPublish, если задан, возвращается из PublishImageCleanup.
	FailPublish error
}

var _ ports.ImageCleanupPublisher = (*Queue)(nil)

func (q *Queue) PublishImageCleanup(ctx context.Context, payload payloads.ImageCleanupPayload) error {
	if q.FailPublish != nil {
		return q.FailPublish
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, payload)
	return nil
}

// Published возвращает копию опубликованных задач.
func (q *Queue) Published() []payloads.ImageCleanupPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]payloads.ImageCleanupPayload, len(q.published))
	copy(out, q.published)
	return out
}
