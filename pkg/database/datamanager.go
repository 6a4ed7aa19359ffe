package database

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/appcommands/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
	Timeout      time.Duration
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{
		MaxCacheSize: 1000,
		Timeout:      5 * time.Second,
	}
}

// CacheManager is an LRU cache of decoded documents
type CacheManager struct {
	cache     map[string]*list.Element
	cacheList *list.List
	mu        sync.Mutex
}

type cacheEntry struct {
	key   string
	value any
}

// NewCacheManager creates an empty cache
func NewCacheManager() *CacheManager {
	return &CacheManager{
		cache:     make(map[string]*list.Element),
		cacheList: list.New(),
	}
}

// globalCacheManager is shared across all DataManager instances
var globalCacheManager = NewCacheManager()

func (c *CacheManager) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	c.cacheList.MoveToFront(elem)
	return elem.Value.(*cacheEntry).value, true
}

// put stores value under key and evicts the least recently used entries past limit.
func (c *CacheManager) put(key string, value any, limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		elem.Value = &cacheEntry{key: key, value: value}
		c.cacheList.MoveToFront(elem)
		return
	}
	c.cache[key] = c.cacheList.PushFront(&cacheEntry{key: key, value: value})

	for limit > 0 && c.cacheList.Len() > limit {
		oldest := c.cacheList.Back()
		delete(c.cache, oldest.Value.(*cacheEntry).key)
		c.cacheList.Remove(oldest)
	}
}

func (c *CacheManager) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.cacheList.Remove(elem)
		delete(c.cache, key)
	}
}

// removePrefix drops every key starting with prefix
func (c *CacheManager) removePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, elem := range c.cache {
		if strings.HasPrefix(key, prefix) {
			c.cacheList.Remove(elem)
			delete(c.cache, key)
		}
	}
}

// Len returns the number of cached documents
func (c *CacheManager) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheList.Len()
}

// DataManager provides cached access to a MongoDB collection. Writes made while
// the database is offline are queued and replayed on reconnect.
type DataManager[T any] struct {
	collectionName string
	dbInstance     *Database
	cache          *CacheManager
	options        DataManagerOptions
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}

	return &DataManager[T]{
		collectionName: collectionName,
		dbInstance:     db,
		cache:          globalCacheManager,
		options:        dmOptions,
	}
}

func (dm *DataManager[T]) collection() *mongo.Collection {
	if dm.dbInstance == nil || !dm.dbInstance.Connected() {
		return nil
	}
	return dm.dbInstance.GetCollection(dm.collectionName)
}

// generateCacheKey creates a deterministic key from a query; keys are sorted so
// map iteration order does not matter.
func (dm *DataManager[T]) generateCacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}

	return fmt.Sprintf("%s:{%s}", dm.collectionName, strings.Join(parts, ","))
}

// Get retrieves a document from cache or database. A missing document is nil
// without error.
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	cacheKey := dm.generateCacheKey(query)
	if value, ok := dm.cache.get(cacheKey); ok {
		return value.(*T), nil
	}

	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, dm.options.Timeout)
	defer cancel()

	var result T
	if err := col.FindOne(ctx, query).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s): %v", dm.collectionName, err), "DataManager")
		return nil, err
	}

	dm.cache.put(cacheKey, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// GetAll retrieves all documents matching a query from the database
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]*T, error) {
	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 2*dm.options.Timeout)
	defer cancel()

	cursor, err := col.Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		results = append(results, &doc)
	}

	return results, cursor.Err()
}

// Set upserts data into the document matched by query. Offline, the write is
// queued and Set returns nil, nil.
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, data any) (*T, error) {
	cacheKey := dm.generateCacheKey(query)
	op := QueuedOperation{
		CollectionName: dm.collectionName,
		Query:          query,
		Operation:      OpSet,
		Data:           data,
	}

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura para '%s'", dm.collectionName), "DataManager")
		dm.cache.remove(cacheKey)
		dm.dbInstance.AddToWriteQueue(op)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dm.options.Timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	if err := col.FindOneAndUpdate(ctx, query, bson.M{"$set": data}, opts).Decode(&result); err != nil {
		logger.Error("Error en 'set' con DB conectada. Encolando por seguridad.", "DataManager")
		dm.cache.remove(cacheKey)
		dm.dbInstance.AddToWriteQueue(op)
		return nil, err
	}

	dm.cache.put(cacheKey, &result, dm.options.MaxCacheSize)
	return &result, nil
}

// Delete removes a document from the database and cache
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	dm.cache.remove(dm.generateCacheKey(query))
	op := QueuedOperation{
		CollectionName: dm.collectionName,
		Query:          query,
		Operation:      OpDelete,
	}

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando eliminación para '%s'", dm.collectionName), "DataManager")
		dm.dbInstance.AddToWriteQueue(op)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dm.options.Timeout)
	defer cancel()

	if _, err := col.DeleteOne(ctx, query); err != nil {
		logger.Error("Error en 'delete' con DB conectada. Encolando por seguridad.", "DataManager")
		dm.dbInstance.AddToWriteQueue(op)
		return err
	}
	return nil
}

// DeleteMany removes every document matching query. It is not queued offline.
func (dm *DataManager[T]) DeleteMany(ctx context.Context, query bson.M) (int64, error) {
	col := dm.collection()
	if col == nil {
		return 0, ErrNotConnected
	}
	dm.cache.removePrefix(dm.collectionName + ":")

	ctx, cancel := context.WithTimeout(ctx, dm.options.Timeout)
	defer cancel()

	res, err := col.DeleteMany(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ClearCache drops the cached documents of this collection
func (dm *DataManager[T]) ClearCache() {
	dm.cache.removePrefix(dm.collectionName + ":")
}
