// cmd/historian/main.go is an asynchronous historian service that pops lobby
// action records from a Redis queue and persists them to MongoDB.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/moe-a1/MindDigits/internal/cache"
	"github.com/moe-a1/MindDigits/internal/database"
)

// HistorianService encapsulates the Redis + DB logic for capturing lobby
// actions in batches.
type HistorianService struct {
	redisClient *redis.Client
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []cache.LobbyActionRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService instance from environment variables or defaults.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]cache.LobbyActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the queue consumer loop.
func (hs *HistorianService) Run() {
	database.ConnectDB()

	go hs.readRedisLoop()

	log.Println("minddigits-historian service started.")
	<-hs.ctx.Done()
	log.Println("minddigits-historian shutting down.")
}

// readRedisLoop continuously uses BLPop to retrieve messages from the Redis
// queue, accumulating them in a batch that is flushed on size or on a timer.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	queueName := getEnv("HISTORY_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-hs.ctx.Done():
			hs.flushBatch()
			return

		case <-ticker.C:
			hs.flushBatch()

		default:
			// Use BLPop with a 3-second timeout so that context cancellation is handled.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, queueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
					log.Printf("[ERROR] BLPop: %v\n", err)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.LobbyActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Printf("invalid action record: %v\n", err)
				continue
			}
			hs.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the threshold is reached.
func (hs *HistorianService) appendToBatch(record cache.LobbyActionRecord) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, record)
	if len(hs.batch) >= hs.batchSize {
		hs.flushBatchLocked()
	}
}

// flushBatch writes any pending records out.
func (hs *HistorianService) flushBatch() {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushBatchLocked()
}

// flushBatchLocked inserts the batch into the lobby_actions collection.
// Caller holds batchMu.
func (hs *HistorianService) flushBatchLocked() {
	if len(hs.batch) == 0 {
		return
	}

	docs := make([]interface{}, len(hs.batch))
	for i, rec := range hs.batch {
		docs[i] = rec
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := database.DB.Collection("lobby_actions").InsertMany(ctx, docs); err != nil {
		log.Printf("[ERROR] insert %d action records: %v\n", len(docs), err)
		return
	}
	hs.batch = hs.batch[:0]
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func main() {
	hs := NewHistorianService()
	hs.Run()
}
