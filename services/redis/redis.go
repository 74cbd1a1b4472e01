package redis

import (
	redis_models "Staymates/models/redis"
	redis_utils "Staymates/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Live session documents expire on their own so abandoned groups do not
// accumulate in Redis.
const sessionTTL = 24 * time.Hour

const presenceTTL = 2 * time.Hour

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// SaveGroupSession stores a live group session document in Redis
// Key format: "group:{code}"
// TTL: 24 hours
func (rc *RedisClient) SaveGroupSession(session *redis_models.GroupSession) error {
	key := redis_utils.FormatGroupKey(session.Code)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error marshaling group session: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, sessionTTL).Err()
}

// GetGroupSession retrieves a live group session document from Redis
// Key format: "group:{code}"
// Returns (nil, nil) when the code is unknown
func (rc *RedisClient) GetGroupSession(code string) (*redis_models.GroupSession, error) {
	key := redis_utils.FormatGroupKey(code)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting group session: %v", err)
	}

	var session redis_models.GroupSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error unmarshaling group session: %v", err)
	}
	return &session, nil
}

// DeleteGroupSession removes a live group session document from Redis
// Key format: "group:{code}"
func (rc *RedisClient) DeleteGroupSession(code string) error {
	key := redis_utils.FormatGroupKey(code)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting group session: %v", err)
	}
	return nil
}

// SaveMemberPresence stores a member's connection state
// Key format: "presence:{username}"
func (rc *RedisClient) SaveMemberPresence(presence *redis_models.MemberPresence) error {
	key := redis_utils.FormatPresenceKey(presence.Username)
	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("error marshaling presence: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, presenceTTL).Err()
}

// GetMemberPresence retrieves a member's connection state
// Key format: "presence:{username}"
// Returns (nil, nil) when the user has no recorded presence
func (rc *RedisClient) GetMemberPresence(username string) (*redis_models.MemberPresence, error) {
	key := redis_utils.FormatPresenceKey(username)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting presence: %v", err)
	}

	var presence redis_models.MemberPresence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("error unmarshaling presence: %v", err)
	}
	return &presence, nil
}

// DeleteMemberPresence removes a member's connection state
// Key format: "presence:{username}"
func (rc *RedisClient) DeleteMemberPresence(username string) error {
	key := redis_utils.FormatPresenceKey(username)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting presence: %v", err)
	}
	return nil
}
