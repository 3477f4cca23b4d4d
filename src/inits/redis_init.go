package inits

import (
	"log"

	"github.com/redis/go-redis/v9"
)

func CreateRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Print(err)
		return nil, err
	}

	return redis.NewClient(opts), nil
}
