package main

import "github.com/redis/go-redis/v9"

// newRedisClient parses a redis:// URL into a go-redis client for the
// pipeline controller's optional cross-process distributed lock.
func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
