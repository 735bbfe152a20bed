package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"snowwatch/internal/config"
	"snowwatch/internal/logging"
	"snowwatch/internal/notify"
)

const consumerGroup = "snowwatch_alerts"

// alerts reads the notification stream and prints each alert. It stands in
// for a desktop agent showing the notifications.
func main() {
	consumerName := flag.String("consumer", "", "consumer name within the group (default: hostname)")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.Must(*debug)
	defer logger.Sync()

	redisCfg, err := config.GetRedisConfig()
	if err != nil {
		logger.Fatalf("Failed to read redis settings: %v", err)
	}

	if *consumerName == "" {
		*consumerName, _ = os.Hostname()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MKSTREAM so the group can be created before the first alert is sent
	err = redisClient.XGroupCreateMkStream(ctx, redisCfg.Stream, consumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		logger.Fatalf("Failed to create consumer group: %v", err)
	}

	logger.Infow("Reading snow alerts", "stream", redisCfg.Stream, "group", consumerGroup, "consumer", *consumerName)

	for ctx.Err() == nil {
		streams, err := redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: *consumerName,
			Streams:  []string{redisCfg.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if ctx.Err() != nil {
			break
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Warnw("Error reading from Redis", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, m := range stream.Messages {
				handleMessage(logger, m)
				// undecodable entries are acked too, they will never decode
				if err := redisClient.XAck(context.Background(), redisCfg.Stream, consumerGroup, m.ID).Err(); err != nil {
					logger.Warnw("Failed to ack alert", "id", m.ID, "error", err)
				}
			}
		}
	}

	logger.Info("Alert consumer stopped")
}

func handleMessage(logger *zap.SugaredLogger, m redis.XMessage) {
	msg, err := decodeMessage(m.Values)
	if err != nil {
		logger.Warnw("Failed to decode alert", "id", m.ID, "error", err)
		return
	}

	fmt.Println(formatAlert(msg))
	logger.Debugw("Alert shown", "id", m.ID, "sent_at", msg.SentAt)
}

func decodeMessage(values map[string]interface{}) (notify.StreamMessage, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return notify.StreamMessage{}, errors.New("message has no data field")
	}

	var msg notify.StreamMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return notify.StreamMessage{}, fmt.Errorf("failed to unmarshal alert: %w", err)
	}
	return msg, nil
}

func formatAlert(msg notify.StreamMessage) string {
	n := msg.Notification
	return fmt.Sprintf("[%s] %s | %s | %s", msg.SentAt.Local().Format("Jan 2 15:04"), n.Title, n.Subtitle, n.Body)
}
