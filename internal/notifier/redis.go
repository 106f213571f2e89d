package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/metrics"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"

	maxTries = 3
)

type Job struct {
	MemberID int               `json:"member_id"`
	Kind     string            `json:"kind"`
	Payload  map[string]string `json:"payload"`
	Tries    int               `json:"tries"`
	Created  time.Time         `json:"created"`
}

// Sink performs the actual delivery of one notification. The default
// sink only logs: wiring a real channel (email, SMS, push) is a
// deployment concern, not ours.
type Sink func(ctx context.Context, job Job) error

// RedisNotifier queues notifications on a Redis list and drains them
// with a background worker, retrying failed deliveries a few times
// before parking them on a failed list for inspection.
type RedisNotifier struct {
	redis *redis.Client
	sink  Sink
}

func NewRedis(client *redis.Client, sink Sink) *RedisNotifier {
	if sink == nil {
		sink = logSink
	}
	return &RedisNotifier{redis: client, sink: sink}
}

func logSink(ctx context.Context, job Job) error {
	logger.Infof("Delivering %s notification to member %d", job.Kind, job.MemberID)
	return nil
}

func (n *RedisNotifier) Notify(ctx context.Context, memberID int, kind string, payload map[string]string) error {
	job := Job{
		MemberID: memberID,
		Kind:     kind,
		Payload:  payload,
		Created:  time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := n.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordNotification(kind, "queue_failed")
		logger.Errorf("Failed to queue %s notification for member %d: %v", kind, memberID, err)
		return err
	}

	metrics.RecordNotification(kind, "queued")
	logger.Infof("Notification queued: %s for member %d", kind, memberID)
	return nil
}

func (n *RedisNotifier) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return
		default:
			n.processNext(ctx)
		}
	}
}

func (n *RedisNotifier) processNext(ctx context.Context) {
	result, err := n.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	if err := n.sink(ctx, job); err != nil {
		logger.Errorf("Failed to deliver %s notification to member %d: %v", job.Kind, job.MemberID, err)

		if job.Tries < maxTries {
			data, _ := json.Marshal(job)
			n.redis.LPush(context.Background(), queueKey, data)
			return
		}

		metrics.RecordNotification(job.Kind, "failed")
		data, _ := json.Marshal(job)
		n.redis.LPush(context.Background(), failedKey, data)
		logger.Errorf("Notification for member %d dropped after %d attempts", job.MemberID, job.Tries)
		return
	}

	metrics.RecordNotification(job.Kind, "delivered")
}
