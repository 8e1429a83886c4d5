package main

import (
	"context"

	"gigmarket/internal/config"
	"gigmarket/internal/infra/db"
	"gigmarket/internal/infra/notify"
	infraRepo "gigmarket/internal/infra/repository"
	"gigmarket/internal/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// 通知キューのworker。メール送信とユーザーチャンネルへのpublish
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	ctx := context.Background()

	gormDB, err := db.Connect(cfg.PostgresDSN(), false)
	if err != nil {
		log.Errorf(ctx, "db connect failed: %v", err)
		return
	}
	users := infraRepo.NewUserGormRepository(gormDB)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Errorf(ctx, "redis ping failed: %v", err)
		return
	}

	proc := notify.NewProcessor(users, notify.NewLogMailer(log), notify.NewRedisPublisher(rdb), log)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues:      map[string]int{cfg.NotifyQueue: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Errorf(ctx, "[worker] task %s failed: %v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	proc.Register(mux)

	log.Infof(ctx, "notification worker started queue=%s concurrency=%d", cfg.NotifyQueue, cfg.WorkerConcurrency)
	// Runはシグナルを受けるまで返らない
	if err := srv.Run(mux); err != nil {
		log.Errorf(ctx, "worker stopped: %v", err)
	}
}
