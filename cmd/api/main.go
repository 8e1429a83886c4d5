package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigmarket/internal/config"
	"gigmarket/internal/handler"
	"gigmarket/internal/infra/db"
	"gigmarket/internal/infra/notify"
	infraRepo "gigmarket/internal/infra/repository"
	"gigmarket/internal/infra/storage"
	"gigmarket/internal/logger"
	"gigmarket/internal/server"
	"gigmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.PostgresDSN(), cfg.GoEnv == "dev")
	if err != nil {
		log.Errorf(ctx, "db connect failed: %v", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Errorf(ctx, "db migrate failed: %v", err)
		os.Exit(1)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	messageRepo := infraRepo.NewMessageGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	ledgerRepo := infraRepo.NewLedgerGormRepository(gormDB)
	payoutRepo := infraRepo.NewPayoutGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//通知はキューに積むだけ（送信はworker）
	queue := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queue.Close()
	notifier := notify.NewAsynqNotifier(queue, cfg.NotifyQueue)

	//ファイル保存先
	var files usecase.FileStore
	if cfg.StorageURL != "" {
		files = storage.NewSupabaseStore(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
	} else {
		log.Warnf(ctx, "STORAGE_URL not set, saving uploads under %s", cfg.UploadDir)
		files = storage.NewDiskStore(cfg.UploadDir)
	}

	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, auditRepo, notifier, clock, idGen, log)
	paymentUC := usecase.NewPaymentUsecase(txm, orderRepo, files, notifier, clock, log)
	reviewUC := usecase.NewReviewUsecase(txm, orderRepo, reviewRepo, notifier, clock, log)
	messageUC := usecase.NewMessageUsecase(txm, orderRepo, messageRepo, files, notifier, clock, log)
	payoutUC := usecase.NewPayoutUsecase(txm, ledgerRepo, payoutRepo, notifier, clock, log)

	//Handler生成
	e := server.New(cfg, log, userRepo, server.Handlers{
		Orders:   handler.NewOrderHandler(orderUC),
		Payments: handler.NewPaymentHandler(paymentUC),
		Reviews:  handler.NewReviewHandler(reviewUC),
		Messages: handler.NewMessageHandler(messageUC),
		Payouts:  handler.NewPayoutHandler(payoutUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	if err := server.Start(ctx, e, addr, log); err != nil {
		log.Errorf(ctx, "server stopped: %v", err)
		os.Exit(1)
	}
}
