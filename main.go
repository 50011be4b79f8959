package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/opentabclub/opentab/internal/cashier"
	"github.com/opentabclub/opentab/internal/floor"
	"github.com/opentabclub/opentab/internal/mongo"
	"github.com/opentabclub/opentab/internal/order"
	"github.com/opentabclub/opentab/internal/register"
	"github.com/opentabclub/opentab/pkg"
)

const (
	appNamespace = "OPENTAB"
	appName      = "opentab"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	lifecycle := []interface{}{}

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}
	lifecycle = append(lifecycle, aqm.LifecycleHooks{OnStop: baseRepo.Stop})

	db := baseRepo.GetDatabase()
	if db == nil {
		err := errors.New("cannot get base repo database")
		log.Fatalf("%s(%s) cannot initialize database: %v", appName, appVersion, err)
	}

	tableRepo := mongo.NewTableRepo(db)
	reservationRepo := mongo.NewReservationRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	sessionRepo := mongo.NewSessionRepo(db)

	for _, indexed := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{tableRepo, reservationRepo, orderRepo, sessionRepo} {
		if err := indexed.EnsureIndexes(ctx); err != nil {
			log.Fatalf("%s(%s) cannot create indexes: %v", appName, appVersion, err)
		}
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}
	lifecycle = append(lifecycle, aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})

	subscriber, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}
	lifecycle = append(lifecycle, aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return subscriber.Close()
		},
	})

	redisAddr := config.GetStringOrDef("redis.addr", "localhost:6379")
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	lifecycle = append(lifecycle, aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return redisClient.Close()
		},
	})

	registerCache := register.NewCache(register.NewRedisStore(redisClient, 0), logger)

	apiURL := config.GetStringOrDef("services.api.url", "http://localhost:8080/api/v1")
	apiClient := aqm.NewServiceClient(apiURL)
	orderDA := register.NewOrderDataAccess(apiClient)
	tableDA := register.NewTableDataAccess(apiClient)

	reconciler := register.NewReconciler(registerCache, orderDA, publisher, logger)
	orderEventSub := register.NewOrderEventSubscriber(subscriber, reconciler, logger)
	tableStatusSub := register.NewTableStatusSubscriber(subscriber, registerCache, logger)
	sessionEventSub := register.NewSessionEventSubscriber(subscriber, reconciler, logger)
	lifecycle = append(lifecycle, orderEventSub, tableStatusSub, sessionEventSub)

	resyncInterval := durationConfig(config, "register.resync.interval", 60*time.Second)
	lifecycle = append(lifecycle, aqm.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			go reconciler.RunResyncLoop(ctx, resyncInterval)
			return nil
		},
	})

	mover := register.NewMoveOperator(registerCache, orderDA, tableDA, logger)

	checkInLead := durationConfig(config, "reservations.checkin.lead", floor.DefaultCheckInLead)
	scheduler := floor.NewScheduler(reservationRepo, tableRepo, checkInLead, logger)

	floorHandler := floor.NewHandler(floor.HandlerDeps{
		Repos: floor.Repos{
			TableRepo:       tableRepo,
			ReservationRepo: reservationRepo,
		},
		Scheduler: scheduler,
		Publisher: publisher,
		OrderRefs: order.NewRefChecker(orderRepo),
	}, config, logger)

	orderHandler := order.NewHandler(order.HandlerDeps{
		Repo:      orderRepo,
		Publisher: publisher,
	}, config, logger)

	ledger := cashier.NewLedger(sessionRepo, orderRepo, tableRepo, publisher, logger)
	cashierHandler := cashier.NewHandler(cashier.HandlerDeps{
		Ledger: ledger,
		Repo:   sessionRepo,
	}, config, logger)

	registerHandler := register.NewHandler(register.HandlerDeps{
		Cache:      registerCache,
		Mover:      mover,
		Reconciler: reconciler,
		Orders:     orderDA,
		Tables:     tableDA,
	}, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", floorHandler, orderHandler, cashierHandler, registerHandler),
		aqm.WithLifecycle(lifecycle...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func durationConfig(config *aqm.Config, key string, def time.Duration) time.Duration {
	raw, _ := config.GetString(key)
	if raw == "" {
		return def
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return parsed
}
