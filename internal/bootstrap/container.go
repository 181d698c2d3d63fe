package bootstrap

import (
	"context"
	"time"

	"billing-sync-be/internal/config"
	"billing-sync-be/internal/controller"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/pkg/mailer"
	"billing-sync-be/internal/pkg/ratelimit"
	"billing-sync-be/internal/pkg/retry"
	"billing-sync-be/internal/pkg/serverutils"
	"billing-sync-be/internal/repository/memory"
	"billing-sync-be/internal/repository/unitofwork"
	"billing-sync-be/internal/scheduler"
	"billing-sync-be/internal/service"
	pktNats "billing-sync-be/pkg/nats"
	"billing-sync-be/pkg/payment"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	BillingController controller.IBillingController
	AdminController   controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Scheduler       *scheduler.Scheduler

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	clock := clockwork.NewRealClock()

	mailTransport := mailer.NewSMTPTransport(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)
	provider := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.Timeout)
	roles := service.NewRoleMapper(cfg.Stripe.Prices)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	// 3. Infrastructure
	var closers []func()
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS, billing events stay in the outbox", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		closers = append(closers, natsPub.Close)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis, rate limiting fails open", map[string]interface{}{"error": err.Error()})
	}
	closers = append(closers, func() { _ = rdb.Close() })
	limiter := ratelimit.NewLimiter(rdb, "billing:rate_limit", cfg.Auth.RateLimit, cfg.Auth.RateLimitWindow)

	sessionRepo := memory.NewCheckoutSessionRepository(time.Hour)

	// 4. Services
	renderer, err := service.NewNotificationRenderer(cfg.App.SiteName, cfg.App.ClientURL)
	if err != nil {
		return nil, err
	}
	kicker := service.NewChannelKicker(pubSub, service.NotificationEnqueuedTopic, sysLogger)
	queueService := service.NewNotificationQueueService(
		uowFactory,
		renderer,
		mailTransport,
		kicker,
		clock,
		sysLogger,
		service.NotificationQueueOptions{
			BatchSize:  cfg.Queue.BatchSize,
			StaleAfter: cfg.Queue.StaleAfter,
		},
	)
	consumerService := service.NewConsumerService(pubSub, service.NotificationEnqueuedTopic, queueService, sysLogger)

	storeRetrier := retry.New(clock, retry.DefaultPolicy).OnRetry(func(attempt int, wait time.Duration, err error) {
		sysLogger.Warn("RECONCILER", "Transient store error, retrying", map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	})
	webhookRetrier := retry.New(clock, retry.DefaultPolicy).OnRetry(func(attempt int, wait time.Duration, err error) {
		sysLogger.Warn("WEBHOOK", "Transient processing error, retrying", map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	})
	syncRetrier := retry.New(clock, retry.DefaultPolicy).OnRetry(func(attempt int, wait time.Duration, err error) {
		sysLogger.Warn("SessionSync", "Transient provider error, retrying", map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	})

	reconciler := service.NewReconcilerService(uowFactory, provider, roles, queueService, storeRetrier, clock, sysLogger, cfg.Database.Timeout)
	webhookService := service.NewWebhookService(cfg.Stripe.WebhookSecret, reconciler, webhookRetrier, sysLogger)
	sessionSyncService := service.NewSessionSyncService(uowFactory, provider, reconciler, sessionRepo, syncRetrier, sysLogger)
	checkoutService := service.NewCheckoutService(uowFactory, provider, roles, cfg.App.ClientURL, sysLogger)
	accountService := service.NewAccountService(uowFactory, queueService, kicker, clock, sysLogger)
	reminderService := service.NewRenewalReminderService(uowFactory, queueService, roles, clock, sysLogger, cfg.Queue.ReminderLeadTime, cfg.App.ClientURL)

	// 5. Scheduled jobs
	sched := scheduler.New(sysLogger)
	jobs := []scheduler.Job{
		{
			Name:     "notification-queue",
			Schedule: cfg.Queue.SweepSchedule,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := queueService.Sweep(ctx)
				return err
			},
		},
		{
			Name:     "renewal-reminders",
			Schedule: cfg.Queue.ReminderSchedule,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := reminderService.Run(ctx)
				return err
			},
		},
	}
	if eventPublisher != nil {
		outbox := service.NewOutboxDispatcher(uowFactory, eventPublisher, clock, sysLogger, cfg.Queue.OutboxBatchSize)
		jobs = append(jobs, scheduler.Job{
			Name:     "billing-outbox",
			Schedule: cfg.Queue.OutboxSchedule,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				_, err := outbox.Flush(ctx)
				return err
			},
		})
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return nil, err
		}
	}

	// 6. Controllers
	authMiddleware := serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret)
	billingController := controller.NewBillingController(
		webhookService,
		checkoutService,
		sessionSyncService,
		authMiddleware,
		serverutils.RateLimitMiddleware(limiter, "billing"),
	)
	adminController := controller.NewAdminController(accountService, queueService, authMiddleware)

	return &Container{
		Logger:            sysLogger,
		BillingController: billingController,
		AdminController:   adminController,
		ConsumerService:   consumerService,
		Scheduler:         sched,
		closers:           append(closers, func() { _ = pubSub.Close() }),
	}, nil
}

// Close releases broker and cache connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
