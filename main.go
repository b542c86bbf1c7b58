package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/MightyWarner19/grainlly/common/auth"
	apperrors "github.com/MightyWarner19/grainlly/common/errors"
	"github.com/MightyWarner19/grainlly/common/logger"
	commonmw "github.com/MightyWarner19/grainlly/common/middleware"
	"github.com/MightyWarner19/grainlly/config"
	"github.com/MightyWarner19/grainlly/controllers"
	"github.com/MightyWarner19/grainlly/database"
	"github.com/MightyWarner19/grainlly/kafka"
	"github.com/MightyWarner19/grainlly/middleware"
	"github.com/MightyWarner19/grainlly/models"
	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
	"github.com/MightyWarner19/grainlly/repository"
	"github.com/MightyWarner19/grainlly/routes"
	"github.com/MightyWarner19/grainlly/sender"
	"github.com/MightyWarner19/grainlly/services"
)

const serviceName = "storefront"

func main() {
	logger.Initialize(os.Getenv("ENV"))
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AWS is optional locally; clients are only built when something needs them.
	var awsCfg sdkaws.Config
	awsReady := false
	if cfg.CloudWatchEnabled || cfg.NotifySNSTopicARN != "" || cfg.PaymentEventsQueueURL != "" {
		awsCfg, err = awspkg.LoadAWSConfig(ctx)
		if err != nil {
			logger.Log.Fatal("Failed to load AWS config", zap.Error(err))
		}
		awsReady = true
	}

	logger.Initialize(cfg.Env)
	if cfg.CloudWatchEnabled {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			logger.Log.Warn("CloudWatch Logs disabled", zap.Error(err))
		} else {
			logger.InitializeWithWriter(cfg.Env, cw)
		}
	}
	log := logger.Log

	var metrics awspkg.MetricsRecorder
	if awsReady {
		metrics = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	}

	// --- Storage ---
	mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := database.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Warn("Failed to ensure Mongo indexes", zap.Error(err))
	}

	pg, err := database.ConnectPostgres(cfg.PostgresDSN(), log, &models.PaymentAttempt{}, &models.Subscriber{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	productRepo := repository.NewMongoProductRepository(mongoDB)
	orderRepo := repository.NewMongoOrderRepository(mongoDB)
	addressRepo := repository.NewMongoAddressRepository(mongoDB)
	reviewRepo := repository.NewMongoReviewRepository(mongoDB)
	categoryRepo := repository.NewMongoCategoryRepository(mongoDB)
	cartRepo := repository.NewRedisCartRepository(rdb, cfg.CartTTL)
	idemRepo := repository.NewRedisIdempotencyRepository(rdb)
	paymentRepo := repository.NewGormPaymentRepository(pg)
	subscriberRepo := repository.NewGormSubscriberRepository(pg)

	// --- Notifications ---
	feed := services.NewOrderFeedHub(log)
	notifiers := services.MultiNotifier{feed}
	if cfg.NotifySNSTopicARN != "" {
		notifiers = append(notifiers, services.NewSNSNotifier(awspkg.NewSNSClient(awsCfg), cfg.NotifySNSTopicARN))
	}
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log)
		notifiers = append(notifiers, services.NewKafkaNotifier(producer))
	}
	if smtpSender, err := sender.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass); err == nil {
		notifiers = append(notifiers, services.NewEmailNotifier(smtpSender, cfg.AdminEmail))
	} else {
		log.Info("Email notifications disabled", zap.Error(err))
	}

	// --- Payments ---
	var (
		gateway  services.PaymentGateway
		webhooks controllers.WebhookParser
	)
	switch cfg.PaymentGateway {
	case config.GatewayStripe:
		sg := services.NewStripeGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret)
		gateway, webhooks = sg, sg
	default:
		gateway = services.NewRazorpayGateway(cfg.PaymentKeyID, cfg.PaymentKeySecret, cfg.RazorpayBaseURL)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	paymentService := services.NewPaymentService(gateway, paymentRepo, tokens, services.PaymentServiceConfig{
		KeyID:    cfg.PaymentKeyID,
		Secret:   cfg.PaymentKeySecret,
		Currency: cfg.PaymentCurrency,
		TokenTTL: cfg.VerificationTokenTTL,
	}, metrics, log)

	// --- Services ---
	cartService := services.NewCartService(cartRepo, productRepo, log)
	orderService := services.NewOrderService(services.OrderServiceDeps{
		Orders:      orderRepo,
		Products:    productRepo,
		Addresses:   addressRepo,
		Idempotency: idemRepo,
		Carts:       cartService,
		Payments:    paymentService,
		Pricer:      services.NewPricer(cfg.SurchargePercent),
		Notifier:    notifiers,
		Metrics:     metrics,
		Logger:      log,
	}, services.OrderServiceConfig{
		StrictTransitions: cfg.StrictTransitions,
		IdempotencyTTL:    cfg.IdempotencyTTL,
	})
	reviewService := services.NewReviewService(reviewRepo, orderRepo, productRepo, metrics, log)
	paymentEvents := services.NewPaymentEventHandler(paymentService, orderService, metrics, log)

	ctl := routes.Controllers{
		Cart:       controllers.NewCartController(cartService),
		Payment:    controllers.NewPaymentController(paymentService, webhooks, paymentEvents, log),
		Order:      controllers.NewOrderController(orderService, feed, cfg.CORSOrigins, log),
		Review:     controllers.NewReviewController(reviewService),
		Address:    controllers.NewAddressController(services.NewAddressService(addressRepo, log)),
		Product:    controllers.NewProductController(services.NewCatalogService(productRepo, log)),
		Newsletter: controllers.NewNewsletterController(services.NewNewsletterService(subscriberRepo, log)),
		Category:   controllers.NewCategoryController(services.NewCategoryService(categoryRepo, log)),
	}

	// --- HTTP ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	registry := prometheus.NewRegistry()
	serverMetrics := commonmw.NewServerMetrics(registry, serviceName)
	limiter := commonmw.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(log))
	r.Use(commonmw.SecurityHeaders())
	r.Use(serverMetrics.Middleware())
	r.Use(commonmw.MetricsMiddleware(metrics, serviceName))
	r.Use(commonmw.Timeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/metrics", commonmw.PrometheusHandler(registry))
	routes.RegisterRoutes(r, ctl, middleware.AuthMiddleware(tokens, cfg.TrustGatewayHeaders), limiter.Middleware())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Storefront API starting", zap.String("port", cfg.Port), zap.String("gateway", gateway.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		limiter.RunSweeper(gctx.Done())
		return nil
	})

	if cfg.PaymentEventsQueueURL != "" {
		consumer := awspkg.NewSQSConsumer(awsCfg, cfg.PaymentEventsQueueURL, log)
		g.Go(func() error {
			err := consumer.StartPolling(gctx, paymentEvents.HandleMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down storefront API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Storefront API stopped with error", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if err := rdb.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
	if err := database.ClosePostgres(pg); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}
	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoClient.Disconnect(disconnectCtx); err != nil {
		log.Error("Failed to disconnect MongoDB", zap.Error(err))
	}

	log.Info("Storefront API stopped gracefully")
}
