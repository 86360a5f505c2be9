package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartcane-relay/internal/auth"
	"smartcane-relay/internal/config"
	"smartcane-relay/internal/evaluator"
	httpapi "smartcane-relay/internal/http"
	"smartcane-relay/internal/logger"
	"smartcane-relay/internal/metrics"
	"smartcane-relay/internal/mqtt"
	"smartcane-relay/internal/notifier"
	"smartcane-relay/internal/service"
	"smartcane-relay/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log := logger.NewLogger(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "smartcane-relay",
	})
	defer log.Sync()

	metrics.Init(nil)

	// 3. 设备认证
	authenticator := auth.NewAuthenticator(cfg.Device.Secret)
	if !authenticator.Configured() {
		log.Warn("WORKER_SECRET_KEY is not set, every /iot request will be rejected")
	}
	if cfg.Line.ChannelAccessToken == "" || cfg.Line.CaregiverID == "" {
		log.Warn("LINE channel access token or caregiver id is not set, fall alerts cannot be delivered")
	}

	// 4. 跌倒提醒抑制（可选）
	var debouncer store.Debouncer = store.NoopDebouncer{}
	if cfg.Debounce.Window > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// 抑制失败时放行，不阻止启动
			log.Warn("Redis unreachable, debounce will fail open",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
		}
		cancel()

		debouncer = store.NewRedisDebouncer(rdb, cfg.Debounce.KeyPrefix, cfg.Debounce.Window)
		log.Info("Fall alert debounce enabled", zap.Duration("window", cfg.Debounce.Window))
	}

	// 5. 创建服务
	relay := service.NewRelayService(service.RelayOptions{
		Evaluator:   evaluator.NewFallEvaluator(cfg.Location()),
		Dispatcher:  notifier.NewLineClient(cfg.Line, log),
		Debouncer:   debouncer,
		CaregiverID: cfg.Line.CaregiverID,
		Greeting:    cfg.Line.ReplyGreeting,
		Logger:      log,
	})

	router := httpapi.NewRouter(log)
	router.RegisterRelayRoutes(
		httpapi.NewTelemetryHandler(authenticator, relay, log),
		httpapi.NewWebhookHandler(relay, log),
	)
	router.RegisterMetricsRoute(promhttp.Handler())

	server := service.NewServer(cfg.HTTP.Addr, httpapi.AccessLog(router, log), log)

	// 6. MQTT 设备上报（可选）
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer client.Disconnect()

		subscriber := mqtt.NewTelemetrySubscriber(relay, cfg.MQTT.Topic, cfg.MQTT.QoS, cfg.Line.Timeout+5*time.Second, log)
		if err := subscriber.Start(client); err != nil {
			log.Fatal("Failed to start MQTT subscriber", zap.Error(err))
		}
		defer func() {
			if err := subscriber.Stop(client); err != nil {
				log.Warn("Failed to stop MQTT subscriber", zap.Error(err))
			}
		}()
	}

	// 7. 启动 HTTP 服务
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-serverErrChan:
		log.Error("HTTP server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	log.Info("SmartCane relay stopped")
}
