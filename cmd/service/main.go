package main

import (
	"os"
	"os/signal"
	"syscall"

	"cart-service/config"
	"cart-service/internal/producer"
	"cart-service/internal/repository"
	"cart-service/internal/service"
	"cart-service/pkg/database"
	"cart-service/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	var bus service.EventBus
	if cfg.Kafka.Enabled {
		p := producer.NewCheckoutProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer p.Close()
		bus = p
	}

	repos := repository.New(db)
	_ = service.NewProductService(repos)
	_ = service.NewUserService(repos, log)
	_ = service.NewCartService(repos, log)
	_ = service.NewCheckoutService(repos, bus, log)

	// Транспорт (HTTP/gRPC) монтируется внешним слоем поверх сервисов.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Остановка cart-service")
}
