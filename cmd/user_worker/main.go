package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/enterprise/user-service/config"
	"github.com/enterprise/user-service/internal/application"
	"github.com/enterprise/user-service/pkg/helpers"
	"github.com/enterprise/user-service/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQUserEventQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}
	if es == nil {
		logger.Warn("ELASTICSEARCH_ADDRS empty; search indexing disabled")
	}

	proc := &application.EventProcessor{
		Search:  application.NewSearchService(es, cfg.ESUsersIndex, logger),
		AppName: cfg.AppName,
		Logger:  logger,
	}
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			log.Fatal("Mailgun not configured")
		}
		proc.Mail = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	} else {
		logger.Info("MAIL_SEND_ENABLED=false; welcome emails disabled")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQUserEventQueue, 16)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			c, cancelMsg := context.WithTimeout(ctx, 30*time.Second)
			err := proc.Handle(c, msg.Body)
			cancelMsg()

			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, application.ErrMalformedEvent):
				logger.WithError(err).Warn("dropping user event")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).Warn("user event failed; requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("user worker listening on queue=%s", cfg.RabbitMQUserEventQueue)
	select {
	case <-stop:
		logger.Info("shutting down...")
	case <-done:
		logger.Warn("delivery channel closed")
	}
	cancel()
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
