package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/enterprise/user-service/config"
	"github.com/enterprise/user-service/internal/container"
	"github.com/enterprise/user-service/pkg/helpers"
)

// export writes every user as a JSON array to gs://$GCS_BUCKET/<prefix>/users-<timestamp>.json.
func main() {
	prefix := flag.String("prefix", "exports", "object path prefix inside the bucket")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-export", cfg.Env)
	if cfg.GCSBucket == "" {
		log.Fatal("GCS_BUCKET not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Only the store is needed; optional infra stays off.
	cfg.RateLimitEnabled = false
	cfg.RabbitMQURL = ""
	cfg.ElasticsearchAddrs = ""
	c, err := container.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer c.Close()

	users, err := c.Users.FindAll(ctx)
	if err != nil {
		log.Fatalf("list users: %v", err)
	}
	body, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		log.Fatalf("encode users: %v", err)
	}

	gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		log.Fatalf("failed to init GCS client: %v", err)
	}
	defer func() { _ = gcs.Close() }()

	object := fmt.Sprintf("%s/users-%s.json", *prefix, time.Now().UTC().Format("20060102T150405Z"))
	uri, err := helpers.UploadObject(ctx, gcs, cfg.GCSBucket, object, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	logger.WithField("count", len(users)).Infof("exported users to %s", uri)
}
