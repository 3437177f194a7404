package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/fieldline/fieldline/internal/cache"
	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/database"
	"github.com/fieldline/fieldline/internal/model"
	"github.com/fieldline/fieldline/internal/schema"
	"github.com/fieldline/fieldline/internal/store"
	"github.com/fieldline/fieldline/pkg/logger"
	"github.com/fieldline/fieldline/pkg/metrics"
)

// Smoke tool: registers a users/posts model pair against a live store
// and exercises one build/create/populate round-trip. Useful for
// verifying deployment configuration; not a serving process.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database(cfg.MongoDB.Database)

	var opts []model.Option
	if cfg.Redis.Addr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		opts = append(opts, model.WithCache(cache.NewDocuments(rc, "", cfg.Redis.CacheTTL)))
	}

	// note: a users->posts virtual combined with the posts->author
	// populate would recurse during nested resolution; keep the smoke
	// graph acyclic
	users := schema.New(map[string]schema.FieldDef{
		"name":  schema.Text(),
		"email": schema.Text(),
	})

	posts := schema.New(map[string]schema.FieldDef{
		"title":     schema.Text(),
		"published": schema.Boolean(),
		"author":    schema.Ref("users"),
		"tags":      schema.List(schema.Text()),
	})
	posts.Populate(schema.PopulateDef{Path: "author", Model: "users"})

	reg := model.NewRegistry()
	userModel := model.New("users", users, store.NewMongoCollection(db.Collection("users"), cfg.Store.FetchRPS, cfg.Store.FetchBurst), opts...)
	postModel := model.New("posts", posts, store.NewMongoCollection(db.Collection("posts"), cfg.Store.FetchRPS, cfg.Store.FetchBurst), opts...)
	reg.Add(userModel)
	reg.Add(postModel)

	u, err := userModel.Create(ctx, map[string]any{"name": "smoke", "email": "smoke@example.com"})
	if err != nil {
		logger.Fatalf("create user: %v", err)
	}
	p, err := postModel.Create(ctx, map[string]any{
		"title":     "hello",
		"published": true,
		"author":    u[schema.FieldID],
		"tags":      []any{"smoke"},
	})
	if err != nil {
		logger.Fatalf("create post: %v", err)
	}

	start := time.Now()
	resolved, err := postModel.FindByID(ctx, p[schema.FieldID].(string), true)
	if err != nil {
		logger.Fatalf("resolve post: %v", err)
	}
	author, _ := resolved["author"].(map[string]any)
	logger.Infof("resolved post %v author=%v in %s", resolved[schema.FieldID], author["name"], time.Since(start))

	// clean up the smoke documents
	_ = postModel.Delete(ctx, p[schema.FieldID].(string))
	_ = userModel.Delete(ctx, u[schema.FieldID].(string))
	logger.Infof("smoke check passed")
}
