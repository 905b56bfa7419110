package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"forum/pkg/config"
	"forum/pkg/feed"
	"forum/pkg/logger"
	"forum/pkg/mail"
	"forum/pkg/metrics"
	"forum/pkg/middleware"
	"forum/pkg/otp"
	"forum/pkg/post"
	"forum/pkg/recovery"
	"forum/pkg/reply"
	"forum/pkg/sessions"
	"forum/pkg/user"
	"forum/pkg/user/api"
)

func main() {
	envFile := flag.String("env", ".env", "path to the dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		zap.NewExample().Sugar().Fatalf("main: %v", err)
	}
	log := logger.Run(cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("pgx", cfg.PostgresURL)
	if err != nil {
		log.Fatalf("main: unable to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("main: unable to reach PostgreSQL: %v", err)
	}
	if _, err := db.ExecContext(ctx, user.Schema); err != nil {
		log.Fatalf("main: can't create users table: %v", err)
	}
	if err := post.CreateSchema(ctx, db); err != nil {
		log.Fatalf("main: %v", err)
	}

	redisPool := &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(cfg.RedisAddr)
		},
	}
	defer redisPool.Close()

	mongoCtx, mongoCtxCancel := context.WithTimeout(ctx, 3*time.Second)
	defer mongoCtxCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("main: can't connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		log.Fatalf("main: unable to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Errorf("main: failed disconnecting from MongoDB: %v", err)
		}
	}()

	clock := clockwork.NewRealClock()

	var codes otp.Store
	switch cfg.OtpBackend {
	case "redis":
		codes = otp.NewRedisStore(redisPool)
	default:
		mem := otp.NewMemoryStore(clock)
		go mem.RunSweeper(ctx, cfg.OtpSweepEvery)
		codes = mem
	}

	threads := reply.NewMongoCollection(mongoClient.Database(cfg.MongoDB).Collection("threads"))
	postsRepo := post.NewPostRepo(db)
	usersRepo := user.NewUserRepo(db)
	repliesRepo := reply.NewRepo(threads, clock)
	sessionManager := sessions.NewSessionManager(cfg.SecretKey, redisPool, clock)

	voter := post.NewCoordinator(postsRepo)
	voter.OnApply(metrics.ObserveVote)
	pipeline := feed.NewPipeline(postsRepo)
	pipeline.OnRefetch(metrics.ObserveRefetch)
	recoveryService := recovery.NewService(codes, mail.ConsoleSender{}, usersRepo, cfg.SecretKey, clock)

	if cfg.Seed {
		// Generate fake content to have better UI experience
		seed(ctx, usersRepo, postsRepo, repliesRepo)
	}

	postHandler := post.NewPostHandler(postsRepo, voter)
	feedHandler := feed.NewFeedHandler(pipeline, voter, clock, cfg.SearchDelay)
	replyHandler := reply.NewReplyHandler(repliesRepo, postsRepo)
	userHandler := api.NewUserHandler(usersRepo, sessionManager)
	recoveryHandler := recovery.NewHandler(recoveryService)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Feed
	api.HandleFunc("/feed", feedHandler.List).Methods("GET")
	api.HandleFunc("/feed/ws", feedHandler.Live).Methods("GET")
	api.HandleFunc("/communities", postHandler.Communities).Methods("GET")
	api.HandleFunc("/tags", postHandler.Tags).Methods("GET")

	// Posts
	api.HandleFunc("/post/{post_id}", postHandler.Get).Methods("GET")
	api.HandleFunc("/post/{post_id}/upvote", postHandler.Upvote).Methods("POST")
	api.HandleFunc("/post/{post_id}/downvote", postHandler.Downvote).Methods("POST")

	// Replies
	api.HandleFunc("/post/{post_id}/replies", replyHandler.Thread).Methods("GET")
	api.HandleFunc("/post/{post_id}/replies", replyHandler.Add).Methods("POST")

	// User
	api.HandleFunc("/register", userHandler.Register).Methods("POST")
	api.HandleFunc("/login", userHandler.LogIn).Methods("POST")
	api.HandleFunc("/password/otp", recoveryHandler.RequestCode).Methods("POST")
	api.HandleFunc("/password/verify", recoveryHandler.VerifyCode).Methods("POST")
	api.HandleFunc("/password/reset", recoveryHandler.ResetPassword).Methods("POST")

	logMiddleware := middleware.NewLoggingMiddleware(log)
	r.Use(logMiddleware.SetupTracing)
	r.Use(logMiddleware.SetupLogging)
	r.Use(logMiddleware.AccessLog)

	// After logging so auth failures carry the request id.
	auth := middleware.NewAuthMiddleware(sessionManager, usersRepo)
	r.Use(auth.Middleware)

	log.Infof("Serving at http://localhost%s/", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}
