package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"manuscript-backend/internal/analysis"
	"manuscript-backend/internal/archetypes"
	"manuscript-backend/internal/chunker"
	"manuscript-backend/internal/jobs"
	"manuscript-backend/internal/llm"
	"manuscript-backend/internal/llm/openai"
	"manuscript-backend/internal/manuscripts"
	"manuscript-backend/internal/shared/config"
	"manuscript-backend/internal/shared/metrics"
	"manuscript-backend/internal/shared/server/middleware"
	"manuscript-backend/internal/shared/server/respond"
	"manuscript-backend/internal/shared/storage/db"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.ClientID(),
		middleware.RateLimit(rateLimitConfig()),
	)

	// Dependencies
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var jobStore jobs.Store
	if sqliteStore, err := jobs.OpenSQLiteStore(cfg.JobsDBPath); err != nil {
		log.Printf("failed to open jobs db %s, falling back to memory: %v", cfg.JobsDBPath, err)
		jobStore = jobs.NewMemoryStore()
	} else {
		jobStore = sqliteStore
	}
	jobManager := jobs.NewManager(jobStore)
	jobHandler := jobs.NewHandler(jobManager)

	var manuscriptRepo manuscripts.Repo
	if sqlDB != nil {
		manuscriptRepo = &manuscripts.PGRepo{DB: sqlDB}
	} else {
		manuscriptRepo = manuscripts.NewMemoryRepo()
	}
	manuscriptSvc := manuscripts.NewService(manuscriptRepo)
	manuscriptHandler := manuscripts.NewHandler(manuscriptSvc)

	var archetypeRepo archetypes.Repo
	if sqlDB != nil {
		archetypeRepo = &archetypes.PGRepo{DB: sqlDB}
	} else {
		archetypeRepo = archetypes.NewMemoryRepo()
	}
	archetypeSvc := archetypes.NewService(archetypeRepo)
	archetypeHandler := archetypes.NewHandler(archetypeSvc)
	seedArchetypes(archetypeSvc, cfg.ArchetypeLibraryPath)

	llmClient := buildLLMClient(cfg)

	var runRepo analysis.Repo
	if sqlDB != nil {
		runRepo = &analysis.PGRepo{DB: sqlDB}
	} else {
		runRepo = analysis.NewMemoryRepo()
	}
	analysisSvc := analysis.NewService(runRepo, manuscriptRepo, archetypeRepo, llmClient, jobManager, analysis.Config{
		BatchSize:     cfg.BatchSize,
		BatchInterval: time.Duration(cfg.BatchIntervalMs) * time.Millisecond,
		Scale:         llm.RatingScale(cfg.RatingScale),
		ChunkOptions: chunker.Options{
			MaxWordsPerChunk:  cfg.MaxWordsPerChunk,
			MinWordsPerChunk:  cfg.MinWordsPerChunk,
			PreserveStructure: true,
		},
	})
	analysisHandler := analysis.NewHandler(analysisSvc)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	manuscriptHandler.RegisterRoutes(api)
	archetypeHandler.RegisterRoutes(api)
	analysisHandler.RegisterRoutes(api)
	jobHandler.RegisterRoutes(api)

	// Handlers are registered, so jobs interrupted by a previous
	// process can resume.
	if restarted, err := jobManager.RequeueOrphans(context.Background()); err != nil {
		log.Printf("failed to requeue orphaned jobs: %v", err)
	} else if restarted > 0 {
		log.Printf("requeued %d interrupted jobs", restarted)
	}

	return r
}

func buildLLMClient(cfg config.Config) llm.Client {
	if cfg.LLMProvider == "openai" && cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			log.Printf("failed to build openai client, using placeholder: %v", err)
			return llm.PlaceholderClient{}
		}
		return client
	}
	log.Printf("no LLM credentials configured, using placeholder client")
	return llm.PlaceholderClient{}
}

func seedArchetypes(svc *archetypes.Service, libraryPath string) {
	library, err := archetypes.DefaultLibrary()
	if libraryPath != "" {
		library, err = archetypes.LoadLibrary(libraryPath)
	}
	if err != nil {
		log.Printf("failed to load archetype library: %v", err)
		return
	}
	if err := svc.Seed(context.Background(), library); err != nil {
		log.Printf("failed to seed archetypes: %v", err)
	}
}

func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodGet {
				return "DEFAULT"
			}
			switch c.FullPath() {
			case "/api/v1/runs/:id", "/api/v1/jobs/:id":
				return "POLLING"
			}
			return "DEFAULT"
		},
		Limiter: middleware.NewRateLimiter(time.Now),
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 5, Burst: 20},
			"POLLING": {Rate: 20, Burst: 60},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
