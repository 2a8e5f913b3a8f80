package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"dealrisk-backend/internal/assessment"
	"dealrisk-backend/internal/assessment/report"
	"dealrisk-backend/internal/documents"
	"dealrisk-backend/internal/notify"
	"dealrisk-backend/internal/queue"
	"dealrisk-backend/internal/reasoning"
	openai "dealrisk-backend/internal/reasoning/openai"
	"dealrisk-backend/internal/shared/config"
	"dealrisk-backend/internal/shared/server"
	"dealrisk-backend/internal/shared/storage/db"
	"dealrisk-backend/internal/shared/storage/object"
	localstore "dealrisk-backend/internal/shared/storage/object/local"
	s3store "dealrisk-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API and worker processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo     documents.DocumentsRepo
	AssessmentRepo    assessment.Repo
	DocumentsService  *documents.Service
	AssessmentService *assessment.Service
	DocumentsHandler  *documents.Handler
	AssessmentHandler *assessment.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		AssessmentHandler: app.AssessmentHandler,
		DocumentsHandler:  app.DocumentsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("DR_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var assessRepo assessment.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		assessRepo = &assessment.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		assessRepo = assessment.NewMemoryRepo()
	}

	docSvc := &documents.Service{
		Store: app.Store,
		Repo:  docRepo,
	}

	reasoner := reasoning.Client(reasoning.PlaceholderClient{})
	if app.Config.ReasoningProvider == "openai" {
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.ReasoningModel, app.Config.ReasoningTimeout)
		if err != nil {
			if !isDevLike(app.Config.Env) {
				return err
			}
			log.Printf("bootstrap: reasoning client unavailable, using placeholder: %v", err)
		} else {
			reasoner = client
		}
	}

	policy := report.DefaultPolicy()
	if app.Config.ScoringPolicyFile != "" {
		loaded, err := report.LoadPolicy(app.Config.ScoringPolicyFile)
		if err != nil {
			return fmt.Errorf("load scoring policy: %w", err)
		}
		policy = loaded
	}

	var notifier notify.Notifier = notify.Noop{}
	if smtp := notify.NewSMTPNotifier(app.Config.SMTPHost, app.Config.SMTPUser, app.Config.SMTPPass, app.Config.FromEmail, app.Config.ReportEmail); smtp != nil {
		notifier = smtp
	}

	assessSvc := &assessment.Service{
		Repo:        assessRepo,
		DocRepo:     docRepo,
		Store:       app.Store,
		Reasoner:    reasoner,
		Queue:       app.Queue,
		Notifier:    notifier,
		Policy:      policy,
		MaxAttempts: app.Config.MaxAttempts,
		Backoff:     app.Config.RetryBackoff,
	}

	app.DocumentsRepo = docRepo
	app.AssessmentRepo = assessRepo
	app.DocumentsService = docSvc
	app.AssessmentService = assessSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.AssessmentHandler = assessment.NewHandler(assessSvc)

	return nil
}
