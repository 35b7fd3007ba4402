package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"jobmatch-backend/internal/assessments"
	"jobmatch-backend/internal/candidates"
	"jobmatch-backend/internal/evaluation"
	"jobmatch-backend/internal/llm"
	"jobmatch-backend/internal/llm/gemini"
	"jobmatch-backend/internal/normalize"
	"jobmatch-backend/internal/notify"
	"jobmatch-backend/internal/queue"
	"jobmatch-backend/internal/requisitions"
	"jobmatch-backend/internal/shared/config"
	"jobmatch-backend/internal/shared/server"
	"jobmatch-backend/internal/shared/storage/db"
	"jobmatch-backend/internal/shared/storage/object"
	localstore "jobmatch-backend/internal/shared/storage/object/local"
	s3store "jobmatch-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	CandidatesRepo   candidates.Repo
	RequisitionsRepo requisitions.Repo

	Notifier     *notify.Notifier
	Vendor       *assessments.VendorClient
	Aggregator   *assessments.Aggregator
	Orchestrator *evaluation.Orchestrator

	CandidatesService  *candidates.Service
	CandidatesHandler  *candidates.Handler
	AssessmentsHandler *assessments.Handler
}

// Build prepares shared dependencies and wires routes.
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

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		CandidatesHandler:  app.CandidatesHandler,
		AssessmentsHandler: app.AssessmentsHandler,
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

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("JM_SQS_QUEUE_URL")) == "" {
		log.Printf("bootstrap: JM_SQS_QUEUE_URL empty; using in-memory queue")
		return queue.NewMemoryClient(), nil
	}
	return queue.NewSQSClient(ctx)
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var candRepo candidates.Repo
	var reqRepo requisitions.Repo
	if app.DB != nil {
		candRepo = &candidates.PGRepo{DB: app.DB}
		reqRepo = &requisitions.PGRepo{DB: app.DB}
	} else {
		memCand := candidates.NewMemoryRepo()
		candRepo = memCand
		reqRepo = &memoryRequisitions{MemoryRepo: requisitions.NewMemoryRepo(), titles: memCand}
	}

	caps := candRepo.Capabilities()
	if !caps.AssessmentRows {
		return errors.New("candidate repository does not track assessment rows")
	}
	if !caps.RowLocking {
		log.Printf("bootstrap: candidate repository has no row locking; aggregation serializes in process")
	}

	generator := llm.Generator(placeholderGenerator{})
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		client, err := gemini.New(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return err
		}
		generator = client
	}
	invoker, err := llm.NewInvoker(generator, cfg.GeminiModels)
	if err != nil {
		return err
	}

	mailer := notify.Mailer(notify.NewMemoryMailer())
	if strings.TrimSpace(cfg.MailSender) != "" {
		sesMailer, err := notify.NewSESMailer(ctx, cfg.AWSRegion, cfg.MailSender)
		if err != nil {
			return err
		}
		mailer = sesMailer
	}
	notifier, err := notify.New(mailer, notify.Templates{
		NotMatchingSubject: cfg.NotMatchingSubjectTmpl,
		NotMatchingBody:    cfg.NotMatchingBodyTmpl,
		RejectedSubject:    cfg.RejectedAfterSubjectTmpl,
		RejectedBody:       cfg.RejectedAfterBodyTmpl,
	})
	if err != nil {
		return err
	}

	var vendor *assessments.VendorClient
	if strings.TrimSpace(cfg.VendorBaseURL) != "" {
		vendor, err = assessments.NewVendorClient(ctx, cfg.VendorBaseURL, cfg.VendorToken)
		if err != nil {
			return err
		}
	}

	aggregator := &assessments.Aggregator{
		Repo:            candRepo,
		Notifier:        notifier,
		ServiceIdentity: cfg.ServiceIdentity,
	}

	orchestrator := &evaluation.Orchestrator{
		Repo:         candRepo,
		Requisitions: reqRepo,
		Store:        app.Store,
		Normalizer:   normalize.New(cfg.SofficePath),
		Classifier:   &evaluation.Classifier{Invoker: invoker},
		Extractor:    &evaluation.Extractor{Invoker: invoker},
		Scorer:       &evaluation.Scorer{Invoker: invoker},
		Notifier:     notifier,

		QualificationThreshold: cfg.QualificationThreshold,
		RejectedMaxScore:       cfg.RejectedMaxScore,
		ServiceIdentity:        cfg.ServiceIdentity,
	}
	if vendor != nil {
		orchestrator.Vendor = vendor
	} else {
		orchestrator.Vendor = noopInviteSender{}
		log.Printf("bootstrap: ASSESSMENT_VENDOR_BASE_URL empty; assessment invites disabled")
	}

	candSvc := &candidates.Service{
		Store:         app.Store,
		Repo:          candRepo,
		Requisitions:  reqRepo,
		Queue:         app.Queue,
		RetryCooldown: cfg.RetryCooldown,
	}

	app.CandidatesRepo = candRepo
	app.RequisitionsRepo = reqRepo
	app.Notifier = notifier
	app.Vendor = vendor
	app.Aggregator = aggregator
	app.Orchestrator = orchestrator
	app.CandidatesService = candSvc
	app.CandidatesHandler = candidates.NewHandler(candSvc)
	if vendor != nil {
		app.AssessmentsHandler = assessments.NewHandler(aggregator, vendor, cfg.WebhookToken)
	} else {
		app.AssessmentsHandler = assessments.NewHandler(aggregator, noVendor{}, cfg.WebhookToken)
	}

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// memoryRequisitions keeps the candidate repo's title index in sync with
// requisitions created on the in-memory pair, so the webhook's email+title
// lookup behaves like the Postgres join.
type memoryRequisitions struct {
	*requisitions.MemoryRepo
	titles *candidates.MemoryRepo
}

func (r *memoryRequisitions) Create(ctx context.Context, req requisitions.Requisition, assigned []requisitions.Assessment) error {
	if err := r.MemoryRepo.Create(ctx, req, assigned); err != nil {
		return err
	}
	r.titles.RegisterRequisitionTitle(req.ID, req.Title)
	return nil
}

type placeholderGenerator struct{}

func (placeholderGenerator) Generate(ctx context.Context, model string, parts []llm.Part) (string, error) {
	_ = ctx
	_ = model
	_ = parts
	return "", errors.New("llm generator not configured")
}

type noopInviteSender struct{}

func (noopInviteSender) SendInvite(ctx context.Context, assessmentID string, invite assessments.Invite) error {
	_ = ctx
	_ = assessmentID
	_ = invite
	return nil
}

type noVendor struct{}

func (noVendor) AssessmentDescription(ctx context.Context, assessmentID string) (string, error) {
	_ = ctx
	_ = assessmentID
	return "", errors.New("assessment vendor not configured")
}
