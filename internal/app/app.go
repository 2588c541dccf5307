package app

import (
	"context"

	"cleanops/config"
	"cleanops/internal/controllers"
	"cleanops/internal/database"
	"cleanops/internal/events"
	"cleanops/internal/handlers/middleware"
	"cleanops/internal/jobs"
	"cleanops/internal/repositories"
	"cleanops/internal/services"
	"cleanops/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	Websocket   *websockets.Manager
	EventBus    *events.EventBus
	Config      config.Config
	AuthService *services.AuthService

	Services     services.Service
	Repositories repositories.Repository
	Controllers  controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events)
	authService := services.NewAuthService(config)

	repos := repositories.New(db)
	services := services.New(db, repos, eventBus)
	controllers := controllers.New(services, repos, config, db)

	if err := jobs.RegisterAllJobs(services.Scheduler, config, controllers); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	if err := services.Scheduler.Start(context.Background()); err != nil {
		return &App{}, log.Err("failed to start scheduler", err)
	}

	app := &App{
		Database:     db,
		Config:       config,
		Middleware:   middleware.New(db, config, repos, authService),
		Websocket:    websockets.New(eventBus, authService),
		EventBus:     eventBus,
		AuthService:  authService,
		Services:     services,
		Repositories: repos,
		Controllers:  controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.AuthService,
		a.Services.Transaction,
		a.Services.Ledger,
		a.Services.Scheduler,
		a.Controllers.Task,
		a.Controllers.Request,
		a.Controllers.Inventory,
		a.Controllers.Facility,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
