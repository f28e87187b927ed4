package bootstrap

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	pacerinadapter "breathtrain/internal/modules/pacer/adapter/in"
	pacerusecase "breathtrain/internal/modules/pacer/usecase"
	regimeinadapter "breathtrain/internal/modules/regime/adapter/in"
	regimeoutadapter "breathtrain/internal/modules/regime/adapter/out"
	regimeout "breathtrain/internal/modules/regime/port/out"
	regimeusecase "breathtrain/internal/modules/regime/usecase"
	selectioninadapter "breathtrain/internal/modules/selection/adapter/in"
	selectionservice "breathtrain/internal/modules/selection/service"
	selectionusecase "breathtrain/internal/modules/selection/usecase"
	sessioninadapter "breathtrain/internal/modules/session/adapter/in"
	sessionoutadapter "breathtrain/internal/modules/session/adapter/out"
	sessionout "breathtrain/internal/modules/session/port/out"
	sessionservice "breathtrain/internal/modules/session/service"
	sessionusecase "breathtrain/internal/modules/session/usecase"
	"breathtrain/internal/platform/clock"
	"breathtrain/internal/platform/config"
	"breathtrain/internal/platform/id"
	"breathtrain/internal/platform/random"
	"breathtrain/internal/platform/tx"
	uiapp "breathtrain/internal/ui/app"
)

type App struct {
	PacerCLI     pacerinadapter.CLIHandler
	RegimeCLI    regimeinadapter.CLIHandler
	SelectionCLI selectioninadapter.CLIHandler
	SessionCLI   sessioninadapter.CLIHandler

	closeStore func() error
}

type regimeBackend interface {
	regimeout.Store
	regimeout.SegmentRecorder
	regimeout.StatsLister
}

// openBackend returns the regime store, its transaction manager, the active
// segment store and a close func for the configured persistence mode.
func openBackend(cfg config.Config) (regimeBackend, tx.Manager, sessionout.ActiveSegmentStore, func() error, error) {
	if cfg.Ephemeral {
		return regimeoutadapter.NewMemoryStore(cfg.StageTargets), tx.NoopManager{}, sessionoutadapter.NewMemoryActiveSegmentStore(), nil, nil
	}
	store, err := regimeoutadapter.NewSQLiteStore(cfg.DBPath, cfg.StageTargets)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("new regime store: %w", err)
	}
	return store, store, sessionoutadapter.NewFileActiveSegmentStore(cfg.ActiveSegmentPath), store.Close, nil
}

func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.SystemClock{}
	rng := random.NewSource()

	store, txm, activeStore, closeStore, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	selectionUC := selectionusecase.NewInteractor(selectionservice.NewSelectorService(
		store, txm, clk, cfg.Location, rng, logger.Named("selection"),
	))
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk, id.UUID{}, store),
		selectionUC,
		store,
		activeStore,
		clk,
		sessionusecase.Options{Location: cfg.Location, MaxSession: cfg.MaxSessionDuration()},
		logger.Named("session"),
	)

	logger.Debug("app wired",
		zap.String("db_path", cfg.DBPath),
		zap.Bool("ephemeral", cfg.Ephemeral),
		zap.String("timezone", cfg.Location.String()),
		zap.Int("max_session_minutes", cfg.MaxSessionMinutes),
	)
	return &App{
		PacerCLI:     pacerinadapter.NewCLIHandler(pacerusecase.NewInteractor(rng, logger.Named("pacer"))),
		RegimeCLI:    regimeinadapter.NewCLIHandler(regimeusecase.NewInteractor(store)),
		SelectionCLI: selectioninadapter.NewCLIHandler(selectionUC),
		SessionCLI:   sessioninadapter.NewCLIHandler(sessionUC),
		closeStore:   closeStore,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

func RunTUI(app *App, condition string, stage int) error {
	model := uiapp.NewModel(condition, stage, app.SessionCLI, app.PacerCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
