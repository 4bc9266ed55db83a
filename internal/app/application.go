// Package app wires the ledger service, persistence and event plumbing into
// a single application object.
package app

import (
	"context"
	"fmt"

	"github.com/R3E-Network/ledger_layer/internal/app/events"
	tokensvc "github.com/R3E-Network/ledger_layer/internal/app/services/token"
	"github.com/R3E-Network/ledger_layer/internal/app/storage"
	"github.com/R3E-Network/ledger_layer/internal/app/storage/memory"
	coretoken "github.com/R3E-Network/ledger_layer/internal/token"
	"github.com/R3E-Network/ledger_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. A nil store defaults to the
// in-memory implementation.
type Stores struct {
	Ledger storage.LedgerStore
}

// Config holds the application-level settings.
type Config struct {
	Token coretoken.Config
	// AuditSchedule is a cron spec for the supply auditor; empty disables it.
	AuditSchedule string
}

// Application ties the token service together and manages its lifecycle.
type Application struct {
	log     *logger.Logger
	auditor *tokensvc.Auditor

	Token *tokensvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(ctx context.Context, cfg Config, stores Stores, pub events.Publisher, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.Ledger == nil {
		stores.Ledger = memory.New()
	}

	svc, err := tokensvc.Load(ctx, cfg.Token, stores.Ledger, pub, log)
	if err != nil {
		return nil, fmt.Errorf("initialise token service: %w", err)
	}

	a := &Application{log: log, Token: svc}
	if cfg.AuditSchedule != "" {
		auditor, err := tokensvc.NewAuditor(svc, cfg.AuditSchedule, log)
		if err != nil {
			return nil, err
		}
		a.auditor = auditor
	}
	return a, nil
}

// Start launches background workers.
func (a *Application) Start(_ context.Context) error {
	if a.auditor != nil {
		a.auditor.Start()
	}
	return nil
}

// Stop halts background workers.
func (a *Application) Stop(_ context.Context) error {
	if a.auditor != nil {
		a.auditor.Stop()
	}
	return nil
}
