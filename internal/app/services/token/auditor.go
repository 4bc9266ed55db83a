package token

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/ledger_layer/internal/app/metrics"
	"github.com/R3E-Network/ledger_layer/pkg/logger"
)

// Auditor periodically re-checks the supply invariants (balance conservation
// and the max-supply ceiling) against the live ledger and exports the result.
// A violation means a bug or storage corruption, so it is logged at error
// level rather than repaired.
type Auditor struct {
	svc  *Service
	cron *cron.Cron
	log  *logger.Logger
}

// NewAuditor schedules an audit on a cron spec (e.g. "@every 1m").
func NewAuditor(svc *Service, schedule string, log *logger.Logger) (*Auditor, error) {
	if log == nil {
		log = logger.NewDefault("token-auditor")
	}

	a := &Auditor{svc: svc, cron: cron.New(), log: log}
	if _, err := a.cron.AddFunc(schedule, a.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", schedule, err)
	}
	return a, nil
}

// Start begins scheduled auditing.
func (a *Auditor) Start() {
	a.cron.Start()
	a.log.Info("supply auditor started")
}

// Stop halts the schedule, waiting for a running audit to finish.
func (a *Auditor) Stop() {
	<-a.cron.Stop().Done()
}

// RunOnce performs a single audit pass.
func (a *Auditor) RunOnce() {
	err := a.svc.CheckInvariants()
	metrics.RecordAudit(err == nil)
	if err != nil {
		a.log.WithError(err).Error("supply invariant violated")
		return
	}
	a.log.Debug("supply invariants hold")
}
