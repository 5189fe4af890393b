package usecase

import (
	"context"
	"time"

	"github.com/semmidev/vigil/internal/domain"
)

// CycleOutcome is everything one run produced.
type CycleOutcome struct {
	Results   []domain.Result
	Subject   string
	Report    string
	Delivered bool
}

// Cycle runs one backup pass over every configured source and sends the
// report.
type Cycle struct {
	backup    *Backup
	sources   []domain.Source
	notifiers []domain.Notifier
	logger    Logger
	now       func() time.Time
}

func NewCycle(backup *Backup, sources []domain.Source, notifiers []domain.Notifier, logger Logger) *Cycle {
	return &Cycle{
		backup:    backup,
		sources:   sources,
		notifiers: notifiers,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute adapts Run to the scheduler's job signature. A run has no
// failure mode of its own.
func (c *Cycle) Execute(ctx context.Context) error {
	c.Run(ctx)
	return nil
}

func (c *Cycle) Run(ctx context.Context) CycleOutcome {
	start := c.now()
	c.logger.Infof("Starting backup run for %d database(s)", len(c.sources))
	if err := c.backup.Prepare(); err != nil {
		c.logger.Errorf("%v", err)
	}

	results := make([]domain.Result, 0, len(c.sources))
	for _, src := range c.sources {
		results = append(results, c.backup.Execute(ctx, src))
	}

	outcome := CycleOutcome{
		Results: results,
		Subject: Subject(results),
		Report:  GenerateReport(results, c.now()),
	}
	outcome.Delivered = c.notify(ctx, outcome.Subject, outcome.Report)

	c.logger.Infof("Backup run completed in %s: %d/%d succeeded",
		c.now().Sub(start).Round(time.Millisecond), countSucceeded(results), len(results))
	return outcome
}

// notify hands the report to every notifier once and reports whether all
// of them accepted it.
func (c *Cycle) notify(ctx context.Context, subject, body string) bool {
	if len(c.notifiers) == 0 {
		c.logger.Warnf("No notifier configured, report not sent")
		return false
	}

	delivered := true
	for _, n := range c.notifiers {
		if err := n.Send(ctx, subject, body); err != nil {
			c.logger.Errorf("Failed to send %s notification: %v", n.Name(), err)
			delivered = false
			continue
		}
		c.logger.Infof("%s notification sent successfully", n.Name())
	}
	return delivered
}
