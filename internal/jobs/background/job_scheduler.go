// Package background runs the periodic maintenance jobs: the overdue status
// sweep and the dashboard cache refresh.
package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"invoicely/internal/analytics"
	"invoicely/internal/repositories"
	"invoicely/internal/services"
)

// JobScheduler manages the periodic background jobs.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	invoiceSvc   services.InvoiceServiceInterface
	analyticsSvc *analytics.Service
	invoiceRepo  repositories.InvoiceRepository
}

// NewJobScheduler creates the scheduler and registers all jobs.
func NewJobScheduler(invoiceSvc services.InvoiceServiceInterface, analyticsSvc *analytics.Service, invoiceRepo repositories.InvoiceRepository) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		invoiceSvc:   invoiceSvc,
		analyticsSvc: analyticsSvc,
		invoiceRepo:  invoiceRepo,
	}
	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler.
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Overdue sweep - hourly. Keeps the stored display status in step with
	// the date-derived classification reporting already uses.
	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepOverdue, context.Background()),
		gocron.WithName("overdue-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		log.Printf("Failed to create overdue sweep job: %v", err)
	}

	// Dashboard cache refresh - every 5 minutes.
	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.refreshDashboards, context.Background()),
		gocron.WithName("dashboard-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		log.Printf("Failed to create dashboard refresh job: %v", err)
	}
}

func (js *JobScheduler) sweepOverdue(ctx context.Context) {
	marked, err := js.invoiceSvc.MarkOverdueInvoices(ctx)
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
		return
	}
	if marked > 0 {
		log.Printf("Overdue sweep marked %d invoices", marked)
	}
}

func (js *JobScheduler) refreshDashboards(ctx context.Context) {
	owners, err := js.invoiceRepo.ListOwners(ctx)
	if err != nil {
		log.Printf("Dashboard refresh: list owners failed: %v", err)
		return
	}
	for _, userID := range owners {
		if err := js.analyticsSvc.Refresh(ctx, userID); err != nil {
			log.Printf("Dashboard refresh failed for user %s: %v", userID, err)
		}
	}
}
