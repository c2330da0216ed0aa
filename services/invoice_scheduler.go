package services

import (
	"time"

	"neldrac_go/database"
	"neldrac_go/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// InvoiceScheduler runs the monthly invoice batch on a cron schedule,
// once per active center. Each center's run is independent; a failure in
// one center does not stop the others.
type InvoiceScheduler struct {
	cron    *cron.Cron
	billing *BillingService
	spec    string
}

func NewInvoiceScheduler(billing *BillingService, spec string) *InvoiceScheduler {
	return &InvoiceScheduler{
		cron:    cron.New(),
		billing: billing,
		spec:    spec,
	}
}

// Start registers the batch job and begins the cron loop.
func (s *InvoiceScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runAllCenters)
	if err != nil {
		return err
	}
	s.cron.Start()
	logrus.WithField("spec", s.spec).Info("Invoice scheduler started")
	return nil
}

// Stop halts the cron loop; a running batch finishes first.
func (s *InvoiceScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Invoice scheduler stopped")
}

func (s *InvoiceScheduler) runAllCenters() {
	now := time.Now()

	var centers []models.Center
	if err := database.DB.Where("active = ?", true).Find(&centers).Error; err != nil {
		logrus.WithError(err).Error("Invoice scheduler could not list centers")
		return
	}

	for _, center := range centers {
		report, err := s.billing.GenerateMonthlyInvoices(center.ID, now)
		if err != nil {
			logrus.WithError(err).WithField("center_id", center.ID).
				Error("Scheduled invoice batch failed")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"center_id": center.ID,
			"center":    center.Name,
			"generated": report.Generated,
			"skipped":   report.Skipped,
			"errors":    len(report.Errors),
		}).Info("Scheduled invoice batch finished")
	}
}
