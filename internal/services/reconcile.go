package services

import (
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/techmarket/internal/models"
)

// StockReconciler periodically compares the authoritative aggregate stock of
// each product against the sum of its option stocks and logs drift. It never
// mutates; per-option counts are informational.
type StockReconciler struct {
	db   *gorm.DB
	log  *logrus.Logger
	cron *cron.Cron
}

// NewStockReconciler constructs StockReconciler.
func NewStockReconciler(db *gorm.DB, log *logrus.Logger) *StockReconciler {
	return &StockReconciler{db: db, log: log, cron: cron.New()}
}

// Start schedules the reconciliation job. spec is a cron spec such as
// "@every 10m".
func (r *StockReconciler) Start(spec string) error {
	if err := r.cron.AddFunc(spec, r.Run); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule.
func (r *StockReconciler) Stop() {
	r.cron.Stop()
}

// Run performs one reconciliation pass.
func (r *StockReconciler) Run() {
	type drift struct {
		ID           string
		Name         string
		CountInStock int
		OptionStock  int
	}

	var drifts []drift
	err := r.db.Model(&models.Product{}).
		Select("products.id, products.name, products.count_in_stock, COALESCE(SUM(product_options.count_in_stock), 0) as option_stock").
		Joins("JOIN product_options ON product_options.product_id = products.id").
		Group("products.id, products.name, products.count_in_stock").
		Having("products.count_in_stock <> COALESCE(SUM(product_options.count_in_stock), 0)").
		Scan(&drifts).Error
	if err != nil {
		r.log.WithError(err).Error("reconcile: stock query failed")
		return
	}

	for _, d := range drifts {
		r.log.WithFields(logrus.Fields{
			"product_id":     d.ID,
			"product":        d.Name,
			"count_in_stock": d.CountInStock,
			"option_stock":   d.OptionStock,
		}).Warn("reconcile: aggregate stock disagrees with option sum")
	}

	if len(drifts) == 0 {
		r.log.Debug("reconcile: stock counts consistent")
	}
}
