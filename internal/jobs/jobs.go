// Package jobs runs the shop's scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"printshop/internal/core"
	"printshop/internal/messaging"
	"printshop/internal/notify"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// OverdueReader is satisfied by core.ReportingService.
type OverdueReader interface {
	OverdueOrders(ctx context.Context, asOf time.Time) ([]core.OutstandingBalance, error)
}

// OverdueSweep notifies staff about undelivered orders that are past their delivery
// date and still have money due.
type OverdueSweep struct {
	reports OverdueReader
	pub     notify.Publisher
	format  *messaging.Formatter
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

func NewOverdueSweep(reports OverdueReader, pub notify.Publisher, format *messaging.Formatter, loc *time.Location, log *zap.Logger) *OverdueSweep {
	return &OverdueSweep{reports: reports, pub: pub, format: format, loc: loc, log: log, now: time.Now}
}

// Run publishes one notification per overdue order with a balance and returns how many
// were sent. A failed publish is logged and does not stop the sweep.
func (s *OverdueSweep) Run(ctx context.Context) (int, error) {
	today := s.now().In(s.loc)
	orders, err := s.reports.OverdueOrders(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("overdue sweep: %w", err)
	}

	sent := 0
	for _, o := range orders {
		if !o.BalanceDue.IsPositive() {
			continue
		}
		due := ""
		if o.DeliveryDate != nil {
			due = s.format.Date(*o.DeliveryDate)
		}
		n := notify.Notification{
			Kind:       notify.KindOverdue,
			Title:      fmt.Sprintf("Order #%d is overdue", o.OrderID),
			Body:       fmt.Sprintf("%s (%s) owes %s on %s, due %s.", o.CustomerName, o.CustomerPhone, s.format.Amount(o.BalanceDue), o.OrderType, due),
			EntityType: "order",
			EntityID:   o.OrderID,
		}
		if err := s.pub.Publish(ctx, n); err != nil {
			s.log.Warn("overdue notification failed", zap.Int("order_id", o.OrderID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// Scheduler owns the gocron scheduler.
type Scheduler struct {
	s   gocron.Scheduler
	log *zap.Logger
}

// Start schedules the overdue sweep daily at 08:00 in loc and starts the scheduler.
func Start(sweep *OverdueSweep, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(8, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			n, err := sweep.Run(ctx)
			if err != nil {
				log.Error("overdue sweep failed", zap.Error(err))
				return
			}
			log.Info("overdue sweep finished", zap.Int("notified", n))
		}),
		gocron.WithName("overdue-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule overdue sweep: %w", err)
	}

	s.Start()
	log.Info("scheduler started", zap.String("overdue_sweep", "08:00 "+loc.String()))
	return &Scheduler{s: s, log: log}, nil
}

// Shutdown stops the scheduler and waits for running jobs.
func (sc *Scheduler) Shutdown() error {
	return sc.s.Shutdown()
}
