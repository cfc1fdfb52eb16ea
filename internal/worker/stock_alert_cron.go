package worker

import (
	"context"
	"fmt"
	"time"

	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// alertTTL outlives one calendar day so the date-scoped key cannot repeat.
const alertTTL = 26 * time.Hour

// LowStockSource lists stock items; repository.StockItemRepository implements it.
type LowStockSource interface {
	List(ctx context.Context, filter repository.StockItemFilter) ([]model.StockItem, error)
}

// AdminSource lists active administrators.
type AdminSource interface {
	ListAdmins(ctx context.Context) ([]model.User, error)
}

// NotificationSink stores in-app notifications.
type NotificationSink interface {
	Create(ctx context.Context, list []model.Notification) error
}

// EmailEnqueuer queues notification mail; *Dispatcher implements it.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

// AlertDeduper reports whether key is new; a key already present means the
// alert was sent before.
type AlertDeduper interface {
	FirstTime(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisDeduper implements AlertDeduper with SETNX.
type RedisDeduper struct{ rdb *redis.Client }

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper { return &RedisDeduper{rdb: rdb} }

func (d *RedisDeduper) FirstTime(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// StockAlertConfig holds the dependencies of the low-stock alert cron.
type StockAlertConfig struct {
	Stock         LowStockSource
	Admins        AdminSource
	Notifications NotificationSink
	Mail          EmailEnqueuer // optional
	Dedupe        AlertDeduper
	Interval      time.Duration
	Location      *time.Location
}

// StockAlertCron notifies every admin about items at or below their
// threshold, at most once per item per day.
type StockAlertCron struct {
	cfg StockAlertConfig
	now func() time.Time
}

func NewStockAlertCron(cfg StockAlertConfig) *StockAlertCron {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &StockAlertCron{cfg: cfg, now: time.Now}
}

// Start runs one pass right away, then one per interval until ctx ends.
func (c *StockAlertCron) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		log.Info().Dur("interval", c.cfg.Interval).Msg("stock_alert: started")

		c.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_alert: shutting down")
				return
			case <-ticker.C:
				c.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce checks stock levels and returns how many items were alerted.
func (c *StockAlertCron) RunOnce(ctx context.Context) int {
	items, err := c.cfg.Stock.List(ctx, repository.StockItemFilter{LowOnly: true})
	if err != nil {
		log.Error().Err(err).Msg("stock_alert: list low stock")
		return 0
	}
	if len(items) == 0 {
		return 0
	}
	admins, err := c.cfg.Admins.ListAdmins(ctx)
	if err != nil {
		log.Error().Err(err).Msg("stock_alert: list admins")
		return 0
	}
	if len(admins) == 0 {
		return 0
	}

	today := c.now().In(c.cfg.Location).Format("2006-01-02")
	alerted := 0
	for _, item := range items {
		key := fmt.Sprintf("stock_alert:%s:%s", item.ID, today)
		first, err := c.cfg.Dedupe.FirstTime(ctx, key, alertTTL)
		if err != nil {
			log.Warn().Err(err).Str("stock_item", item.Name).Msg("stock_alert: dedupe check failed, skipping item")
			continue
		}
		if !first {
			continue
		}
		c.alert(ctx, item, admins)
		alerted++
	}
	if alerted > 0 {
		log.Info().Int("items", alerted).Msg("stock_alert: low stock alerts sent")
	}
	return alerted
}

func (c *StockAlertCron) alert(ctx context.Context, item model.StockItem, admins []model.User) {
	msg := fmt.Sprintf("Low stock: %s has %d left (threshold %d)", item.Name, item.Quantity, item.LowStockThreshold)
	url := "/v1/stock/" + item.ID.String()

	notes := make([]model.Notification, 0, len(admins))
	for _, a := range admins {
		notes = append(notes, model.Notification{UserID: a.ID, Message: msg, URL: url})
	}
	if err := c.cfg.Notifications.Create(ctx, notes); err != nil {
		log.Error().Err(err).Str("stock_item", item.Name).Msg("stock_alert: create notifications")
		return
	}
	if c.cfg.Mail == nil {
		return
	}
	for _, a := range admins {
		if a.Email == nil || *a.Email == "" {
			continue
		}
		job := EmailJobPayload{ToEmail: *a.Email, Subject: "Low stock: " + item.Name, Body: msg}
		if err := c.cfg.Mail.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("to", *a.Email).Msg("stock_alert: enqueue email")
		}
	}
}
