// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/models"
)

// migrationLockID is the advisory lock held while migrating.
const migrationLockID = 101

// DefaultEventLimit caps Events when the caller passes no limit.
const DefaultEventLimit = 100

// gormLogger реализует интерфейс logger.Interface для GORM
type gormLogger struct {
	zapLogger     *zap.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger:     zapLogger,
		logLevel:      logger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace логирует SQL; медленные запросы поднимаются до Warn
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.logLevel >= logger.Error:
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
	case elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		l.zapLogger.Warn("slow query", fields...)
	case l.logLevel >= logger.Info:
		l.zapLogger.Debug("trace", fields...)
	}
}

// Index stores ledger events for the read API. It subscribes to the bus as a handler.
type Index struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ events.Handler = (*Index)(nil)

// NewIndex connects to PostgreSQL.
func NewIndex(dsn string, zapLogger *zap.Logger) (*Index, error) {
	idx, err := Open(postgres.Open(dsn), zapLogger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := idx.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return idx, nil
}

// Open builds an index over any gorm dialector.
func Open(dialector gorm.Dialector, zapLogger *zap.Logger) (*Index, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Index{db: db, logger: zapLogger.Named("event_index")}, nil
}

// RunMigrations использует GORM AutoMigrate; на PostgreSQL под advisory lock
func (i *Index) RunMigrations() error {
	if i.db.Dialector.Name() == "postgres" {
		var lockObtained bool
		err := i.db.Raw("SELECT pg_try_advisory_lock(?)", migrationLockID).Scan(&lockObtained).Error
		if err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if !lockObtained {
			return errors.New("another migration is in progress")
		}
		defer i.db.Exec("SELECT pg_advisory_unlock(?)", migrationLockID)
	}

	if err := i.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Handle indexes one event. Re-delivered events are ignored.
func (i *Index) Handle(ctx context.Context, event events.Event) error {
	h := event.Header()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", h.EventType, err)
	}

	authority, actor := h.Authority.String(), h.Actor.String()
	spent, withdrawn := flows(event)

	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.EventRecord{}).
			Where("authority = ? AND event_index = ?", authority, h.EventIndex).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			i.logger.Debug("Event already indexed",
				zap.String("authority", authority),
				zap.Uint64("event_index", h.EventIndex))
			return nil
		}

		record := &models.EventRecord{
			Authority:  authority,
			EventIndex: h.EventIndex,
			GameIndex:  h.GameIndex,
			Actor:      actor,
			Type:       string(h.EventType),
			Version:    h.Version,
			Payload:    string(payload),
			OccurredAt: h.EventTime.UTC(),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		var stat models.ActorStat
		if err := tx.Where(models.ActorStat{Authority: authority, Actor: actor}).FirstOrInit(&stat).Error; err != nil {
			return fmt.Errorf("load actor stat: %w", err)
		}
		stat.Events++
		stat.Spent += spent
		stat.Withdrawn += withdrawn
		stat.LastEventAt = h.EventTime.UTC()
		if err := tx.Save(&stat).Error; err != nil {
			return fmt.Errorf("save actor stat: %w", err)
		}
		return nil
	})
}

// flows extracts lamports paid in and out by the actor.
func flows(event events.Event) (spent, withdrawn uint64) {
	switch e := event.(type) {
	case *events.PremarketBuyEvent:
		return e.Amount, 0
	case *events.BuyEvent:
		return e.Amount, 0
	case *events.UserWithdrawnEvent:
		return 0, e.Total
	case *events.DevWithdrawnEvent:
		return 0, e.Amount
	}
	return 0, 0
}

// Events returns the newest events of a game, optionally filtered by actor.
func (i *Index) Events(ctx context.Context, authority, actor string, limit int) ([]models.EventRecord, error) {
	if limit <= 0 || limit > DefaultEventLimit {
		limit = DefaultEventLimit
	}
	q := i.db.WithContext(ctx).Where("authority = ?", authority)
	if actor != "" {
		q = q.Where("actor = ?", actor)
	}
	var out []models.EventRecord
	err := q.Order("event_index desc").Limit(limit).Find(&out).Error
	return out, err
}

// Stat returns the aggregate for one actor, or gorm.ErrRecordNotFound.
func (i *Index) Stat(ctx context.Context, authority, actor string) (*models.ActorStat, error) {
	var stat models.ActorStat
	err := i.db.WithContext(ctx).
		Where("authority = ? AND actor = ?", authority, actor).
		First(&stat).Error
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// Close releases the connection pool.
func (i *Index) Close() error {
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
