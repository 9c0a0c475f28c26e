package log

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger forwards gorm messages and query traces into a LoggerService.
// Statements are traced at debug level when the log mode is logger.Info.
type GormLogger struct {
	log   LoggerService
	level logger.LogLevel
}

func NewGormLogger(log LoggerService, level logger.LogLevel) *GormLogger {
	return &GormLogger{
		log:   log,
		level: level,
	}
}

func (gl *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &GormLogger{
		log:   gl.log,
		level: level,
	}
}

func (gl *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if gl.level >= logger.Info {
		gl.log.Info(msg, data...)
	}
}

func (gl *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if gl.level >= logger.Warn {
		gl.log.Warn(msg, data...)
	}
}

func (gl *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if gl.level >= logger.Error {
		gl.log.Error(msg, data...)
	}
}

func (gl *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if gl.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && gl.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		gl.log.Error("%s [%s, rows=%s]: %v", sql, elapsed, formatRows(rows), err)
	case elapsed > slowQueryThreshold && gl.level >= logger.Warn:
		sql, rows := fc()
		gl.log.Warn("slow query %s [%s, rows=%s]", sql, elapsed, formatRows(rows))
	case gl.level >= logger.Info:
		sql, rows := fc()
		gl.log.Debug("%s [%s, rows=%s]", sql, elapsed, formatRows(rows))
	}
}

func formatRows(rows int64) string {
	if rows < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", rows)
}
