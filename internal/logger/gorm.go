package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger routes gorm's query log through the application logger.
type GormLogger struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

// Gorm returns a gorm logger sharing l's output. Queries are traced only when
// l emits debug entries, slow queries and errors are always reported.
func (l *Logger) Gorm() *GormLogger {
	level := gormlogger.Warn
	if l.IsDebug() {
		level = gormlogger.Info
	}
	return &GormLogger{
		logger:        l.sugar.Desugar().Named("gorm"),
		logLevel:      level,
		slowThreshold: defaultSlowThreshold,
	}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *g
	next.logLevel = level
	return &next
}

func (g *GormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if g.logLevel >= gormlogger.Info {
		g.logger.Sugar().Infof(msg, data...)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.logLevel >= gormlogger.Warn {
		g.logger.Sugar().Warnf(msg, data...)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if g.logLevel >= gormlogger.Error {
		g.logger.Sugar().Errorf(msg, data...)
	}
}

func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if g.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && g.logLevel >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		g.logger.Error("SQL error", append(fields, zap.Error(err))...)
	case g.slowThreshold != 0 && elapsed > g.slowThreshold && g.logLevel >= gormlogger.Warn:
		g.logger.Warn(fmt.Sprintf("SLOW SQL >= %v", g.slowThreshold), fields...)
	case g.logLevel >= gormlogger.Info:
		g.logger.Debug("SQL query", fields...)
	}
}
