package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM orders":                       "SELECT",
		"  insert into billing_reports values (1)":   "INSERT",
		"WITH x AS (SELECT 1) UPDATE orders SET a=1": "SELECT",
		"":                                           "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestGormLoggerTraceLogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders", 0
	}, errors.New("boom"))
	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders", 0
	}, gormlogger.ErrRecordNotFound)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "SELECT", entries[0].ContextMap()["operation"])
	}
}

func TestGormLoggerSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), DefaultGormLoggerConfig()).LogMode(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "DELETE FROM orders", 1
	}, errors.New("boom"))

	assert.Zero(t, logs.Len())
}
