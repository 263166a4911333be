package logger

import (
	"context"

	"go.uber.org/zap"
)

// Logger 带上下文字段的结构化日志接口
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
}

type fieldsKey struct{}

// FieldsKey 上下文中日志字段的 key
var FieldsKey = fieldsKey{}

// ContextWithFields 在上下文中追加日志字段, 已有字段保留
func ContextWithFields(ctx context.Context, fields ...Field) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := FieldsFromContext(ctx)
	merged := make([]Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, FieldsKey, merged)
}

// FieldsFromContext 取出上下文中的日志字段
func FieldsFromContext(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(FieldsKey).([]Field)
	return fields
}

type ZapLogger struct {
	l *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l.WithOptions(zap.AddCallerSkip(1))}
}

// NewNopLogger 丢弃所有输出, 测试使用
func NewNopLogger() Logger {
	return &ZapLogger{l: zap.NewNop()}
}

func (z *ZapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, fields...) }

func (z *ZapLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Debug(msg, withContext(ctx, fields)...)
}

func (z *ZapLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Info(msg, withContext(ctx, fields)...)
}

func (z *ZapLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Warn(msg, withContext(ctx, fields)...)
}

func (z *ZapLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Error(msg, withContext(ctx, fields)...)
}

// Sync 刷新缓冲区
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}

func withContext(ctx context.Context, fields []Field) []Field {
	ctxFields := FieldsFromContext(ctx)
	if len(ctxFields) == 0 {
		return fields
	}
	res := make([]Field, 0, len(ctxFields)+len(fields))
	res = append(res, ctxFields...)
	return append(res, fields...)
}
