package runner

import (
	"go.uber.org/zap"
)

// Failure identifies where a test stopped. Variables holds what the tour
// had captured by then.
type Failure struct {
	WorkerID  int
	Iteration int
	Tour      string
	Test      string
	Err       error
	Variables map[string]string
}

// FailureLogger receives every failed or errored test.
type FailureLogger interface {
	LogFailure(f Failure)
}

type zapFailureLogger struct {
	logger *zap.Logger
}

// NewZapFailureLogger logs failures at warn level and errors at error level.
func NewZapFailureLogger(logger *zap.Logger) FailureLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapFailureLogger{logger: logger}
}

func (l *zapFailureLogger) LogFailure(f Failure) {
	if f.Err == nil {
		return
	}
	fields := []zap.Field{
		zap.Int("worker", f.WorkerID),
		zap.Int("iteration", f.Iteration),
		zap.String("tour", f.Tour),
		zap.String("test", f.Test),
		zap.Error(f.Err),
	}
	if len(f.Variables) > 0 {
		fields = append(fields, zap.Any("variables", f.Variables))
	}
	if IsFailure(f.Err) {
		l.logger.Warn("test failed", fields...)
		return
	}
	l.logger.Error("test errored", fields...)
}
