package tinycore

// This package binds a reactive store and a registry of named services
// into a single container and makes that container ambient for code running
// within a context.Context.
// It does NOT try to be another IOC container: services are looked up by name,
// there is no dependency graph between them.

import (
	"context"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceMap maps service names to service instances or lazy factories.
// Accepted factory shapes are
// func() T, func() (T, error) and func() (T, Cleanup, error).
type ServiceMap map[string]any

// Core is the untyped surface of a container.
// It is what gets propagated through context.Context.
type Core interface {
	GetService(name string) (any, error)
	ServiceNames() []string
}

type Configuration struct {
	// Ctx, when set, closes the registry as soon as it is done.
	Ctx    context.Context
	Logger *zap.Logger
}

type Option func(*Configuration)

var (
	WithCleanupContext = func(ctx context.Context) Option {
		return func(conf *Configuration) { conf.Ctx = ctx }
	}

	WithLogger = func(log *zap.Logger) Option {
		return func(conf *Configuration) { conf.Logger = log }
	}
)

func newConfiguration(opts []Option) Configuration {
	var conf Configuration

	for _, opt := range opts {
		opt(&conf)
	}

	if conf.Logger == nil {
		conf.Logger = logger()
	}

	return conf
}

var defaultLogger atomic.Pointer[zap.Logger]

func init() {
	defaultLogger.Store(zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.ErrorLevel,
	)).Named("tinycore"))
}

// SetLogger replaces the logger used by registries and consumers
// created without WithLogger.
// nil silences logging.
func SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	defaultLogger.Store(log)
}

func logger() *zap.Logger {
	return defaultLogger.Load()
}
