package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	_default *zap.SugaredLogger
)

// configure a default logger
func init() {
	ConfigureLogger(Config{DisableStacktrace: true})
}

type Config struct {
	Level             string   `mapstructure:"level"`
	Development       bool     `mapstructure:"development"`
	DisableStacktrace bool     `mapstructure:"disableStacktrace"`
	Encoding          string   `mapstructure:"encoding"`
	OutputPaths       []string `mapstructure:"outputPaths"`
	ErrorOutputPaths  []string `mapstructure:"errorOutputPaths"`
}

func (c *Config) applyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Encoding == "" {
		c.Encoding = "console"
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stderr"}
	}
	if len(c.ErrorOutputPaths) == 0 {
		c.ErrorOutputPaths = []string{"stderr"}
	}
}

// ConfigureLogger replaces the global zap logger.
func ConfigureLogger(c Config) *zap.SugaredLogger {
	c.applyDefaults()
	lvl := zapcore.InfoLevel
	_ = lvl.UnmarshalText([]byte(c.Level))

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if c.Encoding == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	logger, err := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: c.Development,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:          c.Encoding,
		EncoderConfig:     encoderConfig,
		DisableStacktrace: c.DisableStacktrace,
		OutputPaths:       c.OutputPaths,
		ErrorOutputPaths:  c.ErrorOutputPaths,
	}.Build()
	if err != nil {
		panic(err)
	}

	_default = logger.WithOptions(zap.AddCallerSkip(1)).Sugar()
	return _default
}

// Default returns the default global logger.
func Default() *zap.SugaredLogger {
	return _default
}

// Sync flushes the global logger.
func Sync() error {
	return Default().Sync()
}

func Debug(args ...interface{}) {
	Default().Debug(args...)
}

func Info(args ...interface{}) {
	Default().Info(args...)
}

func Warn(args ...interface{}) {
	Default().Warn(args...)
}

func Error(args ...interface{}) {
	Default().Error(args...)
}

// Fatal uses fmt.Sprint to construct and log a message, then calls os.Exit.
func Fatal(args ...interface{}) {
	Default().Fatal(args...)
}

func Debugf(template string, args ...interface{}) {
	Default().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	Default().Infof(template, args...)
}

func Errorf(template string, args ...interface{}) {
	Default().Errorf(template, args...)
}

// Debugw logs a message with some additional context. The variadic key-value
// pairs are treated as they are in With.
func Debugw(msg string, keysAndValues ...interface{}) {
	Default().Debugw(msg, keysAndValues...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	Default().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	Default().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	Default().Errorw(msg, keysAndValues...)
}

// With adds a variadic number of fields to the logging context.
func With(args ...interface{}) *zap.SugaredLogger {
	return Default().With(args...)
}
