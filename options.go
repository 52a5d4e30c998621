package docstore

import (
	"os"
	"time"

	"github.com/goliatone/go-docstore/pkg/activity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/goliatone/go-docstore"

// Option configures an Engine or Scoped store.
type Option[T any] func(*config[T])

type config[T any] struct {
	codec      Codec
	defaults   func() T
	logger     Logger
	hooks      activity.Hooks
	channel    string
	validators []Validator
	tracer     trace.Tracer
	fileMode   os.FileMode
	dirMode    os.FileMode
	clock      func() time.Time
	dir        string
}

func applyOptions[T any](opts []Option[T]) config[T] {
	cfg := config[T]{
		codec:    DefaultCodec,
		logger:   noopLogger{},
		tracer:   otel.Tracer(instrumentationName),
		fileMode: 0o644,
		dirMode:  0o755,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithCodec sets the document encoding. JSON is the default.
func WithCodec[T any](codec Codec) Option[T] {
	return func(cfg *config[T]) {
		if codec != nil {
			cfg.codec = codec
		}
	}
}

// WithDefaults sets the constructor used when no stored document is usable.
func WithDefaults[T any](fn func() T) Option[T] {
	return func(cfg *config[T]) {
		cfg.defaults = fn
	}
}

// WithLogger attaches a logger. A nil logger disables logging.
func WithLogger[T any](logger Logger) Option[T] {
	return func(cfg *config[T]) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithHooks attaches activity hooks notified of every store outcome.
func WithHooks[T any](hooks ...activity.ActivityHook) Option[T] {
	return func(cfg *config[T]) {
		for _, hook := range hooks {
			if hook != nil {
				cfg.hooks = append(cfg.hooks, hook)
			}
		}
	}
}

// WithChannel sets the channel stamped on emitted activity events.
func WithChannel[T any](channel string) Option[T] {
	return func(cfg *config[T]) {
		cfg.channel = channel
	}
}

// WithValidators appends validators run on every decoded document.
func WithValidators[T any](validators ...Validator) Option[T] {
	return func(cfg *config[T]) {
		cfg.validators = append(cfg.validators, validators...)
	}
}

// WithTracerProvider sets the provider used for load, save and delete spans.
// The global provider is used otherwise.
func WithTracerProvider[T any](provider trace.TracerProvider) Option[T] {
	return func(cfg *config[T]) {
		if provider != nil {
			cfg.tracer = provider.Tracer(instrumentationName)
		}
	}
}

// WithFileMode sets the permission bits of written files.
func WithFileMode[T any](mode os.FileMode) Option[T] {
	return func(cfg *config[T]) {
		if mode != 0 {
			cfg.fileMode = mode
		}
	}
}

// WithClock overrides the clock used for quarantine names and durations.
func WithClock[T any](clock func() time.Time) Option[T] {
	return func(cfg *config[T]) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithDirectory overrides the settings directory used by OpenScoped.
func WithDirectory[T any](dir string) Option[T] {
	return func(cfg *config[T]) {
		cfg.dir = dir
	}
}
