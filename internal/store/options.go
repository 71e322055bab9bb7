package store

import "github.com/sirupsen/logrus"

// Option configures an identity store.
type Option func(*options)

type options struct {
	scrypt ScryptParams
	log    *logrus.Logger
}

func defaultOptions() options {
	return options{scrypt: DefaultScryptParams}
}

// WithScryptParams overrides the passphrase KDF cost.
func WithScryptParams(p ScryptParams) Option {
	return func(o *options) { o.scrypt = p }
}

// WithLogger routes store diagnostics to log.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.log = log }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = logrus.New()
	}
	return o
}
