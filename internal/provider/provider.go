// Package provider supplies the credentials and environment the wrapped tool
// runs with.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"

	"github.com/simplygenius/atmos-sub001/internal/logging"
	"github.com/simplygenius/atmos-sub001/internal/secrets"
)

var providerLog = logging.ForComponent(logging.CompProvider)

// Provider prepares the environment for the wrapped tool and manages the
// accounts behind it.
type Provider interface {
	Name() string
	Secrets() secrets.Store

	// Authenticate returns env extended with whatever the tool needs to reach
	// the provider. env itself is not modified.
	Authenticate(ctx context.Context, env map[string]string) (map[string]string, error)

	CreateAccount(ctx context.Context, name string) error
	CreateUser(ctx context.Context, name string) error
	CreateContainer(ctx context.Context, name string) error
}

// Config selects and configures a provider.
type Config struct {
	// Name is the provider to use (default: "local").
	Name string
	// Env is merged into the tool's environment.
	Env map[string]string
	// SecretEnv maps an environment variable to the secret key providing it.
	SecretEnv map[string]string
}

// New returns the provider named by cfg.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "", LocalName:
		return NewLocal(cfg.Env, cfg.SecretEnv), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Name)
}

// LocalName names the built-in provider.
const LocalName = "local"

// SecretEnvPrefix marks caller environment variables that carry secrets.
// ATMOS_SECRET_AWS_SECRET is stored under "aws_secret" and is not passed on
// to the tool.
const SecretEnvPrefix = "ATMOS_SECRET_"

// SecretKey normalizes key the way keys loaded from the environment are
// stored: lower case, with anything but letters and digits turned into '_'.
func SecretKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, key)
}

// Local adds static variables, and values from its in-memory secret store,
// to the environment. It manages no accounts.
type Local struct {
	env       map[string]string
	secretEnv map[string]string
	store     *secrets.Memory
}

// NewLocal returns a Local provider.
func NewLocal(env, secretEnv map[string]string) *Local {
	return &Local{
		env:       maps.Clone(env),
		secretEnv: maps.Clone(secretEnv),
		store:     secrets.NewMemory(),
	}
}

func (l *Local) Name() string { return LocalName }

func (l *Local) Secrets() secrets.Store { return l.store }

// Authenticate loads ATMOS_SECRET_* variables from env into the secret
// store and merges the configured variables over the rest of env. Variables
// backed by a secret are set only when the secret exists.
func (l *Local) Authenticate(ctx context.Context, env map[string]string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(env)+len(l.env))
	for name, v := range env {
		if key, ok := strings.CutPrefix(name, SecretEnvPrefix); ok && key != "" {
			if err := l.store.Set(SecretKey(key), v, true); err != nil {
				return nil, fmt.Errorf("load secret %s: %w", name, err)
			}
			continue
		}
		out[name] = v
	}
	maps.Copy(out, l.env)

	if keys := l.store.Keys(); len(keys) > 0 {
		providerLog.Debug("secrets_available",
			slog.String("provider", LocalName),
			slog.Any("keys", keys))
	}

	var missing []string
	for name, key := range l.secretEnv {
		v, ok := l.lookup(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		out[name] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		providerLog.Warn("secrets_missing",
			slog.String("provider", LocalName),
			slog.Any("keys", missing))
	}
	return out, nil
}

func (l *Local) lookup(key string) (string, bool) {
	if v, ok := l.store.Get(key); ok {
		return v, true
	}
	return l.store.Get(SecretKey(key))
}

func (l *Local) CreateAccount(context.Context, string) error {
	return fmt.Errorf("create account: %w", ErrNotSupported)
}

func (l *Local) CreateUser(context.Context, string) error {
	return fmt.Errorf("create user: %w", ErrNotSupported)
}

func (l *Local) CreateContainer(context.Context, string) error {
	return fmt.Errorf("create container: %w", ErrNotSupported)
}
