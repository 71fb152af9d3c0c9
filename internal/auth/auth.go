// Package auth turns deploy target credentials into go-git transport auth methods.
package auth

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

// Provider creates transport auth for one authentication type.
type Provider interface {
	// Type returns the authentication type this provider handles.
	Type() config.AuthType

	// Validate checks the configuration without touching the network.
	Validate(cfg *config.AuthConfig) error

	// Create returns the auth method for repository. A nil method means anonymous.
	Create(cfg *config.AuthConfig, repository string) (transport.AuthMethod, error)
}

// Registry maps auth types to providers.
type Registry struct {
	providers map[config.AuthType]Provider
}

// NewRegistry creates a registry with the none, ssh, token and basic providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[config.AuthType]Provider)}
	for _, p := range []Provider{noneProvider{}, sshProvider{}, tokenProvider{}, basicProvider{}} {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.providers[p.Type()] = p
}

// Create validates cfg and builds the auth method for repository.
func (r *Registry) Create(cfg *config.AuthConfig, repository string) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}
	p, ok := r.providers[cfg.Type]
	if !ok {
		return nil, &Error{Type: cfg.Type, Message: "unsupported authentication type"}
	}
	if err := p.Validate(cfg); err != nil {
		return nil, &Error{Type: cfg.Type, Message: "configuration validation failed", Cause: err}
	}
	method, err := p.Create(cfg, repository)
	if err != nil {
		return nil, &Error{Type: cfg.Type, Message: "failed to create authentication", Cause: err}
	}
	return method, nil
}

// Error represents an authentication-related error.
type Error struct {
	Type    config.AuthType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth error (%s): %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("auth error (%s): %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

var defaultRegistry = NewRegistry()

// Create builds auth with the default registry.
func Create(cfg *config.AuthConfig, repository string) (transport.AuthMethod, error) {
	return defaultRegistry.Create(cfg, repository)
}

type noneProvider struct{}

func (noneProvider) Type() config.AuthType             { return config.AuthTypeNone }
func (noneProvider) Validate(*config.AuthConfig) error { return nil }
func (noneProvider) Create(*config.AuthConfig, string) (transport.AuthMethod, error) {
	return nil, nil
}

type sshProvider struct{}

func (sshProvider) Type() config.AuthType { return config.AuthTypeSSH }

func (sshProvider) keyPath(cfg *config.AuthConfig) string {
	if cfg.KeyPath != "" {
		return cfg.KeyPath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ssh", "id_rsa")
}

func (p sshProvider) Validate(cfg *config.AuthConfig) error {
	if _, err := os.Stat(p.keyPath(cfg)); err != nil {
		return fmt.Errorf("SSH key file does not exist: %s", p.keyPath(cfg))
	}
	return nil
}

func (p sshProvider) Create(cfg *config.AuthConfig, _ string) (transport.AuthMethod, error) {
	user := cfg.Username
	if user == "" {
		user = "git"
	}
	keys, err := ssh.NewPublicKeysFromFile(user, p.keyPath(cfg), cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", p.keyPath(cfg), err)
	}
	return keys, nil
}

type tokenProvider struct{}

func (tokenProvider) Type() config.AuthType { return config.AuthTypeToken }

func (tokenProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Token == "" {
		return fmt.Errorf("token authentication requires a token")
	}
	return nil
}

// Create uses the configured username, then the user embedded in the repository
// URL (https://username@host/...), then the conventional "token".
func (tokenProvider) Create(cfg *config.AuthConfig, repository string) (transport.AuthMethod, error) {
	user := cfg.Username
	if user == "" {
		user = urlUser(repository)
	}
	if user == "" {
		user = "token"
	}
	return &http.BasicAuth{Username: user, Password: cfg.Token}, nil
}

type basicProvider struct{}

func (basicProvider) Type() config.AuthType { return config.AuthTypeBasic }

func (basicProvider) Validate(cfg *config.AuthConfig) error {
	if cfg.Username == "" {
		return fmt.Errorf("basic authentication requires a username")
	}
	if cfg.Password == "" {
		return fmt.Errorf("basic authentication requires a password")
	}
	return nil
}

func (basicProvider) Create(cfg *config.AuthConfig, _ string) (transport.AuthMethod, error) {
	return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
}

func urlUser(repository string) string {
	if !strings.Contains(repository, "://") {
		return ""
	}
	u, err := url.Parse(repository)
	if err != nil || u.User == nil {
		return ""
	}
	return u.User.Username()
}
