package git

import (
	stdErrors "errors"
	"net"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	var builder *errors.ErrorBuilder
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") ||
		strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		builder = errors.GitError("git authentication failed").UserAction()
	case strings.Contains(l, "repository not found") || strings.Contains(l, "not found") || strings.Contains(l, "does not exist"):
		builder = errors.NotFoundError("git repository not found")
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported") ||
		strings.Contains(l, "unsupported scheme"):
		builder = errors.ConfigError("unsupported git protocol")
	case strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") ||
		strings.Contains(l, "timeout") || strings.Contains(l, "no route to host") ||
		strings.Contains(l, "connection refused") || strings.Contains(l, "rate limit"):
		builder = errors.NetworkError("git transport failed")
	default:
		builder = errors.GitError("git operation failed")
	}
	return builder.
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url).
		Build()
}

// IsPermanent reports whether retrying err cannot help.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if ce, ok := errors.AsClassified(err); ok {
		if ce.CanRetry() {
			return false
		}
		switch ce.Category() {
		case errors.CategoryNotFound, errors.CategoryConfig:
			return true
		}
		if ce.RetryStrategy() == errors.RetryUserAction {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return true
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "unsupported protocol") {
		return true
	}
	var nerr net.Error
	if stdErrors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}
