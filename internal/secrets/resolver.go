package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pkgsecrets "github.com/Checker-Finance/product-proxy/pkg/secrets"
	"github.com/Checker-Finance/product-proxy/pkg/utils"
	"go.uber.org/zap"
)

// BaseURLKey is the secret map key holding the upstream product API root.
const BaseURLKey = "base_url"

// ErrMissingBaseURL is returned when the secret exists but carries no base_url.
var ErrMissingBaseURL = errors.New("secret missing base_url")

// Resolver reads the upstream base URL from a secrets provider once at startup.
type Resolver struct {
	logger   *zap.Logger
	provider pkgsecrets.Provider
}

// NewResolver constructs a base URL resolver.
func NewResolver(logger *zap.Logger, provider pkgsecrets.Provider) *Resolver {
	return &Resolver{logger: logger, provider: provider}
}

// ResolveBaseURL fetches secretID and returns its base_url value.
func (r *Resolver) ResolveBaseURL(ctx context.Context, secretID string) (string, error) {
	secretMap, err := r.provider.GetSecret(ctx, secretID)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", secretID),
			zap.Error(err))
		return "", fmt.Errorf("resolve base url: %w", err)
	}

	base, err := parseBaseURL(secretMap)
	if err != nil {
		return "", fmt.Errorf("parse secret %q: %w", secretID, err)
	}

	r.logger.Info("aws.base_url_resolved",
		zap.String("key", secretID),
		zap.String("base_url", utils.MaskURL(base)),
	)
	return base, nil
}

func parseBaseURL(m map[string]string) (string, error) {
	base := strings.TrimSpace(m[BaseURLKey])
	if base == "" {
		return "", ErrMissingBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base_url %q", base)
	}
	return base, nil
}
