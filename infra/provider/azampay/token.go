package azampay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/donation/pkg/cache"
	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"golang.org/x/sync/singleflight"
)

// TokenSource exchanges client credentials for a bearer token and caches it
// for the configured TTL. Concurrent refreshes collapse into one request.
type TokenSource struct {
	cfg    *config.Gateway
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	refresh singleflight.Group
	shared  cache.TokenCache
}

// NewTokenSource creates a TokenSource for cfg.
func NewTokenSource(cfg *config.Gateway, client *http.Client, logger *slog.Logger) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenSource{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "azampay-token"),
		now:    time.Now,
	}
}

// UseCache shares tokens with other instances through c.
func (s *TokenSource) UseCache(c cache.TokenCache) {
	s.shared = c
}

func (s *TokenSource) cacheKey() string {
	return "azampay:token:" + s.cfg.ClientID
}

// Token returns the cached token, fetching a new one when it is missing or
// past its TTL.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok, nil
	}

	v, err, shared := s.refresh.Do("token", func() (any, error) {
		if tok, ok := s.cached(); ok {
			return tok, nil
		}
		if tok, ok := s.fromShared(ctx); ok {
			s.store(tok)
			return tok, nil
		}
		tok, err := s.fetch(ctx)
		if err != nil {
			return "", err
		}
		s.store(tok)
		if s.shared != nil {
			if err := s.shared.Set(ctx, s.cacheKey(), tok, s.ttl()); err != nil {
				s.logger.Warn("Failed to share gateway token", "error", err)
			}
		}
		s.logger.Info("🔑 Obtained new gateway token", "ttl", s.ttl())
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.logger.Debug("token refresh shared with concurrent caller")
	}
	return v.(string), nil
}

// Invalidate drops stale from the cache. A token refreshed by another caller
// in the meantime is kept.
func (s *TokenSource) Invalidate(stale string) {
	s.mu.Lock()
	if s.token == stale {
		s.token = ""
		s.expiresAt = time.Time{}
	}
	s.mu.Unlock()

	if s.shared == nil {
		return
	}
	ctx := context.Background()
	if tok, ok := s.fromShared(ctx); ok && tok == stale {
		if err := s.shared.Delete(ctx, s.cacheKey()); err != nil {
			s.logger.Warn("Failed to drop shared gateway token", "error", err)
		}
	}
}

func (s *TokenSource) fromShared(ctx context.Context) (string, bool) {
	if s.shared == nil {
		return "", false
	}
	tok, ok, err := s.shared.Get(ctx, s.cacheKey())
	if err != nil {
		s.logger.Warn("Shared token cache unavailable", "error", err)
		return "", false
	}
	return tok, ok && tok != ""
}

func (s *TokenSource) store(tok string) {
	s.mu.Lock()
	s.token = tok
	s.expiresAt = s.now().Add(s.ttl())
	s.mu.Unlock()
}

func (s *TokenSource) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, true
	}
	return "", false
}

func (s *TokenSource) ttl() time.Duration {
	if s.cfg.TokenTTL <= 0 {
		return 30 * time.Minute
	}
	return s.cfg.TokenTTL
}

func (s *TokenSource) fetch(ctx context.Context) (string, error) {
	url := strings.TrimRight(s.cfg.AuthURL, "/") + "/AppRegistration/GenerateToken"
	body := tokenRequest{
		AppName:      s.cfg.AppName,
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
	}

	status, raw, err := doJSON(ctx, s.client, url, "", "", body)
	if err != nil {
		if errors.Is(err, payment.ErrGatewayTimeout) {
			// no checkout was sent, so nothing can settle a pending donation later
			return "", &payment.GatewayError{Kind: payment.ErrGatewayUnreachable, Message: "token request timed out"}
		}
		return "", err
	}
	var out tokenResponse
	if err := json.Unmarshal(raw, &out); err != nil && status < http.StatusInternalServerError {
		s.logger.Error("❌ Unreadable gateway token response", "status", status, "error", err)
		return "", &payment.GatewayError{Kind: payment.ErrGatewayAuth, StatusCode: status, Message: "unreadable token response"}
	}
	if status != http.StatusOK || !out.Success || out.Data.AccessToken == "" {
		s.logger.Error("❌ Gateway authentication failed", "status", status, "message", out.Message)
		if status >= http.StatusInternalServerError {
			return "", transient(&payment.GatewayError{Kind: payment.ErrGatewayAuth, StatusCode: status, Message: out.Message})
		}
		return "", &payment.GatewayError{Kind: payment.ErrGatewayAuth, StatusCode: status, Message: out.Message}
	}
	return strings.TrimSpace(out.Data.AccessToken), nil
}
