package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"CT-SIGN/internal/domain"
)

const UnknownOrigin = "unknown"

type clientInfoKey struct{}

// WithClientInfo attaches the caller captured from an HTTP request.
func WithClientInfo(ctx context.Context, info domain.ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func ClientInfoFrom(ctx context.Context) (domain.ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey{}).(domain.ClientInfo)
	return info, ok
}

// OriginResolver determines the network origin recorded with audit events
// and signatures: the request's client address when there is one, otherwise
// the public address reported by the lookup service, otherwise "unknown".
type OriginResolver struct {
	lookupURL string
	client    *http.Client
	logger    *slog.Logger
}

func NewOriginResolver(lookupURL string, timeout time.Duration, logger *slog.Logger) *OriginResolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OriginResolver{
		lookupURL: lookupURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (r *OriginResolver) Resolve(ctx context.Context) domain.ClientInfo {
	info, _ := ClientInfoFrom(ctx)
	if info.UserAgent == "" {
		info.UserAgent = UnknownOrigin
	}
	if info.IPAddress != "" {
		return info
	}
	info.IPAddress = r.lookup(ctx)
	return info
}

func (r *OriginResolver) lookup(ctx context.Context) string {
	if r == nil || r.lookupURL == "" {
		return UnknownOrigin
	}
	ip, err := r.fetch(ctx)
	if err != nil {
		r.logger.Warn("public IP lookup failed", "url", r.lookupURL, "error", err)
		return UnknownOrigin
	}
	return ip
}

func (r *OriginResolver) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.lookupURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode lookup response: %w", err)
	}
	ip := strings.TrimSpace(body.IP)
	if ip == "" {
		return "", fmt.Errorf("lookup response has no ip")
	}
	return ip, nil
}
