package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"camwatch/internal/domain"
)

const (
	ipEchoURL        = "https://api.ipify.org"
	ipCacheKey       = "source:client_ip"
	ipCacheTTL       = time.Hour
	fallbackClientIP = "8.8.8.8"
)

// clientIP возвращает внешний IP процесса для платформ, которые требуют его
// в запросе. Результат кэшируется; при любой ошибке возвращается запасной адрес.
func clientIP(ctx context.Context, client *Client, cache domain.Cache) string {
	if cache != nil {
		if cached, err := cache.Get(ipCacheKey); err == nil && len(cached) > 0 {
			return string(cached)
		}
	}
	body, err := client.Get(ctx, "ipecho", ipEchoURL, url.Values{})
	if err != nil {
		return fallbackClientIP
	}
	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return fallbackClientIP
	}
	if cache != nil {
		_ = cache.Set(ipCacheKey, []byte(ip), ipCacheTTL)
	}
	return ip
}
