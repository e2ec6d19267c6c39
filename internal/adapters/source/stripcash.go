package source

import (
	"context"
	"encoding/json"
	"fmt"

	"camwatch/internal/domain"
)

// Stripcash опрашивает партнёрский API Stripcash. Ссылки на чат и встраивание
// собираются из userId партнёра, заданного в конфигурации платформы.
type Stripcash struct {
	client *Client
}

// NewStripcash создаёт адаптер.
func NewStripcash(client *Client) *Stripcash {
	return &Stripcash{client: client}
}

// Platform реализует Source.
func (s *Stripcash) Platform() string { return domain.PlatformStripcash }

type stripcashItem struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Gender      string   `json:"gender"`
	PreviewURL  string   `json:"previewUrl"`
	SnapshotURL string   `json:"snapshotUrl"`
	Tags        []string `json:"tags"`
}

// Fetch реализует Source.
func (s *Stripcash) Fetch(ctx context.Context, cfg domain.PlatformConfig) ([]domain.SourceRecord, map[string][]string, error) {
	body, err := s.client.Get(ctx, domain.PlatformStripcash, cfg.APIURL, paramsToValues(cfg.Params))
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Models []json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}

	userID := cfg.Params["userId"]
	records := make([]domain.SourceRecord, 0, len(payload.Models))
	tags := make(map[string][]string)
	for _, raw := range payload.Models {
		var item stripcashItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, nil, fmt.Errorf("decode item: %w", err)
		}
		if item.ID == 0 {
			continue
		}
		nativeID := fmt.Sprintf("%d", item.ID)
		records = append(records, domain.SourceRecord{
			NativeID:    nativeID,
			Handle:      item.Username,
			DisplayName: item.Username,
			Gender:      domain.NormalizeGender(item.Gender),
			ImageURL:    item.PreviewURL,
			IframeURL:   fmt.Sprintf("https://go.schjmpl.com/?userId=%s&refreshRate=60&hasPlayer=true&hasLive=true&hasName=true&path=%s", userID, item.Username),
			EmbedURL:    fmt.Sprintf("https://lite-iframe.stripcdn.com/%s?userId=%s", item.Username, userID),
			SnapshotURL: item.SnapshotURL,
			ChatURL:     fmt.Sprintf("https://go.gldrdr.com/?userId=%s&path=/cams/%s", userID, item.Username),
			RawJSON:     raw,
		})
		if len(item.Tags) > 0 {
			tags[nativeID] = item.Tags
		}
	}
	return records, tags, nil
}
