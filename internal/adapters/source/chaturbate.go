package source

import (
	"context"
	"encoding/json"
	"fmt"

	"camwatch/internal/domain"
)

// Chaturbate опрашивает партнёрский API Chaturbate.
type Chaturbate struct {
	client *Client
	cache  domain.Cache
}

// NewChaturbate создаёт адаптер.
func NewChaturbate(client *Client, cache domain.Cache) *Chaturbate {
	return &Chaturbate{client: client, cache: cache}
}

// Platform реализует Source.
func (s *Chaturbate) Platform() string { return domain.PlatformChaturbate }

type chaturbateItem struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Age         *int     `json:"age"`
	Gender      string   `json:"gender"`
	RoomSubject string   `json:"room_subject"`
	ImageURL    string   `json:"image_url"`
	IframeEmbed string   `json:"iframe_embed"`
	ChatRoomURL string   `json:"chat_room_url"`
	Tags        []string `json:"tags"`
}

// Fetch реализует Source. API отдаёт либо голый список, либо обёртку
// {"results": [...]}; в запрос добавляется client_ip, если он не задан в конфиге.
func (s *Chaturbate) Fetch(ctx context.Context, cfg domain.PlatformConfig) ([]domain.SourceRecord, map[string][]string, error) {
	params := paramsToValues(cfg.Params)
	if params.Get("client_ip") == "" {
		params.Set("client_ip", clientIP(ctx, s.client, s.cache))
	}
	body, err := s.client.Get(ctx, domain.PlatformChaturbate, cfg.APIURL, params)
	if err != nil {
		return nil, nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapped struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, nil, fmt.Errorf("decode response: %w", err)
		}
		items = wrapped.Results
	}

	records := make([]domain.SourceRecord, 0, len(items))
	tags := make(map[string][]string)
	for _, raw := range items {
		var item chaturbateItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, nil, fmt.Errorf("decode item: %w", err)
		}
		if item.Username == "" {
			continue
		}
		displayName := item.DisplayName
		if displayName == "" {
			displayName = item.Username
		}
		records = append(records, domain.SourceRecord{
			NativeID:    item.Username,
			Handle:      item.Username,
			DisplayName: displayName,
			Age:         item.Age,
			Gender:      domain.NormalizeGender(item.Gender),
			Description: item.RoomSubject,
			ImageURL:    item.ImageURL,
			IframeURL:   item.IframeEmbed,
			SnapshotURL: item.ImageURL,
			ChatURL:     item.ChatRoomURL,
			RawJSON:     raw,
		})
		if len(item.Tags) > 0 {
			tags[item.Username] = item.Tags
		}
	}
	return records, tags, nil
}
