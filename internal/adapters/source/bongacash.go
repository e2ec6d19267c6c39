package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"camwatch/internal/domain"
)

// BongaCash опрашивает партнёрский API BongaCash. Ссылка на чат собирается из
// партнёрского кода "c", заданного в конфигурации платформы.
type BongaCash struct {
	client *Client
}

// NewBongaCash создаёт адаптер.
func NewBongaCash(client *Client) *BongaCash {
	return &BongaCash{client: client}
}

// Platform реализует Source.
func (s *BongaCash) Platform() string { return domain.PlatformBongaCash }

type bongaItem struct {
	Username      string   `json:"username"`
	DisplayName   string   `json:"display_name"`
	DisplayAge    *int     `json:"display_age"`
	Gender        string   `json:"gender"`
	TurnsOn       string   `json:"turns_on"`
	EmbedChatURL  string   `json:"embed_chat_url"`
	Tags          []string `json:"tags"`
	ProfileImages struct {
		ProfileImage     string `json:"profile_image"`
		ThumbnailBigLive string `json:"thumbnail_image_big_live"`
	} `json:"profile_images"`
}

// Fetch реализует Source.
func (s *BongaCash) Fetch(ctx context.Context, cfg domain.PlatformConfig) ([]domain.SourceRecord, map[string][]string, error) {
	body, err := s.client.Get(ctx, domain.PlatformBongaCash, cfg.APIURL, paramsToValues(cfg.Params))
	if err != nil {
		return nil, nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}

	promoCode := cfg.Params["c"]
	records := make([]domain.SourceRecord, 0, len(items))
	tags := make(map[string][]string)
	for _, raw := range items {
		var item bongaItem
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
		imageURL := item.ProfileImages.ProfileImage
		if imageURL != "" && !strings.HasPrefix(imageURL, "https://") {
			imageURL = "https://" + strings.TrimPrefix(imageURL, "//")
		}
		records = append(records, domain.SourceRecord{
			NativeID:    item.Username,
			Handle:      item.Username,
			DisplayName: displayName,
			Age:         item.DisplayAge,
			Gender:      domain.NormalizeGender(item.Gender),
			Description: item.TurnsOn,
			ImageURL:    imageURL,
			EmbedURL:    item.EmbedChatURL,
			SnapshotURL: item.ProfileImages.ThumbnailBigLive,
			ChatURL:     fmt.Sprintf("https://bngpt.com/promo.php?type=direct_link&v=2&c=%s&amute=1&models[]=%s&model_offline=profile", promoCode, item.Username),
			RawJSON:     raw,
		})
		if len(item.Tags) > 0 {
			tags[item.Username] = item.Tags
		}
	}
	return records, tags, nil
}
