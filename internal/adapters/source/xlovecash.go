package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"camwatch/internal/domain"
)

const (
	xloveProfileURL = "https://webservice-affiliate.xlovecam.com/model/getprofileinfo/"
	xloveChunkSize  = 100
)

// XLoveCash опрашивает партнёрский API XLoveCash. Список моделей дополняется
// вторым проходом по профилям (возраст, пол, описание) чанками по 100 id.
type XLoveCash struct {
	client  *Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewXLoveCash создаёт адаптер.
func NewXLoveCash(client *Client, limiter *rate.Limiter, log zerolog.Logger) *XLoveCash {
	return &XLoveCash{client: client, limiter: limiter, log: log}
}

// Platform реализует Source.
func (s *XLoveCash) Platform() string { return domain.PlatformXLoveCash }

type xloveItem struct {
	ModelID      json.Number `json:"model_id"`
	Nick         string      `json:"nick"`
	ProfilePhoto string      `json:"model_profil_photo"`
	CamLive      string      `json:"camLive"`
	ModelLink    string      `json:"model_link"`
	TagList      []string    `json:"tagList"`
}

type xloveProfile struct {
	Model struct {
		Age *int   `json:"age"`
		Sex string `json:"sex"`
	} `json:"model"`
	InfoByLang struct {
		Description string `json:"description"`
	} `json:"infoByLang"`
}

// Fetch реализует Source.
func (s *XLoveCash) Fetch(ctx context.Context, cfg domain.PlatformConfig) ([]domain.SourceRecord, map[string][]string, error) {
	body, err := s.client.PostForm(ctx, domain.PlatformXLoveCash, cfg.APIURL, paramsToValues(cfg.Params))
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Content struct {
			ModelsList []json.RawMessage `json:"models_list"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]domain.SourceRecord, 0, len(payload.Content.ModelsList))
	tags := make(map[string][]string)
	index := make(map[string]int)
	for _, raw := range payload.Content.ModelsList {
		var item xloveItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, nil, fmt.Errorf("decode item: %w", err)
		}
		nativeID := item.ModelID.String()
		if nativeID == "" || nativeID == "0" {
			continue
		}
		imageURL := item.ProfilePhoto
		if strings.HasPrefix(imageURL, "http://") {
			imageURL = "https://" + strings.TrimPrefix(imageURL, "http://")
		}
		index[nativeID] = len(records)
		records = append(records, domain.SourceRecord{
			NativeID:    nativeID,
			Handle:      item.Nick,
			DisplayName: item.Nick,
			ImageURL:    imageURL,
			SnapshotURL: item.CamLive,
			ChatURL:     item.ModelLink,
			RawJSON:     raw,
		})
		if len(item.TagList) > 0 {
			tags[nativeID] = item.TagList
		}
	}

	s.enrichProfiles(ctx, cfg, records, index)
	return records, tags, nil
}

// enrichProfiles дополняет записи данными профилей. Ошибка одного чанка не
// прерывает обход: соответствующие записи остаются без возраста и пола.
func (s *XLoveCash) enrichProfiles(ctx context.Context, cfg domain.PlatformConfig, records []domain.SourceRecord, index map[string]int) {
	if len(records) == 0 {
		return
	}
	endpoint := cfg.Params["profile_url"]
	if endpoint == "" {
		endpoint = xloveProfileURL
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	for from := 0; from < len(ids); from += xloveChunkSize {
		to := from + xloveChunkSize
		if to > len(ids) {
			to = len(ids)
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
		}
		form := paramsToValues(cfg.Params)
		form.Del("profile_url")
		for _, id := range ids[from:to] {
			form.Add("modelid[]", id)
		}
		if err := s.applyProfileChunk(ctx, endpoint, form, records, index); err != nil {
			s.log.Warn().Err(err).Int("from", from).Int("to", to).Msg("xlovecash: чанк профилей пропущен")
		}
	}
}

func (s *XLoveCash) applyProfileChunk(ctx context.Context, endpoint string, form url.Values, records []domain.SourceRecord, index map[string]int) error {
	body, err := s.client.PostForm(ctx, domain.PlatformXLoveCash, endpoint, form)
	if err != nil {
		return err
	}
	var payload struct {
		Content map[string]xloveProfile `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode profiles: %w", err)
	}
	for nativeID, profile := range payload.Content {
		pos, ok := index[nativeID]
		if !ok {
			continue
		}
		records[pos].Age = profile.Model.Age
		records[pos].Gender = domain.NormalizeGender(profile.Model.Sex)
		records[pos].Description = profile.InfoByLang.Description
	}
	return nil
}
