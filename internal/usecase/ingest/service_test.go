package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"camwatch/internal/adapters/source"
	"camwatch/internal/domain"
)

type stubSource struct {
	platform string
	records  []domain.SourceRecord
	tags     map[string][]string
	err      error
	gotCfg   domain.PlatformConfig
}

func (s *stubSource) Platform() string { return s.platform }
func (s *stubSource) Fetch(_ context.Context, cfg domain.PlatformConfig) ([]domain.SourceRecord, map[string][]string, error) {
	s.gotCfg = cfg
	return s.records, s.tags, s.err
}

type stubCatalog struct {
	sweeps     []string
	categories map[string]map[string][]string
}

func (s *stubCatalog) ApplySweep(_ context.Context, platform string, records []domain.SourceRecord) (domain.SweepStats, error) {
	s.sweeps = append(s.sweeps, platform)
	return domain.SweepStats{Inserted: len(records)}, nil
}
func (s *stubCatalog) ReplaceCategories(_ context.Context, platform string, tags map[string][]string) error {
	if s.categories == nil {
		s.categories = map[string]map[string][]string{}
	}
	s.categories[platform] = tags
	return nil
}
func (s *stubCatalog) GetPerformer(context.Context, int64) (domain.Performer, error) {
	return domain.Performer{}, nil
}
func (s *stubCatalog) ListPerformers(context.Context, domain.PerformerFilter) ([]domain.Performer, error) {
	return nil, nil
}
func (s *stubCatalog) ListCheckCandidates(context.Context) ([]domain.Performer, error) {
	return nil, nil
}
func (s *stubCatalog) UpdateCheckResult(context.Context, int64, bool, float64, time.Time, string) error {
	return nil
}
func (s *stubCatalog) RecomputePopularity(context.Context, int) (int, error) { return 0, nil }

type stubConfigs struct {
	configs map[string]domain.PlatformConfig
}

func (s *stubConfigs) GetPlatformConfig(_ context.Context, platform string) (domain.PlatformConfig, error) {
	cfg, ok := s.configs[platform]
	if !ok {
		return domain.PlatformConfig{}, errors.New("config not found")
	}
	return cfg, nil
}

func TestRunPlatformAppliesSweepAndCategories(t *testing.T) {
	src := &stubSource{
		platform: domain.PlatformChaturbate,
		records:  []domain.SourceRecord{{NativeID: "alice", Handle: "alice"}},
		tags:     map[string][]string{"alice": {"teen"}},
	}
	catalog := &stubCatalog{}
	configs := &stubConfigs{configs: map[string]domain.PlatformConfig{
		domain.PlatformChaturbate: {Platform: domain.PlatformChaturbate, Active: true, APIURL: "https://api.example.com"},
	}}
	service := NewService(zerolog.Nop(), catalog, configs, []source.Source{src}, 100)

	stats, err := service.RunPlatform(context.Background(), domain.PlatformChaturbate)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("ожидали 1 вставку, получили %d", stats.Inserted)
	}
	if len(catalog.sweeps) != 1 {
		t.Fatalf("ожидали одну сверку")
	}
	if got := catalog.categories[domain.PlatformChaturbate]["alice"]; len(got) != 1 || got[0] != "teen" {
		t.Fatalf("теги должны передаваться в каталог: %v", got)
	}
	if src.gotCfg.Params["limit"] != "100" {
		t.Fatalf("лимит должен добавляться к параметрам запроса: %v", src.gotCfg.Params)
	}
}

func TestRunPlatformFetchErrorAborts(t *testing.T) {
	src := &stubSource{platform: domain.PlatformBongaCash, err: errors.New("api down")}
	catalog := &stubCatalog{}
	configs := &stubConfigs{configs: map[string]domain.PlatformConfig{
		domain.PlatformBongaCash: {Platform: domain.PlatformBongaCash, Active: true},
	}}
	service := NewService(zerolog.Nop(), catalog, configs, []source.Source{src}, 0)

	if _, err := service.RunPlatform(context.Background(), domain.PlatformBongaCash); err == nil {
		t.Fatalf("ошибка опроса должна прерывать цикл")
	}
	if len(catalog.sweeps) != 0 {
		t.Fatalf("при ошибке опроса каталог не должен меняться")
	}
}

func TestRunPlatformDisabled(t *testing.T) {
	src := &stubSource{platform: domain.PlatformStripcash}
	catalog := &stubCatalog{}
	configs := &stubConfigs{configs: map[string]domain.PlatformConfig{
		domain.PlatformStripcash: {Platform: domain.PlatformStripcash, Active: false},
	}}
	service := NewService(zerolog.Nop(), catalog, configs, []source.Source{src}, 0)

	stats, err := service.RunPlatform(context.Background(), domain.PlatformStripcash)
	if err != nil {
		t.Fatalf("выключенная платформа не должна давать ошибку: %v", err)
	}
	if stats != (domain.SweepStats{}) || len(catalog.sweeps) != 0 {
		t.Fatalf("выключенная платформа пропускается")
	}
}

func TestRunPlatformKeepsConfiguredLimit(t *testing.T) {
	src := &stubSource{platform: domain.PlatformChaturbate}
	configs := &stubConfigs{configs: map[string]domain.PlatformConfig{
		domain.PlatformChaturbate: {Platform: domain.PlatformChaturbate, Active: true, Params: map[string]string{"limit": "500"}},
	}}
	service := NewService(zerolog.Nop(), &stubCatalog{}, configs, []source.Source{src}, 100)

	if _, err := service.RunPlatform(context.Background(), domain.PlatformChaturbate); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if src.gotCfg.Params["limit"] != "500" {
		t.Fatalf("лимит из конфигурации не должен перетираться")
	}
}
