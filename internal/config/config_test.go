package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	t.Setenv("SERPAPI_KEY", "key-123")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_SerpAPIKeyRequired(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERPAPI_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SERPAPI_KEY is missing")
	}
}

func TestLoad_OddsRequireOpenRouterKeyWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERPAPI_KEY", "key-123")
	t.Setenv("ODDS_ENABLED", "true")
	t.Setenv("OPENROUTER_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when ODDS_ENABLED=true without OPENROUTER_API_KEY")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERPAPI_KEY", "key-123")
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERPAPI_KEY", "key-123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ServiceName != "fikstur-bot" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.SyncWindowDays != 7 {
		t.Fatalf("unexpected SyncWindowDays: %d", cfg.SyncWindowDays)
	}
	if cfg.NotificationLead != time.Hour {
		t.Fatalf("unexpected NotificationLead: %s", cfg.NotificationLead)
	}
	if cfg.VoiceRoomLead != 15*time.Minute {
		t.Fatalf("unexpected VoiceRoomLead: %s", cfg.VoiceRoomLead)
	}
	if cfg.MatchCheckInterval != 3*time.Minute {
		t.Fatalf("unexpected MatchCheckInterval: %s", cfg.MatchCheckInterval)
	}
	if len(cfg.ClubRoster) != 10 {
		t.Fatalf("expected 10 default clubs, got %d", len(cfg.ClubRoster))
	}
	if cfg.ClubRoster[0].Name != "Galatasaray" {
		t.Fatalf("unexpected first club: %q", cfg.ClubRoster[0].Name)
	}
	if cfg.OpenRouterModel != "deepseek/deepseek-chat" {
		t.Fatalf("unexpected OpenRouterModel: %q", cfg.OpenRouterModel)
	}
}

func TestLoad_LeadWindowOrdering(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERPAPI_KEY", "key-123")
	t.Setenv("NOTIFICATION_LEAD", "10m")
	t.Setenv("VOICE_ROOM_LEAD", "30m")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when VOICE_ROOM_LEAD exceeds NOTIFICATION_LEAD")
	}
}

func TestParseClubRoster(t *testing.T) {
	roster, err := parseClubRoster("Galatasaray, Fenerbahçe:Fenerbahce fikstur ,")
	if err != nil {
		t.Fatalf("parse roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 clubs, got %d", len(roster))
	}
	if roster[0].Name != "Galatasaray" || roster[0].Query != "" {
		t.Fatalf("unexpected first club: %+v", roster[0])
	}
	if roster[1].Name != "Fenerbahçe" || roster[1].Query != "Fenerbahce fikstur" {
		t.Fatalf("unexpected second club: %+v", roster[1])
	}

	if _, err := parseClubRoster("Galatasaray,galatasaray"); err == nil {
		t.Fatalf("expected duplicate club error")
	}
}
