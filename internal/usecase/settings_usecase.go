package usecase

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/config"
	"go.uber.org/zap"
)

const (
	SettingActiveRole              = "active_role"
	SettingActiveLogicSet          = "active_logic_set_id"
	SettingAllowCandidateViewScore = "allow_candidate_view_score"

	defaultLogicSet = "set_a"
)

var knownProviders = []string{config.ProviderGemini, config.ProviderOpenRouter, config.ProviderNvidia}

// Settings are the recruiter-editable defaults. API keys are write-only; only whether one
// is configured is reported back.
type Settings struct {
	ActiveRole              string          `json:"active_role"`
	ActiveLogicSetID        string          `json:"active_logic_set_id"`
	AllowCandidateViewScore bool            `json:"allow_candidate_view_score"`
	ProvidersConfigured     map[string]bool `json:"providers_configured"`
}

type SettingsUpdate struct {
	ActiveRole              *string
	ActiveLogicSetID        *string
	AllowCandidateViewScore *bool
	APIKeys                 map[string]string
}

type SettingsUsecase struct {
	store   SettingStore
	catalog *assessment.Catalog
	creds   *config.ProviderCredentials
	log     *zap.Logger
}

func NewSettingsUsecase(store SettingStore, catalog *assessment.Catalog, creds *config.ProviderCredentials, log *zap.Logger) *SettingsUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsUsecase{store: store, catalog: catalog, creds: creds, log: log}
}

func (uc *SettingsUsecase) Get(ctx context.Context) (Settings, error) {
	all, err := uc.store.All(ctx)
	if err != nil {
		return uc.defaults(), fmt.Errorf("load settings: %w", err)
	}

	s := uc.defaults()
	if v := all[SettingActiveRole]; v != "" {
		if _, ok := uc.catalog.Role(v); ok {
			s.ActiveRole = v
		}
	}
	if v := all[SettingActiveLogicSet]; v != "" {
		if _, ok := uc.catalog.QuestionSet(v); ok {
			s.ActiveLogicSetID = v
		}
	}
	if v, ok := all[SettingAllowCandidateViewScore]; ok {
		s.AllowCandidateViewScore, _ = strconv.ParseBool(v)
	}
	return s, nil
}

// Defaults never fails; a broken settings store falls back to built-in values.
func (uc *SettingsUsecase) Defaults(ctx context.Context) Settings {
	s, err := uc.Get(ctx)
	if err != nil {
		uc.log.Warn("using default settings", zap.Error(err))
	}
	return s
}

func (uc *SettingsUsecase) Update(ctx context.Context, u SettingsUpdate) (Settings, error) {
	if u.ActiveRole != nil {
		if _, ok := uc.catalog.Role(*u.ActiveRole); !ok {
			return Settings{}, fmt.Errorf("%w: unknown role %q", ErrInvalidSetting, *u.ActiveRole)
		}
	}
	if u.ActiveLogicSetID != nil {
		if _, ok := uc.catalog.QuestionSet(*u.ActiveLogicSetID); !ok {
			return Settings{}, fmt.Errorf("%w: unknown question set %q", ErrInvalidSetting, *u.ActiveLogicSetID)
		}
	}
	for p := range u.APIKeys {
		if !slices.Contains(knownProviders, p) {
			return Settings{}, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
		}
	}

	if u.ActiveRole != nil {
		if err := uc.store.Set(ctx, SettingActiveRole, strings.TrimSpace(*u.ActiveRole)); err != nil {
			return Settings{}, err
		}
	}
	if u.ActiveLogicSetID != nil {
		if err := uc.store.Set(ctx, SettingActiveLogicSet, strings.TrimSpace(*u.ActiveLogicSetID)); err != nil {
			return Settings{}, err
		}
	}
	if u.AllowCandidateViewScore != nil {
		if err := uc.store.Set(ctx, SettingAllowCandidateViewScore, strconv.FormatBool(*u.AllowCandidateViewScore)); err != nil {
			return Settings{}, err
		}
	}
	if len(u.APIKeys) > 0 {
		for p, key := range u.APIKeys {
			if err := uc.store.Set(ctx, config.SettingKey(p), strings.TrimSpace(key)); err != nil {
				return Settings{}, err
			}
		}
		if err := uc.RefreshCredentials(ctx); err != nil {
			return Settings{}, err
		}
	}

	return uc.Get(ctx)
}

// RefreshCredentials re-reads provider keys so a rotated key applies without a restart.
func (uc *SettingsUsecase) RefreshCredentials(ctx context.Context) error {
	if uc.creds == nil {
		return nil
	}
	if err := uc.creds.Refresh(ctx); err != nil {
		uc.log.Warn("credential refresh incomplete", zap.Error(err))
		return err
	}
	uc.log.Info("provider credentials refreshed")
	return nil
}

func (uc *SettingsUsecase) defaults() Settings {
	s := Settings{
		ActiveRole:       assessment.DefaultRoleID,
		ActiveLogicSetID: defaultLogicSet,
	}
	if uc.creds != nil {
		s.ProvidersConfigured = make(map[string]bool, len(knownProviders))
		for _, p := range knownProviders {
			s.ProvidersConfigured[p] = uc.creds.Get(p) != ""
		}
	}
	return s
}
