package ctxkeys

import (
	"context"

	"github.com/korusync/korusync/internal/config"
	"github.com/korusync/korusync/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey        contextKey = "user"
	ProfileKey     contextKey = "profile"
	PreferencesKey contextKey = "preferences"
	ConfigKey      contextKey = "config"
	CSRFTokenKey   contextKey = "csrf_token"
)

func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func Profile(ctx context.Context) *model.Profile {
	profile, _ := ctx.Value(ProfileKey).(*model.Profile)
	return profile
}

func WithProfile(ctx context.Context, profile *model.Profile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}

func Preferences(ctx context.Context) *model.Preferences {
	prefs, _ := ctx.Value(PreferencesKey).(*model.Preferences)
	return prefs
}

func WithPreferences(ctx context.Context, prefs *model.Preferences) context.Context {
	return context.WithValue(ctx, PreferencesKey, prefs)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
