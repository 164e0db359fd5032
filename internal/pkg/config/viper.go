package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// envAliases maps config keys to extra environment variable names accepted
// for them, on top of the automatic upper-snake form (modules.mfa.enabled ->
// MODULES_MFA_ENABLED).
var envAliases = map[string][]string{
	"app.env":                          {"NODE_ENV"},
	"modules.mfa.delivery.destination": {"ADMIN_PHONE"},
	"modules.mfa.delivery.api_key":     {"CALLMEBOT_API_KEY"},
}

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads configuration from the given file path and returns a Viper-backed Config.
//
// The config file type is inferred by Viper from the filename extension.
// Environment variables override file values.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()

	filename := path.Base(pathFile)
	filePath := path.Dir(pathFile)

	configName := path.Base(filename[:len(filename)-len(path.Ext(filename))])

	v.AddConfigPath(filePath)
	v.SetConfigName(configName)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "err", err)
			return
		}
		slog.Info("config success reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	v.SetConfigType(configType)
	bindEnv(v)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

//nolint:errcheck,gosec // BindEnv only fails without arguments
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		v.BindEnv(names...)
	}
}

// IsSet reports whether key is set in any source.
func (vc *Viper) IsSet(key string) bool {
	return vc.v.IsSet(key)
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

// GetInt32 returns the value for key as int32.
func (vc *Viper) GetInt32(key string) int32 {
	return vc.v.GetInt32(key)
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetMinute returns the value for key as minutes.
func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

// GetArray returns the value for key split by commas.
func (vc *Viper) GetArray(key string) []string {
	parts := lo.Map(strings.Split(vc.v.GetString(key), ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(parts)
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
