package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"autolight-service/internal/logger"
	"autolight-service/internal/settings"
	"autolight-service/internal/types"
)

const (
	settingsHash    = "settings"
	settingsChannel = "settings"
	settingsPrefix  = "autolight."

	statusHash    = "autolight"
	statusChannel = "autolight"
)

// Settings hash fields, without the prefix.
const (
	FieldSleepTimeout   = "sleep-timeout"
	FieldTurnOnDelay    = "turn-on-delay"
	FieldLightThreshold = "light-threshold"
	FieldColor1         = "color-1"
	FieldColor2         = "color-2"
	FieldMode           = "mode"
)

type RedisClient struct {
	client *redis.Client
	logger *logger.Logger
}

var _ settings.Store = (*RedisClient)(nil)

func NewRedisClient(addr string, l *logger.Logger) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		logger: l,
	}
}

func (r *RedisClient) Connect(ctx context.Context) error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// Load reads the settings block. Missing fields fall back to defaults and
// unparseable ones are reported; ErrNotFound means no field exists at all.
func (r *RedisClient) Load(ctx context.Context) (settings.Settings, error) {
	fields, err := r.client.HGetAll(ctx, settingsHash).Result()
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to read %s: %w", settingsHash, err)
	}

	s, found, bad := parseSettings(fields)
	if !found {
		return settings.Settings{}, settings.ErrNotFound
	}
	for _, f := range bad {
		r.logger.Warnf("Ignoring malformed setting %s%s=%q", settingsPrefix, f, fields[settingsPrefix+f])
	}
	return s, nil
}

func (r *RedisClient) Save(ctx context.Context, s settings.Settings) error {
	pipe := r.client.Pipeline()
	for field, value := range settingsFields(s) {
		pipe.HSet(ctx, settingsHash, settingsPrefix+field, value)
	}
	pipe.Publish(ctx, settingsChannel, settingsPrefix+"*")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	r.logger.Debugf("Saved settings: %s", s)
	return nil
}

func (r *RedisClient) LoadMode(ctx context.Context) (types.AutoLightMode, error) {
	v, err := r.client.HGet(ctx, settingsHash, settingsPrefix+FieldMode).Result()
	if errors.Is(err, redis.Nil) {
		return types.ModeOff, settings.ErrNotFound
	}
	if err != nil {
		return types.ModeOff, fmt.Errorf("failed to read mode: %w", err)
	}
	return types.ParseAutoLightMode(v), nil
}

func (r *RedisClient) SaveMode(ctx context.Context, m types.AutoLightMode) error {
	return r.publishHashSet(ctx, settingsHash, settingsPrefix+FieldMode, string(m), settingsChannel, settingsPrefix+FieldMode)
}

// publishHashSet is a helper that atomically updates a hash field and publishes a notification
func (r *RedisClient) publishHashSet(ctx context.Context, hash, field string, value interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, hash, field, value)
	pipe.Publish(ctx, channel, payload)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisClient) PublishPowerState(ctx context.Context, s types.PowerState) error {
	r.logger.Debugf("Publishing power state: %s", s)
	if err := r.publishHashSet(ctx, statusHash, "power", string(s), statusChannel, "power"); err != nil {
		return fmt.Errorf("failed to publish power state: %w", err)
	}
	return nil
}

func (r *RedisClient) PublishMode(ctx context.Context, m types.AutoLightMode) error {
	r.logger.Debugf("Publishing mode: %s", m)
	if err := r.publishHashSet(ctx, statusHash, "mode", string(m), statusChannel, "mode"); err != nil {
		return fmt.Errorf("failed to publish mode: %w", err)
	}
	return nil
}

func (r *RedisClient) PublishRelays(ctx context.Context, relays types.RelayState) error {
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, statusHash, "fog", onOff(relays.Fog))
	pipe.Publish(ctx, statusChannel, "fog")
	pipe.HSet(ctx, statusHash, "low-beam", onOff(relays.LowBeam))
	pipe.Publish(ctx, statusChannel, "low-beam")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish relays: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	return r.client.Close()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func settingsFields(s settings.Settings) map[string]int {
	return map[string]int{
		FieldSleepTimeout:   s.SleepTimeoutMinutes,
		FieldTurnOnDelay:    s.TurnOnDelaySeconds,
		FieldLightThreshold: s.LightThreshold,
		FieldColor1:         s.Color1,
		FieldColor2:         s.Color2,
	}
}

// parseSettings builds a settings block from the prefixed hash fields.
// found reports whether any settings field was present; bad lists the
// fields that were present but not integers.
func parseSettings(fields map[string]string) (s settings.Settings, found bool, bad []string) {
	s = settings.Defaults()
	targets := []struct {
		name string
		dst  *int
	}{
		{FieldSleepTimeout, &s.SleepTimeoutMinutes},
		{FieldTurnOnDelay, &s.TurnOnDelaySeconds},
		{FieldLightThreshold, &s.LightThreshold},
		{FieldColor1, &s.Color1},
		{FieldColor2, &s.Color2},
	}
	for _, t := range targets {
		raw, ok := fields[settingsPrefix+t.name]
		if !ok {
			continue
		}
		found = true
		v, err := strconv.Atoi(raw)
		if err != nil {
			bad = append(bad, t.name)
			continue
		}
		*t.dst = v
	}
	return s, found, bad
}
