package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// StrikeRepo keeps per-author moderation risk state in a redis hash.
// Mutations go through Lua scripts so decay and cooldown math is atomic
// per author.
type StrikeRepo struct {
	client *goredis.Client
}

type StrikeStateRecord struct {
	RiskScore    int
	CooldownTill int64
	LastStrikeAt int64
	Exists       bool
}

func NewStrikeRepo(client *goredis.Client) *StrikeRepo {
	return &StrikeRepo{client: client}
}

func (r *StrikeRepo) Get(ctx context.Context, authorID string) (StrikeStateRecord, error) {
	if r.client == nil {
		return StrikeStateRecord{}, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(authorID) == "" {
		return StrikeStateRecord{}, fmt.Errorf("author id is required")
	}

	values, err := r.client.HGetAll(ctx, strikeKey(authorID)).Result()
	if err != nil {
		return StrikeStateRecord{}, fmt.Errorf("get strike state: %w", err)
	}
	if len(values) == 0 {
		return StrikeStateRecord{}, nil
	}

	riskScore, err := parseInt(values["risk_score"])
	if err != nil {
		return StrikeStateRecord{}, fmt.Errorf("parse risk_score: %w", err)
	}
	cooldownTill, err := parseInt64(values["cooldown_until"])
	if err != nil {
		return StrikeStateRecord{}, fmt.Errorf("parse cooldown_until: %w", err)
	}
	lastStrikeAt, err := parseInt64(values["last_strike_at"])
	if err != nil {
		return StrikeStateRecord{}, fmt.Errorf("parse last_strike_at: %w", err)
	}

	if riskScore < 0 {
		riskScore = 0
	}
	if cooldownTill < 0 {
		cooldownTill = 0
	}
	if lastStrikeAt < 0 {
		lastStrikeAt = 0
	}

	return StrikeStateRecord{
		RiskScore:    riskScore,
		CooldownTill: cooldownTill,
		LastStrikeAt: lastStrikeAt,
		Exists:       true,
	}, nil
}

func (r *StrikeRepo) EvalForAuthor(ctx context.Context, authorID, script string, args ...interface{}) (interface{}, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(authorID) == "" {
		return nil, fmt.Errorf("author id is required")
	}
	if script == "" {
		return nil, fmt.Errorf("script is required")
	}

	result, err := r.client.Eval(ctx, script, []string{strikeKey(authorID)}, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("eval strike script: %w", err)
	}
	return result, nil
}

func strikeKey(authorID string) string {
	return "strikes:author:" + authorID
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func parseInt64(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
