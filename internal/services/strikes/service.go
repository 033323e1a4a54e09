package strikes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	redrepo "github.com/Circle-Company/Circle-System-2.0-sub002/internal/repo/redis"
)

const defaultRiskDecayHours = 24

const strikeScript = `
local key = KEYS[1]
local weight = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local decay_sec = tonumber(ARGV[3])
local steps_count = tonumber(ARGV[4])

if weight == nil or weight < 1 then
	weight = 1
end
if now == nil or now < 0 then
	now = 0
end
if decay_sec == nil or decay_sec < 0 then
	decay_sec = 0
end
if steps_count == nil or steps_count < 0 then
	steps_count = 0
end

local risk = tonumber(redis.call("HGET", key, "risk_score")) or 0
local cooldown_until = tonumber(redis.call("HGET", key, "cooldown_until")) or 0
local last_strike = tonumber(redis.call("HGET", key, "last_strike_at")) or 0

if decay_sec > 0 and risk > 0 and last_strike > 0 and now > last_strike then
	local elapsed = now - last_strike
	local decays = math.floor(elapsed / decay_sec)
	if decays > 0 then
		if decays > risk then
			decays = risk
		end
		risk = risk - decays
		last_strike = last_strike + decays * decay_sec
	end
end

risk = risk + weight

local step = 0
if steps_count > 0 then
	local idx = risk
	if idx < 1 then
		idx = 1
	end
	if idx > steps_count then
		idx = steps_count
	end
	step = tonumber(ARGV[4 + idx]) or 0
end

local candidate = now + step
if candidate > cooldown_until then
	cooldown_until = candidate
end

last_strike = now

redis.call("HSET", key,
	"risk_score", risk,
	"cooldown_until", cooldown_until,
	"last_strike_at", last_strike)

return {risk, cooldown_until, last_strike}
`

const decayScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local decay_sec = tonumber(ARGV[2])

if now == nil or now < 0 then
	now = 0
end
if decay_sec == nil or decay_sec < 0 then
	decay_sec = 0
end

local risk = tonumber(redis.call("HGET", key, "risk_score")) or 0
local cooldown_until = tonumber(redis.call("HGET", key, "cooldown_until")) or 0
local last_strike = tonumber(redis.call("HGET", key, "last_strike_at")) or 0

if decay_sec > 0 and risk > 0 and last_strike > 0 and now > last_strike then
	local elapsed = now - last_strike
	local decays = math.floor(elapsed / decay_sec)
	if decays > 0 then
		if decays > risk then
			decays = risk
		end
		risk = risk - decays
		last_strike = last_strike + decays * decay_sec
		redis.call("HSET", key,
			"risk_score", risk,
			"last_strike_at", last_strike)
	end
end

return {risk, cooldown_until, last_strike}
`

var ErrValidation = errors.New("validation error")

type Store interface {
	Get(ctx context.Context, authorID string) (redrepo.StrikeStateRecord, error)
	EvalForAuthor(ctx context.Context, authorID, script string, args ...interface{}) (interface{}, error)
}

type Config struct {
	RiskDecayHours   int
	CooldownStepsSec []int
	ShadowThreshold  int
}

type State struct {
	RiskScore     int
	CooldownUntil *time.Time
	LastStrikeAt  *time.Time
	ShadowBanned  bool
	Exists        bool
}

// Service is the author risk ledger. Every BLOCKED verdict adds a
// weighted strike; risk decays linearly over time and each strike
// escalates a submission cooldown ladder.
type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func NewService(store Store, cfg Config) *Service {
	if cfg.RiskDecayHours <= 0 {
		cfg.RiskDecayHours = defaultRiskDecayHours
	}
	if cfg.ShadowThreshold <= 0 {
		cfg.ShadowThreshold = 5
	}
	if len(cfg.CooldownStepsSec) == 0 {
		cfg.CooldownStepsSec = []int{60, 300, 1800, 7200, 86400}
	}

	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Service) GetState(ctx context.Context, authorID string) (State, error) {
	if strings.TrimSpace(authorID) == "" {
		return State{}, ErrValidation
	}
	if s.store == nil {
		return State{}, fmt.Errorf("strike store is nil")
	}

	rec, err := s.store.Get(ctx, authorID)
	if err != nil {
		return State{}, err
	}
	return s.mapRecord(rec), nil
}

func (s *Service) ApplyStrike(ctx context.Context, authorID string, weight int, now time.Time) (State, error) {
	if strings.TrimSpace(authorID) == "" {
		return State{}, ErrValidation
	}
	if weight <= 0 {
		weight = 1
	}
	if s.store == nil {
		return State{}, fmt.Errorf("strike store is nil")
	}
	if now.IsZero() {
		now = s.now().UTC()
	}

	args := make([]interface{}, 0, 4+len(s.cfg.CooldownStepsSec))
	args = append(args,
		weight,
		now.UTC().Unix(),
		s.decaySeconds(),
		len(s.cfg.CooldownStepsSec),
	)
	for _, step := range s.cfg.CooldownStepsSec {
		if step < 0 {
			step = 0
		}
		args = append(args, step)
	}

	rec, err := s.execStateScript(ctx, authorID, strikeScript, args...)
	if err != nil {
		return State{}, err
	}
	return s.mapRecord(rec), nil
}

func (s *Service) ApplyDecay(ctx context.Context, authorID string, now time.Time) (State, error) {
	if strings.TrimSpace(authorID) == "" {
		return State{}, ErrValidation
	}
	if s.store == nil {
		return State{}, fmt.Errorf("strike store is nil")
	}
	if now.IsZero() {
		now = s.now().UTC()
	}

	rec, err := s.execStateScript(ctx, authorID, decayScript,
		now.UTC().Unix(),
		s.decaySeconds(),
	)
	if err != nil {
		return State{}, err
	}
	return s.mapRecord(rec), nil
}

// Gate reports whether the author may submit content right now, and if
// not, how long to wait.
func (s *Service) Gate(ctx context.Context, authorID string, now time.Time) (int64, bool, error) {
	if now.IsZero() {
		now = s.now().UTC()
	}

	state, err := s.ApplyDecay(ctx, authorID, now)
	if err != nil {
		return 0, false, err
	}
	if state.CooldownUntil == nil || !state.CooldownUntil.After(now) {
		return 0, true, nil
	}

	retryAfter := int64(state.CooldownUntil.Sub(now) / time.Second)
	if state.CooldownUntil.Sub(now)%time.Second != 0 {
		retryAfter++
	}
	return retryAfter, false, nil
}

func (s *Service) execStateScript(ctx context.Context, authorID, script string, args ...interface{}) (redrepo.StrikeStateRecord, error) {
	raw, err := s.store.EvalForAuthor(ctx, authorID, script, args...)
	if err != nil {
		return redrepo.StrikeStateRecord{}, err
	}

	arr, ok := raw.([]interface{})
	if !ok || len(arr) < 3 {
		return redrepo.StrikeStateRecord{}, fmt.Errorf("unexpected strike script result")
	}

	risk, ok := asInt(arr[0])
	if !ok {
		return redrepo.StrikeStateRecord{}, fmt.Errorf("unexpected risk score value")
	}
	cooldownTill, ok := asInt64(arr[1])
	if !ok {
		return redrepo.StrikeStateRecord{}, fmt.Errorf("unexpected cooldown value")
	}
	lastStrikeAt, ok := asInt64(arr[2])
	if !ok {
		return redrepo.StrikeStateRecord{}, fmt.Errorf("unexpected last_strike value")
	}

	if risk < 0 {
		risk = 0
	}
	if cooldownTill < 0 {
		cooldownTill = 0
	}
	if lastStrikeAt < 0 {
		lastStrikeAt = 0
	}

	return redrepo.StrikeStateRecord{
		RiskScore:    risk,
		CooldownTill: cooldownTill,
		LastStrikeAt: lastStrikeAt,
		Exists:       true,
	}, nil
}

func (s *Service) mapRecord(rec redrepo.StrikeStateRecord) State {
	state := State{
		RiskScore:    rec.RiskScore,
		ShadowBanned: rec.RiskScore >= s.cfg.ShadowThreshold,
		Exists:       rec.Exists,
	}
	if rec.CooldownTill > 0 {
		v := time.Unix(rec.CooldownTill, 0).UTC()
		state.CooldownUntil = &v
	}
	if rec.LastStrikeAt > 0 {
		v := time.Unix(rec.LastStrikeAt, 0).UTC()
		state.LastStrikeAt = &v
	}
	return state
}

func (s *Service) decaySeconds() int {
	hours := s.cfg.RiskDecayHours
	if hours <= 0 {
		hours = defaultRiskDecayHours
	}
	return hours * int(time.Hour/time.Second)
}

func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func asInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
