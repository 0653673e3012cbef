package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cburgosro9303/vortex-config/internal/codec"
	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/internal/value"
)

// wireResult is the msgpack-serializable projection of a ConfigResult.
// PropertySource.Properties holds an *value.OrderedMap with unexported
// fields, so each source's properties travel as already-encoded JSON
// (order-preserving, per internal/codec) rather than as a msgpack struct.
type wireResult struct {
	Name     string
	Profiles []string
	Label    string
	Version  string
	Sources  []wireSource
}

type wireSource struct {
	Name string
	JSON []byte
}

// Redis is the optional L2 cache tier sitting behind the in-process LRU,
// grounded on the connection-wrapper pattern the ambient stack uses for
// every external dependency: hold a client, expose typed Get/Set/Invalidate,
// let callers decide whether a miss here is fatal (it never is).
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger log.Logger
}

// NewRedis wraps an already-connected client. ttl bounds how long a
// resolved result is allowed to linger in Redis, independent of the
// in-process LRU's own TTL.
func NewRedis(client *redis.Client, ttl time.Duration, logger log.Logger) *Redis {
	if logger == nil {
		logger = log.Nop{}
	}

	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key Key) (source.ConfigResult, bool) {
	raw, err := r.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warnf("cache: redis get %s: %v", key, err)
		}

		return source.ConfigResult{}, false
	}

	var w wireResult
	if err := msgpack.Unmarshal(raw, &w); err != nil {
		r.logger.Warnf("cache: redis decode %s: %v", key, err)
		return source.ConfigResult{}, false
	}

	result := source.ConfigResult{
		Name:     w.Name,
		Profiles: w.Profiles,
		Label:    w.Label,
		Version:  w.Version,
	}

	for _, ws := range w.Sources {
		v, err := codec.JSON{}.Parse(ws.JSON)
		if err != nil {
			r.logger.Warnf("cache: redis decode source %s: %v", ws.Name, err)
			return source.ConfigResult{}, false
		}

		obj, ok := v.AsObject()
		if !ok {
			return source.ConfigResult{}, false
		}

		result.PropertySources = append(result.PropertySources, source.PropertySource{Name: ws.Name, Properties: obj})
	}

	return result, true
}

func (r *Redis) Set(ctx context.Context, key Key, result source.ConfigResult) {
	w := wireResult{
		Name:     result.Name,
		Profiles: result.Profiles,
		Label:    result.Label,
		Version:  result.Version,
	}

	for _, ps := range result.PropertySources {
		data, err := codec.JSON{}.Emit(value.Object(ps.Properties))
		if err != nil {
			r.logger.Warnf("cache: redis encode source %s: %v", ps.Name, err)
			return
		}

		w.Sources = append(w.Sources, wireSource{Name: ps.Name, JSON: data})
	}

	raw, err := msgpack.Marshal(w)
	if err != nil {
		r.logger.Warnf("cache: redis encode %s: %v", key, err)
		return
	}

	if err := r.client.Set(ctx, key.String(), raw, r.ttl).Err(); err != nil {
		r.logger.Warnf("cache: redis set %s: %v", key, err)
	}
}

// Invalidate scans keys under the cfg: namespace and deletes the ones
// matching sel. SCAN is used instead of KEYS so a large keyspace never
// blocks the Redis event loop.
func (r *Redis) Invalidate(ctx context.Context, sel source.InvalidateSelector) {
	iter := r.client.Scan(ctx, 0, "cfg:*", 100).Iterator()

	var toDelete []string

	for iter.Next(ctx) {
		k, ok := ParseKey(iter.Val())
		if !ok {
			continue
		}

		if sel.Matches(k.Application, k.ProfileList(), k.Label) {
			toDelete = append(toDelete, iter.Val())
		}
	}

	if err := iter.Err(); err != nil {
		r.logger.Warnf("cache: redis scan: %v", err)
	}

	if len(toDelete) == 0 {
		return
	}

	if err := r.client.Del(ctx, toDelete...).Err(); err != nil {
		r.logger.Warnf("cache: redis invalidate: %v", err)
	}
}

// InvalidateLabel deletes every key scoped to label, regardless of
// application or profile.
func (r *Redis) InvalidateLabel(ctx context.Context, label string) {
	iter := r.client.Scan(ctx, 0, "cfg:*:*:"+label, 100).Iterator()

	var toDelete []string

	for iter.Next(ctx) {
		toDelete = append(toDelete, iter.Val())
	}

	if err := iter.Err(); err != nil {
		r.logger.Warnf("cache: redis scan: %v", err)
	}

	if len(toDelete) == 0 {
		return
	}

	if err := r.client.Del(ctx, toDelete...).Err(); err != nil {
		r.logger.Warnf("cache: redis invalidate label: %v", err)
	}
}
