package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/restopos-api/internal/application/ports"
	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// DefaultChannel canal pub/sub por defecto.
const DefaultChannel = "restopos:access:invalidations"

var _ ports.InvalidationPublisher = (*InvalidationBus)(nil)

// NewClient crea y valida la conexión a Redis.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// envelope mensaje en el canal. Origin identifica a la instancia que publicó para no
// aplicar dos veces su propio aviso.
type envelope struct {
	Origin string `json:"origin"`
	entity.Invalidation
}

// Handler recibe cada aviso de otra instancia.
type Handler func(ctx context.Context, inv entity.Invalidation)

// InvalidationBus avisos de cambio entre agentes sobre Redis pub/sub.
type InvalidationBus struct {
	rdb     *redis.Client
	channel string
	origin  string
	log     *logger.Logger
}

// NewInvalidationBus construye el bus. channel vacío usa DefaultChannel.
func NewInvalidationBus(rdb *redis.Client, channel string, log *logger.Logger) *InvalidationBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvalidationBus{rdb: rdb, channel: channel, origin: uuid.New().String(), log: log.Component("invalidation_bus")}
}

// Publish difunde el aviso.
func (b *InvalidationBus) Publish(ctx context.Context, inv entity.Invalidation) error {
	payload, err := encode(b.origin, inv)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Subscribe escucha el canal hasta que ctx se cancele. Los mensajes propios y los
// mal formados se descartan.
func (b *InvalidationBus) Subscribe(ctx context.Context, handle Handler) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("escuchando invalidaciones")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			origin, inv, err := decode([]byte(msg.Payload))
			if err != nil {
				b.log.Warn().Err(err).Msg("invalidación descartada")
				continue
			}
			if origin == b.origin {
				continue
			}
			handle(ctx, inv)
		}
	}
}

func encode(origin string, inv entity.Invalidation) ([]byte, error) {
	if !inv.Valid() {
		return nil, fmt.Errorf("%w: tipo de invalidación %q", domain.ErrInvalidInput, inv.Kind)
	}
	return json.Marshal(envelope{Origin: origin, Invalidation: inv})
}

func decode(payload []byte) (string, entity.Invalidation, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", entity.Invalidation{}, fmt.Errorf("decode invalidation: %w", err)
	}
	if !env.Invalidation.Valid() {
		return "", entity.Invalidation{}, fmt.Errorf("%w: tipo de invalidación %q", domain.ErrInvalidInput, env.Kind)
	}
	return env.Origin, env.Invalidation, nil
}
