package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
)

var _ ledger.SnapshotCache = (*SnapshotCache)(nil)

// SnapshotCache guarda snapshots serializados en Redis con TTL.
// Solo sirve la ruta de lectura: las escrituras del ledger invalidan la clave.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache construye el caché. Verifica conectividad con PING.
func NewSnapshotCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &SnapshotCache{client: client, ttl: ttl}, nil
}

func key(itemID string) string {
	return "snapshot:" + itemID
}

// GetSnapshot retorna (nil, nil) en miss.
func (c *SnapshotCache) GetSnapshot(ctx context.Context, itemID string) (*dto.RecordSnapshotDTO, error) {
	raw, err := c.client.Get(ctx, key(itemID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot cache: %w", err)
	}
	var snap dto.RecordSnapshotDTO
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Entrada corrupta: tratarla como miss y dejar que expire.
		return nil, nil
	}
	return &snap, nil
}

// SetSnapshot escribe el snapshot con el TTL configurado.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, snap *dto.RecordSnapshotDTO) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serializar snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key(snap.ItemID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot cache: %w", err)
	}
	return nil
}

// DeleteSnapshot invalida la clave del ítem.
func (c *SnapshotCache) DeleteSnapshot(ctx context.Context, itemID string) error {
	if err := c.client.Del(ctx, key(itemID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot cache: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
