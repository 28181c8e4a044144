package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultSessionTTL = 24 * time.Hour

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ SessionStore = (*RedisStore)(nil)

func (r *RedisStore) GetCart(ctx context.Context, sessionID string) (*domain.CartSnapshot, error) {
	var cart domain.CartSnapshot
	if err := r.getJSON(ctx, sessionKey(sessionID, KeyCart), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisStore) SetCart(ctx context.Context, sessionID string, cart *domain.CartSnapshot) error {
	return r.setJSON(ctx, sessionKey(sessionID, KeyCart), cart)
}

func (r *RedisStore) GetCartID(ctx context.Context, sessionID string) (string, error) {
	return r.getString(ctx, sessionKey(sessionID, KeyCartID))
}

func (r *RedisStore) SetCartID(ctx context.Context, sessionID, cartID string) error {
	return r.setString(ctx, sessionKey(sessionID, KeyCartID), cartID)
}

func (r *RedisStore) ClearCart(ctx context.Context, sessionID string) error {
	return r.del(ctx, sessionKey(sessionID, KeyCart), sessionKey(sessionID, KeyCartID))
}

func (r *RedisStore) GetDeliveryInfo(ctx context.Context, sessionID string) (*domain.DeliveryInfo, error) {
	var info domain.DeliveryInfo
	if err := r.getJSON(ctx, sessionKey(sessionID, KeyDeliveryInfo), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *RedisStore) SetDeliveryInfo(ctx context.Context, sessionID string, info domain.DeliveryInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal delivery info failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID, KeyDeliveryInfo), payload, r.ttl)
		pipe.Publish(ctx, changeChannel(sessionID, KeyDeliveryInfo), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set delivery info failed: %w", err)
	}
	return nil
}

// SubscribeDeliveryInfo streams every committed DeliveryInfo for the session
// until ctx is done. The returned channel is closed afterwards.
func (r *RedisStore) SubscribeDeliveryInfo(ctx context.Context, sessionID string) (<-chan domain.DeliveryInfo, error) {
	sub := r.client.Subscribe(ctx, changeChannel(sessionID, KeyDeliveryInfo))
	// wait for the subscription confirmation so no publish is missed after we return
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	out := make(chan domain.DeliveryInfo, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var info domain.DeliveryInfo
				if err := json.Unmarshal([]byte(msg.Payload), &info); err != nil {
					logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "skipping malformed delivery notification",
						zap.String("session_id", sessionID), zap.Error(err))
					continue
				}
				select {
				case out <- info:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisStore) GetCustomer(ctx context.Context, sessionID string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.getJSON(ctx, sessionKey(sessionID, KeyCustomer), &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *RedisStore) SetCustomer(ctx context.Context, sessionID string, customer *domain.Customer) error {
	return r.setJSON(ctx, sessionKey(sessionID, KeyCustomer), customer)
}

func (r *RedisStore) GetPendingOrderCode(ctx context.Context, sessionID string) (string, error) {
	return r.getString(ctx, sessionKey(sessionID, KeyPendingOrderID))
}

func (r *RedisStore) SetPendingOrderCode(ctx context.Context, sessionID, orderCode, redirectURL string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID, KeyPendingOrderID), orderCode, r.ttl)
		if redirectURL != "" {
			pipe.Set(ctx, sessionKey(sessionID, KeyGatewayRedirectURL), redirectURL, r.ttl)
		} else {
			pipe.Del(ctx, sessionKey(sessionID, KeyGatewayRedirectURL))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set pending order failed: %w", err)
	}
	return nil
}

func (r *RedisStore) GetPendingRedirectURL(ctx context.Context, sessionID string) (string, error) {
	return r.getString(ctx, sessionKey(sessionID, KeyGatewayRedirectURL))
}

func (r *RedisStore) ClearPendingOrderCode(ctx context.Context, sessionID string) error {
	return r.del(ctx, sessionKey(sessionID, KeyPendingOrderID), sessionKey(sessionID, KeyGatewayRedirectURL))
}

func (r *RedisStore) StageCheckout(ctx context.Context, sessionID string, staged *domain.StagedCheckout) error {
	details, err := json.Marshal(staged.Details)
	if err != nil {
		return fmt.Errorf("marshal checkout details failed: %w", err)
	}
	address, err := json.Marshal(staged.Address)
	if err != nil {
		return fmt.Errorf("marshal address details failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID, KeyCheckoutDetails), details, r.ttl)
		pipe.Set(ctx, sessionKey(sessionID, KeyOrderAddressDetails), address, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis stage checkout failed: %w", err)
	}
	return nil
}

func (r *RedisStore) GetStagedCheckout(ctx context.Context, sessionID string) (*domain.StagedCheckout, error) {
	var staged domain.StagedCheckout
	if err := r.getJSON(ctx, sessionKey(sessionID, KeyCheckoutDetails), &staged.Details); err != nil {
		return nil, err
	}
	if err := r.getJSON(ctx, sessionKey(sessionID, KeyOrderAddressDetails), &staged.Address); err != nil {
		return nil, err
	}
	return &staged, nil
}

func (r *RedisStore) ClearStagedCheckout(ctx context.Context, sessionID string) error {
	return r.del(ctx, sessionKey(sessionID, KeyCheckoutDetails), sessionKey(sessionID, KeyOrderAddressDetails))
}

func (r *RedisStore) getJSON(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) getString(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

func (r *RedisStore) setString(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) del(ctx context.Context, keys ...string) error {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID, name string) string {
	return fmt.Sprintf("checkout:%s:%s", sessionID, name)
}

func changeChannel(sessionID, name string) string {
	return fmt.Sprintf("checkout:%s:%s:changed", sessionID, name)
}
