package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

func TestCart_RoundTripAndClear(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := s.GetCart(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	cart := &domain.CartSnapshot{Items: []domain.CartItem{
		{ProductID: "p1", ProductName: "Shea Butter", UnitPrice: 100, Quantity: 2},
	}}
	require.NoError(t, s.SetCart(ctx, "s1", cart))
	require.NoError(t, s.SetCartID(ctx, "s1", "cart-1"))

	got, err := s.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, cart, got)
	assert.True(t, mr.Exists("checkout:s1:cart"))
	assert.Equal(t, time.Hour, mr.TTL("checkout:s1:cart"))

	cartID, err := s.GetCartID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", cartID)

	require.NoError(t, s.ClearCart(ctx, "s1"))
	assert.False(t, mr.Exists("checkout:s1:cart"))
	assert.False(t, mr.Exists("checkout:s1:cartId"))
}

func TestGetCart_InvalidJSON(t *testing.T) {
	s, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("checkout:s1:cart", `{"items":[`))

	_, err := s.GetCart(context.Background(), "s1")
	require.ErrorContains(t, err, "unmarshal checkout:s1:cart failed")
}

func TestDeliveryInfo_LastWriteWins(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.SetDeliveryInfo(ctx, "s1", domain.DeliveryInfo{Address: "Osu (Accra)", Fee: 15}))
	require.NoError(t, s.SetDeliveryInfo(ctx, "s1", domain.DeliveryInfo{Address: "123 Main St", Fee: 0}))

	info, err := s.GetDeliveryInfo(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryInfo{Address: "123 Main St", Fee: 0}, *info)
}

func TestSubscribeDeliveryInfo_ReceivesCommits(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := s.SubscribeDeliveryInfo(ctx, "s1")
	require.NoError(t, err)

	// other sessions are not delivered
	require.NoError(t, s.SetDeliveryInfo(ctx, "s2", domain.DeliveryInfo{Address: "Adum (Kumasi)", Fee: 30}))
	require.NoError(t, s.SetDeliveryInfo(ctx, "s1", domain.DeliveryInfo{Address: "Osu (Accra)", Fee: 15}))

	select {
	case info := <-updates:
		assert.Equal(t, domain.DeliveryInfo{Address: "Osu (Accra)", Fee: 15}, info)
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery notification received")
	}

	cancel()
	select {
	case _, open := <-updates:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed after cancel")
	}
}

func TestCustomer_RoundTrip(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	customer := &domain.Customer{ID: "c1", Name: "Ama", AccountType: domain.AccountTypeAgent}
	require.NoError(t, s.SetCustomer(ctx, "s1", customer))

	got, err := s.GetCustomer(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, customer, got)
}

func TestPendingOrderCode(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := s.GetPendingOrderCode(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetPendingOrderCode(ctx, "s1", "ORD-1", "https://pay.example.com/checkout/abc"))
	code, err := s.GetPendingOrderCode(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", code)
	redirectURL, err := s.GetPendingRedirectURL(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/checkout/abc", redirectURL)

	require.NoError(t, s.ClearPendingOrderCode(ctx, "s1"))
	_, err = s.GetPendingOrderCode(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetPendingRedirectURL(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingOrderCode_WithoutRedirectDropsStaleURL(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.SetPendingOrderCode(ctx, "s1", "ORD-1", "https://pay.example.com/old"))
	require.NoError(t, s.SetPendingOrderCode(ctx, "s1", "ORD-2", ""))

	assert.False(t, mr.Exists("checkout:s1:gatewayRedirectUrl"))
	code, err := s.GetPendingOrderCode(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", code)
}

func TestStagedCheckout(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	staged := &domain.StagedCheckout{
		Details: domain.CheckoutDetails{
			OrderCode:   "ORD-1",
			CustomerID:  "c1",
			PaymentMode: "Mobile Money",
			TotalAmount: 220,
			OrderDate:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Address: domain.AddressDetails{OrderCode: "ORD-1", Address: "Osu (Accra)"},
	}
	require.NoError(t, s.StageCheckout(ctx, "s1", staged))
	assert.True(t, mr.Exists("checkout:s1:checkoutDetails"))
	assert.True(t, mr.Exists("checkout:s1:orderAddressDetails"))

	got, err := s.GetStagedCheckout(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, staged, got)

	require.NoError(t, s.ClearStagedCheckout(ctx, "s1"))
	_, err = s.GetStagedCheckout(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionKey_Format(t *testing.T) {
	assert.Equal(t, "checkout:abc:deliveryInfo", sessionKey("abc", KeyDeliveryInfo))
	assert.Equal(t, "checkout:abc:deliveryInfo:changed", changeChannel("abc", KeyDeliveryInfo))
}
