package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/pkg/config"
)

func configForTest() config.Config {
	return config.Config{DefaultCurrency: "AED"}
}

func testRedis(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, &RedisClient{Client: client}
}

func TestPublishPaymentStored(t *testing.T) {
	mr, rc := testRedis(t)

	event := PaymentEvent{
		PaymentID: "pay-1",
		CompanyID: "comp-1",
		Amount:    150,
		Currency:  "AED",
		Status:    "new",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, rc.PublishPaymentStored(context.Background(), event))

	items, err := mr.List(PaymentQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var got PaymentEvent
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	assert.Equal(t, "pay-1", got.PaymentID)
	assert.Equal(t, 150.0, got.Amount)
	assert.Equal(t, "AED", got.Currency)
}

func TestPublishPreservesOrder(t *testing.T) {
	mr, rc := testRedis(t)

	for _, id := range []string{"pay-1", "pay-2", "pay-3"} {
		require.NoError(t, rc.PublishPaymentStored(context.Background(), PaymentEvent{PaymentID: id}))
	}

	items, err := mr.List(PaymentQueue)
	require.NoError(t, err)
	require.Len(t, items, 3)

	var first PaymentEvent
	require.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	assert.Equal(t, "pay-1", first.PaymentID, "events drain in publish order")
}

func TestPushToDLQ(t *testing.T) {
	mr, rc := testRedis(t)

	require.NoError(t, rc.PushToDLQ(context.Background(), []byte(`{"broken":true}`)))

	items, err := mr.List(FailedQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"broken":true}`, items[0])
}

type sentMessage struct {
	chatID string
	text   string
}

type stubSender struct {
	err  error
	sent []sentMessage
}

func (s *stubSender) Send(_ context.Context, chatID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type stubCompanies struct {
	companies map[string]*company.Company
	channels  map[string]*company.Channel
}

func (s *stubCompanies) FindByAPIKey(string) (*company.Company, error) {
	return nil, company.ErrNotFound
}

func (s *stubCompanies) FindByID(id string) (*company.Company, error) {
	if c, ok := s.companies[id]; ok {
		return c, nil
	}
	return nil, company.ErrNotFound
}

func (s *stubCompanies) FindChannelByAPIKey(string) (*company.Channel, error) {
	return nil, company.ErrNotFound
}

func (s *stubCompanies) FindChannelByID(id string) (*company.Channel, error) {
	if c, ok := s.channels[id]; ok {
		return c, nil
	}
	return nil, company.ErrNotFound
}

func TestDeliverPrefersChannelGroup(t *testing.T) {
	_, rc := testRedis(t)
	channelGroup := "-100200"
	companyGroup := "-100100"

	sender := &stubSender{}
	w := NewWorker(
		configForTest(),
		&stubCompanies{
			companies: map[string]*company.Company{"comp-1": {TelegramDefaultGroupID: &companyGroup}},
			channels:  map[string]*company.Channel{"chan-1": {TelegramGroupID: &channelGroup}},
		},
		rc,
		sender,
	)

	err := w.deliver(PaymentEvent{PaymentID: "pay-1", CompanyID: "comp-1", ChannelID: "chan-1", Amount: 150, Currency: "AED", Status: "new"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, channelGroup, sender.sent[0].chatID)
	assert.Contains(t, sender.sent[0].text, "AED 150.00")
}

func TestDeliverFallsBackToCompanyDefault(t *testing.T) {
	_, rc := testRedis(t)
	companyGroup := "-100100"

	sender := &stubSender{}
	w := NewWorker(
		configForTest(),
		&stubCompanies{
			companies: map[string]*company.Company{"comp-1": {TelegramDefaultGroupID: &companyGroup}},
			channels:  map[string]*company.Channel{},
		},
		rc,
		sender,
	)

	err := w.deliver(PaymentEvent{PaymentID: "pay-1", CompanyID: "comp-1", ChannelID: "chan-unknown"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, companyGroup, sender.sent[0].chatID)
}

func TestDeliverDropsWhenNoGroupConfigured(t *testing.T) {
	_, rc := testRedis(t)

	sender := &stubSender{}
	w := NewWorker(
		configForTest(),
		&stubCompanies{
			companies: map[string]*company.Company{"comp-1": {}},
		},
		rc,
		sender,
	)

	err := w.deliver(PaymentEvent{PaymentID: "pay-1", CompanyID: "comp-1"})
	require.NoError(t, err)
	assert.Empty(t, sender.sent, "no configured chat means the event is dropped, not retried")
}

func TestMalformedEventGoesToDLQ(t *testing.T) {
	mr, rc := testRedis(t)

	w := NewWorker(configForTest(), &stubCompanies{}, rc, &stubSender{})
	w.moveToDLQ([]byte("not-json"))

	items, err := mr.List(FailedQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "not-json", items[0])
}
