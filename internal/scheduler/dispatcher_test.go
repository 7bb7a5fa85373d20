package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mailflow-io/mailflow/internal/mail"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/scheduler"
)

func newDispatcher(s *store, transport *fakeTransport) *scheduler.Dispatcher {
	return &scheduler.Dispatcher{
		Campaigns: s,
		Transport: transport,
		From:      "news@mailflow.test",
		Log:       zerolog.Nop(),
	}
}

func TestDispatchSendsToEveryRecipient(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true,
		model.Recipient{ID: 1, Email: "alice@example.com"},
		model.Recipient{ID: 2, Email: "bob@example.com"},
		model.Recipient{ID: 3, Email: "carol@example.com"},
	)
	transport := &fakeTransport{}

	outcome, err := newDispatcher(s, transport).Dispatch(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, model.LogSuccess, outcome.Status)
	assert.Equal(t, "delivered to 3 recipients", outcome.Message)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com", "carol@example.com"}, transport.sent)
}

func TestDispatchClassifiesAuthFailure(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true, model.Recipient{ID: 1, Email: "alice@example.com"})
	transport := &fakeTransport{
		failWith: &mail.TransportError{Kind: mail.KindAuth, Detail: "535 5.7.8 authentication failed"},
	}

	outcome, err := newDispatcher(s, transport).Dispatch(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, model.LogFailed, outcome.Status)
	// the log carries the fixed reason, not the raw server response
	assert.Equal(t, "authentication failed at the mail service", outcome.Message)
}

func TestDispatchClassifiesRejection(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true, model.Recipient{ID: 1, Email: "alice@example.com"})
	transport := &fakeTransport{
		failWith: &mail.TransportError{Kind: mail.KindRejected, Detail: "550 suspicion of SPAM"},
	}

	outcome, err := newDispatcher(s, transport).Dispatch(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, model.LogFailed, outcome.Status)
	assert.Equal(t, "too many mailings, the service rejected the message", outcome.Message)
}

func TestDispatchRecordsUnknownErrorVerbatim(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true, model.Recipient{ID: 1, Email: "alice@example.com"})
	transport := &fakeTransport{failWith: errors.New("connection reset by peer")}

	outcome, err := newDispatcher(s, transport).Dispatch(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, model.LogFailed, outcome.Status)
	assert.Equal(t, "connection reset by peer", outcome.Message)
}

func TestDispatchStopsAtFirstFailure(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true,
		model.Recipient{ID: 1, Email: "alice@example.com"},
		model.Recipient{ID: 2, Email: "bob@example.com"},
		model.Recipient{ID: 3, Email: "carol@example.com"},
	)
	transport := &fakeTransport{
		failWith: &mail.TransportError{Kind: mail.KindOther, Detail: "451 try again later"},
		failTo:   "bob@example.com",
	}

	outcome, err := newDispatcher(s, transport).Dispatch(context.Background(), c)
	require.NoError(t, err)

	// coarse outcome: the whole occurrence is failed, delivery stops
	assert.Equal(t, model.LogFailed, outcome.Status)
	assert.Equal(t, []string{"alice@example.com"}, transport.sent)
}

func TestDispatchCanceledContextIsNotALoggedFailure(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true, model.Recipient{ID: 1, Email: "alice@example.com"})
	transport := &fakeTransport{}

	d := newDispatcher(s, transport)
	d.Limiter = rate.NewLimiter(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, c)
	// the attempt never ran: an error, not a failed outcome
	require.Error(t, err)
	assert.Empty(t, transport.sent)
}

func TestDispatchEmptyRecipientSet(t *testing.T) {
	s := newStore()
	c := s.addCampaign(true)
	transport := &fakeTransport{}

	outcome, err := newDispatcher(s, transport).Dispatch(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, model.LogSuccess, outcome.Status)
	assert.Empty(t, transport.sent)
}
