package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mailflow-io/mailflow/internal/mail"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/repository"
)

// Human-readable reasons recorded in the attempt log for classified
// transport failures. Anything unclassified keeps the raw error text.
const (
	reasonAuthFailed = "authentication failed at the mail service"
	reasonRejected   = "too many mailings, the service rejected the message"
)

// Outcome is the coarse per-campaign result of one dispatch: either every
// recipient was handed to the transport, or delivery stopped at the first
// transport failure. Per-recipient outcomes are not tracked.
type Outcome struct {
	Status  model.LogStatus
	Message string
}

// Dispatcher delivers one due campaign occurrence to its full recipient set
// through the mail transport. It never touches campaign or schedule state.
type Dispatcher struct {
	Campaigns repository.CampaignRepositoryInterface
	Transport mail.Transport
	From      string
	// Limiter bounds the outbound send rate toward the mail host. Nil
	// means unlimited.
	Limiter *rate.Limiter
	Log     zerolog.Logger
}

// Dispatch sends the campaign to every recipient in order. A transport
// failure is converted into a failed Outcome; the returned error is reserved
// for persistence failures and an interrupted rate-limit wait, both of which
// mean the attempt never ran and must not be logged as an occurrence.
func (d *Dispatcher) Dispatch(ctx context.Context, campaign *model.Campaign) (Outcome, error) {
	recipients, err := d.Campaigns.ListRecipients(campaign.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading recipients for campaign %d: %w", campaign.ID, err)
	}

	for _, rec := range recipients {
		if d.Limiter != nil {
			// a Wait error is context cancellation, not a delivery
			// failure; the occurrence is skipped, not recorded
			if err := d.Limiter.Wait(ctx); err != nil {
				return Outcome{}, fmt.Errorf("rate limit wait interrupted for campaign %d: %w", campaign.ID, err)
			}
		}
		if err := d.Transport.Send(ctx, campaign.Subject, campaign.Body, d.From, rec.Email); err != nil {
			d.Log.Warn().Err(err).Int("campaign_id", campaign.ID).
				Str("recipient", rec.Email).Msg("delivery failed")
			return Outcome{Status: model.LogFailed, Message: failureReason(err)}, nil
		}
	}

	return Outcome{
		Status:  model.LogSuccess,
		Message: fmt.Sprintf("delivered to %d recipients", len(recipients)),
	}, nil
}

// failureReason maps a transport error onto the message stored in the
// attempt log. Classified kinds get a fixed human-readable reason; anything
// else is recorded verbatim.
func failureReason(err error) string {
	te, ok := mail.AsTransportError(err)
	if !ok {
		return err.Error()
	}
	switch te.Kind {
	case mail.KindAuth:
		return reasonAuthFailed
	case mail.KindRejected:
		return reasonRejected
	default:
		return te.Detail
	}
}
