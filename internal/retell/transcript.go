package retell

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dialcoach/dialcoach/internal/domain"
)

// Provider transcript lines look like "Agent: ..." / "User: ...". The
// provisioned agent roleplays the customer, so Agent maps to the customer
// role and User to the trainee (csr).
var transcriptLineRe = regexp.MustCompile(`^(Agent|User):\s*(.*)$`)

// callRecord is the provider's call object, reduced to what we consume.
type callRecord struct {
	Transcript          string  `json:"transcript"`
	CallStatus          string  `json:"call_status"`
	StartTimestamp      float64 `json:"start_timestamp"`
	EndTimestamp        float64 `json:"end_timestamp"`
	DisconnectionReason string  `json:"disconnection_reason"`
}

// GetTranscript fetches the provider's call record and parses it. A call
// that produced no speech yields an empty transcript with zero duration;
// that is a normal outcome, not an error.
func (c *Client) GetTranscript(ctx context.Context, callID string) (*domain.Transcript, error) {
	var rec callRecord
	if err := c.doJSON(ctx, http.MethodGet, "/v2/get-call/"+callID, nil, &rec); err != nil {
		return nil, fmt.Errorf("get call %s: %w", callID, err)
	}

	t := &domain.Transcript{
		Raw:                 rec.Transcript,
		Turns:               parseTranscript(rec.Transcript),
		CallStatus:          rec.CallStatus,
		DisconnectionReason: rec.DisconnectionReason,
	}
	if rec.EndTimestamp > rec.StartTimestamp {
		// Provider timestamps are epoch millis.
		t.Duration = (rec.EndTimestamp - rec.StartTimestamp) / 1000
	}
	if t.Turns == nil {
		t.Turns = []domain.TranscriptTurn{}
	}
	return t, nil
}

// WaitForTranscript polls the call record with exponential backoff until the
// transcript is non-empty or the poll budget is exhausted. The provider
// finalizes transcripts asynchronously after a call ends; a fixed sleep
// either races it or wastes time, so we poll. On budget exhaustion the last
// fetched transcript is returned, empty or not.
func (c *Client) WaitForTranscript(ctx context.Context, callID string) (*domain.Transcript, error) {
	var last *domain.Transcript

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 10 * time.Second

	operation := func() error {
		t, err := c.GetTranscript(ctx, callID)
		if err != nil {
			return err
		}
		last = t
		if strings.TrimSpace(t.Raw) == "" {
			return fmt.Errorf("transcript for %s not final yet", callID)
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if last != nil {
			// The call genuinely produced no speech, or the provider is
			// slow; either way hand back what we have.
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

func parseTranscript(raw string) []domain.TranscriptTurn {
	var turns []domain.TranscriptTurn
	for _, line := range strings.Split(raw, "\n") {
		m := transcriptLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		role := domain.RoleCustomer
		if m[1] == "User" {
			role = domain.RoleCSR
		}
		turns = append(turns, domain.TranscriptTurn{Role: role, Content: m[2]})
	}
	return turns
}
