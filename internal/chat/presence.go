package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/errs"
)

// Presence tracks who is online through each participant's last seen time
// and evicts those silent for longer than the timeout.
type Presence struct {
	deps    Deps
	timeout time.Duration

	// sweepMu keeps sweeps from overlapping whoever triggers them.
	sweepMu sync.Mutex
}

// NewPresence creates a Presence that expires participants after timeout.
func NewPresence(deps Deps, timeout time.Duration) *Presence {
	deps.Logger = deps.logger().With("component", "presence")
	return &Presence{deps: deps, timeout: timeout}
}

// Timeout returns the inactivity window after which a participant is swept.
func (p *Presence) Timeout() time.Duration {
	return p.timeout
}

// Join adds name to the room and announces it with a broadcast status
// message. It fails with a ConflictError when the name is taken and with a
// ValidationError when the name is blank or reserved.
func (p *Presence) Join(ctx context.Context, name string) (*database.Participant, error) {
	name = p.deps.Sanitizer.Strip(name)
	if name == "" {
		return nil, errs.NewValidationError("invalid participant", "name is required")
	}
	if name == p.deps.Rules.Broadcast || name == p.deps.Rules.AdminIdentity {
		return nil, errs.NewValidationError("invalid participant", "name is reserved")
	}

	now, display := p.deps.stamp()
	participant := &database.Participant{Name: name, LastSeen: now}
	status := p.deps.statusMessage(name, EnteredText, now, display)

	err := p.deps.Store.CreateParticipant(ctx, participant, status)
	switch {
	case errors.Is(err, database.ErrConflict):
		p.deps.Logger.InfoContext(ctx, "Participant name already taken", "name", name)
		return nil, errs.NewConflictError("participant name already taken", err)
	case err != nil:
		return nil, storeFailure("failed to join the room", err)
	}

	p.deps.Logger.InfoContext(ctx, "Participant joined", "name", name)
	return participant, nil
}

// Heartbeat marks name as still active. It fails with a NotFoundError when
// the participant is unknown, typically because it was already swept.
func (p *Presence) Heartbeat(ctx context.Context, name string) error {
	name = p.deps.Sanitizer.Strip(name)
	if name == "" {
		return errs.NewValidationError("invalid participant", "name is required")
	}

	now, _ := p.deps.stamp()
	err := p.deps.Store.TouchParticipant(ctx, name, now)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errs.NewNotFoundError("participant not found", err)
	case err != nil:
		return storeFailure("failed to refresh participant", err)
	}

	return nil
}

// Online lists the participants currently in the room.
func (p *Presence) Online(ctx context.Context) ([]database.Participant, error) {
	participants, err := p.deps.Store.ListParticipants(ctx)
	if err != nil {
		return nil, storeFailure("failed to list participants", err)
	}
	return participants, nil
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Cutoff  int64
	Expired []string
	// Skipped holds participants refreshed or removed between the scan and
	// their eviction.
	Skipped []string
	Failed  map[string]error
	// Overlapped is set when another sweep was still running.
	Overlapped bool
}

// Sweep evicts every participant whose last seen time is older than
// now - timeout, recording a "left the room" status message for each. A
// failure on one participant is logged and the sweep moves on.
func (p *Presence) Sweep(ctx context.Context) (SweepReport, error) {
	if !p.sweepMu.TryLock() {
		p.deps.Logger.WarnContext(ctx, "Sweep already in progress, skipping")
		return SweepReport{Overlapped: true}, nil
	}
	defer p.sweepMu.Unlock()

	now := p.deps.Clock.Now()
	report := SweepReport{
		Cutoff: now.Add(-p.timeout).UnixMilli(),
		Failed: make(map[string]error),
	}

	expired, err := p.deps.Store.ListExpiredParticipants(ctx, report.Cutoff)
	if err != nil {
		return report, storeFailure("failed to scan for expired participants", err)
	}

	for _, participant := range expired {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		status := p.deps.statusMessage(participant.Name, LeftText, now.UnixMilli(), now.Format(p.deps.Rules.TimeLayout))
		err := p.deps.Store.ExpireParticipant(ctx, participant.Name, report.Cutoff, status)
		switch {
		case errors.Is(err, database.ErrNotFound):
			p.deps.Logger.DebugContext(ctx, "Participant refreshed or removed before eviction", "name", participant.Name)
			report.Skipped = append(report.Skipped, participant.Name)
		case err != nil:
			p.deps.Logger.ErrorContext(ctx, "Failed to expire participant", "name", participant.Name, "error", err)
			report.Failed[participant.Name] = err
		default:
			p.deps.Logger.InfoContext(ctx, "Participant left after inactivity",
				"name", participant.Name, "last_seen", participant.LastSeen)
			report.Expired = append(report.Expired, participant.Name)
		}
	}

	return report, nil
}
