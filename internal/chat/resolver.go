package chat

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/errs"
)

// Candidate is a user submitted message before it is stored.
type Candidate struct {
	To   string `json:"to"   validate:"required"`
	Text string `json:"text" validate:"required"`
	Type string `json:"type" validate:"required,oneof=message private_message"`
}

// Resolver validates outgoing messages and decides which stored messages a
// viewer may read.
type Resolver struct {
	deps     Deps
	validate *validator.Validate
}

// NewResolver creates a Resolver.
func NewResolver(deps Deps) *Resolver {
	deps.Logger = deps.logger().With("component", "resolver")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Resolver{deps: deps, validate: v}
}

// Validate checks a candidate and reports every violated rule at once.
// Status messages are system generated and never pass through here.
func (r *Resolver) Validate(c Candidate) error {
	err := r.validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.NewValidationError("invalid message", err.Error())
	}

	reasons := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "oneof":
			return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
		default:
			return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
	})

	return errs.NewValidationError("invalid message", reasons...)
}

// sanitize strips markup from every field of a candidate.
func (r *Resolver) sanitize(c Candidate) Candidate {
	return Candidate{
		To:   r.deps.Sanitizer.Strip(c.To),
		Text: r.deps.Sanitizer.Strip(c.Text),
		Type: r.deps.Sanitizer.Strip(c.Type),
	}
}

// requireParticipant resolves name to a current participant.
func (r *Resolver) requireParticipant(ctx context.Context, name string) error {
	if name == "" {
		return errs.NewValidationError("invalid message", "from is required")
	}

	_, err := r.deps.Store.GetParticipant(ctx, name)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errs.NewNotFoundError("participant not found", err)
	case err != nil:
		return storeFailure("failed to look up participant", err)
	}

	return nil
}

// requireRecipient checks that to is the broadcast target or a current
// participant. A recipient swept later keeps its messages.
func (r *Resolver) requireRecipient(ctx context.Context, to string) error {
	if to == r.deps.Rules.Broadcast {
		return nil
	}

	_, err := r.deps.Store.GetParticipant(ctx, to)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errs.NewValidationError("invalid message", "to must be a participant or the broadcast target")
	case err != nil:
		return storeFailure("failed to look up recipient", err)
	}

	return nil
}

// Post stores a message from a current participant. A sender swept for
// inactivity gets a NotFoundError and has to join again.
func (r *Resolver) Post(ctx context.Context, from string, c Candidate) (*database.Message, error) {
	from = r.deps.Sanitizer.Strip(from)
	c = r.sanitize(c)

	if err := r.Validate(c); err != nil {
		return nil, err
	}
	if err := r.requireParticipant(ctx, from); err != nil {
		return nil, err
	}
	if err := r.requireRecipient(ctx, c.To); err != nil {
		return nil, err
	}

	now, display := r.deps.stamp()
	message := &database.Message{
		From:      from,
		To:        c.To,
		Text:      c.Text,
		Type:      database.MessageType(c.Type),
		Time:      display,
		CreatedAt: now,
	}

	if err := r.deps.Store.SaveMessage(ctx, message); err != nil {
		return nil, storeFailure("failed to save message", err)
	}

	return message, nil
}

// Visible returns the messages viewer may read, oldest first. The admin
// identity reads everything; anyone else reads broadcasts, messages
// addressed to them and messages they sent. A positive limit keeps only
// the most recent limit messages.
func (r *Resolver) Visible(viewer string, messages []database.Message, limit int) []database.Message {
	var visible []database.Message
	if viewer == r.deps.Rules.AdminIdentity {
		visible = slices.Clone(messages)
	} else {
		visible = lo.Filter(messages, func(m database.Message, _ int) bool {
			return m.To == viewer || m.To == r.deps.Rules.Broadcast || m.From == viewer
		})
	}

	if limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}

	return visible
}

// Messages loads the log and returns what viewer may read.
func (r *Resolver) Messages(ctx context.Context, viewer string, limit int) ([]database.Message, error) {
	viewer = r.deps.Sanitizer.Strip(viewer)
	if viewer == "" {
		return nil, errs.NewValidationError("invalid request", "user is required")
	}
	if limit < 0 {
		return nil, errs.NewValidationError("invalid request", "limit must be a positive integer")
	}

	messages, err := r.deps.Store.ListMessages(ctx)
	if err != nil {
		return nil, storeFailure("failed to load messages", err)
	}

	return r.Visible(viewer, messages, limit), nil
}

// ParseLimit reads an optional limit parameter. An empty value means no
// limit; anything else must be a positive integer.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errs.NewValidationError("invalid request", "limit must be a positive integer")
	}

	return limit, nil
}

// ownedMessage loads message id and checks that requester sent it.
func (r *Resolver) ownedMessage(ctx context.Context, id int64, requester string) (*database.Message, error) {
	message, err := r.deps.Store.GetMessage(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, errs.NewNotFoundError("message not found", err)
	case err != nil:
		return nil, storeFailure("failed to load message", err)
	}

	if message.Type == database.TypeStatus {
		return nil, errs.NewUnauthorizedError("status messages cannot be changed")
	}
	if message.From != requester {
		return nil, errs.NewUnauthorizedError("only the sender can change a message")
	}

	return message, nil
}

// Edit replaces the recipient, text and type of a message sent by editor.
// The original time is kept.
func (r *Resolver) Edit(ctx context.Context, id int64, editor string, c Candidate) (*database.Message, error) {
	editor = r.deps.Sanitizer.Strip(editor)
	c = r.sanitize(c)

	if err := r.Validate(c); err != nil {
		return nil, err
	}
	if err := r.requireParticipant(ctx, editor); err != nil {
		return nil, err
	}
	if err := r.requireRecipient(ctx, c.To); err != nil {
		return nil, err
	}

	message, err := r.ownedMessage(ctx, id, editor)
	if err != nil {
		return nil, err
	}

	message.To = c.To
	message.Text = c.Text
	message.Type = database.MessageType(c.Type)

	err = r.deps.Store.UpdateMessage(ctx, message)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, errs.NewNotFoundError("message not found", err)
	case err != nil:
		return nil, storeFailure("failed to update message", err)
	}

	r.deps.Logger.InfoContext(ctx, "Message edited", "message_id", id, "from", editor)
	return message, nil
}

// Delete removes a message sent by requester.
func (r *Resolver) Delete(ctx context.Context, id int64, requester string) error {
	requester = r.deps.Sanitizer.Strip(requester)
	if requester == "" {
		return errs.NewValidationError("invalid request", "user is required")
	}

	if _, err := r.ownedMessage(ctx, id, requester); err != nil {
		return err
	}

	err := r.deps.Store.DeleteMessage(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errs.NewNotFoundError("message not found", err)
	case err != nil:
		return storeFailure("failed to delete message", err)
	}

	r.deps.Logger.InfoContext(ctx, "Message deleted", "message_id", id, "from", requester)
	return nil
}
