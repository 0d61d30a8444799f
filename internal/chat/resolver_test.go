package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/errs"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDeps(t, nil, nil))

	tests := []struct {
		name    string
		input   Candidate
		reasons []string
	}{
		{
			name:  "public message",
			input: Candidate{To: "Todos", Text: "hi", Type: "message"},
		},
		{
			name:  "private message",
			input: Candidate{To: "Bob", Text: "hi", Type: "private_message"},
		},
		{
			name:    "bogus type",
			input:   Candidate{To: "Todos", Text: "hi", Type: "bogus"},
			reasons: []string{"type must be one of [message private_message]"},
		},
		{
			name:    "status is not user submittable",
			input:   Candidate{To: "Todos", Text: "hi", Type: "status"},
			reasons: []string{"type must be one of [message private_message]"},
		},
		{
			name:    "every field wrong",
			input:   Candidate{Type: "bogus"},
			reasons: []string{"to is required", "text is required", "type must be one of [message private_message]"},
		},
		{
			name:    "everything missing",
			input:   Candidate{},
			reasons: []string{"to is required", "text is required", "type is required"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := r.Validate(tt.input)
			if tt.reasons == nil {
				require.NoError(t, err)
				return
			}
			require.Equal(t, errs.CodeValidation, errs.Code(err))
			require.Equal(t, tt.reasons, errs.Reasons(err))
		})
	}
}

func TestPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "Alice")
	f.clock.Advance(3 * time.Second)

	message, err := f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "<b>hi</b> there", Type: "message"})
	require.NoError(t, err)
	require.NotZero(t, message.ID)
	require.Equal(t, "hi there", message.Text)
	require.Equal(t, "12:00:03", message.Time)
	require.Equal(t, database.TypeMessage, message.Type)

	messages := f.messages(t)
	require.Len(t, messages, 2)
	require.Equal(t, *message, messages[1])
}

func TestPostRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "Alice")

	_, err := f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "hi", Type: "bogus"})
	require.Equal(t, errs.CodeValidation, errs.Code(err))
	require.Equal(t, []string{"type must be one of [message private_message]"}, errs.Reasons(err))

	_, err = f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "<p></p>", Type: "message"})
	require.Equal(t, []string{"text is required"}, errs.Reasons(err))

	_, err = f.resolver.Post(ctx, "Mallory", Candidate{To: "Todos", Text: "hi", Type: "message"})
	require.Equal(t, errs.CodeNotFound, errs.Code(err))

	_, err = f.resolver.Post(ctx, "", Candidate{To: "Todos", Text: "hi", Type: "message"})
	require.Equal(t, errs.CodeValidation, errs.Code(err))

	require.Len(t, f.messages(t), 1)
}

func TestPostStripsEncodedMarkup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "Alice")

	message, err := f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "&lt;script&gt;x&lt;/script&gt;oi &lt;b&gt;gente&lt;/b&gt;", Type: "message"})
	require.NoError(t, err)
	require.Equal(t, "oi gente", message.Text)

	_, err = f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "&lt;script&gt;x&lt;/script&gt;", Type: "message"})
	require.Equal(t, []string{"text is required"}, errs.Reasons(err))

	for _, m := range f.messages(t) {
		require.NotContains(t, m.Text, "<")
	}
}

func TestPostRequiresKnownRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "Alice", "Bob")

	_, err := f.resolver.Post(ctx, "Alice", Candidate{To: "Ghost", Text: "hi", Type: "private_message"})
	require.Equal(t, errs.CodeValidation, errs.Code(err))
	require.Equal(t, []string{"to must be a participant or the broadcast target"}, errs.Reasons(err))

	_, err = f.resolver.Post(ctx, "Alice", Candidate{To: "admin", Text: "hi", Type: "private_message"})
	require.Equal(t, errs.CodeValidation, errs.Code(err))

	_, err = f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "hi all", Type: "message"})
	require.NoError(t, err)

	toBob, err := f.resolver.Post(ctx, "Alice", Candidate{To: "&lt;b&gt;Bob&lt;/b&gt;", Text: "psst", Type: "private_message"})
	require.NoError(t, err)
	require.Equal(t, "Bob", toBob.To)

	// Alice keeps heartbeating while Bob is swept; the message stays.
	f.clock.Advance(8 * time.Second)
	require.NoError(t, f.presence.Heartbeat(ctx, "Alice"))
	f.clock.Advance(8 * time.Second)
	report, err := f.presence.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Bob"}, report.Expired)

	stored, err := f.store.GetMessage(ctx, toBob.ID)
	require.NoError(t, err)
	require.Equal(t, "Bob", stored.To)

	_, err = f.resolver.Edit(ctx, toBob.ID, "Alice", Candidate{To: "Bob", Text: "psst!", Type: "private_message"})
	require.Equal(t, []string{"to must be a participant or the broadcast target"}, errs.Reasons(err))

	for _, m := range f.messages(t) {
		require.NotEqual(t, "Ghost", m.To)
	}
}

func TestPostAfterSweepIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "Alice")
	f.clock.Advance(time.Minute)

	_, err := f.presence.Sweep(ctx)
	require.NoError(t, err)

	_, err = f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "still here?", Type: "message"})
	require.Equal(t, errs.CodeNotFound, errs.Code(err))
}

func numbered(messages ...database.Message) []database.Message {
	for i := range messages {
		messages[i].ID = int64(i + 1)
	}
	return messages
}

func TestVisible(t *testing.T) {
	t.Parallel()

	r := NewResolver(newDeps(t, nil, nil))
	all := numbered(
		database.Message{From: "A", To: "Todos", Text: "entered the room", Type: database.TypeStatus},
		database.Message{From: "A", To: "B", Text: "secret", Type: database.TypePrivateMessage},
		database.Message{From: "B", To: "Todos", Text: "hello all", Type: database.TypeMessage},
		database.Message{From: "C", To: "A", Text: "for A", Type: database.TypePrivateMessage},
		database.Message{From: "B", To: "C", Text: "public but addressed", Type: database.TypeMessage},
	)

	ids := func(messages []database.Message) []int64 {
		out := make([]int64, 0, len(messages))
		for _, m := range messages {
			out = append(out, m.ID)
		}
		return out
	}

	tests := []struct {
		viewer string
		want   []int64
	}{
		{viewer: "admin", want: []int64{1, 2, 3, 4, 5}},
		{viewer: "A", want: []int64{1, 2, 3, 4}},
		{viewer: "B", want: []int64{1, 2, 3, 5}},
		{viewer: "C", want: []int64{1, 3, 4, 5}},
		{viewer: "D", want: []int64{1, 3}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.viewer, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ids(r.Visible(tt.viewer, all, 0)))
		})
	}

	t.Run("admin sees the raw log", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, all, r.Visible("admin", all, 0))
	})

	t.Run("limit keeps the most recent in order", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, []int64{3, 4}, ids(r.Visible("A", all, 2)))
		require.Equal(t, []int64{1, 2, 3, 4}, ids(r.Visible("A", all, 10)))
		require.Equal(t, []int64{5}, ids(r.Visible("admin", all, 1)))
	})

	t.Run("empty log", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, r.Visible("A", nil, 3))
	})
}

func TestRoomScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.join(t, "Alice")
	require.Len(t, f.participants(t), 1)
	require.Len(t, f.messages(t), 1)

	_, err := f.presence.Join(ctx, "Alice")
	require.Equal(t, errs.CodeConflict, errs.Code(err))
	require.Len(t, f.participants(t), 1)

	_, err = f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "hi", Type: "message"})
	require.NoError(t, err)
	require.Len(t, f.messages(t), 2)

	f.join(t, "Carol")
	_, err = f.resolver.Post(ctx, "Carol", Candidate{To: "Alice", Text: "only for Alice", Type: "private_message"})
	require.NoError(t, err)

	bob, err := f.resolver.Messages(ctx, "Bob", 0)
	require.NoError(t, err)
	texts := make([]string, 0, len(bob))
	for _, m := range bob {
		texts = append(texts, m.From+": "+m.Text)
	}
	require.Equal(t, []string{"Alice: entered the room", "Alice: hi", "Carol: entered the room"}, texts)

	alice, err := f.resolver.Messages(ctx, "Alice", 1)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	require.Equal(t, "only for Alice", alice[0].Text)

	admin, err := f.resolver.Messages(ctx, "admin", 0)
	require.NoError(t, err)
	require.Equal(t, f.messages(t), admin)
}

func TestMessagesRejectsBadRequests(t *testing.T) {
	f := newFixture(t)

	_, err := f.resolver.Messages(context.Background(), "", 0)
	require.Equal(t, errs.CodeValidation, errs.Code(err))

	_, err = f.resolver.Messages(context.Background(), "Alice", -1)
	require.Equal(t, errs.CodeValidation, errs.Code(err))
}

func TestParseLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "1", want: 1},
		{raw: "100", want: 100},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLimit(tt.raw)
			if tt.wantErr {
				require.Equal(t, errs.CodeValidation, errs.Code(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEditAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "Alice", "Bob")

	posted, err := f.resolver.Post(ctx, "Alice", Candidate{To: "Todos", Text: "tpyo", Type: "message"})
	require.NoError(t, err)

	_, err = f.resolver.Edit(ctx, posted.ID, "Bob", Candidate{To: "Todos", Text: "hijacked", Type: "message"})
	require.Equal(t, errs.CodeUnauthorized, errs.Code(err))

	_, err = f.resolver.Edit(ctx, posted.ID, "Alice", Candidate{To: "Todos", Text: "", Type: "bogus"})
	require.Equal(t, []string{"text is required", "type must be one of [message private_message]"}, errs.Reasons(err))

	f.clock.Advance(time.Minute)
	edited, err := f.resolver.Edit(ctx, posted.ID, "Alice", Candidate{To: "Bob", Text: "typo", Type: "private_message"})
	require.NoError(t, err)
	require.Equal(t, posted.Time, edited.Time)

	stored, err := f.store.GetMessage(ctx, posted.ID)
	require.NoError(t, err)
	require.Equal(t, "typo", stored.Text)
	require.Equal(t, database.TypePrivateMessage, stored.Type)

	_, err = f.resolver.Edit(ctx, 999, "Alice", Candidate{To: "Todos", Text: "x", Type: "message"})
	require.Equal(t, errs.CodeNotFound, errs.Code(err))

	statusID := f.messages(t)[0].ID
	require.Equal(t, errs.CodeUnauthorized, errs.Code(f.resolver.Delete(ctx, statusID, "Alice")))
	require.Equal(t, errs.CodeUnauthorized, errs.Code(f.resolver.Delete(ctx, posted.ID, "Bob")))
	require.Equal(t, errs.CodeNotFound, errs.Code(f.resolver.Delete(ctx, 999, "Alice")))

	require.NoError(t, f.resolver.Delete(ctx, posted.ID, "Alice"))
	_, err = f.store.GetMessage(ctx, posted.ID)
	require.ErrorIs(t, err, database.ErrNotFound)
}
