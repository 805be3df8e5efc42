package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
	"github.com/lueurxax/telegram-feed-connector/internal/ingest/reader"
	"github.com/lueurxax/telegram-feed-connector/internal/process/dedup"
	"github.com/lueurxax/telegram-feed-connector/internal/process/normalize"
	"github.com/lueurxax/telegram-feed-connector/internal/process/schema"
	"github.com/lueurxax/telegram-feed-connector/internal/process/writer"
)

const botUserID = 666

var (
	errStatus = errors.New("status unavailable")
	errDisk   = errors.New("disk full")
)

type fakeAuth struct {
	authorized bool
	err        error
}

func (f fakeAuth) IsAuthorized(context.Context) (bool, error) {
	return f.authorized, f.err
}

type fakeFetcher struct {
	batches []reader.ChannelBatch
	stats   reader.ChannelStats
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) ([]reader.ChannelBatch, reader.ChannelStats, error) {
	f.calls++
	return f.batches, f.stats, f.err
}

type fakeEntities struct{}

func (fakeEntities) ResolveEntity(_ context.Context, ref domain.PeerRef) (domain.Entity, error) {
	return domain.Entity{Ref: ref, FirstName: "User", Bot: ref.ID == botUserID}, nil
}

type fakeWriter struct {
	batches [][]domain.NormalizedMessage
	err     error
}

func (f *fakeWriter) Write(_ context.Context, msgs []domain.NormalizedMessage) (writer.WriteReport, error) {
	f.batches = append(f.batches, msgs)
	if f.err != nil {
		return writer.WriteReport{}, f.err
	}

	return writer.WriteReport{Rows: len(msgs), Inserted: int64(len(msgs))}, nil
}

var channel = domain.Channel{ID: 100, Title: "News", Username: "news", Kind: domain.PeerChannel, TopMessageID: 10}

func raw(id, from int64, offset time.Duration, text string) domain.RawMessage {
	return domain.RawMessage{
		ID:     id,
		Date:   time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC).Add(offset),
		Text:   text,
		FromID: &domain.PeerRef{Kind: domain.PeerUser, ID: from},
		PeerID: channel.Ref(),
	}
}

func newTestSyncer(t *testing.T, auth Authorizer, fetcher Fetcher, w Writer) *Syncer {
	t.Helper()

	logger := zerolog.Nop()

	validator, err := schema.New()
	require.NoError(t, err)

	norm := normalize.New(fakeEntities{}, nil, "1", &logger)

	return New(auth, fetcher, norm, validator, w, dedup.DefaultOptions(), &logger)
}

func TestSyncer_RunsFullPass(t *testing.T) {
	fetcher := &fakeFetcher{
		stats: reader.ChannelStats{Listed: 2, Fetched: 1},
		batches: []reader.ChannelBatch{{
			Channel: channel,
			Messages: []domain.RawMessage{
				raw(1, 7, 0, "the first half of a thought"),
				raw(2, 7, time.Second, "and the second half of it"),
				raw(3, botUserID, 2*time.Second, "automated message from a bot"),
				raw(4, 8, 3*time.Second, "short"),
				{ID: 5, Service: true, PeerID: channel.Ref(), FromID: &domain.PeerRef{Kind: domain.PeerUser, ID: 9}},
			},
		}},
	}
	w := &fakeWriter{}

	report, err := newTestSyncer(t, fakeAuth{authorized: true}, fetcher, w).Run(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, 5, report.Fetched)
	require.Equal(t, 3, report.Normalized)
	require.Equal(t, 1, report.Glued)
	require.Equal(t, int64(1), report.Written)
	require.Equal(t, 1, report.Skipped[domain.SkipBotAuthor])
	require.Equal(t, 1, report.Skipped[domain.SkipNoText])
	require.Equal(t, 1, report.Skipped[domain.SkipBelowMinLength])
	require.Equal(t, fetcher.stats, report.Channels)

	require.Len(t, w.batches, 1)
	require.Len(t, w.batches[0], 1)
	require.Equal(t, "the first half of a thought and the second half of it", w.batches[0][0].Message.Text)
	require.Equal(t, "2", w.batches[0][0].Message.ID)
}

func TestSyncer_NotAuthorized(t *testing.T) {
	fetcher := &fakeFetcher{}

	_, err := newTestSyncer(t, fakeAuth{}, fetcher, &fakeWriter{}).Run(context.Background())

	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Zero(t, fetcher.calls)
}

func TestSyncer_AuthorizationError(t *testing.T) {
	_, err := newTestSyncer(t, fakeAuth{err: errStatus}, &fakeFetcher{}, &fakeWriter{}).Run(context.Background())

	require.ErrorIs(t, err, errStatus)
}

func TestSyncer_NothingToWrite(t *testing.T) {
	w := &fakeWriter{}

	report, err := newTestSyncer(t, fakeAuth{authorized: true}, &fakeFetcher{}, w).Run(context.Background())

	require.NoError(t, err)
	require.Zero(t, report.Fetched)
	require.Empty(t, w.batches)
}

func TestSyncer_WriteFailure(t *testing.T) {
	fetcher := &fakeFetcher{batches: []reader.ChannelBatch{{
		Channel:  channel,
		Messages: []domain.RawMessage{raw(1, 7, 0, "a message long enough to be kept")},
	}}}
	w := &fakeWriter{err: errors.Join(apperrors.ErrBatchWrite, errDisk)}

	report, err := newTestSyncer(t, fakeAuth{authorized: true}, fetcher, w).Run(context.Background())

	require.ErrorIs(t, err, apperrors.ErrBatchWrite)
	require.Equal(t, 1, report.Glued)
	require.Zero(t, report.Written)
}

func TestSyncer_FetchCanceled(t *testing.T) {
	fetcher := &fakeFetcher{err: context.Canceled}

	_, err := newTestSyncer(t, fakeAuth{authorized: true}, fetcher, &fakeWriter{}).Run(context.Background())

	require.ErrorIs(t, err, context.Canceled)
}

func TestSyncer_KeepsChannelOrder(t *testing.T) {
	other := domain.Channel{ID: 200, Title: "Other", Kind: domain.PeerChannel}
	otherMsg := raw(1, 7, -time.Hour, "an older message in the second channel")
	otherMsg.PeerID = other.Ref()

	fetcher := &fakeFetcher{batches: []reader.ChannelBatch{
		{Channel: channel, Messages: []domain.RawMessage{raw(1, 7, 0, "a message in the first channel")}},
		{Channel: other, Messages: []domain.RawMessage{otherMsg}},
	}}
	w := &fakeWriter{}

	_, err := newTestSyncer(t, fakeAuth{authorized: true}, fetcher, w).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, w.batches[0], 2)
	// Output is ordered by timestamp after gluing.
	require.Equal(t, "200", w.batches[0][0].Source.Channel.ID)
	require.Equal(t, "100", w.batches[0][1].Source.Channel.ID)
}
