package pipeline

// Requirements: one persona run
// - AC-700: a successful run writes both report files
// - AC-701: a missing user aborts before anything is written
// - AC-702: a failed account lookup degrades the report but does not fail the run
// - AC-703: an empty profile is not an error and still produces a report
// - AC-704: skipped items are logged, never fatal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/redditpersona/internal/persona"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
	"github.com/gauthierbraillon/redditpersona/internal/report"
)

// MockFetcher is a mock implementation of the Fetcher interface
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchActivity(ctx context.Context, username string, opts reddit.FetchOptions) ([]reddit.RawItem, error) {
	args := m.Called(ctx, username, opts)
	items, _ := args.Get(0).([]reddit.RawItem)
	return items, args.Error(1)
}

func (m *MockFetcher) FetchAccount(ctx context.Context, username string) (reddit.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(reddit.Account), args.Error(1)
}

var fixedNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func rawItem(t *testing.T, kind string, data map[string]interface{}) reddit.RawItem {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return reddit.RawItem{Kind: kind, Data: b}
}

func sampleItems(t *testing.T) []reddit.RawItem {
	post := func(id, title, body string) reddit.RawItem {
		return rawItem(t, reddit.KindPost, map[string]interface{}{
			"id": id, "title": title, "selftext": body, "subreddit": "golang",
			"permalink": "/r/golang/comments/" + id + "/x/", "created_utc": 1769000000.0, "score": 15,
		})
	}
	comment := func(id, body string) reddit.RawItem {
		return rawItem(t, reddit.KindComment, map[string]interface{}{
			"id": id, "body": body, "subreddit": "programming",
			"permalink": "/r/programming/comments/abc/x/" + id + "/", "created_utc": 1769003600.0, "score": 2,
		})
	}
	return []reddit.RawItem{
		post("p1", "Writing a scraper in Go", "I want to learn more about HTTP clients."),
		post("p2", "Weekend project", ""),
		comment("c1", "My code finally compiles."),
		comment("c2", "[deleted]"),
		comment("c3", "The api docs are great."),
	}
}

func newPipeline(f Fetcher, dir string, opts ...Option) *Pipeline {
	lex, _ := persona.DefaultLexicon()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(f, report.NewWriter(dir), lex, opts...)
}

func TestAC700_RunWritesReports(t *testing.T) {
	dir := t.TempDir()
	fetchOpts := reddit.FetchOptions{MaxPages: 2, PageSize: 50, ItemCap: 80}
	account := reddit.Account{Name: "gopher", CreatedAt: fixedNow.AddDate(-1, 0, 0), TotalKarma: 99}

	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "gopher", fetchOpts).Return(sampleItems(t), nil)
	fetcher.On("FetchAccount", mock.Anything, "gopher").Return(account, nil)

	outcome, err := newPipeline(fetcher, dir, WithFetchOptions(fetchOpts)).Run(context.Background(), "gopher")
	require.NoError(t, err)

	fetcher.AssertExpectations(t)
	assert.False(t, outcome.Empty)
	assert.Len(t, outcome.Records, 4)
	assert.Len(t, outcome.Skipped, 1)
	assert.Equal(t, account, outcome.Account)
	assert.Equal(t, fixedNow, outcome.Result.GeneratedAt)
	assert.Equal(t, 2, outcome.Result.PostCount)
	assert.Equal(t, 2, outcome.Result.CommentCount)
	assert.Equal(t, filepath.Join(dir, "gopher_persona.txt"), outcome.TextPath)

	text, err := os.ReadFile(outcome.TextPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "USER PERSONA: gopher")
	assert.Contains(t, string(text), "• Total Karma: 99")

	dump, err := report.ReadDump(outcome.JSONPath)
	require.NoError(t, err)
	assert.Equal(t, outcome.Records, dump.Records)
}

func TestAC701_UserNotFoundWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "ghost", mock.Anything).
		Return(nil, fmt.Errorf("%w: u/ghost", reddit.ErrUserNotFound))

	outcome, err := newPipeline(fetcher, dir).Run(context.Background(), "ghost")

	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, errors.Is(err, reddit.ErrUserNotFound))
	fetcher.AssertNotCalled(t, "FetchAccount", mock.Anything, mock.Anything)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no output directory should be created")
}

func TestAC701_NetworkErrorPropagates(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "gopher", mock.Anything).
		Return(nil, &reddit.NetworkError{StatusCode: 502, Err: errors.New("bad gateway")})

	_, err := newPipeline(fetcher, t.TempDir()).Run(context.Background(), "gopher")

	var netErr *reddit.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, 502, netErr.StatusCode)
}

func TestAC702_AccountLookupFailureIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "gopher", mock.Anything).Return(sampleItems(t), nil)
	fetcher.On("FetchAccount", mock.Anything, "gopher").Return(reddit.Account{}, reddit.ErrRateLimited)

	outcome, err := newPipeline(fetcher, t.TempDir(), WithLogger(logger)).Run(context.Background(), "gopher")
	require.NoError(t, err)

	assert.False(t, outcome.Account.Known())
	assert.False(t, outcome.Result.AccountKnown)
	assert.Contains(t, logs.String(), "account lookup failed")

	text, err := os.ReadFile(outcome.TextPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "• Account Age: Unknown")
}

func TestAC703_EmptyProfileStillWritesReport(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "quiet", mock.Anything).Return([]reddit.RawItem{}, nil)
	fetcher.On("FetchAccount", mock.Anything, "quiet").Return(reddit.Account{}, nil)

	outcome, err := newPipeline(fetcher, t.TempDir()).Run(context.Background(), "quiet")
	require.NoError(t, err)

	assert.True(t, outcome.Empty)
	assert.Empty(t, outcome.Records)

	text, err := os.ReadFile(outcome.TextPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "No public posts or comments were found for u/quiet.")
}

func TestAC704_SkippedItemsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "gopher", mock.Anything).Return(sampleItems(t), nil)
	fetcher.On("FetchAccount", mock.Anything, "gopher").Return(reddit.Account{}, nil)

	_, err := newPipeline(fetcher, t.TempDir(), WithLogger(logger)).Run(context.Background(), "gopher")
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "skipped activity item")
	assert.Contains(t, logs.String(), "id=c2")
	assert.Contains(t, logs.String(), "persona generated")
}

func TestRunWriteErrorIsReturned(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	fetcher := new(MockFetcher)
	fetcher.On("FetchActivity", mock.Anything, "gopher", mock.Anything).Return(sampleItems(t), nil)
	fetcher.On("FetchAccount", mock.Anything, "gopher").Return(reddit.Account{}, nil)

	_, err := newPipeline(fetcher, filepath.Join(blocker, "out")).Run(context.Background(), "gopher")

	var writeErr *report.WriteError
	require.True(t, errors.As(err, &writeErr))
}
