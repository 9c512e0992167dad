package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/contentbot/bot/instagram"
	"github.com/m3rciful/contentbot/bot/llm"
	"github.com/m3rciful/contentbot/bot/storage"
	"github.com/m3rciful/contentbot/core/broadcast"
	"github.com/m3rciful/contentbot/core/dialog"
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
)

type sentMessage struct {
	text string
	rows [][]keyboard.InlineBtn
}

type fakeSender struct {
	messages    []sentMessage
	documents   []string
	videoGroups [][]string
	fail        bool
}

func (f *fakeSender) Send(ctx context.Context, userID int64, text string, rows ...[]keyboard.InlineBtn) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.messages = append(f.messages, sentMessage{text: text, rows: rows})
	return nil
}

func (f *fakeSender) SendDocument(ctx context.Context, userID int64, filename string, data []byte, caption string) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.documents = append(f.documents, filename)
	return nil
}

func (f *fakeSender) SendVideoGroup(ctx context.Context, userID int64, urls []string) error {
	if f.fail {
		return errors.New("send failed")
	}
	if len(urls) > 0 {
		f.videoGroups = append(f.videoGroups, append([]string(nil), urls...))
	}
	return nil
}

func (f *fakeSender) last() sentMessage {
	if len(f.messages) == 0 {
		return sentMessage{}
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeSender) allText() string {
	var sb strings.Builder
	for _, m := range f.messages {
		sb.WriteString(m.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

type fakeInstagram struct {
	status   instagram.ResolveStatus
	reels    []instagram.Reel
	reelsErr error
}

func (f *fakeInstagram) Resolve(ctx context.Context, username string) (instagram.ResolveStatus, error) {
	return f.status, nil
}

func (f *fakeInstagram) UserReels(ctx context.Context, username string, limit int) ([]instagram.Reel, error) {
	if f.reelsErr != nil {
		return nil, f.reelsErr
	}
	if limit > len(f.reels) {
		limit = len(f.reels)
	}
	return f.reels[:limit], nil
}

func (f *fakeInstagram) HashtagReels(ctx context.Context, hashtag string, limit int) ([]instagram.Reel, error) {
	return f.UserReels(ctx, hashtag, limit)
}

type fakeIdeas struct {
	calls   [][]llm.Message
	replies []string
}

func (f *fakeIdeas) Generate(ctx context.Context, history []llm.Message) (string, error) {
	f.calls = append(f.calls, append([]llm.Message(nil), history...))
	reply := fmt.Sprintf("ideas #%d", len(f.calls))
	if len(f.replies) >= len(f.calls) {
		reply = f.replies[len(f.calls)-1]
	}
	return reply, nil
}

type fakeUsers struct {
	users map[int64]*storage.User
	roles map[int64]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users: make(map[int64]*storage.User),
		roles: make(map[int64]string),
	}
}

func (f *fakeUsers) Get(ctx context.Context, id int64) (*storage.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) SetRole(ctx context.Context, id int64, name, role string) error {
	f.roles[id] = role
	return nil
}

func (f *fakeUsers) Count(ctx context.Context) (int, error) {
	return len(f.users), nil
}

type fakeScheduler struct {
	jobs []*broadcast.Job
}

func (f *fakeScheduler) Schedule(job *broadcast.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type fixture struct {
	deps      *Deps
	engine    *dialog.Engine
	sender    *fakeSender
	ig        *fakeInstagram
	ideas     *fakeIdeas
	users     *fakeUsers
	scheduler *fakeScheduler
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sender:    &fakeSender{},
		ig:        &fakeInstagram{status: instagram.StatusFound},
		ideas:     &fakeIdeas{},
		users:     newFakeUsers(),
		scheduler: &fakeScheduler{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.users.users[1] = &storage.User{ID: 1, Lang: "en", Role: storage.RoleUser}
	f.users.users[2] = &storage.User{ID: 2, Lang: "en", Role: storage.RoleAdmin}

	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	f.deps = &Deps{
		Instagram: f.ig,
		Ideas:     f.ideas,
		Users:     f.users,
		Sender:    f.sender,
		Scheduler: f.scheduler,
		Location:  loc,
		BatchSize: 3,
		Now:       func() time.Time { return f.now },
	}
	f.engine = dialog.NewEngine(dialog.Options{
		Cancel: dialog.CallbackKey(CbCancel),
	})
	for _, wf := range All(f.deps) {
		require.NoError(t, f.engine.Register(wf))
	}
	return f
}

func (f *fixture) text(owner int64, text string) dialog.Result {
	return f.engine.HandleEvent(context.Background(), dialog.TextEvent(owner, text))
}

func (f *fixture) callback(owner int64, key, payload string) dialog.Result {
	return f.engine.HandleEvent(context.Background(), dialog.CallbackEvent(owner, key, payload))
}

func someReels(n int) []instagram.Reel {
	reels := make([]instagram.Reel, n)
	for i := range reels {
		reels[i] = instagram.Reel{
			ID:       fmt.Sprintf("id%d", i),
			Code:     fmt.Sprintf("C%d", i),
			Views:    (i + 1) * 100,
			Likes:    (i + 1) * 10,
			Comments: i + 1,
			PostDate: time.Date(2025, 5, 1+i, 0, 0, 0, 0, time.UTC),
			VideoURL: fmt.Sprintf("https://cdn.example/v%d.mp4", i),
			ER:       0.1,
		}
	}
	return reels
}

func TestAccountAnalysisHappyPath(t *testing.T) {
	f := newFixture(t)
	f.ig.reels = someReels(5)

	res := f.callback(1, CbAnalyzeAccount, "")
	require.Equal(t, dialog.ResultStarted, res.Kind)
	require.Contains(t, f.sender.last().text, "nickname")

	res = f.text(1, "@SomeUser")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Contains(t, f.sender.last().text, "How many")

	// All five fit on the first page, so there is nothing left to page.
	res = f.callback(1, CbCount, "5")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.False(t, f.engine.InProgress(1))

	require.Contains(t, f.sender.allText(), "Analysis of 5 videos of @someuser")
	require.Equal(t, []string{"report_someuser.xlsx"}, f.sender.documents)

	// The top three videos by views arrive as one media group.
	require.Equal(t, [][]string{{
		"https://cdn.example/v4.mp4",
		"https://cdn.example/v3.mp4",
		"https://cdn.example/v2.mp4",
	}}, f.sender.videoGroups)
}

func TestAccountPagination(t *testing.T) {
	f := newFixture(t)
	f.ig.reels = someReels(10)

	f.callback(1, CbAnalyzeAccount, "")
	f.text(1, "someuser")
	res := f.callback(1, CbCount, "5")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("showing_results"), res.State)
	require.Contains(t, f.sender.allText(), "Analysis of 5 videos of @someuser")

	// 10 blocks total, 5 shown, pages of 3: 3 + 2.
	res = f.callback(1, CbShowNext, "")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	res = f.callback(1, CbShowNext, "")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.False(t, f.engine.InProgress(1))

	// Every reel link appears exactly once across all messages.
	all := f.sender.allText()
	for i := 0; i < 10; i++ {
		require.Equal(t, 1, strings.Count(all, fmt.Sprintf("/reel/C%d/", i)), "reel %d", i)
	}
}

func TestAccountAnalysisNotFoundReprompts(t *testing.T) {
	f := newFixture(t)
	f.ig.status = instagram.StatusNotFound

	f.callback(1, CbAnalyzeAccount, "")
	res := f.text(1, "nosuch")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("awaiting_nickname"), res.State)
	require.Contains(t, f.sender.last().text, "not found")
	require.True(t, f.engine.InProgress(1))
}

func TestAccountAnalysisPrivateEndsWorkflow(t *testing.T) {
	f := newFixture(t)
	f.ig.status = instagram.StatusPrivate

	f.callback(1, CbAnalyzeAccount, "")
	res := f.text(1, "hidden")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.Contains(t, f.sender.last().text, "private")
	require.False(t, f.engine.InProgress(1))
}

func TestAccountSendFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.callback(1, CbAnalyzeAccount, "")

	f.sender.fail = true
	res := f.text(1, "someuser")
	require.Equal(t, dialog.ResultActionFailed, res.Kind)
	require.True(t, f.engine.InProgress(1))

	// The same input succeeds once sending recovers.
	f.sender.fail = false
	res = f.text(1, "someuser")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("awaiting_count"), res.State)
}

func TestHashtagPagination(t *testing.T) {
	f := newFixture(t)
	f.ig.reels = someReels(12)
	f.deps.FetchLimit = 12

	f.callback(1, CbAnalyzeHashtag, "")
	f.text(1, "#Travel")
	res := f.callback(1, CbCount, "5")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("showing_results"), res.State)
	require.Equal(t, []string{"report_travel.xlsx"}, f.sender.documents)

	// 12 blocks total, 5 shown, pages of 3: 3 + 3 + 1.
	res = f.callback(1, CbShowNext, "")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	res = f.callback(1, CbShowNext, "")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	res = f.callback(1, CbShowNext, "")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.False(t, f.engine.InProgress(1))

	// Every numbered block appears exactly once across all messages.
	all := f.sender.allText()
	for i := 1; i <= 12; i++ {
		require.Equal(t, 1, strings.Count(all, fmt.Sprintf("\n%d. 👁", i)), "block %d", i)
	}
}

func TestHashtagAllShownUpfrontCompletes(t *testing.T) {
	f := newFixture(t)
	f.ig.reels = someReels(4)
	f.deps.FetchLimit = 4

	f.callback(1, CbAnalyzeHashtag, "")
	f.text(1, "travel")
	res := f.callback(1, CbCount, "5")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.False(t, f.engine.InProgress(1))
}

func TestIdeasLoop(t *testing.T) {
	f := newFixture(t)

	f.callback(1, CbGenerateIdeas, "")
	res := f.text(1, "cooking videos")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("followup"), res.State)
	require.Contains(t, f.sender.last().text, "ideas #1")

	res = f.callback(1, CbMoreIdeas, "")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Contains(t, f.sender.last().text, "ideas #2")

	// The second call replays the whole conversation.
	require.Len(t, f.ideas.calls, 2)
	require.Len(t, f.ideas.calls[1], 3)
	require.Equal(t, llm.RoleUser, f.ideas.calls[1][0].Role)
	require.Equal(t, "cooking videos", f.ideas.calls[1][0].Content)
	require.Equal(t, llm.RoleAssistant, f.ideas.calls[1][1].Role)

	// A new text turn refines on the same history.
	res = f.text(1, "make them shorter")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Len(t, f.ideas.calls, 3)
	require.Len(t, f.ideas.calls[2], 5)
}

func TestIdeasIgnoresStrayCallbacks(t *testing.T) {
	f := newFixture(t)
	f.callback(1, CbGenerateIdeas, "")
	f.text(1, "topic")

	sent := len(f.sender.messages)
	res := f.callback(1, CbShowNext, "")
	require.Equal(t, dialog.ResultUnmatched, res.Kind)
	require.Len(t, f.sender.messages, sent)
	require.True(t, f.engine.InProgress(1))
}

func TestBroadcastScheduling(t *testing.T) {
	f := newFixture(t)

	res := f.callback(2, CbPublicMessage, "")
	require.Equal(t, dialog.ResultStarted, res.Kind)
	require.Contains(t, f.sender.last().text, "Europe/Paris")

	// Garbage and past datetimes re-prompt without losing the session.
	res = f.text(2, "tomorrow maybe")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("awaiting_datetime"), res.State)
	require.Contains(t, f.sender.allText(), "Invalid date format")

	res = f.text(2, "2020-01-01 10:00")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("awaiting_datetime"), res.State)
	require.Contains(t, f.sender.allText(), "already in the past")

	res = f.text(2, "2025-07-01 10:00")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("awaiting_message"), res.State)

	res = f.text(2, "Big update coming!")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.Len(t, f.scheduler.jobs, 1)

	job := f.scheduler.jobs[0]
	require.Equal(t, "Big update coming!", job.Payload.Text)
	require.Equal(t, int64(2), job.CreatedBy)
	require.Equal(t, "2025-07-01 10:00", job.RunAt.Format("2006-01-02 15:04"))
	require.Equal(t, "Europe/Paris", job.RunAt.Location().String())
	require.Contains(t, f.sender.last().text, "scheduled for 2 users")
}

func TestBroadcastDeniedForNonAdmin(t *testing.T) {
	f := newFixture(t)

	res := f.callback(1, CbPublicMessage, "")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.Equal(t, StateDenied, res.State)
	require.Contains(t, f.sender.last().text, "permission")
	require.False(t, f.engine.InProgress(1))
	require.Empty(t, f.scheduler.jobs)
}

func TestGrantAdmin(t *testing.T) {
	f := newFixture(t)

	f.callback(2, CbAddAdmin, "")
	f.text(2, "@newadmin")

	res := f.text(2, "not-a-number")
	require.Equal(t, dialog.ResultAdvanced, res.Kind)
	require.Equal(t, dialog.State("awaiting_user_id"), res.State)

	res = f.text(2, "12345")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.Equal(t, storage.RoleAdmin, f.users.roles[12345])
	require.Contains(t, f.sender.last().text, "newadmin")
	require.Contains(t, f.sender.last().text, "12345")
}

func TestGrantAdminDeniedForNonAdmin(t *testing.T) {
	f := newFixture(t)
	res := f.callback(1, CbAddAdmin, "")
	require.Equal(t, dialog.ResultCompleted, res.Kind)
	require.Equal(t, StateDenied, res.State)
	require.Empty(t, f.users.roles)
}

func TestCancelAbandonsWorkflow(t *testing.T) {
	f := newFixture(t)
	f.callback(1, CbAnalyzeAccount, "")
	require.True(t, f.engine.InProgress(1))

	res := f.callback(1, CbCancel, "")
	require.Equal(t, dialog.ResultCancelled, res.Kind)
	require.False(t, f.engine.InProgress(1))
}
