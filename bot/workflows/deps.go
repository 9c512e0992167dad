// Package workflows defines the bot's dialogue workflows: account and
// hashtag analysis, idea generation, deferred broadcasts and admin grants.
// Each workflow is a declarative state graph wired to the shared
// collaborators below; the dialog engine drives them per inbound event.
package workflows

import (
	"context"
	"time"

	"github.com/m3rciful/contentbot/bot/instagram"
	"github.com/m3rciful/contentbot/bot/llm"
	"github.com/m3rciful/contentbot/bot/storage"
	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/core/broadcast"
	"github.com/m3rciful/contentbot/core/dialog"
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
)

// Callback uniques shared between menus and workflow transitions.
const (
	CbAnalyzeAccount = "_analyze_account"
	CbAnalyzeHashtag = "_analyze_hashtag"
	CbGenerateIdeas  = "_generate_ideas"
	CbPublicMessage  = "_public_message"
	CbAddAdmin       = "_add_admin"
	CbCancel         = "_cancel"
	CbMenu           = "_menu"
	CbExportData     = "_export_data"
	CbCount          = "count"
	CbShowNext       = "show_next"
	CbMoreIdeas      = "more_ideas"
)

// Sender delivers outbound replies. Buttons are given as rows so workflows
// stay free of transport types.
type Sender interface {
	Send(ctx context.Context, userID int64, text string, rows ...[]keyboard.InlineBtn) error
	SendDocument(ctx context.Context, userID int64, filename string, data []byte, caption string) error
	// SendVideoGroup delivers the videos behind the given URLs as one media
	// group. An empty slice is a no-op.
	SendVideoGroup(ctx context.Context, userID int64, urls []string) error
}

// IdeaGenerator produces idea text from a running conversation.
type IdeaGenerator interface {
	Generate(ctx context.Context, history []llm.Message) (string, error)
}

// UserDirectory is the slice of the user store the workflows need.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*storage.User, error)
	SetRole(ctx context.Context, id int64, name, role string) error
	Count(ctx context.Context) (int, error)
}

// JobScheduler queues deferred broadcasts.
type JobScheduler interface {
	Schedule(job *broadcast.Job) error
}

// Deps bundles every collaborator a workflow action may touch.
type Deps struct {
	Instagram instagram.Client
	Ideas     IdeaGenerator
	Users     UserDirectory
	Sender    Sender
	Scheduler JobScheduler

	// Location is the timezone broadcast datetimes are entered in.
	Location *time.Location
	// FetchLimit caps how many reels a hashtag lookup retrieves.
	FetchLimit int
	// BatchSize is how many result blocks one page shows.
	BatchSize int
	// Now overrides the time source, used by tests.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) batch() int {
	if d.BatchSize > 0 {
		return d.BatchSize
	}
	return 3
}

func (d *Deps) fetchLimit() int {
	if d.FetchLimit > 0 {
		return d.FetchLimit
	}
	return 30
}

// lang resolves the owner's language, preferring the value cached in the
// session at entry time.
func (d *Deps) lang(ctx context.Context, s *dialog.Session) string {
	if s != nil {
		if lang, ok := s.GetString("lang"); ok && lang != "" {
			return lang
		}
	}
	return d.lookupLang(ctx, ownerOf(s))
}

func (d *Deps) lookupLang(ctx context.Context, id int64) string {
	if d.Users == nil || id == 0 {
		return texts.DefaultLang
	}
	u, err := d.Users.Get(ctx, id)
	if err != nil || u == nil || u.Lang == "" {
		return texts.DefaultLang
	}
	return u.Lang
}

// rememberLang caches the owner's language in session data so later
// transitions skip the directory lookup.
func (d *Deps) rememberLang(ctx context.Context, s *dialog.Session) string {
	lang := d.lookupLang(ctx, s.Owner)
	s.Data["lang"] = lang
	return lang
}

func (d *Deps) isAdmin(ctx context.Context, id int64) bool {
	if d.Users == nil {
		return false
	}
	u, err := d.Users.Get(ctx, id)
	return err == nil && u.IsAdmin()
}

func ownerOf(s *dialog.Session) int64 {
	if s == nil {
		return 0
	}
	return s.Owner
}

// cancelRow is the inline cancel button attached to every prompt.
func cancelRow(lang string) []keyboard.InlineBtn {
	return []keyboard.InlineBtn{{Text: texts.T(lang, "cancel"), Unique: CbCancel}}
}

// All builds and returns every workflow in registration order.
func All(d *Deps) []*dialog.Workflow {
	return []*dialog.Workflow{
		d.AccountWorkflow(),
		d.HashtagWorkflow(),
		d.IdeasWorkflow(),
		d.BroadcastWorkflow(),
		d.GrantAdminWorkflow(),
	}
}
