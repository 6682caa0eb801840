package diary

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

type List string

const (
	ListPending   List = "pending"
	ListCompleted List = "completed"
)

const removePrompt = "Are you sure you want to remove this todo?"

// Dialogs is the blocking confirm/prompt capability the UI provides.
// PromptText returns ok=false when the user cancels.
type Dialogs interface {
	Confirm(prompt string) bool
	PromptText(label, def string) (string, bool)
}

// Renderer receives the state after every change.
type Renderer interface {
	Render(Snapshot)
}

// Draft is the contents of the add form.
type Draft struct {
	Title       string
	Description string
}

// Snapshot is a read-only copy of the application state.
type Snapshot struct {
	Records           []Record
	Pending           []Record
	Completed         []Record
	ShowMorePending   bool
	ShowMoreCompleted bool
	Draft             Draft
	// Err is the last storage failure; nil once a write succeeds.
	Err               error
}

func (s Snapshot) List(l List) []Record {
	if l == ListCompleted {
		return s.Completed
	}
	return s.Pending
}

func (s Snapshot) ShowMore(l List) bool {
	if l == ListCompleted {
		return s.ShowMoreCompleted
	}
	return s.ShowMorePending
}

// Controller owns the session state. Each mutating call updates the
// repository, recomputes the projections and then renders, in that order.
type Controller struct {
	repo     *Repository
	dialogs  Dialogs
	renderer Renderer
	logger   *log.Logger

	pending   []Record
	completed []Record
	showMore  map[List]bool
	draft     Draft
	err       error
}

// NewController wraps repo. dialogs, renderer and logger may be nil.
func NewController(repo *Repository, dialogs Dialogs, renderer Renderer, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := &Controller{
		repo:     repo,
		dialogs:  dialogs,
		renderer: renderer,
		logger:   logger,
		showMore: map[List]bool{ListPending: false, ListCompleted: false},
	}
	c.project()
	return c
}

// SetRenderer replaces the renderer; the TUI installs itself after construction.
func (c *Controller) SetRenderer(r Renderer) {
	c.renderer = r
}

func (c *Controller) SetDialogs(d Dialogs) {
	c.dialogs = d
}

// Lookup finds a record by id.
func (c *Controller) Lookup(id int64) (Record, bool) {
	for _, r := range c.repo.Records() {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func (c *Controller) OnAdd(title, description string) (Record, error) {
	c.draft = Draft{Title: title, Description: description}
	rec, err := c.repo.Add(title, description)
	if errors.Is(err, ErrValidation) {
		c.logger.Debug("add rejected: empty title")
		c.refresh()
		return Record{}, err
	}
	c.draft = Draft{}
	c.noteStorage(err)
	c.refresh()
	return rec, err
}

// OnEdit rejects a blank title so add and edit validate alike. A missing id
// is a no-op.
func (c *Controller) OnEdit(id int64, title, description string) (Record, error) {
	if strings.TrimSpace(title) == "" {
		return Record{}, ErrValidation
	}
	rec, err := c.repo.Edit(id, title, description)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("edit: no such record", "id", id)
		return Record{}, nil
	}
	c.noteStorage(err)
	c.refresh()
	return rec, err
}

// OnEditPrompt asks for a new title and description, each pre-filled. A
// cancelled prompt keeps that field's current value.
func (c *Controller) OnEditPrompt(id int64) (Record, error) {
	cur, ok := c.Lookup(id)
	if !ok {
		c.logger.Debug("edit: no such record", "id", id)
		return Record{}, nil
	}
	if c.dialogs == nil {
		return cur, nil
	}
	title, okTitle := c.dialogs.PromptText("Enter new title:", cur.Title)
	if !okTitle {
		title = cur.Title
	}
	desc, okDesc := c.dialogs.PromptText("Enter new description:", cur.Description)
	if !okDesc {
		desc = cur.Description
	}
	if !okTitle && !okDesc {
		return cur, nil
	}
	return c.OnEdit(id, title, desc)
}

func (c *Controller) OnComplete(id int64) (Record, error) {
	rec, err := c.repo.Complete(id)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("complete: no such record", "id", id)
		return Record{}, nil
	}
	c.noteStorage(err)
	c.refresh()
	return rec, err
}

// OnRemove deletes the record only when confirmed is true.
func (c *Controller) OnRemove(id int64, confirmed bool) error {
	if !confirmed {
		return nil
	}
	err := c.repo.Remove(id)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("remove: no such record", "id", id)
		return nil
	}
	c.noteStorage(err)
	c.refresh()
	return err
}

// OnRemovePrompt asks the user to confirm before removing.
func (c *Controller) OnRemovePrompt(id int64) (bool, error) {
	confirmed := c.dialogs != nil && c.dialogs.Confirm(removePrompt)
	return confirmed, c.OnRemove(id, confirmed)
}

func (c *Controller) OnToggleShowMore(l List) {
	if _, ok := c.showMore[l]; !ok {
		return
	}
	c.showMore[l] = !c.showMore[l]
	c.refresh()
}

// Sync retries writing the whole list after a failed save.
func (c *Controller) Sync() error {
	err := c.repo.Sync()
	c.noteStorage(err)
	c.refresh()
	return err
}

// Reload drops the in-memory list and reads the store again. It resolves an
// ErrConflict, losing any change that was refused.
func (c *Controller) Reload() error {
	_, err := c.repo.Load()
	if err != nil {
		c.logger.Warn("reload", "err", err)
	}
	c.err = nil
	c.noteStorage(err)
	c.refresh()
	return err
}

// Refresh recomputes the projections and renders without mutating anything.
func (c *Controller) Refresh() {
	c.refresh()
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Records:           c.repo.Records(),
		Pending:           cloneRecords(c.pending),
		Completed:         cloneRecords(c.completed),
		ShowMorePending:   c.showMore[ListPending],
		ShowMoreCompleted: c.showMore[ListCompleted],
		Draft:             c.draft,
		Err:               c.err,
	}
}

func (c *Controller) noteStorage(err error) {
	var se *StorageError
	if errors.As(err, &se) {
		c.err = se
		return
	}
	if err == nil {
		c.err = nil
	}
}

func (c *Controller) project() {
	c.pending, c.completed = Project(c.repo.Records())
}

func (c *Controller) refresh() {
	c.project()
	if c.renderer != nil {
		c.renderer.Render(c.Snapshot())
	}
}
