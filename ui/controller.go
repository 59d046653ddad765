// Package ui is the terminal client of the media catalog. Controller holds the
// client behavior and talks to the screen only through the View interface;
// the bubbletea program in tui.go is one View implementation.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mediacatalog/client"
	"mediacatalog/logging"
	"mediacatalog/models"
	"mediacatalog/validation"
)

// NoticeTimeout is how long a notice stays visible.
const NoticeTimeout = 3 * time.Second

// ErrValidation is returned by Submit when a field is blank. No request is sent.
var ErrValidation = errors.New("validation failed")

// API is the subset of client.Client the controller uses.
type API interface {
	List(ctx context.Context) ([]models.MediaRecord, error)
	Create(ctx context.Context, in models.MediaInput) (*models.MediaRecord, error)
	Update(ctx context.Context, id int64, in models.MediaInput) (*models.MediaRecord, error)
	Delete(ctx context.Context, id int64) error
}

var _ API = (*client.Client)(nil)

// Severity of a notice.
type Severity int

const (
	Success Severity = iota
	Warning
	Danger
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Notice is a transient banner.
type Notice struct {
	Message  string
	Severity Severity
}

// Mode is either Create or Edit. The set is closed.
type Mode interface {
	isMode()
}

// Create is the mode of a form that adds a new record.
type Create struct{}

// Edit is the mode of a form that replaces the record with ID.
type Edit struct {
	ID int64
}

func (Create) isMode() {}
func (Edit) isMode()   {}

// View is everything the controller needs from a screen.
type View interface {
	RenderRecords(records []models.MediaRecord)
	RenderEmpty()
	RenderError(message string)
	OpenForm(mode Mode, fields models.MediaInput)
	CloseForm()
	// Confirm blocks until the user answers.
	Confirm(prompt string) bool
	ShowNotice(n Notice)
	HideNotice()
}

// Controller drives a View from user actions.
type Controller struct {
	api  API
	view View

	// after schedules f once d has elapsed; time.AfterFunc unless replaced
	// in tests.
	after func(d time.Duration, f func())

	mu        sync.Mutex
	mode      Mode
	noticeSeq uint64
}

// NewController returns a controller in Create mode.
func NewController(api API, view View) *Controller {
	return &Controller{
		api:  api,
		view: view,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		mode: Create{},
	}
}

// Mode returns the current form mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) setMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// LoadAll fetches every record and re-renders the whole table.
func (c *Controller) LoadAll(ctx context.Context) error {
	records, err := c.api.List(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load media")
		c.view.RenderError(fmt.Sprintf("Failed to load data: %v", err))
		return err
	}

	if len(records) == 0 {
		c.view.RenderEmpty()
		return nil
	}
	c.view.RenderRecords(records)
	return nil
}

// StartCreate opens an empty form in Create mode.
func (c *Controller) StartCreate() {
	c.setMode(Create{})
	c.view.OpenForm(Create{}, models.MediaInput{})
}

// StartEdit opens the form in Edit mode prefilled with rec.
func (c *Controller) StartEdit(rec models.MediaRecord) {
	mode := Edit{ID: rec.ID}
	c.setMode(mode)
	c.view.OpenForm(mode, rec.Input())
}

// Submit sends the form to the server, creating or updating depending on the
// current mode. Blank fields fail with ErrValidation before any request.
func (c *Controller) Submit(ctx context.Context, fields models.MediaInput) error {
	fields.Normalize()
	if err := validation.ValidateStruct(&fields); err != nil {
		c.Notify(err.Error(), Danger)
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var (
		err     error
		message string
	)
	switch mode := c.Mode().(type) {
	case Edit:
		_, err = c.api.Update(ctx, mode.ID, fields)
		message = "Media updated successfully"
	default:
		_, err = c.api.Create(ctx, fields)
		message = "Media added successfully"
	}
	if err != nil {
		c.Notify(fmt.Sprintf("Failed to save media: %v", err), Danger)
		return err
	}

	c.Notify(message, Success)
	c.setMode(Create{})
	c.view.CloseForm()
	return c.LoadAll(ctx)
}

// Delete asks for confirmation and removes rec. A declined prompt is not an
// error.
func (c *Controller) Delete(ctx context.Context, rec models.MediaRecord) error {
	if !c.view.Confirm(fmt.Sprintf("Delete media %s?", rec.Label())) {
		return nil
	}

	err := c.api.Delete(ctx, rec.ID)
	switch {
	case err == nil:
		c.Notify(fmt.Sprintf("Media %q deleted", rec.Title), Warning)
		return c.LoadAll(ctx)
	case errors.Is(err, client.ErrNotFound):
		c.Notify(fmt.Sprintf("Media with ID %d not found", rec.ID), Danger)
		return err
	default:
		c.Notify(fmt.Sprintf("Failed to delete media: %v", err), Danger)
		return err
	}
}

// Notify shows a notice and hides it after NoticeTimeout, unless a newer
// notice has replaced it by then.
func (c *Controller) Notify(message string, severity Severity) {
	c.mu.Lock()
	c.noticeSeq++
	seq := c.noticeSeq
	c.mu.Unlock()

	c.view.ShowNotice(Notice{Message: message, Severity: severity})
	c.after(NoticeTimeout, func() {
		c.mu.Lock()
		current := c.noticeSeq == seq
		c.mu.Unlock()
		if current {
			c.view.HideNotice()
		}
	})
}
