package ui

import (
	"context"

	"mediacatalog/models"

	tea "github.com/charmbracelet/bubbletea"
)

type recordsMsg struct {
	records []models.MediaRecord
}

type emptyMsg struct{}

type loadErrorMsg struct {
	message string
}

type openFormMsg struct {
	mode   Mode
	fields models.MediaInput
}

type closeFormMsg struct{}

type confirmMsg struct {
	prompt string
	reply  chan<- bool
}

type showNoticeMsg Notice

type hideNoticeMsg struct{}

// sender is the part of *tea.Program the view needs.
type sender interface {
	Send(msg tea.Msg)
}

// programView implements View by turning every call into a message for the
// running program. Its methods must not be called from Update.
type programView struct {
	ctx     context.Context
	program sender
}

var _ View = (*programView)(nil)

func (v *programView) RenderRecords(records []models.MediaRecord) {
	v.program.Send(recordsMsg{records: records})
}

func (v *programView) RenderEmpty() {
	v.program.Send(emptyMsg{})
}

func (v *programView) RenderError(message string) {
	v.program.Send(loadErrorMsg{message: message})
}

func (v *programView) OpenForm(mode Mode, fields models.MediaInput) {
	v.program.Send(openFormMsg{mode: mode, fields: fields})
}

func (v *programView) CloseForm() {
	v.program.Send(closeFormMsg{})
}

// Confirm shows the prompt and waits for y/n. A cancelled context answers no.
func (v *programView) Confirm(prompt string) bool {
	reply := make(chan bool, 1)
	v.program.Send(confirmMsg{prompt: prompt, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-v.ctx.Done():
		return false
	}
}

func (v *programView) ShowNotice(n Notice) {
	v.program.Send(showNoticeMsg(n))
}

func (v *programView) HideNotice() {
	v.program.Send(hideNoticeMsg{})
}
