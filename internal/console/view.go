// Package console hosts the conversion widget in a terminal.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/snackpdf/converter/internal/widget"
)

// View renders the widget as lines of text and keeps the current state for inspection.
type View struct {
	mu  sync.Mutex
	out io.Writer

	accept   string
	region   string
	enabled  bool
	label    string
	messages map[uint64]widget.Message
}

// NewView creates a view writing to out.
func NewView(out io.Writer) *View {
	return &View{
		out:      out,
		messages: make(map[uint64]widget.Message),
	}
}

func (v *View) SetAccept(filter string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.accept = filter
}

func (v *View) ShowPlaceholder(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.region = text
}

func (v *View) ShowFileInfo(info widget.FileDisplay) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.region = fmt.Sprintf("Selected File: %s\nSize: %s\nType: %s", info.Name, info.Size, info.Type)
	fmt.Fprintln(v.out, v.region)
}

func (v *View) ShowProcessing(indicator string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.region += "\n" + indicator
	fmt.Fprintln(v.out, indicator)
}

func (v *View) SetSubmit(enabled bool, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled
	v.label = label
}

// ResetPicker is a no-op: the terminal has no persistent picker value.
func (v *View) ResetPicker() {}

func (v *View) ShowMessage(msg widget.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages[msg.ID] = msg
	fmt.Fprintf(v.out, "[%s] %s\n", msg.Kind, msg.Text)
}

func (v *View) DismissMessage(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.messages, id)
}

func (v *View) ClearMessages() {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.messages)
}

// Accept returns the file filter of the current page.
func (v *View) Accept() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accept
}

// Region returns the text of the upload region.
func (v *View) Region() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.region
}

// Submit returns the submit control state.
func (v *View) Submit() (enabled bool, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled, v.label
}

// Messages returns the visible messages.
func (v *View) Messages() []widget.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]widget.Message, 0, len(v.messages))
	for _, m := range v.messages {
		out = append(out, m)
	}
	return out
}
