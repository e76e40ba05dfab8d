// Package widget implements the conversion widget: it holds the selected file,
// posts it to the endpoint of the current page and hands the returned PDF to a
// Downloader.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/snackpdf/converter/internal/models"
	"github.com/snackpdf/converter/internal/resolver"
)

// DefaultMessageTTL is how long a status message stays visible.
const DefaultMessageTTL = 5 * time.Second

// State is the widget state derived from the session fields.
type State int

const (
	StateIdle State = iota
	StateSelected
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateProcessing:
		return "processing"
	}
	return "unknown"
}

// Outcome is the result of a Submit call.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // no file, or a request already in flight
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Options configures a Widget.
type Options struct {
	// Location returns the current page path. It is evaluated on every use.
	Location   func() string
	View       View
	Uploader   Uploader
	Downloader Downloader
	MessageTTL time.Duration
	Logger     *slog.Logger
}

// Widget is the conversion widget session. The zero value is not usable; use New.
type Widget struct {
	mu sync.Mutex

	location   func() string
	view       View
	uploader   Uploader
	downloader Downloader
	ttl        time.Duration
	logger     *slog.Logger

	selected   *models.FileHandle
	processing bool

	msgSeq   uint64
	msgTimer *time.Timer
}

// New binds a widget to its view and renders the initial idle state.
func New(opts Options) (*Widget, error) {
	if opts.View == nil {
		return nil, errors.New("widget: view is required")
	}
	if opts.Uploader == nil {
		return nil, errors.New("widget: uploader is required")
	}
	if opts.Downloader == nil {
		return nil, errors.New("widget: downloader is required")
	}
	if opts.Location == nil {
		return nil, errors.New("widget: location is required")
	}
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = DefaultMessageTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Widget{
		location:   opts.Location,
		view:       opts.View,
		uploader:   opts.Uploader,
		downloader: opts.Downloader,
		ttl:        opts.MessageTTL,
		logger:     opts.Logger.With("component", "widget"),
	}

	w.view.SetAccept(resolver.Resolve(w.location()).Accept())
	w.view.ShowPlaceholder(Placeholder)
	w.view.SetSubmit(false, LabelIdle)
	return w, nil
}

// State returns the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

// Selected returns the selected file, or nil.
func (w *Widget) Selected() *models.FileHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// Processing reports whether a request is in flight.
func (w *Widget) Processing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processing
}

func (w *Widget) stateLocked() State {
	switch {
	case w.processing:
		return StateProcessing
	case w.selected != nil:
		return StateSelected
	}
	return StateIdle
}

// Select replaces the selected file and renders its metadata. It is ignored
// while a request is in flight; the return value reports whether it was applied.
func (w *Widget) Select(file *models.FileHandle) bool {
	if file == nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.processing {
		w.logger.Debug("selection ignored while processing", "file", file.Name)
		return false
	}

	w.selected = file
	w.view.ShowFileInfo(displayFor(file.Name, file.Size, file.MIMEType))
	w.view.SetSubmit(true, LabelConvert)
	w.logger.Debug("file selected", "file", file.Name, "size", file.Size)
	return true
}

// Clear drops the selected file and restores the placeholder. It is ignored
// while a request is in flight so that a running request always has its file.
func (w *Widget) Clear() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.processing {
		return false
	}

	w.selected = nil
	w.view.ShowPlaceholder(Placeholder)
	w.view.SetSubmit(false, LabelIdle)
	w.view.ResetPicker()
	w.clearMessagesLocked()
	return true
}

// Submit converts the selected file. It blocks until the request settles and
// never returns an error: every failure becomes a visible message. The selected
// file is kept after both success and failure.
func (w *Widget) Submit(ctx context.Context) Outcome {
	w.mu.Lock()
	if w.selected == nil || w.processing {
		w.mu.Unlock()
		return OutcomeSkipped
	}

	route := resolver.Resolve(w.location())
	if !route.Supported() {
		w.showMessageLocked(MessageError, MsgInvalidPage)
		w.mu.Unlock()
		return OutcomeFailed
	}

	file := w.selected
	w.processing = true
	w.view.SetSubmit(false, LabelWorking)
	w.view.ShowProcessing(ProcessingIndicator)
	w.mu.Unlock()

	w.logger.Info("conversion started", "file", file.Name, "endpoint", route.Endpoint)
	started := time.Now()

	result := w.convert(ctx, route.Endpoint, file)

	w.mu.Lock()
	defer w.mu.Unlock()

	outcome := OutcomeSucceeded
	if !result.OK() {
		outcome = OutcomeFailed
		w.showMessageLocked(MessageError, result.Error)
	} else {
		w.showMessageLocked(MessageSuccess, MsgSuccess)
		w.logger.Info("conversion finished", "file", file.Name, "bytes", len(result.Payload), "duration", time.Since(started))
	}

	w.processing = false
	w.view.SetSubmit(true, LabelConvert)
	return outcome
}

// convert uploads file and saves the returned PDF.
func (w *Widget) convert(ctx context.Context, endpoint string, file *models.FileHandle) models.ConversionResult {
	payload, err := w.uploader.Upload(ctx, endpoint, models.NewConversionRequest(file))
	if err == nil {
		err = w.downloader.Download(DownloadName(file.Name), payload)
	}
	if err != nil {
		w.logger.Warn("conversion failed", "file", file.Name, "endpoint", endpoint, "error", err)
		return models.ConversionResult{Error: failureMessage(err)}
	}
	return models.ConversionResult{Payload: payload}
}

// Close stops the pending message dismissal timer.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.msgTimer != nil {
		w.msgTimer.Stop()
		w.msgTimer = nil
	}
}

func failureMessage(err error) string {
	var sm ServerMessenger
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
		return MsgConversionFailed
	}
	return NetworkErrorPrefix + err.Error()
}

// showMessageLocked replaces any visible message and schedules its dismissal.
func (w *Widget) showMessageLocked(kind MessageKind, text string) {
	w.clearMessagesLocked()

	w.msgSeq++
	msg := Message{ID: w.msgSeq, Kind: kind, Text: text}
	w.view.ShowMessage(msg)

	w.msgTimer = time.AfterFunc(w.ttl, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.msgSeq == msg.ID {
			w.view.DismissMessage(msg.ID)
		}
	})
}

func (w *Widget) clearMessagesLocked() {
	if w.msgTimer != nil {
		w.msgTimer.Stop()
		w.msgTimer = nil
	}
	w.view.ClearMessages()
}
