package widget

import (
	"context"

	"github.com/snackpdf/converter/internal/models"
)

// Texts rendered by the widget.
const (
	Placeholder         = "Select or drag and drop your files here"
	LabelConvert        = "Convert to PDF"
	LabelWorking        = "Converting..."
	LabelIdle           = "Process File"
	ProcessingIndicator = "Processing..."
	UnknownType         = "Unknown"

	MsgSuccess          = "File converted successfully!"
	MsgInvalidPage      = "Invalid page or endpoint not found"
	MsgConversionFailed = "Conversion failed"
	NetworkErrorPrefix  = "Network error: "
)

// MessageKind distinguishes success and error banners.
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is a transient status banner.
type Message struct {
	ID   uint64
	Kind MessageKind
	Text string
}

// FileDisplay is the file metadata rendered into the upload region.
type FileDisplay struct {
	Name string
	Size string
	Type string
}

// View is the page contract: an upload region, a submit control, a file picker
// and a message area. Calls are made while the widget holds its lock, so a View
// must not call back into the widget.
type View interface {
	SetAccept(filter string)
	ShowPlaceholder(text string)
	ShowFileInfo(info FileDisplay)
	ShowProcessing(indicator string)
	SetSubmit(enabled bool, label string)
	ResetPicker()
	ShowMessage(msg Message)
	DismissMessage(id uint64)
	ClearMessages()
}

// Uploader posts a conversion request and returns the PDF payload.
type Uploader interface {
	Upload(ctx context.Context, endpoint string, req models.ConversionRequest) ([]byte, error)
}

// Downloader hands a converted payload to the user under the given filename.
type Downloader interface {
	Download(name string, payload []byte) error
}

// ServerMessenger is implemented by errors that carry a server-reported message.
type ServerMessenger interface {
	error
	ServerMessage() string
}
