package models

// Panel identifies the single visible region of the scanner front end.
type Panel int

const (
	PanelUpload Panel = iota
	PanelPreview
	PanelLoading
	PanelResult
	PanelError
)

var panelNames = [...]string{
	PanelUpload:  "upload",
	PanelPreview: "preview",
	PanelLoading: "loading",
	PanelResult:  "result",
	PanelError:   "error",
}

func (p Panel) String() string {
	if p < 0 || int(p) >= len(panelNames) {
		return "unknown"
	}
	return panelNames[p]
}

// View is an immutable snapshot handed to a renderer. Exactly one panel is current.
type View struct {
	Panel        Panel
	FileName     string
	MediaType    string
	FileSize     int64
	Thumbnail    string // data URL for images, placeholder URL for PDFs
	Caption      string
	ResultText   string
	ErrorMessage string
	ScanEnabled  bool
}
