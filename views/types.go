package views

// Notice kinds, mapped to CSS classes in the page template.
const (
	NoticeWarning = "warning"
	NoticeError   = "error"
	NoticeSuccess = "success"
)

// SiteConfig holds page-wide settings.
type SiteConfig struct {
	Name    string // SITE_NAME (default "AI Docent")
	Tagline string // shown under the title
}

// Notice is a one-off message shown above a panel's results.
type Notice struct {
	Kind string
	Text string
}

// Panel is the render state of one input column.
type Panel struct {
	Notice       *Notice
	ImageURL     string // image shown above the description
	Caption      string
	PublishedURL string // public URL of an uploaded file, if any
	Description  string // Markdown text from the model
}

// HomeData is everything the two-column page needs.
type HomeData struct {
	Site           SiteConfig
	CSRFToken      string
	InputURL       string // text area value
	URLPanel       Panel
	FilePanel      Panel
	PublishEnabled bool
	MaxUploadMB    int
}
