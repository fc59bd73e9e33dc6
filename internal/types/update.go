package types

type UpdateStatus string

const (
	UpdateStatusIdle        UpdateStatus = "idle"
	UpdateStatusChecking    UpdateStatus = "checking"
	UpdateStatusUpToDate    UpdateStatus = "upToDate"
	UpdateStatusDownloading UpdateStatus = "downloading"
	UpdateStatusDownloaded  UpdateStatus = "downloaded"
	UpdateStatusError       UpdateStatus = "error"
)

// Busy reports whether a check or download is in flight.
func (s UpdateStatus) Busy() bool {
	return s == UpdateStatusChecking || s == UpdateStatusDownloading
}

type UpdateState struct {
	Status         UpdateStatus `json:"status"`
	Version        string       `json:"version,omitempty"`
	LastCheckedAt  int64        `json:"lastCheckedAt,omitempty"`
	ReadyToInstall bool         `json:"readyToInstall"`
	ReadyVersion   string       `json:"readyVersion,omitempty"`
	Error          string       `json:"error,omitempty"`
	CurrentVersion string       `json:"currentVersion"`
}

// UpdateInfo describes a release advertised by the update feed.
type UpdateInfo struct {
	Version     string `json:"version"`
	URL         string `json:"url"`
	SHA256      string `json:"sha256"`
	Notes       string `json:"notes,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// DownloadedUpdate is a verified artifact staged on disk.
type DownloadedUpdate struct {
	Version string `json:"version"`
	Path    string `json:"path"`
}
