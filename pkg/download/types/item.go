package types

import "time"

type Status string

const (
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
)

// Item is the daemon-agnostic view of one torrent.
type Item struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Category      string        `json:"category"`
	Client        string        `json:"client"`
	OutputPath    string        `json:"output_path"`
	RemainingTime time.Duration `json:"remaining_time"`
	TotalSize     int64         `json:"total_size"`
	RemainingSize int64         `json:"remaining_size"`
	SeedRatio     float64       `json:"seed_ratio"`
	Status        Status        `json:"status"`
}

type VersionInfo struct {
	Version   string `json:"version"`
	Branch    string `json:"branch,omitempty"`
	Commitish string `json:"commitish,omitempty"`
}

// ClientStatus describes where a daemon writes downloads.
type ClientStatus struct {
	IsLocalhost       bool     `json:"is_localhost"`
	OutputRootFolders []string `json:"output_root_folders"`
}

type ActionOption struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// ActionResult is the payload of a daemon-specific side query.
type ActionResult struct {
	Options []ActionOption `json:"options"`
}

func EmptyActionResult() *ActionResult {
	return &ActionResult{Options: []ActionOption{}}
}
