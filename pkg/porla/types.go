package porla

// Torrent is one record of torrents.list.
type Torrent struct {
	InfoHash      InfoHash `json:"info_hash"`
	Name          string   `json:"name"`
	Size          int64    `json:"size"`
	Progress      float64  `json:"progress"`
	Eta           Eta      `json:"eta"`
	State         State    `json:"state"`
	QueuePosition int      `json:"queue_position"` // -1 once finished or seeding
	Category      string   `json:"category"`
	SavePath      string   `json:"save_path"`
	ContentPath   string   `json:"content_path"`
	Ratio         float64  `json:"ratio"`
	SeedingTime   *int64   `json:"seeding_time,omitempty"`
}

type File struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Progress float64 `json:"progress"`
}

type Preset struct {
	Name          string `json:"name"`
	DownloadLimit int    `json:"download_limit"`
	SavePath      string `json:"save_path"`
	Category      string `json:"category"`
}

type versionsResponse struct {
	Porla struct {
		Version   string `json:"version"`
		Branch    string `json:"branch"`
		Commitish string `json:"commitish"`
	} `json:"porla"`
}

type addResponse struct {
	InfoHash InfoHash `json:"info_hash"`
}

type addMagnetParams struct {
	MagnetURI string `json:"magnet_uri"`
	SavePath  string `json:"save_path"`
	Category  string `json:"category"`
}

type addFileParams struct {
	Name     string `json:"name"`
	SavePath string `json:"save_path"`
	Category string `json:"category"`
	Ti       string `json:"ti"` // base64 encoded .torrent
}

type removeParams struct {
	InfoHashes []string `json:"info_hashes"`
	RemoveData bool     `json:"remove_data"`
}

type hashParams struct {
	InfoHash string `json:"info_hash"`
}

type listFilters struct {
	Category string `json:"category"`
}

type listParams struct {
	Filters *listFilters `json:"filters,omitempty"`
}
