package porla

import (
	"cmp"
	"github.com/sirrobot01/porlarr/internal/utils"
	"github.com/sirrobot01/porlarr/pkg/download"
	"github.com/sirrobot01/porlarr/pkg/download/types"
	"math"
	"strings"
	"time"
)

// maxEtaSeconds is the largest ETA that still fits in a time.Duration.
const maxEtaSeconds = int64(math.MaxInt64 / int64(time.Second))

// StateMapper turns Porla torrent records into canonical items.
type StateMapper struct {
	Client   string
	Host     string
	Category string
	Paths    download.PathMapper
}

// ToCanonical maps one record. The second result is false for records that
// must be left out of a listing.
func (m StateMapper) ToCanonical(t Torrent) (types.Item, bool) {
	hash := t.InfoHash.String()
	if hash == "" {
		return types.Item{}, false
	}

	return types.Item{
		ID:            strings.ToUpper(hash),
		Title:         t.Name,
		Category:      cmp.Or(m.Category, t.Category),
		Client:        m.Client,
		OutputPath:    m.outputPath(t),
		RemainingTime: EtaToDuration(int64(t.Eta)),
		TotalSize:     t.Size,
		RemainingSize: remainingSize(t),
		SeedRatio:     t.Ratio,
		Status:        StatusOf(t.State),
	}, true
}

func (m StateMapper) outputPath(t Torrent) string {
	savePath := t.SavePath
	if m.Paths != nil {
		savePath = m.Paths.RemapRemoteToLocal(m.Host, savePath)
	}
	return utils.JoinPath(savePath, t.Name)
}

// StatusOf is total: any state outside the finished set is Downloading.
func StatusOf(s State) types.Status {
	if s.Finished() {
		return types.StatusCompleted
	}
	return types.StatusDownloading
}

// EtaToDuration converts seconds to a duration, clamping values that do not
// fit to the largest representable duration. Negative ETAs mean unknown.
func EtaToDuration(eta int64) time.Duration {
	if eta <= 0 {
		return 0
	}
	if eta > maxEtaSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(eta) * time.Second
}

func remainingSize(t Torrent) int64 {
	progress := t.Progress
	if progress <= 0 {
		return t.Size
	}
	if progress >= 1 {
		return 0
	}
	return int64(float64(t.Size) * (1 - progress))
}
