package porla

import (
	"cmp"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
	"math"
	"strconv"
	"strings"
)

// Porla builds disagree on a few wire shapes: info_hash is either a scalar
// or a [v1, v2] pair with nulls, state is either the numeric libtorrent
// state or its name, and list results are either bare arrays or wrapped in
// an object. The decoders here branch on the shape they receive.

// InfoHash holds the v1 and/or v2 hash of a torrent.
type InfoHash struct {
	V1 string
	V2 string
}

func (h *InfoHash) UnmarshalJSON(b []byte) error {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return err
	}
	*h = InfoHash{}
	switch v.Type() {
	case fastjson.TypeNull:
	case fastjson.TypeString:
		h.V1 = string(v.GetStringBytes())
	case fastjson.TypeArray:
		for i, e := range v.GetArray() {
			if e.Type() != fastjson.TypeString {
				continue
			}
			switch i {
			case 0:
				h.V1 = string(e.GetStringBytes())
			case 1:
				h.V2 = string(e.GetStringBytes())
			}
		}
	default:
		return fmt.Errorf("info_hash: unexpected %s", v.Type())
	}
	return nil
}

// String prefers the v1 hash.
func (h InfoHash) String() string {
	return cmp.Or(h.V1, h.V2)
}

func (h InfoHash) IsZero() bool {
	return h.V1 == "" && h.V2 == ""
}

// libtorrent torrent_status::state_t
const (
	StateCheckingFiles       = 1
	StateDownloadingMetadata = 2
	StateDownloading         = 3
	StateFinished            = 4
	StateSeeding             = 5
	StateCheckingResumeData  = 7
)

// State is the daemon state of a torrent, numeric or named depending on the build.
type State struct {
	Code  int
	Name  string
	Named bool
}

func (s *State) UnmarshalJSON(b []byte) error {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return err
	}
	*s = State{}
	switch v.Type() {
	case fastjson.TypeNull:
	case fastjson.TypeNumber:
		s.Code = stateCode(v.GetFloat64())
	case fastjson.TypeString:
		raw := strings.TrimSpace(string(v.GetStringBytes()))
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			s.Code = stateCode(f)
			return nil
		}
		s.Name = strings.ToLower(raw)
		s.Named = true
	default:
		return fmt.Errorf("state: unexpected %s", v.Type())
	}
	return nil
}

// stateCode accepts integral numbers only; anything else is an unknown state.
func stateCode(f float64) int {
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return -1
	}
	return int(f)
}

// Finished reports whether the payload is fully downloaded; the torrent
// may still be seeding.
func (s State) Finished() bool {
	if s.Named {
		return s.Name == "finished" || s.Name == "seeding"
	}
	return s.Code == StateFinished || s.Code == StateSeeding
}

func (s State) String() string {
	if s.Named {
		return s.Name
	}
	return strconv.Itoa(s.Code)
}

// Eta is a remaining time in seconds. Any JSON number is accepted: values
// beyond int64 saturate and negative values read as unknown (0).
type Eta int64

func (e *Eta) UnmarshalJSON(b []byte) error {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return err
	}
	*e = 0
	switch v.Type() {
	case fastjson.TypeNull:
	case fastjson.TypeNumber:
		*e = etaFromFloat(v.GetFloat64())
	case fastjson.TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v.GetStringBytes())), 64)
		if err != nil {
			return fmt.Errorf("eta: %w", err)
		}
		*e = etaFromFloat(f)
	default:
		return fmt.Errorf("eta: unexpected %s", v.Type())
	}
	return nil
}

func etaFromFloat(f float64) Eta {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	default:
		return Eta(f)
	}
}

// unwrapList returns the array held in raw, either directly or under key.
func unwrapList(raw []byte, key string) (*fastjson.Value, error) {
	v, err := fastjson.ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	switch v.Type() {
	case fastjson.TypeArray:
		return v, nil
	case fastjson.TypeNull:
		return fastjson.MustParse("[]"), nil
	case fastjson.TypeObject:
		inner := v.Get(key)
		if inner == nil || inner.Type() == fastjson.TypeNull {
			return fastjson.MustParse("[]"), nil
		}
		if inner.Type() != fastjson.TypeArray {
			return nil, fmt.Errorf("%s: expected array, got %s", key, inner.Type())
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("expected array or object, got %s", v.Type())
	}
}

// decodeTorrents decodes each record on its own so one malformed record does
// not fail the listing.
func decodeTorrents(raw []byte, log zerolog.Logger) ([]Torrent, error) {
	list, err := unwrapList(raw, "torrents")
	if err != nil {
		return nil, err
	}
	elems := list.GetArray()
	torrents := make([]Torrent, 0, len(elems))
	for i, e := range elems {
		var t Torrent
		if err := json.Unmarshal(e.MarshalTo(nil), &t); err != nil {
			log.Debug().Err(err).Int("index", i).Msg("Skipping malformed torrent record")
			continue
		}
		torrents = append(torrents, t)
	}
	return torrents, nil
}

func decodeFiles(raw []byte) ([]File, error) {
	list, err := unwrapList(raw, "files")
	if err != nil {
		return nil, err
	}
	files := make([]File, 0)
	if err := json.Unmarshal(list.MarshalTo(nil), &files); err != nil {
		return nil, err
	}
	return files, nil
}
