package version

import (
	"cmp"
	"fmt"
)

type Info struct {
	Version string `json:"version"`
	Channel string `json:"channel"`
	Commit  string `json:"commit,omitempty"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s-%s", i.Version, i.Channel)
}

// Set at build time with -ldflags "-X".
var (
	Version = ""
	Channel = ""
	Commit  = ""
)

func GetInfo() Info {
	return Info{
		Version: cmp.Or(Version, "dev"),
		Channel: cmp.Or(Channel, "beta"),
		Commit:  Commit,
	}
}
