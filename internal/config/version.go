package config

import "fmt"

// set by the linker: -ldflags "-X github.com/willie68/go_tilerip/internal/config.version=..."
var (
	version = "0.1.0"
	commit  = "dev"
	built   = ""
)

// Version the build information
type Version struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built,omitempty"`
}

// NewVersion the version of this binary
func NewVersion() *Version {
	return &Version{
		Name:    "go_tilerip",
		Version: version,
		Commit:  commit,
		Built:   built,
	}
}

func (v Version) String() string {
	if v.Built == "" {
		return fmt.Sprintf("%s %s (%s)", v.Name, v.Version, v.Commit)
	}
	return fmt.Sprintf("%s %s (%s, %s)", v.Name, v.Version, v.Commit, v.Built)
}
