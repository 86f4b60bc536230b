package calabash

import (
	"fmt"

	"github.com/Masterminds/semver"

	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
)

// ServerVersion is the server_version reply.
type ServerVersion struct {
	Version    string
	AppID      string
	AppName    string
	AppVersion string
	IOSVersion string
	Simulator  string
	Raw        decode.Descriptor
}

func parseServerVersion(v decode.Value) *ServerVersion {
	d, _ := v.Descriptor()
	sv := &ServerVersion{Raw: d}
	sv.Version, _ = d.String("version")
	sv.AppID, _ = d.String("app_id")
	sv.AppName, _ = d.String("app_name")
	sv.AppVersion, _ = d.String("app_version")
	sv.IOSVersion, _ = d.String("iOS_version")
	sv.Simulator, _ = d.String("simulator_device")
	return sv
}

// IOSMajor returns the major component of the device iOS version.
func (s *ServerVersion) IOSMajor() (int, error) {
	if s.IOSVersion == "" {
		return 0, fmt.Errorf("server did not report an iOS version")
	}
	v, err := semver.NewVersion(s.IOSVersion)
	if err != nil {
		return 0, fmt.Errorf("parse iOS version %q: %w", s.IOSVersion, err)
	}
	return int(v.Major()), nil
}
