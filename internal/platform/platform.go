// Package platform describes the host an action set runs on: which of the
// supported operating systems it is and where the operator's home directory
// lives.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Platform is one of the operating systems an action can be restricted to.
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
)

// All lists the platforms accepted in configuration, in display order.
var All = []Platform{Windows, MacOS, Linux}

// HomeToken is the placeholder replaced with the home directory in path fields.
const HomeToken = "{home}"

// Parse validates s against the closed set of platform identifiers.
func Parse(s string) (Platform, error) {
	switch p := Platform(s); p {
	case Windows, MacOS, Linux:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q (expected windows, macos or linux)", s)
	}
}

// UnmarshalYAML rejects identifiers outside the closed set at decode time.
func (p *Platform) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// FromGOOS maps a runtime.GOOS value to a Platform. Operating systems outside
// the supported set map to their GOOS name, which never matches a declared
// platform list.
func FromGOOS(goos string) Platform {
	switch goos {
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	case "linux":
		return Linux
	default:
		return Platform(goos)
	}
}

// Current returns the platform of the running process.
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

// Env is the slice of host state handlers are allowed to read.
type Env struct {
	OS   Platform
	Home string
}

// Detect builds an Env for the running process.
func Detect() (Env, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return Env{OS: Current(), Home: home}, nil
}

// ExpandHome replaces every occurrence of HomeToken in s with home.
func ExpandHome(s, home string) string {
	return strings.ReplaceAll(s, HomeToken, home)
}

// Resolve expands the home placeholder in path and makes the result absolute.
func (e Env) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(ExpandHome(path, e.Home))
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
