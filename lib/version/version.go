// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// shortCommit is the length GitCommit uses for a SHA.
const shortCommit = 7

// Build describes the running binary.
type Build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// Current returns the build description. Values injected with
// -ldflags win; a plain "go build" inside a checkout falls back to the
// VCS stamp the go command embeds.
func Current() Build {
	var settings []debug.BuildSetting
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = info.Settings
	}
	return fromSettings(settings)
}

func fromSettings(settings []debug.BuildSetting) Build {
	build := Build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
	}
	if GitCommit != "unknown" {
		return build
	}
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			build.Commit = setting.Value[:min(len(setting.Value), shortCommit)]
		case "vcs.modified":
			build.Dirty = setting.Value == "true"
		case "vcs.time":
			if build.Time == "unknown" {
				build.Time = setting.Value
			}
		}
	}
	return build
}

// String formats the build as "0.1.0-dev (abc1234-dirty, <time>)".
func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.Time)
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return Current().String()
}

// Full returns Info plus the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Print writes "name version-info" and the Go toolchain details to w.
func Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n", name, Full())
}
