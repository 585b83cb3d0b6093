// Package prereqs runs best effort host platform checks at startup so that
// users on untested systems get a warning instead of a silent degradation.
package prereqs

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Oldest Mac OS release the light client is tested against. Apple silicon
// hosts cannot run anything older and are not version checked.
const (
	minDarwinMajor = 10
	minDarwinMinor = 14
)

var (
	// commandOutput is swapped out in tests to avoid shelling out.
	commandOutput = runCommandOutput
	runtimeOS     = runtime.GOOS
	runtimeArch   = runtime.GOARCH
)

// supportedPlatforms lists the os/arch pairs release binaries are built for.
var supportedPlatforms = []struct {
	os   string
	arch string
}{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
}

func runCommandOutput(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output() // #nosec G204
	if err != nil {
		return "", errors.Wrap(err, "command execution failed")
	}
	return string(out), nil
}

// parseVersion reads the leading n numeric components of a dotted version
// string, so "10.14.6" with n=2 yields [10 14].
func parseVersion(s string, n int) ([]int, error) {
	parts := strings.Split(s, ".")
	if len(parts) < n {
		return nil, errors.Errorf("version string %q has fewer than %d components", strings.TrimSpace(s), n)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse version component %q", strings.TrimSpace(parts[i]))
		}
		out[i] = v
	}
	return out, nil
}

// platformSupported reports whether the host is an os/arch pair the light
// client is built and tested for. Intel Mac hosts are additionally checked
// against the minimum supported release.
func platformSupported(ctx context.Context) (bool, error) {
	known := false
	for _, p := range supportedPlatforms {
		if runtimeOS == p.os && runtimeArch == p.arch {
			known = true
			break
		}
	}
	if !known {
		return false, nil
	}
	if runtimeOS == "darwin" && runtimeArch == "amd64" {
		raw, err := commandOutput(ctx, "uname", "-r")
		if err != nil {
			return false, errors.Wrap(err, "could not read Mac OS version")
		}
		ver, err := parseVersion(raw, 2)
		if err != nil {
			return false, errors.Wrap(err, "could not parse Mac OS version")
		}
		if ver[0] != minDarwinMajor {
			return ver[0] > minDarwinMajor, nil
		}
		return ver[1] >= minDarwinMinor, nil
	}
	return true, nil
}

// WarnIfPlatformNotSupported logs a warning when the host platform is not one
// the light client releases are built for, or when detection itself fails.
func WarnIfPlatformNotSupported(ctx context.Context) {
	supported, err := platformSupported(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to detect host platform")
		return
	}
	if !supported {
		log.Warn("This platform is not supported. The light client is built for Linux/AMD64, Linux/ARM64," +
			" Mac OS X/AMD64 (10.14+), Mac OS X/ARM64, and Windows/AMD64")
	}
}
