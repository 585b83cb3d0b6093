package prereqs

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestPlatformSupported(t *testing.T) {
	// Linux
	runtimeOS = "linux"
	runtimeArch = "amd64"
	ok, err := platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ok)
	runtimeArch = "arm64"
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ok)
	runtimeArch = "riscv64"
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, false, ok)

	// Apple silicon passes without probing the release version.
	runtimeOS = "darwin"
	runtimeArch = "arm64"
	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("should not shell out")
	}
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ok)

	// Intel Mac hosts report their version through uname.
	runtimeArch = "amd64"
	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("uname unavailable")
	}
	ok, err = platformSupported(context.Background())
	require.ErrorContains(t, "could not read Mac OS version", err)
	require.Equal(t, false, ok)

	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "10.4", nil
	}
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, false, ok)

	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "10.14", nil
	}
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ok)

	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "12.6.1", nil
	}
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ok)

	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "mojave", nil
	}
	ok, err = platformSupported(context.Background())
	require.ErrorContains(t, "could not parse Mac OS version", err)
	require.Equal(t, false, ok)

	// Windows
	runtimeOS = "windows"
	runtimeArch = "amd64"
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, ok)
	runtimeArch = "arm64"
	ok, err = platformSupported(context.Background())
	require.NoError(t, err)
	require.Equal(t, false, ok)
}

func TestParseVersion(t *testing.T) {
	ver, err := parseVersion("10.14.6", 2)
	require.NoError(t, err)
	require.DeepEqual(t, []int{10, 14}, ver)

	ver, err = parseVersion(" 11 . 2 \n", 2)
	require.NoError(t, err)
	require.DeepEqual(t, []int{11, 2}, ver)

	_, err = parseVersion("12", 2)
	require.ErrorContains(t, "fewer than 2 components", err)

	_, err = parseVersion("ten.fourteen", 2)
	require.ErrorContains(t, "could not parse version component", err)
}

func TestWarnIfPlatformNotSupported(t *testing.T) {
	runtimeOS = "linux"
	runtimeArch = "amd64"
	hook := logTest.NewGlobal()
	WarnIfPlatformNotSupported(context.Background())
	require.LogsDoNotContain(t, hook, "Failed to detect host platform")
	require.LogsDoNotContain(t, hook, "platform is not supported")

	runtimeOS = "darwin"
	runtimeArch = "amd64"
	commandOutput = func(ctx context.Context, name string, args ...string) (string, error) {
		return "high.sierra", nil
	}
	hook = logTest.NewGlobal()
	WarnIfPlatformNotSupported(context.Background())
	require.LogsContain(t, hook, "Failed to detect host platform")
	require.LogsContain(t, hook, "could not parse Mac OS version")

	runtimeOS = "plan9"
	runtimeArch = "386"
	hook = logTest.NewGlobal()
	WarnIfPlatformNotSupported(context.Background())
	require.LogsContain(t, hook, "platform is not supported")
}
