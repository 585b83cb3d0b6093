package assertions_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/testing/assertions"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestAssert_Equal(t *testing.T) {
	tests := []struct {
		name        string
		expected    interface{}
		actual      interface{}
		expectedErr string
	}{
		{
			name:     "equal values",
			expected: 42,
			actual:   42,
		},
		{
			name:        "non-equal values",
			expected:    42,
			actual:      41,
			expectedErr: "Values are not equal, want: 42 (int), got: 41 (int)",
		},
		{
			name:        "different types",
			expected:    uint64(42),
			actual:      42,
			expectedErr: "Values are not equal, want: 42 (uint64), got: 42 (int)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := &assertions.TBMock{}
			assertions.Equal(tb.Errorf, tt.expected, tt.actual)
			verifyTBMock(t, tb.ErrorfMsg, tt.expectedErr)
		})
	}
}

func TestAssert_DeepEqual(t *testing.T) {
	type record struct {
		Name string
		Num  int
	}
	tb := &assertions.TBMock{}
	assertions.DeepEqual(tb.Errorf, record{"x", 1}, record{"x", 1})
	verifyTBMock(t, tb.ErrorfMsg, "")

	tb = &assertions.TBMock{}
	assertions.DeepEqual(tb.Errorf, record{"x", 1}, record{"x", 2})
	verifyTBMock(t, tb.ErrorfMsg, "Values are not equal")
}

func TestAssert_NoError(t *testing.T) {
	tb := &assertions.TBMock{}
	assertions.NoError(tb.Errorf, nil)
	verifyTBMock(t, tb.ErrorfMsg, "")

	tb = &assertions.TBMock{}
	assertions.NoError(tb.Errorf, errors.New("failed"))
	verifyTBMock(t, tb.ErrorfMsg, "Unexpected error: failed")
}

func TestAssert_ErrorContains(t *testing.T) {
	tests := []struct {
		name        string
		want        string
		err         error
		expectedErr string
	}{
		{
			name: "error matches",
			want: "invalid proof",
			err:  errors.New("invalid proof of inclusion"),
		},
		{
			name:        "nil error",
			want:        "invalid proof",
			err:         nil,
			expectedErr: "Expected error not returned",
		},
		{
			name:        "unexpected error",
			want:        "invalid proof",
			err:         errors.New("something else"),
			expectedErr: "Expected error not returned, got: something else, want: invalid proof",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := &assertions.TBMock{}
			assertions.ErrorContains(tb.Errorf, tt.want, tt.err)
			verifyTBMock(t, tb.ErrorfMsg, tt.expectedErr)
		})
	}
}

func TestAssert_ErrorIs(t *testing.T) {
	sentinel := errors.New("root mismatch")
	tb := &assertions.TBMock{}
	assertions.ErrorIs(tb.Errorf, errors.Wrap(sentinel, "verifying receipt"), sentinel)
	verifyTBMock(t, tb.ErrorfMsg, "")

	tb = &assertions.TBMock{}
	assertions.ErrorIs(tb.Errorf, errors.New("other"), sentinel)
	verifyTBMock(t, tb.ErrorfMsg, "does not exist in chain")
}

func TestAssert_NotNil(t *testing.T) {
	tb := &assertions.TBMock{}
	assertions.NotNil(tb.Errorf, struct{}{})
	verifyTBMock(t, tb.ErrorfMsg, "")

	tb = &assertions.TBMock{}
	var typedNil *struct{}
	assertions.NotNil(tb.Errorf, typedNil)
	verifyTBMock(t, tb.ErrorfMsg, "Unexpected nil value")
}

func TestAssert_LogsContain(t *testing.T) {
	logger, hook := logTest.NewNullLogger()
	logger.Info("light client synced to head")

	tb := &assertions.TBMock{}
	assertions.LogsContain(tb.Errorf, hook, "synced to head", true)
	verifyTBMock(t, tb.ErrorfMsg, "")

	tb = &assertions.TBMock{}
	assertions.LogsContain(tb.Errorf, hook, "no such entry", true)
	verifyTBMock(t, tb.ErrorfMsg, "Expected log not found")

	tb = &assertions.TBMock{}
	assertions.LogsContain(tb.Errorf, hook, "synced to head", false)
	verifyTBMock(t, tb.ErrorfMsg, "Unexpected log found")
}

func verifyTBMock(t *testing.T, got, want string) {
	t.Helper()
	if want == "" {
		if got != "" {
			t.Errorf("Unexpected assertion failure: %v", got)
		}
		return
	}
	if !strings.Contains(got, want) {
		t.Errorf("Assertion message %q does not contain %q", got, want)
	}
}
