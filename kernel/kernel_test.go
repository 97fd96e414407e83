package kernel_test

import (
	"bytes"
	"testing"

	"duskos/kernel"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPanicLogsAndPanics(t *testing.T) {
	var buf bytes.Buffer
	kernel.Log.SetOutput(&buf)

	defer func() {
		r := recover()
		require.Equal(t, "out of swap slots", r)
		require.Contains(t, buf.String(), "out of swap slots")
	}()

	kernel.Panic("out of swap slots", errors.New("disk full"))
}

func TestPanicWithNilErrorStillPanics(t *testing.T) {
	var buf bytes.Buffer
	kernel.Log.SetOutput(&buf)

	defer func() {
		r := recover()
		require.Equal(t, "out of memory", r)
	}()

	kernel.Panic("out of memory", nil)
}
