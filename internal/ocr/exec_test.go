package ocr

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	name     string
	args     []string
	stdout   []byte
	stderr   []byte
	err      error
	sawImage bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if len(args) > 0 {
		if _, err := os.Stat(args[0]); err == nil {
			f.sawImage = true
		}
	}
	return f.stdout, f.stderr, f.err
}

func TestExecEngineRecognize(t *testing.T) {
	t.Run("builds tesseract invocation", func(t *testing.T) {
		runner := &fakeRunner{stdout: []byte("03 SEP /SEPT 22\n")}
		engine := &ExecEngine{tesseract: "tesseract", runner: runner}

		cfg := Config{
			PageSegMode: PSMSingleBlock,
			Whitelist:   passportWhitelist,
			Language:    "eng",
			EngineMode:  3,
		}
		text, err := engine.Recognize(context.Background(), []byte("png bytes"), cfg)
		require.NoError(t, err)
		assert.Equal(t, "03 SEP /SEPT 22\n", text)

		assert.Equal(t, "tesseract", runner.name)
		assert.True(t, runner.sawImage, "temp image should exist while the command runs")
		require.GreaterOrEqual(t, len(runner.args), 10)
		assert.Equal(t, "stdout", runner.args[1])
		assert.Contains(t, runner.args, "-l")
		assert.Contains(t, runner.args, "eng")
		assert.Contains(t, runner.args, "--oem")
		assert.Contains(t, runner.args, "--psm")
		assert.Contains(t, runner.args, "6")
		assert.Contains(t, runner.args, "-c")
		assert.Contains(t, runner.args, "tessedit_char_whitelist="+passportWhitelist)

		// Temp artifact is gone once the call returns.
		_, statErr := os.Stat(runner.args[0])
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("command failure carries stderr", func(t *testing.T) {
		runner := &fakeRunner{stderr: []byte("Error opening data file"), err: errors.New("exit status 1")}
		engine := &ExecEngine{tesseract: "tesseract", runner: runner}

		_, err := engine.Recognize(context.Background(), []byte("png bytes"), Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Error opening data file")
	})
}
