package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/output"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

func TestFormatError_NilError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, nil, output.FormatJSON))
	assert.Empty(t, buf.String())
}

func TestFormatError_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := msigerr.WithDetails(msigerr.ErrInvalidThreshold, map[string]string{
		"threshold":    "4",
		"participants": "3",
	})
	err = msigerr.WithSuggestion(err, "use --threshold between 1 and 3")

	require.NoError(t, output.FormatError(&buf, err, output.FormatText))
	assert.Equal(t,
		"Error: threshold must be between 1 and the number of participants\n"+
			"\nDetails:\n"+
			"  participants: 3\n"+
			"  threshold: 4\n"+
			"\nSuggestion: use --threshold between 1 and 3\n",
		buf.String())
}

func TestFormatError_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := msigerr.WithDetails(msigerr.ErrWalletNotFound, map[string]string{"wallet": "treasury"})
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "WALLET_NOT_FOUND", result.Error.Code)
	assert.Equal(t, "wallet not found", result.Error.Message)
	assert.Equal(t, "treasury", result.Error.Details["wallet"])
	assert.Equal(t, msigerr.ExitNotFound, result.Error.ExitCode)
	assert.Empty(t, result.Error.Errors)
}

func TestFormatError_WrappedCause(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := msigerr.Wrap(errors.New("connection refused"), "querying balance")
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "GENERAL_ERROR", result.Error.Code)
	assert.Equal(t, "querying balance: connection refused", result.Error.Message)
}

func TestFormatError_GenericError(t *testing.T) {
	t.Parallel()

	var jsonBuf, textBuf bytes.Buffer
	require.NoError(t, output.FormatError(&jsonBuf, errors.New("boom"), output.FormatJSON))
	require.NoError(t, output.FormatError(&textBuf, errors.New("boom"), output.FormatText))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &result))
	assert.Equal(t, "GENERAL_ERROR", result.Error.Code)
	assert.Equal(t, "boom", result.Error.Message)
	assert.Equal(t, msigerr.ExitGeneral, result.Error.ExitCode)
	assert.Equal(t, "Error: boom\n", textBuf.String())
}

func TestFormatError_MultiError(t *testing.T) {
	t.Parallel()

	var merr *multierror.Error
	merr = multierror.Append(merr,
		msigerr.WithDetails(msigerr.ErrMalformedExtendedKey, map[string]string{"key": "tpubAAA...", "reason": "bad checksum"}),
		msigerr.WithDetails(msigerr.ErrMalformedExtendedKey, map[string]string{"key": "xyz", "reason": "invalid length"}),
	)

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, merr.ErrorOrNil(), output.FormatJSON))

		var result output.ErrorOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, "MALFORMED_EXTENDED_KEY", result.Error.Code)
		assert.Equal(t, "2 errors occurred", result.Error.Message)
		require.Len(t, result.Error.Errors, 2)
		assert.Equal(t, "bad checksum", result.Error.Errors[0].Details["reason"])
		assert.Equal(t, "xyz", result.Error.Errors[1].Details["key"])
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, merr.ErrorOrNil(), output.FormatText))

		result := buf.String()
		assert.True(t, strings.HasPrefix(result, "Error: 2 errors occurred\n"))
		assert.Equal(t, 2, strings.Count(result, "- malformed extended key"))
		assert.Contains(t, result, "reason: bad checksum")
		assert.Contains(t, result, "key: xyz")
	})
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var jsonBuf, textBuf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&jsonBuf, "wallet created", output.FormatJSON))
	require.NoError(t, output.FormatSuccess(&textBuf, "wallet created", output.FormatText))

	assert.JSONEq(t, `{"status":"success","message":"wallet created"}`, jsonBuf.String())
	assert.Equal(t, "wallet created\n", textBuf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestFormatError_WriterError(t *testing.T) {
	t.Parallel()
	assert.Error(t, output.FormatError(failingWriter{}, errors.New("x"), output.FormatText))
	assert.Error(t, output.FormatError(failingWriter{}, errors.New("x"), output.FormatJSON))
}
