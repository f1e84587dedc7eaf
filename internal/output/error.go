package output

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
	Errors     []ErrorDetail     `json:"errors,omitempty"`
}

// FormatError writes err to w. A go-multierror is expanded so that every
// aggregated failure is shown.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: describe(err)})
	}
	return formatErrorText(w, err)
}

func describe(err error) ErrorDetail {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		d := describe(merr.Errors[0])
		d.Message = fmt.Sprintf("%d errors occurred", len(merr.Errors))
		d.Details = nil
		d.Suggestion = ""
		for _, e := range merr.Errors {
			d.Errors = append(d.Errors, describe(e))
		}
		return d
	}

	var se *msigerr.MultisigError
	if errors.As(err, &se) {
		msg := se.Message
		if se.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, se.Cause)
		}
		return ErrorDetail{
			Code:       se.Code,
			Message:    msg,
			Details:    se.Details,
			Suggestion: se.Suggestion,
			ExitCode:   se.ExitCode,
		}
	}

	return ErrorDetail{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		ExitCode: msigerr.ExitGeneral,
	}
}

func formatErrorText(w io.Writer, err error) error {
	var sb strings.Builder
	writeDetailText(&sb, describe(err), "")
	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

func writeDetailText(sb *strings.Builder, d ErrorDetail, indent string) {
	if indent == "" {
		fmt.Fprintf(sb, "Error: %s\n", d.Message)
	} else {
		fmt.Fprintf(sb, "%s- %s\n", indent, d.Message)
	}

	if len(d.Details) > 0 {
		keys := make([]string, 0, len(d.Details))
		for k := range d.Details {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		if indent == "" {
			sb.WriteString("\nDetails:\n")
		}
		for _, k := range keys {
			fmt.Fprintf(sb, "%s  %s: %s\n", indent, k, d.Details[k])
		}
	}

	for _, sub := range d.Errors {
		writeDetailText(sb, sub, indent+"  ")
	}

	if d.Suggestion != "" {
		if indent == "" {
			fmt.Fprintf(sb, "\nSuggestion: %s\n", d.Suggestion)
		} else {
			fmt.Fprintf(sb, "%s  suggestion: %s\n", indent, d.Suggestion)
		}
	}
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
