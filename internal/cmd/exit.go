package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// ExitWithCode logs msg with the foundry exit code metadata attached and
// terminates the process. A nil logger routes the message to stderr instead,
// for failures that happen before logging is up.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatal(os.Stderr, msg, err, info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_description", info.Description),
		zap.String("exit_category", info.Category),
	}

	if envelope, isEnvelope := err.(*errors.ErrorEnvelope); isEnvelope {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
			zap.String("trace_id", envelope.TraceID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
		if original, isErr := envelope.Original.(error); isErr {
			err = original
		}
	}
	fields = append(fields, zap.Error(err))

	logger.Error(msg, fields...)
	os.Exit(info.Code)
}

// ExitWithCodeStderr is the pre-logger variant of ExitWithCode.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	writeFatal(os.Stderr, msg, err, info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}

func writeFatal(w io.Writer, msg string, err error, code int, name, description string) {
	if envelope, isEnvelope := err.(*errors.ErrorEnvelope); isEnvelope {
		fmt.Fprintf(w, "FATAL: %s [%s]: %v (correlation: %s, trace: %s)\n",
			msg, envelope.Code, envelope.Message, envelope.CorrelationID, envelope.TraceID)
		if original, isErr := envelope.Original.(error); isErr {
			fmt.Fprintf(w, "Underlying error: %v\n", original)
		}
	} else if err != nil {
		fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(w, "FATAL: %s\n", msg)
	}

	fmt.Fprintf(w, "Exit Code: %d (%s) - %s\n", code, name, description)
}
