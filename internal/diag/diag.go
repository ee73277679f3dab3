// Package diag turns failed status requests into short diagnostics for the
// developer log.
package diag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/five82/nodewatch/internal/nodeapi"
)

// Kind names the class of a failed request.
type Kind int

const (
	UnknownError Kind = iota
	NetworkFailure
	StructuredServerError
	GenericTransportError
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case StructuredServerError:
		return "structured_server_error"
	case GenericTransportError:
		return "generic_transport_error"
	default:
		return "unknown_error"
	}
}

// Diagnosis is the (title, message) pair derived from a failed request.
type Diagnosis struct {
	Kind    Kind
	Title   string
	Message string
}

func (d Diagnosis) String() string {
	return d.Title + " - " + d.Message
}

const (
	networkTitle   = "Network Connection Error"
	unknownTitle   = "Error"
	unknownMessage = "An unknown error occurred. Please check console output."
)

// Classify maps err to exactly one Diagnosis. Checks run in order and the
// first match wins: a network failure has no usable body, so it is diagnosed
// before any response content is inspected.
func Classify(err error) Diagnosis {
	var reqErr *nodeapi.RequestError
	if !errors.As(err, &reqErr) || reqErr == nil {
		return unknown()
	}

	if reqErr.Done && reqErr.StatusCode == 0 {
		return Diagnosis{
			Kind:    NetworkFailure,
			Title:   networkTitle,
			Message: "Could not connect to: " + reqErr.URL,
		}
	}
	if msg, ok := reqErr.Message(); ok {
		return Diagnosis{
			Kind:    StructuredServerError,
			Title:   statusTitle(reqErr),
			Message: msg,
		}
	}
	if reqErr.Err != nil && reqErr.Err.Error() != "" {
		return Diagnosis{
			Kind:    GenericTransportError,
			Title:   statusTitle(reqErr),
			Message: reqErr.Err.Error(),
		}
	}
	return unknown()
}

// Log records the raw failure and its classification. Diagnostics go to the
// log only; nothing here is meant for the user's screen.
func Log(ctx context.Context, logger *slog.Logger, err error, d Diagnosis) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "status request failed", "error", err)
	logger.WarnContext(ctx, d.String(), "kind", d.Kind.String())
}

func statusTitle(e *nodeapi.RequestError) string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.StatusText)
}

func unknown() Diagnosis {
	return Diagnosis{Kind: UnknownError, Title: unknownTitle, Message: unknownMessage}
}
