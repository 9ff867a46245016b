package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/internal/ledger"
)

// ErrorKindHeader carries the ledger error kind on failed responses.
const ErrorKindHeader = "X-Error-Kind"

var errOperationFailed = errors.New("operation failed")

// ledgerError converts a ledger error into a Connect error whose code and
// kind header callers can branch on. Storage details are logged, not sent.
func ledgerError(op string, err error) error {
	kind := ledger.KindOf(err)

	var code connect.Code
	switch kind {
	case ledger.KindValidation:
		code = connect.CodeInvalidArgument
	case ledger.KindNotFound:
		code = connect.CodeNotFound
	case ledger.KindUnauthorized:
		code = connect.CodePermissionDenied
	case ledger.KindConflict:
		code = connect.CodeFailedPrecondition
	case ledger.KindStorage:
		code = connect.CodeUnavailable
	case ledger.KindPartial:
		code = connect.CodeDataLoss
	default:
		code = connect.CodeInternal
	}

	var cerr *connect.Error
	switch kind {
	case ledger.KindStorage, ledger.KindPartial, ledger.KindUnknown:
		slog.Error(op+" failed", "kind", kind, "error", err)
		cerr = connect.NewError(code, errOperationFailed)
	default:
		cerr = connect.NewError(code, err)
	}
	cerr.Meta().Set(ErrorKindHeader, string(kind))
	return cerr
}

// KindFromError returns the ledger error kind a Connect error carries.
func KindFromError(err error) ledger.Kind {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return ""
	}
	return ledger.Kind(cerr.Meta().Get(ErrorKindHeader))
}
