// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ctlplane

import (
	"strings"

	"github.com/aegisflux/cgfence/internal/errors"
)

// net/rpc flattens server-side errors to strings. The error kind is
// encoded as a "kind: message" prefix so the client can restore the
// taxonomy and callers can distinguish "nothing to do" from "table
// full".

func encodeErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Errorf(errors.GetKind(err), "%s: %s", errors.GetKind(err), err.Error())
}

var wireKinds = map[string]errors.Kind{
	"not_found":         errors.KindNotFound,
	"capacity_exceeded": errors.KindCapacity,
	"validation":        errors.KindValidation,
	"internal":          errors.KindInternal,
	"unavailable":       errors.KindUnavailable,
}

func decodeErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if kind, rest, ok := splitKind(msg); ok {
		return errors.New(kind, rest)
	}
	return errors.Wrap(err, errors.KindUnknown, "control plane call failed")
}

func splitKind(msg string) (errors.Kind, string, bool) {
	prefix, rest, found := strings.Cut(msg, ": ")
	if !found {
		return errors.KindUnknown, "", false
	}
	kind, ok := wireKinds[prefix]
	if !ok {
		return errors.KindUnknown, "", false
	}
	return kind, rest, true
}
