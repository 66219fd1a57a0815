// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	apperrors "graphwatch/cli/internal/errors"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if kind := apperrors.KindOf(err); kind != "" {
		return fmt.Sprintf("%s [%s]: %s", context, kind, Mask(err.Error()))
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}
