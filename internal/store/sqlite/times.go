// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package sqlite

import (
	"time"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction. RFC3339Nano trims
// trailing zeros, which breaks lexicographic ORDER BY on the stored text
// ('Z' sorts after '.'), so the width has to stay constant.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime serialises a time.Time to fixed-width RFC 3339 text.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// ParseTime deserialises a time string stored in the database.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "parsing stored timestamp %q", s)
	}
	return t, nil
}
