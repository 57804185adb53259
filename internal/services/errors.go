package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/osassistant/backend/internal/nlp"
)

var (
	ErrEmptyProblem       = errors.New("problem description is empty")
	ErrEmptySolution      = errors.New("solution is empty")
	ErrInvalidScore       = errors.New("score must be between 1 and 5")
	ErrInvalidRating      = errors.New("rating must be helpful or not_helpful")
	ErrInvalidResolution  = errors.New("unknown resolution method")
	ErrCaseNotFound       = errors.New("case not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrDegenerateCorpus   = nlp.ErrEmptyVocabulary
	ErrNotEnoughCases     = errors.New("not enough cases to train")
	ErrNotEnoughLabels    = errors.New("not enough labeled cases to train")
)

// IsTransient reports whether a storage error is worth retrying: broken
// connections, deadlines, serialization failures and locked sqlite files.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		// 08 connection exception, 53 insufficient resources, 57P operator
		// intervention, 40001/40P01 serialization failure and deadlock
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"),
			strings.HasPrefix(code, "57P"), code == "40001", code == "40P01":
			return true
		}
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func validScore(score int) bool {
	return score >= 1 && score <= 5
}
