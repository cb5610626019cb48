package cerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aclgate/aclgate/pkg/blob"
)

func WrapStorageReadError(target string, err error) error {
	if errors.Is(err, blob.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to read %s: %w", target, err))
}

func WrapStorageWriteError(target string, err error) error {
	return NewError(Internal, "server error", fmt.Errorf("failed to write %s: %w", target, err))
}

func WrapStorageDeleteError(target string, err error) error {
	if errors.Is(err, blob.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to delete %s: %w", target, err))
}

func WrapDBReadError(target string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to query %s: %w", target, err))
}

func WrapDBWriteError(target string, err error) error {
	return NewError(Internal, "server error", fmt.Errorf("failed to store %s: %w", target, err))
}
