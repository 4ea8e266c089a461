package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

var errStoreDown = errors.New("database is locked")

// fakeUsers implements the user repository over a map. Unimplemented
// methods panic via the embedded nil interface.
type fakeUsers struct {
	repository.UserRepository
	byID   map[int64]*domain.User
	getErr error
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	return user, nil
}

type fakeKeys struct {
	repository.APIKeyRepository
	byValue  map[string]*domain.APIKey
	getErr   error
	touchErr error
	touched  []time.Time
}

func (f *fakeKeys) GetByValue(_ context.Context, value string) (*domain.APIKey, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	key, ok := f.byValue[value]
	if !ok {
		return nil, fmt.Errorf("api key: %w", repository.ErrNotFound)
	}
	return key, nil
}

func (f *fakeKeys) TouchLastUsed(_ context.Context, id int64, usedAt time.Time) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, usedAt)
	for _, key := range f.byValue {
		if key.ID == id {
			t := usedAt
			key.LastUsed = &t
		}
	}
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
