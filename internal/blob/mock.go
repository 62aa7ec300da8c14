package blob

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(key string, r io.Reader) error {
	args := m.Called(key, r)
	return args.Error(0)
}

func (m *MockStore) Get(key string) (io.ReadCloser, error) {
	args := m.Called(key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}
