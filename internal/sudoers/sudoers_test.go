package sudoers

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	doc     []int64
	exists  bool
	upserts int
	findErr error
}

func (m *memStore) FindSudoers(context.Context) ([]int64, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if !m.exists {
		return nil, nil
	}
	return append([]int64(nil), m.doc...), nil
}

func (m *memStore) UpsertSudoers(_ context.Context, ids []int64) error {
	m.doc = append([]int64(nil), ids...)
	m.exists = true
	m.upserts++
	return nil
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func TestNew_SeedsOwner(t *testing.T) {
	r := New(100, &memStore{}, testLog())
	require.True(t, r.IsSudoer(100))
	require.False(t, r.IsSudoer(200))
	require.Equal(t, []int64{100}, r.List())
}

func TestLoad_CreatesDocument(t *testing.T) {
	store := &memStore{}
	r := New(100, store, testLog())

	require.NoError(t, r.Load(context.Background()))
	require.NoError(t, r.Load(context.Background()))

	require.Equal(t, []int64{100}, store.doc)
	require.Equal(t, 1, store.upserts)
}

func TestLoad_AppendsOwnerOnce(t *testing.T) {
	store := &memStore{doc: []int64{5, 7}, exists: true}
	r := New(100, store, testLog())

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Load(context.Background()))
	}

	require.Equal(t, []int64{5, 7, 100}, store.doc)
	require.Equal(t, 1, store.upserts)
	require.True(t, r.IsSudoer(5))
	require.True(t, r.IsSudoer(7))
	require.Equal(t, []int64{5, 7, 100}, r.List())
}

func TestLoad_OwnerAlreadyPresent(t *testing.T) {
	store := &memStore{doc: []int64{100, 3}, exists: true}
	r := New(100, store, testLog())

	require.NoError(t, r.Load(context.Background()))
	require.Zero(t, store.upserts)
	require.True(t, r.IsSudoer(3))
}

func TestLoad_StoreError(t *testing.T) {
	r := New(100, &memStore{findErr: errors.New("connection refused")}, testLog())
	require.Error(t, r.Load(context.Background()))
	require.True(t, r.IsSudoer(100))
}
