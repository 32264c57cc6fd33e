package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	m      sync.RWMutex
	getErr error
	setErr error
	delErr error
	sets   int
}

func (f *failingKV) Get(context.Context, string) ([]byte, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	return nil, f.getErr
}

func (f *failingKV) Set(context.Context, string, []byte) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.sets++
	return f.setErr
}

func (f *failingKV) Delete(context.Context, string) error {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.delErr
}

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestAdapter(kv KV) (*Adapter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewAdapter(kv, logger), &buf
}

func TestLoad_MissingKeyReturnsZero(t *testing.T) {
	sut, logs := newTestAdapter(NewMemoryKV())

	ret, ok := Load[[]item](context.Background(), sut, "ecomm_cart")
	assert.False(t, ok)
	assert.Nil(t, ret)
	assert.Empty(t, logs.String(), "a missing key is not worth a log line")
}

func TestSaveThenLoad(t *testing.T) {
	sut, _ := newTestAdapter(NewMemoryKV())
	ctx := context.Background()

	require.True(t, sut.Save(ctx, "k", []item{{Name: "mug", Count: 2}}))

	ret, ok := Load[[]item](ctx, sut, "k")
	require.True(t, ok)
	require.Len(t, ret, 1)
	assert.Equal(t, "mug", ret[0].Name)
	assert.Equal(t, 2, ret[0].Count)
}

func TestLoad_CorruptValueReturnsZero(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "k", []byte(`[{"name":"mug",`)))
	sut, logs := newTestAdapter(kv)

	ret, ok := Load[[]item](context.Background(), sut, "k")
	assert.False(t, ok)
	assert.Nil(t, ret)
	assert.Contains(t, logs.String(), "stored value is corrupt")
}

func TestLoad_WrongShapeReturnsZero(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "k", []byte(`{"name":"not a list"}`)))
	sut, _ := newTestAdapter(kv)

	ret, ok := Load[[]item](context.Background(), sut, "k")
	assert.False(t, ok)
	assert.Empty(t, ret)
}

func TestLoad_BackendErrorReturnsZero(t *testing.T) {
	sut, logs := newTestAdapter(&failingKV{getErr: errors.New("disk unavailable")})

	_, ok := Load[item](context.Background(), sut, "k")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "disk unavailable")
}

func TestSave_BackendErrorIsLogged(t *testing.T) {
	kv := &failingKV{setErr: errors.New("quota exceeded")}
	sut, logs := newTestAdapter(kv)

	ok := sut.Save(context.Background(), "k", item{Name: "mug"})
	assert.False(t, ok)
	assert.Equal(t, 1, kv.sets)
	assert.Contains(t, logs.String(), "quota exceeded")
}

func TestSave_UnmarshalableValueIsLogged(t *testing.T) {
	kv := &failingKV{}
	sut, logs := newTestAdapter(kv)

	ok := sut.Save(context.Background(), "k", make(chan int))
	assert.False(t, ok)
	assert.Equal(t, 0, kv.sets)
	assert.Contains(t, logs.String(), "marshal value failed")
}

func TestRemove(t *testing.T) {
	kv := NewMemoryKV()
	sut, _ := newTestAdapter(kv)
	ctx := context.Background()

	require.True(t, sut.Save(ctx, "k", item{Name: "mug"}))
	assert.True(t, sut.Remove(ctx, "k"))
	assert.True(t, sut.Remove(ctx, "k"), "removing an absent key succeeds")

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove_BackendError(t *testing.T) {
	sut, logs := newTestAdapter(&failingKV{delErr: errors.New("read-only")})

	assert.False(t, sut.Remove(context.Background(), "k"))
	assert.Contains(t, logs.String(), "storage delete failed")
}
