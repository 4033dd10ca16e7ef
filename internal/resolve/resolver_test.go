package resolve

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte("hello"), 0o644))

	r := NewFileResolver(dir)

	valid, known := r.IsValidPath("a.html")
	assert.True(t, known)
	assert.True(t, valid)

	valid, known = r.IsValidPath("missing.html")
	assert.True(t, known)
	assert.False(t, valid)

	src, err := ReadAll(r, "a.html")
	require.NoError(t, err)
	assert.Equal(t, "hello", src)

	_, err = r.Resolve("missing.html")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFSResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"mail/welcome.html": {Data: []byte("Welcome ~%name%")},
	}
	r := NewFSResolver("mail", fsys)

	src, err := ReadAll(r, "/mail/welcome.html")
	require.NoError(t, err)
	assert.Equal(t, "Welcome ~%name%", src)

	valid, known := r.IsValidPath("mail/nope.html")
	assert.True(t, known)
	assert.False(t, valid)
}

func TestIdentity(t *testing.T) {
	a := NewFSResolver("a", fstest.MapFS{})
	b := NewFSResolver("b", fstest.MapFS{})
	assert.NotEqual(t, Identity(a), Identity(b))
	assert.Equal(t, Identity(a), Identity(NewFSResolver("a", fstest.MapFS{})))
	assert.Equal(t, "", Identity(nil))
}

type fakeRedis map[string]string

func (f fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func TestRedisResolver(t *testing.T) {
	r := NewRedisResolver(fakeRedis{"tmpl:page.html": "<p>~%x%</p>"}, "tmpl:", time.Second, nil)

	rc, err := r.Resolve("/page.html")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<p>~%x%</p>", string(data))

	_, err = r.Resolve("gone.html")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, known := r.IsValidPath("page.html")
	assert.False(t, known)
	assert.Equal(t, "tmpl:", r.ID())
}
