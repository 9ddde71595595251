package storage

import (
	"context"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), 1024)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	handle, size, err := store.Save(ctx, strings.NewReader("hello"), "u7/My Photo (1).PNG")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.Regexp(t, regexp.MustCompile(`^20240506_070809_u7_[0-9a-f-]{8}_My_Photo_1_.PNG$`), handle)

	rc, err := store.Open(ctx, handle)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete(ctx, handle))
	_, err = store.Open(ctx, handle)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, handle))
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 4)
	require.NoError(t, err)

	_, _, err = store.Save(context.Background(), strings.NewReader("too long"), "a.txt")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestResolveRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)

	for _, h := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
		_, err := store.Open(context.Background(), h)
		assert.ErrorIs(t, err, ErrInvalidHandle, h)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "file", SanitizeName("..."))
	assert.Equal(t, "report_final.pdf", SanitizeName(`C:\docs\report final.pdf`))
}

func TestAllowedExtension(t *testing.T) {
	exts := []string{"pdf", ".PNG", " jpg"}
	assert.True(t, AllowedExtension("a.pdf", exts))
	assert.True(t, AllowedExtension("a.png", exts))
	assert.True(t, AllowedExtension("a.JPG", exts))
	assert.False(t, AllowedExtension("a.exe", exts))
	assert.False(t, AllowedExtension("noext", exts))
}
