package share

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClipboard(t *testing.T, unsupported bool, err error) *[]string {
	t.Helper()
	origWrite, origUnsupported := clipboardWriteAll, clipboardUnsupported
	t.Cleanup(func() {
		clipboardWriteAll, clipboardUnsupported = origWrite, origUnsupported
	})

	var copied []string
	clipboardUnsupported = func() bool { return unsupported }
	clipboardWriteAll = func(s string) error {
		if err != nil {
			return err
		}
		copied = append(copied, s)
		return nil
	}
	return &copied
}

func TestCopy_PrefersSystemClipboard(t *testing.T) {
	copied := stubClipboard(t, false, nil)
	var out bytes.Buffer

	m, err := New(&out).Copy("https://x/1")
	require.NoError(t, err)
	assert.Equal(t, MethodClipboard, m)
	assert.Equal(t, []string{"https://x/1"}, *copied)
	assert.Zero(t, out.Len())
}

func TestCopy_FallsBackToOSC52(t *testing.T) {
	stubClipboard(t, false, errors.New("no xclip"))
	var out bytes.Buffer
	s := &Sharer{Out: &out, env: func(string) string { return "" }}

	m, err := s.Copy("https://x/2")
	require.NoError(t, err)
	assert.Equal(t, MethodTerminal, m)
	assert.True(t, strings.HasPrefix(out.String(), "\x1b]52;c;"))
}

func TestCopy_TmuxWrapsSequence(t *testing.T) {
	stubClipboard(t, true, nil)
	var out bytes.Buffer
	s := &Sharer{Out: &out, env: func(k string) string {
		if k == "TMUX" {
			return "/tmp/tmux-1000/default,1,0"
		}
		return ""
	}}

	_, err := s.Copy("x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "\x1bPtmux;"))
}

func TestShare_ShowsLinkWhenNothingWorks(t *testing.T) {
	stubClipboard(t, true, nil)

	_, err := New(nil).Copy("https://x/3")
	assert.ErrorIs(t, err, ErrNoMethod)

	m, banner := New(nil).Share("https://x/3")
	assert.Equal(t, MethodShown, m)
	assert.Equal(t, "Share this link: https://x/3", banner)
}

func TestPostURLAndText(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/community/post/9", PostURL("http://localhost:3000/", 9))
	assert.Equal(t, "Check out this post!", Text("  "))
	long := strings.Repeat("가", 120)
	assert.Equal(t, strings.Repeat("가", 100)+"...", Text(long))
}
