package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Source{Command: "/mail", Address: "koshelev@example.org", Label: "Кошелева"})
	r.Register(Source{Command: "mymail", Address: "me@example.org"})
	r.Register(Source{Command: "empty"})

	s, err := r.Resolve("MAIL")
	require.NoError(t, err)
	require.Equal(t, Source{Command: "mail", Address: "koshelev@example.org", Label: "Кошелева"}, s)

	s, err = r.Resolve("mymail")
	require.NoError(t, err)
	require.Equal(t, "me@example.org", s.Label)

	require.False(t, r.Has("empty"))
	_, err = r.Resolve("start")
	require.Error(t, err)

	r.Register(Source{Command: "mail", Address: "other@example.org", Label: "другого"})
	all := r.All()
	require.Len(t, all, 2)
	require.Equal(t, "other@example.org", all[0].Address)
	require.Equal(t, "mymail", all[1].Command)
}
