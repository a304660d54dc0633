package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
)

func TestStubRunner_RecordsCalls(t *testing.T) {
	s := &StubRunner{}
	_, _ = s.Run(context.Background(), toolchain.Command{Program: "tsc"})
	_, _ = s.Run(context.Background(), toolchain.Command{Program: "bun"})
	_, _ = s.Run(context.Background(), toolchain.Command{Program: "bun"})

	require.Equal(t, 1, s.CallsTo("tsc"))
	require.Equal(t, 2, s.CallsTo("bun"))
	require.Len(t, s.Calls(), 3)
}
