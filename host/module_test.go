package host

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildModule assembles a minimal core module: one func type (string-ish
// i32 i32 -> i32), one imported function of that type, one locally
// defined function of that type, and one memory.
func buildModule(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	put := func(b ...byte) { buf = append(buf, b...) }
	putName := func(s string) {
		put(byte(len(s)))
		buf = append(buf, s...)
	}

	put(0x00, 0x61, 0x73, 0x6d) // magic
	put(0x01, 0x00, 0x00, 0x00) // version

	// type section: 1 entry, (i32 i32) -> (i32)
	typeBody := []byte{0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f}
	put(secType, byte(len(typeBody)))
	buf = append(buf, typeBody...)

	// import section: 1 func import "env"."host_call" : type 0
	var importBody []byte
	ib := func(b ...byte) { importBody = append(importBody, b...) }
	ib(0x01)
	withName := func(s string) {
		ib(byte(len(s)))
		importBody = append(importBody, s...)
	}
	withName("env")
	withName("host_call")
	ib(descFunc, 0x00)
	put(secImport, byte(len(importBody)))
	buf = append(buf, importBody...)

	// function section: 1 local func, type 0
	funcBody := []byte{0x01, 0x00}
	put(secFunction, byte(len(funcBody)))
	buf = append(buf, funcBody...)

	// memory section: 1 memory, min 1 no max
	memBody := []byte{0x01, 0x00, 0x01}
	put(secMemory, byte(len(memBody)))
	buf = append(buf, memBody...)

	// custom "name" section with one function-name subsection
	var nameSub []byte
	nameSub = append(nameSub, 0x02) // 2 entries
	nameSub = append(nameSub, 0x00, byte(len("host")))
	nameSub = append(nameSub, "host"...)
	nameSub = append(nameSub, 0x01, byte(len("greeter")))
	nameSub = append(nameSub, "greeter"...)

	var nameBody []byte
	nameBody = append(nameBody, nameSubsecFunction, byte(len(nameSub)))
	nameBody = append(nameBody, nameSub...)

	var customBody []byte
	customBody = append(customBody, byte(len("name")))
	customBody = append(customBody, "name"...)
	customBody = append(customBody, nameBody...)
	put(secCustom, byte(len(customBody)))
	buf = append(buf, customBody...)

	_ = putName
	return buf
}

func TestParseHostModule(t *testing.T) {
	data := buildModule(t)
	m, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, m.Types, 1)
	require.Equal(t, []HostValKind{HostI32, HostI32}, m.Types[0].Params)
	require.Equal(t, []HostValKind{HostI32}, m.Types[0].Results)

	require.Len(t, m.Funcs, 2)
	require.True(t, m.IsImported(0))
	require.Equal(t, "env", m.Funcs[0].Module)
	require.Equal(t, "host_call", m.Funcs[0].Name)
	require.False(t, m.IsImported(1))

	require.Equal(t, 1, m.MemoryCount)

	ft, ok := m.FuncType(0)
	require.True(t, ok)
	require.Equal(t, m.Types[0], ft)

	require.Equal(t, "host", m.FuncName(0))
}
