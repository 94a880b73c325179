package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildHostWasm writes a minimal core module with one imported function
// "host"."greet" : (i32) -> (i32) and a name section naming it, mirroring
// the fixture used across the host and surface package tests.
func buildHostWasm(t *testing.T) string {
	t.Helper()
	var buf []byte
	put := func(b ...byte) { buf = append(buf, b...) }
	withLen := func(body []byte) { put(byte(len(body))); buf = append(buf, body...) }
	putName := func(s string) []byte { return append([]byte{byte(len(s))}, s...) }

	put(0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)

	withSection := func(id byte, body []byte) { put(id); withLen(body) }

	withSection(1, []byte{0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f})

	var importBody []byte
	importBody = append(importBody, 0x01)
	importBody = append(importBody, putName("host")...)
	importBody = append(importBody, putName("greet")...)
	importBody = append(importBody, 0x00, 0x00)
	withSection(2, importBody)

	withSection(5, []byte{0x01, 0x00, 0x01})

	var funcNameSub []byte
	funcNameSub = append(funcNameSub, 0x01, 0x00)
	funcNameSub = append(funcNameSub, putName("greet")...)
	var nameBody []byte
	nameBody = append(nameBody, putName("name")...)
	nameBody = append(nameBody, 0x01, byte(len(funcNameSub)))
	nameBody = append(nameBody, funcNameSub...)
	withSection(0, nameBody)

	path := filepath.Join(t.TempDir(), "host.wasm")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestRunEncodesAndValidates(t *testing.T) {
	hostPath := buildHostWasm(t)
	witPath := filepath.Join(t.TempDir(), "iface.wit")
	require.NoError(t, os.WriteFile(witPath, []byte(`(module
		(@interface func $id (export "identity") (param $x i32) (result i32)
			arg.get $x
			call-core $greet
			end)
	)`), 0o644))

	outPath := filepath.Join(t.TempDir(), "out.wasm")
	require.NoError(t, run(hostPath, witPath, outPath, false, false))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestRunPrintsText(t *testing.T) {
	hostPath := buildHostWasm(t)
	witPath := filepath.Join(t.TempDir(), "iface.wit")
	require.NoError(t, os.WriteFile(witPath, []byte(`(module
		(@interface func $id (export "identity") (param $x i32) (result i32)
			arg.get $x
			call-core $greet
			end)
	)`), 0o644))

	outPath := filepath.Join(t.TempDir(), "out.wit.txt")
	require.NoError(t, run(hostPath, witPath, outPath, false, true))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "(module")
	require.Contains(t, string(data), "call-core $greet")
}

func TestRunRejectsInvalidAdapter(t *testing.T) {
	hostPath := buildHostWasm(t)
	witPath := filepath.Join(t.TempDir(), "iface.wit")
	// Declares an i64 result but the body leaves an i32 on the stack.
	require.NoError(t, os.WriteFile(witPath, []byte(`(module
		(@interface func $bad (export "bad") (param $x i32) (result i64)
			arg.get $x
			call-core $greet
			end)
	)`), 0o644))

	err := run(hostPath, witPath, filepath.Join(t.TempDir(), "out.wasm"), false, false)
	require.Error(t, err)
}
