package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/host"
	"github.com/wippyai/wasm-interface-types/internal/witlog"
	"github.com/wippyai/wasm-interface-types/surface"
	"github.com/wippyai/wasm-interface-types/surface/internal/parser"
	"github.com/wippyai/wasm-interface-types/surface/internal/token"
	"github.com/wippyai/wasm-interface-types/wit"
)

func main() {
	var (
		out        = flag.String("o", "", "Output file (default: stdout for -print, <input>.wit.wasm otherwise)")
		noValidate = flag.Bool("no-validate", false, "Skip validation against the host wasm module")
		print      = flag.Bool("print", false, "Print the resulting module as text instead of writing binary")
		verbose    = flag.Bool("v", false, "Enable verbose stage logging")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: witc [-o out] [-no-validate] [-print] [-v] <host.wasm> <interface.wit>")
	}
	flag.Parse()

	if *verbose {
		l, _ := zap.NewDevelopment()
		witlog.SetLogger(l)
	}

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *out, *noValidate, *print); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(hostPath, witPath, outPath string, noValidate, printText bool) error {
	log := witlog.Logger()

	hostData, err := os.ReadFile(hostPath)
	if err != nil {
		return witerr.Wrap(witerr.PhaseParse, "read host module", err)
	}
	log.Debug("read host module", zap.String("path", hostPath), zap.Int("bytes", len(hostData)))

	hostMod, err := host.Parse(hostData)
	if err != nil {
		return witerr.Wrap(witerr.PhaseParse, "parse host module", err)
	}
	log.Debug("parsed host module", zap.Int("funcs", len(hostMod.Funcs)), zap.Int("types", len(hostMod.Types)))

	src, err := os.ReadFile(witPath)
	if err != nil {
		return witerr.Wrap(witerr.PhaseParse, "read interface source", err)
	}

	tokens := token.Tokenize(string(src))
	log.Debug("tokenized source", zap.Int("tokens", len(tokens)))

	astMod, err := parser.Parse(tokens)
	if err != nil {
		return witerr.Wrap(witerr.PhaseParse, "parse interface source", err)
	}
	log.Debug("parsed interface source",
		zap.Int("types", len(astMod.Types)), zap.Int("funcs", len(astMod.Funcs)))

	m, err := surface.Resolve(astMod, hostMod)
	if err != nil {
		return witerr.Wrap(witerr.PhaseLower, "lower interface source", err)
	}
	log.Debug("lowered interface module",
		zap.Int("types", len(m.Types)), zap.Int("imports", len(m.Imports)),
		zap.Int("funcs", len(m.Funcs)), zap.Int("exports", len(m.Exports)))

	if !noValidate {
		if err := wit.Validate(m, hostMod); err != nil {
			return witerr.Wrap(witerr.PhaseValidate, "validate interface module", err)
		}
		log.Debug("validated interface module")
	}

	if printText {
		text := wit.Print(m, hostMod)
		if outPath == "" || outPath == "-" {
			_, err := fmt.Fprint(os.Stdout, text)
			return err
		}
		return os.WriteFile(outPath, []byte(text), 0o644)
	}

	payload := wit.EncodeCustomSection(m)
	dest := outPath
	if dest == "" {
		dest = strings.TrimSuffix(witPath, ".wit") + ".wit.wasm"
	}
	if err := os.WriteFile(dest, payload, 0o644); err != nil {
		return witerr.Wrap(witerr.PhaseEncode, "write output", err)
	}
	log.Debug("wrote encoded custom section", zap.String("path", dest), zap.Int("bytes", len(payload)))
	return nil
}
