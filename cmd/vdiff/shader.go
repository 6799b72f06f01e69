package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/vdiff/mode"
	"github.com/gogpu/vdiff/shader"
)

func runShader(args []string, stdout, stderr io.Writer) error {
	fs, c := newFlagSet("shader", stderr)
	id := fs.String("mode", "", "mode id (see vdiff modes)")
	lang := fs.String("lang", "wgsl", "target language: wgsl, spirv, glsl, msl or hlsl")
	out := fs.String("o", "", "write to file instead of stdout")
	custom := fs.String("custom", "", "WGSL file with a custom fn compare body")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.setup(stderr)
	if err != nil {
		return err
	}
	if *id == "" {
		*id = cfg.Mode
	}

	rec, err := shaderRecord(mode.ID(*id), *custom)
	if err != nil {
		return err
	}
	l, err := shader.ParseLanguage(*lang)
	if err != nil {
		return err
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	src := mode.Source(rec)
	if l == shader.SPIRV {
		words, err := shader.Compile(src)
		if err != nil {
			return fmt.Errorf("mode %s: %w", rec.ID, err)
		}
		return binary.Write(w, binary.LittleEndian, words)
	}

	tr, err := shader.Translate(src, l, mode.VertexEntryPoint, mode.FragmentEntryPoint)
	if err != nil {
		return fmt.Errorf("mode %s: %w", rec.ID, err)
	}
	_, err = io.WriteString(w, tr.String())
	return err
}

// shaderRecord resolves a catalog mode, or a custom body read from path.
func shaderRecord(id mode.ID, path string) (mode.Record, error) {
	if path == "" {
		rec, ok := mode.Lookup(id)
		if !ok {
			return mode.Record{}, fmt.Errorf("unknown mode %q", id)
		}
		return rec, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return mode.Record{}, err
	}
	if id == "" || id == mode.Default {
		id = "custom"
	}
	rec := mode.Custom(id, "", string(body))
	if err := mode.Validate(rec); err != nil {
		return mode.Record{}, err
	}
	return rec, nil
}
