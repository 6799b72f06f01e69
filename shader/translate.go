package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/msl"
)

// Language is a shading language a source can be emitted in.
type Language string

// Supported languages.
const (
	WGSL  Language = "wgsl"
	SPIRV Language = "spirv"
	GLSL  Language = "glsl"
	MSL   Language = "msl"
	HLSL  Language = "hlsl"
)

// Languages lists every supported language.
func Languages() []Language {
	return []Language{WGSL, SPIRV, GLSL, MSL, HLSL}
}

// ParseLanguage parses a case-insensitive language name.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages() {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("shader: unknown language %q", s)
}

// Stage is one emitted source. EntryPoint is empty when the language keeps
// all entry points in one source.
type Stage struct {
	EntryPoint string
	Code       string
}

// Translation is the result of Translate.
type Translation struct {
	Language Language
	Stages   []Stage
}

// String joins all stages, each GLSL stage preceded by a comment naming
// its entry point.
func (t Translation) String() string {
	if len(t.Stages) == 1 {
		return t.Stages[0].Code
	}
	var b strings.Builder
	for i, s := range t.Stages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "// entry point: %s\n", s.EntryPoint)
		b.WriteString(s.Code)
	}
	return b.String()
}

// Translate emits WGSL source in the target language. GLSL is produced per
// entry point (GLSL ES 3.00, the WebGL 2 dialect); the others hold vertex
// and fragment stages in one source. SPIR-V is binary and handled by
// Compile.
func Translate(source string, lang Language, entryPoints ...string) (Translation, error) {
	if strings.TrimSpace(source) == "" {
		return Translation{}, ErrEmptySource
	}
	if lang == WGSL {
		return Translation{Language: WGSL, Stages: []Stage{{Code: source}}}, nil
	}
	if lang == SPIRV {
		return Translation{}, fmt.Errorf("shader: %s is binary, use Compile", lang)
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return Translation{}, fmt.Errorf("shader: parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return Translation{}, fmt.Errorf("shader: lower: %w", err)
	}

	switch lang {
	case GLSL:
		if len(entryPoints) == 0 {
			entryPoints = []string{"vs_main", "fs_main"}
		}
		out := Translation{Language: GLSL}
		for _, ep := range entryPoints {
			code, _, err := glsl.Compile(module, glsl.Options{
				LangVersion:        glsl.VersionES300,
				EntryPoint:         ep,
				ForceHighPrecision: true,
			})
			if err != nil {
				return Translation{}, fmt.Errorf("shader: glsl %s: %w", ep, err)
			}
			out.Stages = append(out.Stages, Stage{EntryPoint: ep, Code: code})
		}
		return out, nil

	case MSL:
		code, _, err := msl.Compile(module, msl.DefaultOptions())
		if err != nil {
			return Translation{}, fmt.Errorf("shader: msl: %w", err)
		}
		return Translation{Language: MSL, Stages: []Stage{{Code: code}}}, nil

	case HLSL:
		code, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
		if err != nil {
			return Translation{}, fmt.Errorf("shader: hlsl: %w", err)
		}
		return Translation{Language: HLSL, Stages: []Stage{{Code: code}}}, nil
	}
	return Translation{}, fmt.Errorf("shader: unknown language %q", lang)
}
