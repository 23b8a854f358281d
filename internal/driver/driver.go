// Package driver orchestrates one compiler invocation: reading source
// files, running the pipeline stages, honoring the dump flags, and writing
// (or suppressing) the assembly output.
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qorcc/qorcc/lang/ast"
	"github.com/qorcc/qorcc/lang/cerrors"
	"github.com/qorcc/qorcc/lang/codegen"
	"github.com/qorcc/qorcc/lang/ir"
	"github.com/qorcc/qorcc/lang/parser"
	"github.com/qorcc/qorcc/lang/preprocessor"
	"github.com/qorcc/qorcc/lang/token"
)

// Options controls which pipeline stages dump their intermediate state, and
// whether the final assembly file is actually written.
type Options struct {
	DumpTokens    bool
	DumpParseTree bool
	DumpIR        bool
	DumpAssembly  bool
	NoOutput      bool
}

// FileManager caches source file contents by filename, so the same bytes
// read once for the driver's diagnostics double as the preprocessor's
// #include resolution.
type FileManager struct {
	cache map[string][]byte
}

// NewFileManager creates an empty FileManager.
func NewFileManager() *FileManager {
	return &FileManager{cache: make(map[string][]byte)}
}

// Read implements preprocessor.Files.
func (m *FileManager) Read(path string) ([]byte, error) {
	if b, ok := m.cache[path]; ok {
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m.cache[path] = b
	return b, nil
}

// Exists implements preprocessor.Files.
func (m *FileManager) Exists(path string) bool {
	if _, ok := m.cache[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// Lines implements cerrors.SourceLines.
func (m *FileManager) Lines(filename string) []string {
	b, ok := m.cache[filename]
	if !ok {
		var err error
		b, err = os.ReadFile(filename)
		if err != nil {
			return nil
		}
		m.cache[filename] = b
	}
	return strings.Split(string(b), "\n")
}

// OutputName derives the assembly filename for a source path: the basename
// up to (but excluding) its first '.', plus ".s", in the current directory.
func OutputName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base + ".s"
}

// Driver runs the pipeline over a set of source files independently,
// reporting each file's errors without letting one file's failure stop the
// others.
type Driver struct {
	Files   *FileManager
	Log     zerolog.Logger
	Stdout  io.Writer
	Stderr  io.Writer
	Options Options
}

// New constructs a Driver with a fresh FileManager.
func New(log zerolog.Logger, stdout, stderr io.Writer, opts Options) *Driver {
	return &Driver{Files: NewFileManager(), Log: log, Stdout: stdout, Stderr: stderr, Options: opts}
}

// Run compiles every path, returning the process exit code: 0 if all
// succeeded, 1 if any failed.
func (d *Driver) Run(paths []string) int {
	exit := 0
	for _, path := range paths {
		if err := d.compileOne(path); err != nil {
			cerrors.PrintError(d.Stderr, err, d.Files)
			exit = 1
		}
	}
	return exit
}

func (d *Driver) compileOne(path string) error {
	d.Log.Trace().Str("file", path).Msg("reading source")
	src, err := d.Files.Read(path)
	if err != nil {
		return &cerrors.Error{Kind: cerrors.BadFilename, Filename: path, Msg: err.Error()}
	}

	pp := preprocessor.New(d.Files)
	toks, err := pp.Process(path, src)
	if err != nil {
		return err
	}
	for _, w := range pp.Warnings {
		d.Log.Warn().Msg(w)
	}

	if d.Options.DumpTokens {
		for _, tv := range toks {
			full := token.Full{Tok: tv.Token, Val: tv.Value}
			fmt.Fprintf(d.Stdout, "%s\n", full)
		}
	}

	cu, err := parser.ParseFile(path, toks)
	if err != nil {
		return err
	}

	if d.Options.DumpParseTree {
		p := &ast.Printer{Output: d.Stdout}
		if err := p.Print(cu); err != nil {
			return err
		}
	}

	prog, err := ir.Lower(cu)
	if err != nil {
		return err
	}

	if d.Options.DumpIR {
		if err := ir.Print(d.Stdout, prog); err != nil {
			return err
		}
	}

	asm, err := codegen.Dump(prog)
	if err != nil {
		return err
	}

	if d.Options.DumpAssembly {
		fmt.Fprint(d.Stdout, asm)
	}

	if d.Options.NoOutput {
		d.Log.Trace().Str("file", path).Msg("suppressing .s output")
		return nil
	}

	outPath := OutputName(path)
	d.Log.Trace().Str("file", path).Str("out", outPath).Msg("writing assembly")
	return os.WriteFile(outPath, []byte(asm), 0o644)
}
