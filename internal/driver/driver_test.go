package driver_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/qorcc/qorcc/internal/driver"
	"github.com/qorcc/qorcc/internal/filetest"
	"github.com/qorcc/qorcc/internal/logging"
)

var testUpdateDriverTests = flag.Bool("test.update-driver-tests", false, "If set, updates the golden files for TestCompile.")

func TestCompile(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")
	for _, fi := range filetest.SourceFiles(t, srcDir, ".c") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errout bytes.Buffer
			d := driver.New(logging.New(&errout), &out, &errout, driver.Options{
				DumpAssembly: true,
				NoOutput:     true,
			})
			d.Run([]string{filepath.Join(srcDir, fi.Name())})
			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateDriverTests)
		})
	}
}
