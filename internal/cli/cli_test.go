package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every package-level flag var to its zero value so
// tests can run newRootCmd().Execute() repeatedly without bleeding state
// from one test's flags into the next (cobra only overwrites a flag var
// when the user passes that flag on the command line being executed).
func resetFlags() {
	flagVerbose = false
	flagFormat = "text"
	flagOutput = ""
	flagOutputDir = "."
	flagTimestamp = false
	flagWorkers = 0
	flagConfigPath = ".escapeguard.yml"
	flagListFormats = false
	flagCacheSize = 0
}

func writePHP(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestResolveConcurrencyPrefersFlagOverConfig(t *testing.T) {
	assert.Equal(t, 4, resolveConcurrency(4, 16))
}

func TestResolveConcurrencyFallsBackToConfigWhenFlagUnset(t *testing.T) {
	assert.Equal(t, 16, resolveConcurrency(0, 16))
}

func TestResolveConcurrencyZeroWhenNeitherSet(t *testing.T) {
	assert.Equal(t, 0, resolveConcurrency(0, 0))
}

func TestRootCommandHasScanAndWatchSubcommands(t *testing.T) {
	resetFlags()
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["scan"])
	assert.True(t, names["watch"])
}

func TestListFormatsPrintsSupportedFormatsAndSkipsScan(t *testing.T) {
	resetFlags()
	dir := t.TempDir()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scan", dir, "--list-formats"})

	require.NoError(t, root.Execute())
	text := out.String()
	assert.Contains(t, text, "json")
	assert.Contains(t, text, "text")
	assert.Contains(t, text, "sarif")
	assert.Contains(t, text, "all")
}

func TestScanCommandWritesReportForCleanDirectory(t *testing.T) {
	resetFlags()
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writePHP(t, srcDir, "index.php", "<?php\necho 'static text';\n")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"scan", srcDir,
		"--format", "json",
		"--output-dir", outDir,
		"--output", "report.json",
	})

	require.NoError(t, root.Execute())

	reportPath := filepath.Join(outDir, "report.json")
	assert.FileExists(t, reportPath)
	assert.Contains(t, out.String(), reportPath)
}

func TestScanCommandRejectsUnknownFormat(t *testing.T) {
	resetFlags()
	srcDir := t.TempDir()
	writePHP(t, srcDir, "index.php", "<?php\necho 'static text';\n")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scan", srcDir, "--format", "yaml"})

	err := root.Execute()
	assert.Error(t, err)
}

func TestScanCommandDefaultsToCurrentDirectoryWhenNoPathGiven(t *testing.T) {
	resetFlags()
	outDir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	srcDir := t.TempDir()
	writePHP(t, srcDir, "index.php", "<?php\necho 'static text';\n")
	require.NoError(t, os.Chdir(srcDir))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scan", "--output-dir", outDir, "--output", "r.json", "--format", "json"})

	require.NoError(t, root.Execute())
	assert.FileExists(t, filepath.Join(outDir, "r.json"))
}
