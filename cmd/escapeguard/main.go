// Command escapeguard finds unescaped user-controlled values flowing
// into HTML output or SQL-binding contexts in the target templating
// language, and suggests an autofix for each finding (source files are
// never modified).
package main

import (
	"fmt"
	"os"

	"escapeguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
