// cmd/pocket/main.go
//
// Grounded on the teacher's cmd/sentra/main.go entrypoint shape (flag
// dispatch by leading os.Args[1], a usage banner, a version banner) but
// pared down to the surface spec §6.5 actually names: run a file, run an
// inline source string (-c), print the version, or fall into a line
// REPL when no file is given. The teacher's project-management, package
// registry, LSP, linter, and completion commands have no equivalent here
// (§6.5 calls the CLI "minimal; not core").
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"pocket/internal/errors"
	"pocket/internal/vm"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		runREPL()
		return
	}

	switch args[0] {
	case "-v", "--version":
		fmt.Printf("pocket %s\n", version)
		return
	case "-h", "--help":
		showUsage()
		return
	case "-c":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "pocket: -c requires a source string")
			os.Exit(1)
		}
		runSource(args[1], args[2:])
		return
	}

	runFile(args[0], args[1:])
}

func showUsage() {
	fmt.Println("Usage:")
	fmt.Println("  pocket <file.pk> [args...]   Run a script")
	fmt.Println("  pocket -c \"source\" [args...] Run a source string")
	fmt.Println("  pocket                        Start the REPL")
	fmt.Println("  pocket -v, --version          Show version")
	fmt.Println("  pocket --gc-stats <file.pk>   Run a script, then print GC counters")
}

func newVM() *vm.VM {
	return vm.New()
}

func runFile(path string, scriptArgs []string) {
	if path == "--gc-stats" {
		if len(scriptArgs) == 0 {
			fmt.Fprintln(os.Stderr, "pocket: --gc-stats requires a file")
			os.Exit(1)
		}
		path, scriptArgs = scriptArgs[0], scriptArgs[1:]
		v := newVM()
		defer v.Close()
		if _, err := v.RunFile(path); err != nil {
			reportErr(err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, v.GCStats())
		return
	}

	v := newVM()
	defer v.Close()
	if _, err := v.RunFile(path); err != nil {
		reportErr(err)
		os.Exit(1)
	}
}

func runSource(src string, scriptArgs []string) {
	v := newVM()
	defer v.Close()
	if _, err := v.RunString(src, "<-c>"); err != nil {
		reportErr(err)
		os.Exit(1)
	}
}

func reportErr(err error) {
	if pe, ok := err.(*errors.PocketError); ok {
		fmt.Fprint(os.Stderr, pe.Error())
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}

// runREPL reads one line at a time, growing the buffer across lines
// while the compiler reports UnexpectedEOF (spec §7: "a partial
// statement is pending, so the host can read more lines").
func runREPL() {
	v := newVM()
	defer v.Close()

	fmt.Printf("pocket %s\n", version)
	scanner := bufio.NewScanner(os.Stdin)
	var pending strings.Builder
	lineNo := 0

	for {
		if pending.Len() == 0 {
			fmt.Print("> ")
		} else {
			fmt.Print("... ")
		}
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		lineNo++
		pending.WriteString(scanner.Text())
		pending.WriteByte('\n')

		src := pending.String()
		mod, errs := v.CompileREPLString("@repl", fmt.Sprintf("<repl:%d>", lineNo), src)
		if len(errs) > 0 {
			if errs[0].Kind == errors.UnexpectedEOF {
				continue // keep accumulating lines
			}
			for _, e := range errs {
				fmt.Fprint(os.Stderr, e.Error())
			}
			pending.Reset()
			continue
		}

		pending.Reset()
		if _, err := v.RunModule(mod); err != nil {
			reportErr(err)
		}
	}
}


