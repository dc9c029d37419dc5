// This is the main-driver for our compiler.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"

	"github.com/skx/subc/compiler"
)

func main() {

	//
	// Look for flags.
	//
	debug := flag.Bool("debug", false, "Insert debug \"stuff\" in our generated output.")
	compileFlag := flag.Bool("compile", false, "Compile the program, via invoking gcc.")
	program := flag.String("filename", "a.out", "The binary to write to, when -compile is given.")
	run := flag.Bool("run", false, "Run the binary, post-compile.")
	dumpAST := flag.Bool("dump-ast", false, "Dump the parsed AST to stderr before compiling.")
	dumpTacky := flag.Bool("dump-tacky", false, "Dump the lowered three-address code to stderr before compiling.")
	flag.Parse()

	log := logrus.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	//
	// If we're running we're also compiling.
	//
	if *run {
		*compileFlag = true
	}

	//
	// Ensure we have a program as our single argument.
	//
	if len(flag.Args()) != 1 {
		fmt.Printf("Usage: subc 'int main(void) { return 2; }'\n")
		os.Exit(1)
	}

	//
	// Create a compiler-object, with the program as input.
	//
	log.Debug("creating compiler")
	comp := compiler.New(flag.Args()[0])

	if *debug {
		comp.SetDebug(true)
	}

	//
	// Compile.
	//
	log.Debug("lexing, parsing and lowering")
	out, err := comp.Compile()
	if err != nil {
		fmt.Printf("Error compiling: %s\n", err.Error())
		os.Exit(1)
	}
	log.WithField("bytes", len(out)).Debug("assembly emitted")

	if *dumpAST {
		fmt.Fprintf(os.Stderr, "--- AST ---\n%# v\n", pretty.Formatter(comp.AST()))
	}
	if *dumpTacky {
		fmt.Fprintf(os.Stderr, "--- TACKY ---\n%s", comp.TACKY().Function.String())
	}

	//
	// If we're not compiling the assembly-language text which was
	// produced then we just write the program to STDOUT, and terminate.
	//
	if !*compileFlag {
		fmt.Printf("%s", out)
		return
	}

	//
	// OK we're compiling the program, via gcc.
	//
	log.WithField("binary", *program).Debug("invoking gcc")
	gcc := exec.Command("gcc", "-static", "-o", *program, "-x", "assembler", "-")
	gcc.Stdout = os.Stdout
	gcc.Stderr = os.Stderr

	//
	// We'll pipe our generated-program to STDIN of gcc, via a
	// temporary buffer-object.
	//
	var b bytes.Buffer
	b.Write([]byte(out))
	gcc.Stdin = &b

	//
	// Run gcc.
	//
	err = gcc.Run()
	if err != nil {
		fmt.Printf("Error launching gcc: %s\n", err)
		os.Exit(1)
	}

	//
	// Running the binary too?
	//
	if *run {
		log.WithField("binary", *program).Debug("running compiled binary")
		exe := exec.Command(*program)
		exe.Stdout = os.Stdout
		exe.Stderr = os.Stderr
		err = exe.Run()
		if err != nil {
			fmt.Printf("Error launching %s: %s\n", *program, err)
			os.Exit(1)
		}
	}
}
