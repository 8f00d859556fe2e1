package asm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcelf"
	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var outputFile string

var exitCode int

// ExitCode reports the worst-severity diagnostic number of the last
// assembly run, the process exit code mandated by the error contract.
func ExitCode() int { return exitCode }

// AsmCmd represents the asm command
var AsmCmd = &cobra.Command{
	Use:   "asm program",
	Short: "Assemble a program into a ForwardCom object file",
	Long: `Assembles a structured program description into a relocatable object
file in the ForwardCom ELF variant. The program runs through the full
pipeline: control-flow compilation, condition reduction, jump merging,
instruction-format planning, and object-file layout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obj, reporter, err := Assemble(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		exitCode = reporter.ExitCode()
		if exitCode != 0 {
			return
		}

		out := outputFile
		if out == "" {
			out = strings.TrimSuffix(args[0], ".yaml") + ".ob"
		}
		file, err := os.Create(out)
		if err != nil {
			reporter.Report(fwcdiag.ErrCannotWrite, fwcdiag.Position{File: out}, out)
			os.Exit(int(fwcdiag.ErrCannotWrite))
		}
		defer file.Close()

		if err := obj.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		if err := fwcelf.WriteObject(file, obj); err != nil {
			reporter.Report(fwcdiag.ErrCannotWrite, fwcdiag.Position{File: out}, out)
			os.Exit(int(fwcdiag.ErrCannotWrite))
		}
	},
}

func init() {
	AsmCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output object file. Defaults to the input name with an .ob extension.")
}

// NewAssembler builds an assembler configured from the global flags.
func NewAssembler() (*fwcasm.Assembler, *fwcdiag.Reporter, error) {
	reporter := fwcdiag.NewReporter(os.Stderr)
	for _, n := range viper.GetIntSlice("wd") {
		reporter.Override(fwcdiag.Code(n), fwcdiag.SevIgnore)
	}
	for _, n := range viper.GetIntSlice("we") {
		reporter.Override(fwcdiag.Code(n), fwcdiag.SevError)
	}
	for _, n := range viper.GetIntSlice("ed") {
		reporter.Override(fwcdiag.Code(n), fwcdiag.SevWarning)
	}
	for _, n := range viper.GetIntSlice("ew") {
		reporter.Override(fwcdiag.Code(n), fwcdiag.SevWarning)
	}

	var trace *os.File
	if path := viper.GetString("trace-file"); path != "" {
		var err error
		trace, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
	}

	log := fwcasm.NewLogger(os.Stderr, traceWriter(trace), viper.GetBool("verbose"))

	a := fwcasm.New(
		fwcasm.WithReporter(reporter),
		fwcasm.WithOptimizationLevel(viper.GetInt("opt")),
		fwcasm.WithLogger(log))
	return a, reporter, nil
}

// traceWriter keeps the interface nil when no trace file is open.
func traceWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}

// Assemble loads and assembles one program file.
func Assemble(path string) (*fwcelf.Object, *fwcdiag.Reporter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, utils.MakeError(err, "cannot read %v", path)
	}
	program, err := Load(data)
	if err != nil {
		return nil, nil, utils.MakeError(err, "cannot parse %v", path)
	}

	a, reporter, err := NewAssembler()
	if err != nil {
		return nil, nil, err
	}

	obj, err := a.Run(program.Apply, fwcasm.DefaultPasses)
	if err != nil {
		return nil, nil, err
	}
	return obj, reporter, nil
}
