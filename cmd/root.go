package cmd

import (
	"fmt"
	"os"

	"github.com/forwardcom-toolchain/fwcas/cmd/asm"
	"github.com/forwardcom-toolchain/fwcas/cmd/dump"
	"github.com/forwardcom-toolchain/fwcas/cmd/formats"
	"github.com/forwardcom-toolchain/fwcas/cmd/tools"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "fwcas",
	Short: "ForwardCom binary-toolchain assembler",
	Long: `fwcas is the assembler core of a ForwardCom binary toolchain: it compiles
high-level structured assembly into relocatable object files in the
ForwardCom ELF variant, and ships diagnostic tooling over the instruction
format table and the object model.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). The process exit code is
// the worst-severity diagnostic number of the run, per the toolchain's
// error-handling contract.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(asm.ExitCode())
}

func init() {
	RootCmd.AddCommand(asm.AsmCmd, dump.DumpCmd, formats.FormatsCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	pf := RootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.fwcas.yaml)")
	pf.IntP("opt", "O", 1, "optimization level (0 disables jump merging)")
	pf.BoolP("verbose", "v", false, "verbose run logging")
	pf.String("trace-file", "", "append a JSON debug trace of the run to this file")
	pf.IntSlice("wd", nil, "disable warning numbers")
	pf.IntSlice("we", nil, "promote warning numbers to errors")
	pf.IntSlice("ed", nil, "demote error numbers to warnings")
	pf.IntSlice("ew", nil, "demote error numbers to warnings (alias kept for source compatibility)")

	viper.BindPFlag("opt", pf.Lookup("opt"))
	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("trace-file", pf.Lookup("trace-file"))
	viper.BindPFlag("wd", pf.Lookup("wd"))
	viper.BindPFlag("we", pf.Lookup("we"))
	viper.BindPFlag("ed", pf.Lookup("ed"))
	viper.BindPFlag("ew", pf.Lookup("ew"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".fwcas")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
