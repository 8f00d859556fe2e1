package main

import (
	"github.com/forwardcom-toolchain/fwcas/cmd"
)

func main() {
	cmd.Execute()
}
