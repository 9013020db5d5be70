package main

import (
	"github.com/adamrehn/llvm-select/cmd/llvm-select/internal"
)

func main() {
	internal.Execute()
}
