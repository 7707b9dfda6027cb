package main

import (
	"github.com/vicmap/vmimport/cmd"
)

func main() {
	cmd.Execute()
}
