package main

import (
	"github.com/sirrobot01/porlarr/pkg/cli"
	_ "github.com/sirrobot01/porlarr/pkg/cli/commands"
	"log"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("FATAL: Recovered from panic in main: %v\n", r)
			debug.PrintStack()
		}
	}()
	cli.Main()
}
