package main

import (
	"fmt"
	"os"

	"github.com/ubuntu/screenlock/internal/testsdetection"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			os.Exit(2)
		}
	}()
	testsdetection.MustBeTesting()
}
