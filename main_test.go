package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"workshop": root,
	}))
}

// TestWorkshop tests workshop end-to-end using testscript.
// Check out the package from "import" to learn more.
func TestWorkshop(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
