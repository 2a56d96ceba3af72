// Package debugdump renders arbitrary pipeline values (asset graphs,
// arena stats, atlas bridge declarations) as structured text for logs and
// the inspect server's /dump route.
package debugdump

import (
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"
)

var config *spew.ConfigState

func init() {
	config = spew.NewDefaultConfig()
	config.DisableCapacities = true
	config.DisableMethods = true
}

// Sdump returns a's structured text representation.
func Sdump(a ...interface{}) string {
	return config.Sdump(a...)
}

// Println writes a's structured text representation to stdout.
func Println(a ...interface{}) {
	fmt.Println(config.Sdump(a...))
}

// Log writes a's structured text representation through the standard
// logger, for use alongside the rest of the package's log.Printf calls.
func Log(a ...interface{}) {
	log.Println(config.Sdump(a...))
}
