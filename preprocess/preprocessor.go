// Command preprocess bakes the matcher definitions in a directory into the Go
// table served by cleanurl.Builtin. It is run through go generate:
//
//	go generate github.com/getlantern/cleanurl
package main

import (
	"flag"

	"github.com/getlantern/cleanurl"
	"github.com/getlantern/golog"
)

var (
	dir = flag.String("dir", "matchers", "directory holding matcher definitions")
	out = flag.String("out", "builtin_matchers.go", "file to write the generated table to")
)

func main() {
	flag.Parse()
	log := golog.LoggerFor("cleanurl-preprocess")
	if err := cleanurl.Preprocessor.Preprocess(*dir, *out); err != nil {
		log.Fatal(err)
	}
}
