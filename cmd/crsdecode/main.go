// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/crstun/crstun/internal/driver"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "crsdecode"
	myApp.Usage = "reconstruct a file from K or more Cauchy Reed-Solomon chunks"
	myApp.Version = VERSION
	myApp.ArgsUsage = "OUTPUT IN1 IN2 ... INM"
	myApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress per-chunk skip warnings",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		args := c.Args()
		if len(args) < 2 {
			return cli.NewExitError("usage: crsdecode OUTPUT IN1 IN2 ... INM", 1)
		}

		outputName := args.Get(0)
		inputNames := []string(args)[1:]

		inputFiles := make([]*os.File, len(inputNames))
		for i, name := range inputNames {
			f, err := os.Open(name)
			checkError(errors.Wrapf(err, "opening %q for reading", name))
			inputFiles[i] = f
		}
		defer func() {
			for _, f := range inputFiles {
				f.Close()
			}
		}()

		inputs := make([]io.Reader, len(inputFiles))
		for i, f := range inputFiles {
			inputs[i] = f
		}

		var output io.Writer
		if outputName == "-" {
			output = os.Stdout
		} else {
			f, err := os.Create(outputName)
			checkError(errors.Wrapf(err, "opening %q for writing", outputName))
			defer f.Close()
			output = f
		}

		session := driver.NewSession()
		result, err := session.Decode(output, inputs, inputNames)
		if !c.Bool("quiet") {
			for _, s := range result.Skipped {
				color.Red("skipping %q: %s", s.Name, s.Reason)
			}
		}
		checkError(err)
		return nil
	}

	if err := myApp.Run(os.Args); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}
