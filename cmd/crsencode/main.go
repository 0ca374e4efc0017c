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
	"strconv"

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
	myApp.Name = "crsencode"
	myApp.Usage = "split a file into N Cauchy Reed-Solomon chunks, any K of which reconstruct it"
	myApp.Version = VERSION
	myApp.ArgsUsage = "INPUT CHUNK_SIZE OUT1 OUT2 ... OUTN"
	myApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress the CRS(N, K) progress line",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		args := c.Args()
		if len(args) < 3 {
			return cli.NewExitError("usage: crsencode INPUT CHUNK_SIZE OUT1 OUT2 ... OUTN", 1)
		}

		inputName := args.Get(0)
		chunkSize, err := strconv.Atoi(args.Get(1))
		checkError(errors.Wrap(err, "parsing CHUNK_SIZE"))

		outputNames := []string(args)[2:]

		input, err := os.Open(inputName)
		checkError(errors.Wrapf(err, "opening %q", inputName))
		defer input.Close()

		info, err := input.Stat()
		checkError(errors.Wrapf(err, "stat %q", inputName))

		params, err := driver.PlanEncode(int(info.Size()), chunkSize, len(outputNames))
		checkError(err)

		if !c.Bool("quiet") {
			log.Println(driver.ProgressLine(len(outputNames), params.K))
		}

		outputs := make([]io.Writer, len(outputNames))
		files := make([]*os.File, len(outputNames))
		for i, name := range outputNames {
			f, err := os.Create(name)
			checkError(errors.Wrapf(err, "opening %q for writing", name))
			files[i] = f
			outputs[i] = f
		}
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()

		session := driver.NewSession()
		if err := session.Encode(input, params, outputs); err != nil {
			for _, f := range files {
				f.Close()
			}
			checkError(err)
		}

		for _, f := range files {
			if err := f.Close(); err != nil {
				checkError(errors.Wrapf(err, "closing %q", f.Name()))
			}
		}
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
