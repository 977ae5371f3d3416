package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"razorforge/src/compiler"
	"razorforge/src/diag"
	"razorforge/src/util"
)

// run drives one compilation end to end and writes the resulting LLVM IR
// to the writer registered with util.ListenWrite. Behaviour is governed by
// the util.Options structure built from command-line flags.
func run(opt util.Options) error {
	res, err := compiler.Compile(opt.Src, opt.StdlibRoot, opt.ProjectRoot, opt.ExternalRoots, opt.Target)
	if err != nil {
		return fmt.Errorf("compile error: %s", err)
	}

	for _, d := range res.Diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if diag.HasErrors(res.Diags) {
		return fmt.Errorf("compilation failed with %d diagnostic(s)", len(res.Diags))
	}

	w := util.NewWriter()
	w.WriteString(res.LLVMIR)
	w.Close()
	return nil
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}
	if opt.Src == "" {
		fmt.Println("no source file given")
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	if len(opt.Out) > 0 {
		f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Println(err)
			}
		}()
		util.ListenWrite(f, &wg)
	} else {
		util.ListenWrite(nil, &wg)
	}
	defer util.Close()

	if err := run(opt); err != nil {
		logrus.Errorf("%s", err)
		wg.Wait()
		os.Exit(1)
	}

	wg.Wait()
}
