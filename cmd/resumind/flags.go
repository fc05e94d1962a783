package main

import (
	"errors"
	"flag"
	"io"
	"time"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/config"
)

var errUsage = errors.New("usage: resumind [-api URL] [-jd FILE] [-timeout D] [-v] <resume-file>")

type options struct {
	APIURL  string
	JDPath  string
	Timeout time.Duration
	Verbose bool
	File    string
}

// parseFlags reads the command line. Unset flags fall back to cfg, which has
// already absorbed the environment.
func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("resumind", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.APIURL, "api", cfg.API.URL, "Analysis API base URL (or RESUMIND_API_URL)")
	fs.StringVar(&opts.JDPath, "jd", "", "Job description file; compares instead of analysing")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "Give up after this long (0 waits until done or interrupted)")
	fs.BoolVar(&opts.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		return options{}, errUsage
	}
	opts.File = fs.Arg(0)

	if opts.Timeout < 0 {
		return options{}, errors.New("timeout cannot be negative")
	}
	return opts, nil
}
