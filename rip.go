package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/willie68/go_tilerip/internal/codec"
	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/page"
	"github.com/willie68/go_tilerip/internal/probe"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/pkg/fileutils"
)

const (
	defaultName = "tilerip"
	stdout      = "-"
)

// ripJob one reference to rip
type ripJob struct {
	ref    string
	zoom   int
	output string
	format string
}

// ripSummary what a successful rip wrote
type ripSummary struct {
	target  string
	format  string
	grid    ripper.Grid
	width   int
	height  int
	written int
}

func runRips(inj do.Injector, refs []string) int {
	if len(refs) == 0 {
		fmt.Fprint(os.Stderr, "no reference given.\n\n")
		flag.Usage()
		return 1
	}
	if len(refs) > 1 && (output == stdout || (output != "" && !fileutils.IsDir(output))) {
		log.Errorf("output must be a directory when ripping %d references", len(refs))
		return 1
	}
	ctx, stop := signalContext()
	defer stop()

	rp := do.MustInvoke[*ripper.Ripper](inj)
	res := do.MustInvoke[*page.Resolver](inj)
	code := 0
	for _, ref := range refs {
		job := ripJob{ref: ref, zoom: zoom, output: output, format: format}
		var obs ripper.Observer
		var pb *progress
		if showProgress && isatty.IsTerminal(os.Stderr.Fd()) {
			pb = newProgress(ref)
			obs = pb
		}
		sum, err := rip(ctx, res, rp, job, obs, os.Stdout)
		if pb != nil {
			pb.close()
		}
		if err != nil {
			log.Errorf("rip of %s failed: %v", ref, err)
			code = 1
			continue
		}
		log.Infof("%s: zoom %d, %dx%d tiles, %dx%d pixel, %s written to %s", ref, sum.grid.Zoom,
			sum.grid.Dimensions.Columns, sum.grid.Dimensions.Rows, sum.width, sum.height,
			humanize.Bytes(uint64(sum.written)), sum.target)
	}
	return code
}

// rip resolves, rips and encodes one reference. The output is only written after the image is
// completely encoded.
func rip(ctx context.Context, res *page.Resolver, rp *ripper.Ripper, job ripJob, obs ripper.Observer, out io.Writer) (*ripSummary, error) {
	it, err := res.Resolve(ctx, job.ref)
	if err != nil {
		return nil, err
	}
	f, err := outputFormat(job)
	if err != nil {
		return nil, err
	}
	target := outputTarget(job, it.Title, f)

	result, err := rp.Run(ctx, it.Base, job.zoom, obs)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, result.Image, f); err != nil {
		return nil, err
	}
	sum := &ripSummary{
		target:  target,
		format:  f,
		grid:    result.Grid,
		width:   result.Image.Bounds().Dx(),
		height:  result.Image.Bounds().Dy(),
		written: buf.Len(),
	}
	if target == stdout {
		if _, err := buf.WriteTo(out); err != nil {
			return nil, errors.Wrap(err, "writing to stdout")
		}
		return sum, nil
	}
	if err := fileutils.WriteFile(target, buf.Bytes()); err != nil {
		return nil, errors.Wrapf(err, "writing %s", target)
	}
	return sum, nil
}

// outputFormat format flag, then extension of the output file, then config
func outputFormat(job ripJob) (string, error) {
	if job.format != "" {
		return codec.ParseFormat(job.format)
	}
	if job.output != "" && job.output != stdout && !fileutils.IsDir(job.output) {
		if f, ok := codec.FormatFromPath(job.output); ok {
			return f, nil
		}
	}
	if f := config.Format(); f != "" {
		return codec.ParseFormat(f)
	}
	return codec.PNG, nil
}

func outputTarget(job ripJob, title, format string) string {
	name := fileutils.OutputName(title, defaultName, codec.Extension(format))
	switch {
	case job.output == "":
		return name
	case job.output == stdout:
		return stdout
	case fileutils.IsDir(job.output) || strings.HasSuffix(job.output, string(os.PathSeparator)):
		return filepath.Join(job.output, name)
	}
	return job.output
}

// progress shows the placed tiles on stderr
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(ref string) *progress {
	return &progress{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(ref),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *progress) OnGrid(_ string, zoom int, dim probe.Dimensions) {
	p.bar.ChangeMax(dim.Count())
	p.bar.Describe(fmt.Sprintf("zoom %d, %dx%d tiles", zoom, dim.Columns, dim.Rows))
}

func (p *progress) close() {
	if !p.bar.IsFinished() {
		_ = p.bar.Exit()
	}
}

func (p *progress) OnTile(_ string, _, _ int) {
	_ = p.bar.Add(1)
}
