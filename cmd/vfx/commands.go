package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/therealutkarshpriyadarshi/vfx/internal/engine"
	"github.com/therealutkarshpriyadarshi/vfx/internal/storage"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// commonFlags are shared by every command that runs the engine
type commonFlags struct {
	configPath string
	publish    bool
	params     paramFlags
}

func (c *commonFlags) register(fs *flag.FlagSet, withParams bool) {
	fs.StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file (env CONFIG_PATH)")
	if withParams {
		fs.BoolVar(&c.publish, "publish", false, "upload outputs to the configured object store")
		fs.Var(&c.params, "p", "effect parameter as key=value; repeatable")
		fs.Func("params", "effect parameters as a JSON object", c.params.setJSON)
	}
}

func newFlagSet(name, args string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: vfx %s [flags] %s\n\nFlags:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func runApply(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("apply", "<source> <effect> <destination>", stderr)
	common.register(fs, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return errUsage
	}

	effect, err := models.ParseEffectType(fs.Arg(1))
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{configPath: common.configPath, publish: common.publish})
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.engine.ApplyEffect(ctx, fs.Arg(0), effect, fs.Arg(2), common.params.values)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)

	if a.store != nil {
		published, err := a.store.Publish(ctx, out)
		if err != nil {
			return err
		}
		if published.URL != "" {
			fmt.Fprintln(stdout, published.URL)
		}
	}
	return nil
}

// batchReport is printed after a batch run
type batchReport struct {
	*models.BatchResult
	Published []*storage.Published `json:"published,omitempty"`
}

func runBatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common commonFlags
		name   string
		outDir string
	)
	fs := newFlagSet("batch", "-effect <effect> -out <dir> <source>...", stderr)
	common.register(fs, true)
	fs.StringVar(&name, "effect", "", "effect identifier")
	fs.StringVar(&outDir, "out", "", "destination directory, created when missing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if name == "" || outDir == "" || fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	effect, err := models.ParseEffectType(name)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{configPath: common.configPath, publish: common.publish})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.BatchApplyResult(ctx, fs.Args(), effect, outDir, common.params.values)
	if err != nil {
		return err
	}

	report := batchReport{BatchResult: result}
	if a.store != nil {
		for _, out := range result.Outputs() {
			published, err := a.store.Publish(ctx, out)
			if err != nil {
				a.logger.WithField("output", out).ErrorWithErr("Failed to publish output", err)
				continue
			}
			report.Published = append(report.Published, published)
		}
	}

	if err := writeJSON(stdout, report); err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d items failed", len(result.Failed), fs.NArg())
	}
	return nil
}

func runInfo(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("info", "<source>", stderr)
	common.register(fs, false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	a, err := newApp(ctx, appOptions{configPath: common.configPath})
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.engine.VideoInfo(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return writeJSON(stdout, info)
}

func runEffects(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("effects", "", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EFFECT\tSTRATEGY")
	for _, effect := range models.AllEffects() {
		fmt.Fprintf(w, "%s\t%s\n", effect, engine.StrategyOf(effect))
	}
	return w.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
