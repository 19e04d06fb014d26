package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/config"
	"github.com/shopware/vuedoc/internal/entry"
	"github.com/shopware/vuedoc/internal/indexer"
	"github.com/shopware/vuedoc/internal/rpc"
	"github.com/shopware/vuedoc/internal/sfc"
)

type flags struct {
	configPath string
	features   []string
	ignore     []string
	cache      bool
	watch      bool
	output     string
	format     string
	serve      bool
}

func main() {
	log.SetFlags(0)

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "vuedoc [files...]",
		Short: "Generate documentation for Vue components",
		Long: `vuedoc extracts the props, data, computed properties, methods, events,
slots and models of Vue components from their source code and comments.

Without files, every component of the project is documented. The results
are cached per project and only changed files are parsed again.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			switch {
			case f.serve:
				return serve(cfg)
			case len(args) > 0 && f.watch:
				return errors.New("--watch documents the whole project and takes no files")
			case len(args) > 0:
				return documentFiles(cmd, cfg, args)
			default:
				return documentProject(cmd.Context(), cmd, cfg, f.watch)
			}
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", config.FileName, "configuration file")
	cmd.Flags().StringSliceVar(&f.features, "features", nil, "entry kinds to extract (default all)")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "visibilities to leave out (default private)")
	cmd.Flags().BoolVar(&f.cache, "cache", true, "cache documentation between runs")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "keep documenting the project as files change")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "directory receiving one file per component (default stdout)")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: json or pretty")
	cmd.Flags().BoolVar(&f.serve, "serve", false, "serve documentation over JSON-RPC on stdio")

	return cmd
}

// loadConfig reads the configuration file and applies the flags given on
// the command line on top of it.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("features") {
		cfg.Features = f.features
	}
	if cmd.Flags().Changed("ignore") {
		cfg.Ignore = f.ignore
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Enabled = f.cache
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = f.output
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = f.format
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func documentFiles(cmd *cobra.Command, cfg *config.Config, files []string) error {
	loader, err := sfc.NewLoader()
	if err != nil {
		return err
	}
	defer loader.Close()

	out, err := newOutputWriter(cfg.Output.Dir, cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	opts := cfg.Options()
	var failed bool
	for _, file := range files {
		doc, err := extract(loader, file, opts)
		if err != nil {
			log.Printf("%s: %v", file, err)
			failed = true
			continue
		}
		if err := out.Write(file, doc); err != nil {
			return err
		}
	}
	if failed {
		return errors.New("some files could not be documented")
	}
	return nil
}

func extract(loader *sfc.Loader, file string, opts component.Options) (*entry.Documentation, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return loader.Extract(file, content, opts)
}

// project holds the scanner and documentation cache of the working
// directory.
type project struct {
	root    string
	scanner *indexer.FileScanner
	docs    *indexer.DocIndexer
	cleanup func()
}

func openProject(cfg *config.Config) (*project, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cacheDir, cleanup, err := cacheFolder(cfg, root)
	if err != nil {
		return nil, err
	}

	docs, err := indexer.NewDocIndexer(filepath.Join(cacheDir, "docs.db"), cfg.Options())
	if err != nil {
		cleanup()
		return nil, err
	}
	scanner, err := indexer.NewFileScanner(root, filepath.Join(cacheDir, "files.db"))
	if err != nil {
		_ = docs.Close()
		cleanup()
		return nil, err
	}
	scanner.AddIndexer(docs)

	return &project{root: root, scanner: scanner, docs: docs, cleanup: cleanup}, nil
}

func (p *project) Close() error {
	err := p.scanner.Close()
	p.cleanup()
	return err
}

// cacheFolder returns the cache directory of the project. Without caching
// a temporary directory is used for the run.
func cacheFolder(cfg *config.Config, root string) (string, func(), error) {
	if !cfg.Cache.Enabled {
		dir, err := os.MkdirTemp("", "vuedoc")
		if err != nil {
			return "", nil, err
		}
		return dir, func() { _ = os.RemoveAll(dir) }, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = getProjectConfigFolder(root); err != nil {
			return "", nil, err
		}
	}

	cleared, err := indexer.CheckAndMigrateCache(dir)
	if err != nil {
		return "", nil, err
	}
	if cleared {
		log.Printf("[indexer] cache at %s was rebuilt for version %d", dir, indexer.CacheVersion)
	}
	return dir, func() {}, nil
}

func documentProject(ctx context.Context, cmd *cobra.Command, cfg *config.Config, watch bool) error {
	p, err := openProject(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error closing cache: %v", err)
		}
	}()

	out, err := newOutputWriter(cfg.Output.Dir, cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := p.scanner.IndexAll(ctx); err != nil {
		return err
	}

	components, err := p.docs.All()
	if err != nil {
		return err
	}
	for _, c := range components {
		if err := out.Write(c.Path, &c.Documentation); err != nil {
			return err
		}
	}
	if !watch {
		return nil
	}

	p.scanner.SetOnUpdate(func(paths []string) {
		for _, path := range paths {
			if err := writeComponent(p.docs, out, path); err != nil {
				log.Printf("%s: %v", path, err)
			}
		}
	})
	if err := p.scanner.StartWatcher(); err != nil {
		return err
	}
	log.Printf("watching %s for changes", p.root)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

// writeComponent writes the cached documentation of path, or removes it
// when the file is gone.
func writeComponent(docs *indexer.DocIndexer, out *outputWriter, path string) error {
	c, ok, err := docs.Get(path)
	if err != nil {
		return err
	}
	if !ok {
		return out.Remove(path)
	}
	return out.Write(c.Path, &c.Documentation)
}

func serve(cfg *config.Config) error {
	p, err := openProject(cfg)
	if err != nil {
		return err
	}
	defer p.cleanup()

	server, err := rpc.NewServer(p.scanner, p.docs, cfg.Options())
	if err != nil {
		_ = p.scanner.Close()
		return err
	}
	defer func() {
		if err := server.CloseAll(); err != nil {
			log.Printf("error closing server: %v", err)
		}
	}()

	if err := server.Start(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("rpc server error: %w", err)
	}
	return nil
}
