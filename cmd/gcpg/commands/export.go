package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cpg/internal/config"
	"github.com/l3aro/go-cpg/internal/scanner"
	"github.com/l3aro/go-cpg/pkg/cache"
	"github.com/l3aro/go-cpg/pkg/graph"
	"github.com/l3aro/go-cpg/pkg/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Lower a file or directory into a SQLite database",
	Long: `Lowers every C/C++ source under the given path and writes the flattened
graphs to a SQLite database. Unchanged files are served from the content-hash
cache when it is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = cfg.DBPath
		}

		files, err := collectFiles(root)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no C/C++ sources found under %s", root)
		}

		exports, err := lowerAll(files, cfg)
		if err != nil {
			return err
		}

		if err := store.WriteDB(dbPath, exports); err != nil {
			return fmt.Errorf("writing database: %w", err)
		}

		stats, err := store.ReadStats(dbPath)
		if err != nil {
			return fmt.Errorf("reading back database: %w", err)
		}
		fmt.Printf("Wrote %s: %d units, %d nodes, %d edges\n", dbPath, len(exports), stats.Nodes, stats.Edges)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("db", "", "SQLite output path (defaults to config db_path)")
}

func collectFiles(root string) ([]scanner.FileInfo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	if !info.IsDir() {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		return []scanner.FileInfo{{Path: filepath.Base(root), FullPath: abs, Size: info.Size()}}, nil
	}

	files, err := scanner.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

func lowerAll(files []scanner.FileInfo, cfg *config.Config) ([]*graph.Export, error) {
	var exportCache *cache.ExportCache
	cachePath := filepath.Join(cfg.CacheDir, "units.msgpack")
	if cfg.CacheEnabled {
		exportCache = cache.New(cache.Options{MaxSize: cfg.CacheMaxEntries})
		if err := exportCache.LoadFile(cachePath); err != nil {
			// a corrupt cache is rebuilt, not fatal
			exportCache.Clear()
		}
	}

	var exports []*graph.Export
	for _, file := range files {
		source, err := os.ReadFile(file.FullPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.FullPath, err)
		}

		key := cache.Key(source)
		if exportCache != nil {
			if cached, found := exportCache.Get(key); found {
				exports = append(exports, cached)
				continue
			}
		}

		export, err := lowerFile(file.FullPath, cfg)
		if err != nil {
			return nil, err
		}
		exports = append(exports, export)

		if exportCache != nil {
			exportCache.Set(key, export)
		}
	}

	if exportCache != nil {
		if err := exportCache.SaveFile(cachePath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save cache: %v\n", err)
		}
	}

	return exports, nil
}
