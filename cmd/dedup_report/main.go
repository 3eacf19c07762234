// dedup_report - анализ дубликатов CSV-выгрузки из командной строки
//
// Использование:
//
//	dedup_report analyze --input customers.csv --name "Customer Name" --city City
//	dedup_report show --db reports.db --run <run_id>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"dedupserver/database"
	"dedupserver/quality"
	"dedupserver/server"
)

func main() {
	app := &cli.App{
		Name:  "dedup_report",
		Usage: "Поиск дубликатов в мастер-данных клиентов",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			showCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Найти дубликаты в CSV файле",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to CSV file with header row",
				Required: true,
			},
			&cli.StringFlag{Name: "name", Usage: "Column with customer name"},
			&cli.StringFlag{Name: "address", Usage: "Column with address"},
			&cli.StringFlag{Name: "city", Usage: "Column with city"},
			&cli.StringFlag{Name: "country", Usage: "Column with country"},
			&cli.StringFlag{Name: "tpi", Usage: "Column with third-party identifier"},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "json",
				Usage:   "Output format (json, yaml)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write report to file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "sqlite-out",
				Usage: "Also save report to SQLite database",
			},
			&cli.IntFlag{
				Name:    "workers",
				Value:   0,
				Usage:   "Parallel block workers (0 = number of CPUs)",
				EnvVars: []string{"DEDUP_WORKERS"},
			},
			&cli.BoolFlag{
				Name:    "fold-diacritics",
				Usage:   "Strip diacritics before comparison",
				EnvVars: []string{"DEDUP_FOLD_DIACRITICS"},
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	logger, err := server.NewLogger(c.String("log-level"), "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	format := strings.ToLower(c.String("format"))
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q", format)
	}

	inputPath := c.String("input")
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	table, err := quality.ReadCSVTable(file)
	if err != nil {
		return err
	}

	mapping := quality.FieldMapping{
		CustomerName: c.String("name"),
		Address:      c.String("address"),
		City:         c.String("city"),
		Country:      c.String("country"),
		TPI:          c.String("tpi"),
	}

	analyzer := quality.NewDuplicateAnalyzer(logger, quality.Options{
		Workers:        c.Int("workers"),
		FoldDiacritics: c.Bool("fold-diacritics"),
	})

	report, err := analyzer.Analyze(c.Context, table, mapping)
	if err != nil {
		return err
	}

	if dbPath := c.String("sqlite-out"); dbPath != "" {
		if err := saveReport(c.Context, dbPath, report, filepath.Base(inputPath)); err != nil {
			return err
		}
		logger.Info("report saved", zap.String("db", dbPath), zap.String("run_id", report.RunID))
	}

	out := io.Writer(os.Stdout)
	if outputPath := c.String("output"); outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return writeReport(out, report, format)
}

func saveReport(ctx context.Context, dbPath string, report *quality.Report, source string) error {
	db, err := database.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.SaveReport(ctx, report, source); err != nil {
		return err
	}
	return nil
}

// writeReport пишет отчет в формате json или yaml
func writeReport(w io.Writer, report *quality.Report, format string) error {
	switch format {
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Показать дубликаты сохраненного запуска",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Path to SQLite report database",
				Required: true,
				EnvVars:  []string{"REPORT_DATABASE_PATH"},
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Run ID (latest run by default)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Value: 500,
				Usage: "Rows per database read",
			},
		},
		Action: func(c *cli.Context) error {
			db, err := database.NewDB(c.String("db"))
			if err != nil {
				return err
			}
			defer db.Close()

			return showRun(os.Stdout, db, c.String("run"), c.Int("batch-size"))
		},
	}
}

// showRun печатает группы запуска: строку мастер-записи и ее дубликаты
func showRun(w io.Writer, db *database.DB, runUUID string, batchSize int) error {
	var run *database.AnalysisRun
	var err error
	if runUUID == "" {
		run, err = db.GetLatestRun()
	} else {
		run, err = db.GetRunByUUID(runUUID)
	}
	if errors.Is(err, database.ErrRunNotFound) {
		return fmt.Errorf("no saved run found: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s (%s): %d records, %d groups, %d duplicates\n",
		run.RunUUID, run.Source, run.TotalRecords, run.DuplicateGroupCount, run.TotalPotentialDuplicates)

	groups, err := db.GetGroups(run.ID)
	if err != nil {
		return err
	}
	masters := make(map[int]*database.StoredGroup, len(groups))
	for _, g := range groups {
		masters[g.Rank] = g
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tROLE\tROW\tNAME\tCITY\tSCORE\tMETHOD\tLOW")

	// строка мастер-записи печатается перед первым дубликатом группы,
	// SCORE для нее - AvgSimilarity группы
	currentRank := 0
	err = db.StreamDuplicateRecords(run.ID, batchSize, func(batch []*database.StoredDuplicate) error {
		for _, d := range batch {
			if d.GroupRank != currentRank {
				currentRank = d.GroupRank
				if g, ok := masters[currentRank]; ok {
					fmt.Fprintf(tw, "%d\tmaster\t%d\t%s\t%s\t%d\t-\t%t\n",
						g.Rank, g.ExcelRow, g.CustomerName, g.City, g.AvgSimilarity, g.IsLowConfidenceGroup)
				}
			}
			fmt.Fprintf(tw, "%d\tduplicate\t%d\t%s\t%s\t%d\t%s\t%t\n",
				d.GroupRank, d.ExcelRow, d.CustomerName, d.City, d.OverallScore, d.MatchMethod, d.IsLowConfidence)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}
