package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/nonsonwune/lmsconnector/config"
	"github.com/nonsonwune/lmsconnector/importer"
	"github.com/nonsonwune/lmsconnector/migrations"
	"github.com/nonsonwune/lmsconnector/models"
	"github.com/nonsonwune/lmsconnector/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lmsconnector",
		Usage: "Load OULAD learning analytics extracts into PostgreSQL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Store backend (postgres or pgx), overrides STORE_DRIVER",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import one or more CSV files",
				ArgsUsage: "[entity=]FILE...",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "entity",
						Aliases: []string{"e"},
						Usage:   "Entity type for files given without an entity= prefix",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows per INSERT statement, overrides BATCH_SIZE",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Files imported concurrently, overrides WORKER_COUNT",
					},
					&cli.StringFlag{
						Name:  "reject-dir",
						Usage: "Directory for rejection reports, overrides REJECT_DIR",
					},
				},
			},
			{
				Name:   "entities",
				Usage:  "List entity types, their tables and load strategies",
				Action: entitiesCommand,
			},
			{
				Name:   "check",
				Usage:  "Verify every entity table, its columns and its natural key constraint",
				Action: checkCommand,
			},
			{
				Name:   "schema",
				Usage:  "Print the reference DDL",
				Action: schemaCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show row counts for every entity table",
				Action: statsCommand,
			},
			{
				Name:   "preview",
				Usage:  "Show a page of stored rows",
				Action: previewCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "entity",
						Aliases:  []string{"e"},
						Usage:    "Entity type to list",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: fmt.Sprintf("Rows per page (max %d)", store.MaxPageSize),
						Value: 20,
					},
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if d := c.String("driver"); d != "" {
		cfg.Driver = strings.ToLower(d)
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("workers") {
		cfg.WorkerCount = c.Int("workers")
	}
	if c.IsSet("reject-dir") {
		cfg.RejectDir = c.String("reject-dir")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Driver, cfg.DatabaseURL, cfg.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return st, nil
}

// parseJobs turns "entity=path" and bare path arguments into import jobs.
func parseJobs(args []string, defaultEntity string) ([]importer.Job, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no files given")
	}
	jobs := make([]importer.Job, 0, len(args))
	for _, arg := range args {
		selector, path := defaultEntity, arg
		if name, rest, ok := strings.Cut(arg, "="); ok {
			if _, err := os.Stat(arg); err != nil {
				selector, path = name, rest
			}
		}
		if selector == "" {
			return nil, fmt.Errorf("%s: no entity type (use --entity or entity=%s)", arg, filepath.Base(arg))
		}
		entity, err := models.ParseEntity(selector)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		jobs = append(jobs, importer.Job{Entity: entity, Path: path})
	}
	return jobs, nil
}

func importCommand(c *cli.Context) error {
	jobs, err := parseJobs(c.Args().Slice(), c.String("entity"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := migrations.VerifySchema(c.Context, st.DB()); err != nil {
		color.Yellow("Warning: %v", err)
	}

	im := importer.New(st, importer.OptionsFromConfig(cfg))
	outcomes, err := im.ImportAll(c.Context, jobs, cfg.WorkerCount)
	if err != nil {
		return err
	}

	printOutcomes(outcomes)

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			color.Red("%s: %v", o.Job.Path, o.Err)
			continue
		}
		if o.Run.RejectFile != "" {
			color.Yellow("%s: rejected rows saved to %s", o.Job.Path, o.Run.RejectFile)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(outcomes))
	}
	color.Green("Import completed successfully!")
	return nil
}

func printOutcomes(outcomes []importer.Outcome) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "Entity", "Table", "State", "Read", "Accepted", "Rejected", "Duplicates", "Inserted", "Skipped", "Time"})

	for _, o := range outcomes {
		row := []string{filepath.Base(o.Job.Path), string(o.Job.Entity)}
		if o.Run == nil {
			row = append(row, "", "failed", "", "", "", "", "", "", "")
			table.Append(row)
			continue
		}
		s := o.Run.Stats
		row = append(row,
			o.Run.Table,
			string(o.Run.State),
			strconv.Itoa(s.Read),
			strconv.Itoa(s.Accepted),
			strconv.Itoa(s.Rejected),
			strconv.Itoa(s.Duplicates),
			strconv.FormatInt(s.Inserted, 10),
			strconv.FormatInt(s.Skipped, 10),
			o.Run.Duration().Round(time.Millisecond).String(),
		)
		table.Append(row)
	}
	table.Render()
}

func entitiesCommand(c *cli.Context) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entity", "Table", "Strategy", "Natural Key", "Aliases"})
	for _, e := range models.Entities() {
		s, _ := models.Lookup(e)
		table.Append([]string{
			string(e),
			s.Table,
			string(s.Strategy),
			strings.Join(s.Key, ", "),
			strings.Join(models.Aliases(e), ", "),
		})
	}
	table.Render()
	return nil
}

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	statuses, err := migrations.CheckSchema(c.Context, st.DB())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entity", "Table", "Status", "Key Constraint"})
	bad := 0
	for _, s := range statuses {
		status := "ok"
		if !s.OK() {
			status = s.Problem()
			bad++
		}
		table.Append([]string{string(s.Entity), s.Table, status, s.KeyConstraint})
	}
	table.Render()

	if bad > 0 {
		color.Yellow("Run `lmsconnector schema` for the reference DDL.")
		return fmt.Errorf("%d of %d tables are not ready", bad, len(statuses))
	}
	color.Green("All entity tables are ready.")
	return nil
}

func schemaCommand(c *cli.Context) error {
	fmt.Print(migrations.Schema())
	return nil
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	color.Cyan("\nRow counts")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entity", "Table", "Rows"})
	for _, e := range models.Entities() {
		s, _ := models.Lookup(e)
		n, err := st.Count(c.Context, s.Table)
		if err != nil {
			log.Printf("Error counting %s: %v", s.Table, err)
			table.Append([]string{string(e), s.Table, "N/A"})
			continue
		}
		table.Append([]string{string(e), s.Table, strconv.FormatInt(n, 10)})
	}
	table.Render()
	return nil
}

func previewCommand(c *cli.Context) error {
	entity, err := models.ParseEntity(c.String("entity"))
	if err != nil {
		return err
	}
	size := c.Int("size")
	if size <= 0 || size > store.MaxPageSize {
		return fmt.Errorf("size must be between 1 and %d", store.MaxPageSize)
	}
	page := c.Int("page")
	if page < 1 {
		page = 1
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List(c.Context, entity, size, (page-1)*size)
	if err != nil {
		return err
	}

	schema, _ := models.Lookup(entity)
	color.Cyan("\n%s, page %d", schema.Table, page)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(schema.Columns)
	for _, rec := range records {
		values := rec.Values()
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = displayValue(v)
		}
		table.Append(row)
	}
	table.Render()
	if len(records) == 0 {
		color.Yellow("No rows.")
	}
	return nil
}

// displayValue renders a column value for terminal output.
func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "N/A"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case sql.NullString:
		if x.Valid {
			return x.String
		}
		return "N/A"
	case sql.NullInt64:
		if x.Valid {
			return strconv.FormatInt(x.Int64, 10)
		}
		return "N/A"
	case sql.NullFloat64:
		if x.Valid {
			return strconv.FormatFloat(x.Float64, 'f', -1, 64)
		}
		return "N/A"
	}
	return fmt.Sprint(v)
}
