package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/oracle"
	"github.com/johntango/milonga/internal/planner"
	"github.com/johntango/milonga/internal/repositories"
	"github.com/johntango/milonga/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	oracle     oracle.Oracle
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	store      *library.Store
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Oracle     oracle.Oracle
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		oracle:     opts.Oracle,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, planCommand, replaceCommand, libraryCommand, plansCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore loads the library file into a snapshot store, once per process.
func (r *Runner) openStore() (*library.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	if r.config.Library.Path == "" {
		return nil, fmt.Errorf("%w: library.path is not configured", shared.ErrMissingConfig)
	}
	store := library.NewStore(r.config.Library.Path, r.logger)
	if err := store.Load(); err != nil {
		return nil, err
	}
	r.store = store
	return store, nil
}

// openDB opens the plans database and applies pending migrations.
func (r *Runner) openDB() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) openPlans() (*repositories.PlanRepository, error) {
	db, err := r.openDB()
	if err != nil {
		return nil, err
	}
	return repositories.NewPlanRepository(db), nil
}

// buildOracle returns the configured oracle client, honoring an injected one.
func (r *Runner) buildOracle() oracle.Oracle {
	if r.oracle != nil {
		return r.oracle
	}
	client := oracle.NewClient(r.config.Oracle, r.logger)
	client.SetHTTPClient(r.httpClient)
	r.oracle = client
	return r.oracle
}

// buildEngine assembles the planning stack over the loaded library.
func (r *Runner) buildEngine() (*planner.Planner, *planner.Assembler, *library.Store, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, nil, nil, err
	}

	p := planner.NewPlanner(r.buildOracle(), rand.New(rand.NewSource(rand.Int63())), r.config.Oracle.MaxOriginRetries, r.logger)
	provider := library.NewPoolProvider(store, rand.New(rand.NewSource(rand.Int63())))
	assembler := planner.NewAssembler(p, provider, r.config.Plan, r.logger)
	return p, assembler, store, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
