package migration

import (
	"context"
	"errors"
	"time"

	"github.com/SusheelSathyaraj/ClicomImport/config"
	"github.com/SusheelSathyaraj/ClicomImport/database"
	"github.com/SusheelSathyaraj/ClicomImport/monitoring"
	"github.com/SusheelSathyaraj/ClicomImport/validation"
	"github.com/rs/zerolog"
)

// Importer copies CLIENT, PRODUIT and COMMANDE (with nested DETAIL rows)
// from the source into the target, one step after the other.
type Importer struct {
	Options config.ImportConfig
	Source  database.SourceDatabase
	Target  database.TargetDatabase
	Log     zerolog.Logger
	Tracker *monitoring.ProgressTracker
}

// Results of one import run
type ImportResult struct {
	Success    bool
	DryRun     bool
	Counts     map[string]int
	Validation []validation.ValidationResult
	Errors     []string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

func NewImporter(opts config.ImportConfig, source database.SourceDatabase, target database.TargetDatabase, log zerolog.Logger) *Importer {
	return &Importer{
		Options: opts,
		Source:  source,
		Target:  target,
		Log:     log,
	}
}

// Run performs the whole import. Nothing already inserted is undone when a
// step fails, and both connections are closed on every return path. A failed
// step is returned as *StepError together with the partial result.
func (im *Importer) Run(ctx context.Context) (result *ImportResult, err error) {
	im.Tracker = monitoring.NewProgressTracker(3)
	result = &ImportResult{
		DryRun:    im.Options.DryRun,
		Counts:    make(map[string]int),
		Errors:    make([]string, 0),
		StartTime: time.Now(),
	}

	defer func() {
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			im.Tracker.AddError(err.Error())
		}
		im.release(result)
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		im.Tracker.LogFinalSummary(im.Log)
	}()

	im.Log.Info().Bool("dry_run", im.Options.DryRun).Bool("sort", im.Options.Sort).Msg("starting import")

	if err = im.connect(ctx); err != nil {
		return result, err
	}
	if err = im.importClients(ctx, result); err != nil {
		return result, err
	}
	if err = im.importProduits(ctx, result); err != nil {
		return result, err
	}
	if err = im.importCommandes(ctx, result); err != nil {
		return result, err
	}

	result.Success = true
	im.Log.Info().Msg("import completed successfully")
	return result, nil
}

// target first, then source
func (im *Importer) connect(ctx context.Context) error {
	im.Tracker.SetCurrentStep("connect target")
	if err := im.Target.Connect(ctx); err != nil {
		return stepError("connect target", KindConnection, err)
	}
	im.Tracker.SetCurrentStep("connect source")
	if err := im.Source.Connect(ctx); err != nil {
		return stepError("connect source", KindConnection, err)
	}
	im.Log.Debug().Msg("connected to source and target")
	return nil
}

// closes both sides; close failures are recorded but never replace the step error
func (im *Importer) release(result *ImportResult) {
	if err := im.Source.Close(); err != nil {
		im.Log.Warn().Err(err).Msg("failed to close source connection")
		result.Errors = append(result.Errors, "close source: "+err.Error())
	}
	if err := im.Target.Close(); err != nil {
		im.Log.Warn().Err(err).Msg("failed to close target connection")
		result.Errors = append(result.Errors, "close target: "+err.Error())
	}
}

func (im *Importer) importClients(ctx context.Context, result *ImportResult) error {
	rows, err := im.fetch(ctx, Client)
	if err != nil {
		return err
	}
	im.check(result, validation.CheckUniqueKeys(Client, "NCLI", rows))

	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, ProjectClient(row))
	}
	return im.insert(ctx, result, Client, docs, "clients imported")
}

func (im *Importer) importProduits(ctx context.Context, result *ImportResult) error {
	rows, err := im.fetch(ctx, Produit)
	if err != nil {
		return err
	}
	im.check(result, validation.CheckUniqueKeys(Produit, "NPRO", rows))

	im.Tracker.SetCurrentStep("transform " + Produit)
	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		doc, err := ProjectProduit(row)
		if err != nil {
			return stepError("transform "+Produit, KindTransform, err)
		}
		docs = append(docs, doc)
	}
	return im.insert(ctx, result, Produit, docs, "produits imported")
}

func (im *Importer) importCommandes(ctx context.Context, result *ImportResult) error {
	commandes, err := im.fetch(ctx, Commande)
	if err != nil {
		return err
	}
	details, err := im.fetch(ctx, Detail)
	if err != nil {
		return err
	}
	im.check(result, validation.CheckUniqueKeys(Commande, "NCOM", commandes))
	im.check(result, validation.CheckDetailCoverage(commandes, details))

	im.Tracker.SetCurrentStep("transform " + Commande)
	built := BuildCommandes(commandes, details)
	docs := make([]interface{}, 0, len(built))
	for _, doc := range built {
		docs = append(docs, doc)
	}
	im.Log.Debug().Int("commandes", len(commandes)).Int("details", len(details)).Msg("details grouped by order")

	return im.insert(ctx, result, Commande, docs, "commandes imported")
}

func (im *Importer) fetch(ctx context.Context, table string) ([]database.Row, error) {
	step := "fetch " + table
	im.Tracker.SetCurrentStep(step)

	orderBy := ""
	if im.Options.Sort {
		orderBy = sortKeys[table]
	}
	rows, err := im.Source.FetchAll(ctx, table, orderBy)
	if err != nil {
		return nil, stepError(step, KindQuery, err)
	}
	im.Log.Debug().Str("table", table).Int("rows", len(rows)).Msg("table fetched")
	return rows, nil
}

// one batch per collection; a dry run only counts
func (im *Importer) insert(ctx context.Context, result *ImportResult, collection string, docs []interface{}, msg string) error {
	step := "insert " + collection
	im.Tracker.SetCurrentStep(step)

	count := len(docs)
	if !im.Options.DryRun {
		n, err := im.Target.InsertMany(ctx, collection, docs)
		if err != nil {
			return stepError(step, KindInsert, err)
		}
		count = n
	}

	result.Counts[collection] = count
	im.Tracker.CompletedCollection(collection, count)
	im.Log.Info().Str("collection", collection).Int("count", count).Bool("dry_run", im.Options.DryRun).Msg(msg)
	return nil
}

// source findings are logged as warnings and kept in the result
func (im *Importer) check(result *ImportResult, v validation.ValidationResult) {
	result.Validation = append(result.Validation, v)
	if !v.IsValid {
		im.Tracker.AddWarning(v.Entity + ": " + v.ErrorMessage)
		im.Log.Warn().Str("entity", v.Entity).Int("rows", v.RowCount).Msg(v.ErrorMessage)
	}
}

// AsStepError extracts the failed step from an error returned by Run.
func AsStepError(err error) (*StepError, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

