// =============================================================================
// Meter Reading Import - Collaborator Wiring
// =============================================================================
//
// This file builds the pipeline collaborators from the loaded configuration.
//
// STORAGE:
//   database.dsn set    → Postgres meter directory and reading store
//   redis.addr set      → the directory is cached in Redis; an unreachable
//                         Redis is logged and skipped
//   database.dsn empty  → empty in-memory directory, no reading store
//
// USER:
//   --token    → subject of a JWT verified with auth.jwt_secret
//   --user     → fixed identity
//   auth.user  → fixed identity from config.yaml
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/auth"
	"github.com/ginjaninja78/meter-reading-import/internal/config"
	"github.com/ginjaninja78/meter-reading-import/internal/decoder"
	"github.com/ginjaninja78/meter-reading-import/internal/mapping"
	"github.com/ginjaninja78/meter-reading-import/internal/report"
	"github.com/ginjaninja78/meter-reading-import/internal/store"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
	"github.com/ginjaninja78/meter-reading-import/internal/wizard"
	"github.com/ginjaninja78/meter-reading-import/pkg/utils"
)

// errNoDatabase is returned by commands that need the reading store.
var errNoDatabase = errors.New("no database configured (set database.dsn or METERIMPORT_DATABASE_DSN)")

// backend holds the storage collaborators of one command run.
type backend struct {
	directory store.MeterDirectory
	readings  store.ReadingStore
	cache     *store.CachedDirectory
	postgres  *store.Postgres

	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured stores.
//
// PARAMETERS:
//   - needStore: fail with errNoDatabase instead of falling back to an
//     empty in-memory directory.
func openBackend(ctx context.Context, cfg *config.MainConfig, log *zap.Logger, needStore bool) (*backend, error) {
	b := &backend{}

	if cfg.Database.DSN == "" {
		if needStore {
			return nil, errNoDatabase
		}
		log.Warn("no database configured, validating against an empty meter directory")
		b.directory = store.NewMemory()
		return b, nil
	}

	pool, err := store.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, pool.Close)

	b.postgres = store.NewPostgres(pool, cfg.TenantID)
	b.directory = b.postgres
	b.readings = b.postgres

	if cfg.Redis.Addr != "" {
		client, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			log.Warn("meter directory cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			b.closers = append(b.closers, func() { closeRedis(client, log) })
			b.cache = store.NewCachedDirectory(b.postgres, client, cfg.TenantID, cfg.Redis.TTL, log)
			b.directory = b.cache
		}
	}

	return b, nil
}

func closeRedis(client *redis.Client, log *zap.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("failed to close redis client", zap.Error(err))
	}
}

func newDecoder(cfg *config.MainConfig, log *zap.Logger) *decoder.Decoder {
	return decoder.New(decoder.Options{
		MaxBytes:       cfg.Import.MaxFileSizeBytes,
		TextExtensions: cfg.Import.TextExtensions,
		Encoding:       cfg.Import.CSVEncoding,
		Logger:         log,
	})
}

// resolveUser picks the identity source; a token wins over a fixed name.
func resolveUser(cfg *config.MainConfig, userFlag, tokenFlag string) (auth.CurrentUser, error) {
	switch {
	case tokenFlag != "":
		if cfg.Auth.JWTSecret == "" {
			return nil, errors.New("--token given but auth.jwt_secret is not configured")
		}
		return auth.NewToken(tokenFlag, cfg.Auth.JWTSecret), nil
	case userFlag != "":
		return auth.Static(userFlag), nil
	default:
		return auth.Static(cfg.Auth.User), nil
	}
}

// newReporters builds the console reporter plus the configured file and
// metrics reporters.
func newReporters(cfg *config.MainConfig, out io.Writer, sourceFile, user string, overwrite bool, log *zap.Logger) (report.Multi, *report.Files) {
	reporters := report.Multi{report.NewConsole(out)}

	var files *report.Files
	if cfg.Report.WriteFiles {
		if err := utils.NewFileManager(cfg.Report.OutputDir, "").EnsureDirectories(); err != nil {
			log.Warn("report directory unavailable", zap.Error(err))
		}
		files = report.NewFiles(cfg.Report.OutputDir, sourceFile, user, overwrite, log)
		reporters = append(reporters, files)
	}
	if cfg.Report.MetricsFile != "" {
		reporters = append(reporters, report.NewMetrics(cfg.Report.MetricsFile))
	}
	return reporters, files
}

// columnFlags holds the --*-column overrides shared by import and validate.
type columnFlags map[types.Field]*string

func newColumnFlags() columnFlags {
	flags := make(columnFlags, len(types.AllFields))
	for _, f := range types.AllFields {
		flags[f] = new(string)
	}
	return flags
}

var columnFlagNames = map[types.Field]string{
	types.FieldMeterNumber: "meter-column",
	types.FieldDate:        "date-column",
	types.FieldValue:       "value-column",
	types.FieldNotes:       "notes-column",
}

func (c columnFlags) register(cmd *cobra.Command) {
	for _, f := range types.AllFields {
		cmd.Flags().StringVar(c[f], columnFlagNames[f], "", fmt.Sprintf("Column holding the %s, overriding the guessed mapping", f))
	}
}

// apply overrides the guessed mapping of a session in the mapping step.
func (c columnFlags) apply(s *wizard.Session) error {
	for _, f := range types.AllFields {
		if header := *c[f]; header != "" {
			if err := s.SetMapping(f, header); err != nil {
				return err
			}
		}
	}
	return nil
}

func newMapper(cfg *config.MainConfig) *mapping.Mapper {
	return mapping.New(cfg.Mapping.Rules)
}

// loadAndValidate runs the upload, mapping and validation steps for a file.
// The size check runs on the file metadata before the content is read.
func loadAndValidate(ctx context.Context, out io.Writer, s *wizard.Session, dec *decoder.Decoder, path string, columns columnFlags) error {
	name := filepath.Base(path)

	size, err := utils.GetFileSize(path)
	if err != nil {
		return err
	}
	if err := dec.Check(name, size); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := s.Upload(name, data); err != nil {
		return err
	}
	if len(s.Table().DuplicateHeaders) > 0 {
		fmt.Fprintf(out, "Note: duplicate column names were renamed: %v\n", s.Table().DuplicateHeaders)
	}
	if err := columns.apply(s); err != nil {
		return err
	}

	printMapping(out, s.Mapping())
	return s.Validate(ctx)
}

func printMapping(out io.Writer, m types.ColumnMapping) {
	fmt.Fprintln(out, "=== Column Mapping ===")
	for _, f := range types.AllFields {
		header := m.Get(f)
		if header == "" {
			header = "(not mapped)"
		}
		fmt.Fprintf(out, "%-14s %s\n", f+":", header)
	}
}
