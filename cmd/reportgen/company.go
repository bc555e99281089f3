package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/ui"
	"github.com/sandevgo/reportgen/pkg/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const importParallelism = 4

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage company records",
}

var companyImportCmd = &cobra.Command{
	Use:          "import <file.json>",
	Short:        "Import company records from a JSON array",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		companies, err := readCompanies(args[0])
		if err != nil {
			return err
		}

		c := newStorage(ctx)
		defer c.db.Close()

		added, skipped, err := importCompanies(ctx, c.store, companies)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d companies, skipped %d existing\n", added, skipped)
		return nil
	},
}

var companyListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List company ids and names",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		c := newStorage(ctx)
		defer c.db.Close()

		dir, err := c.directory.Get(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.CompanyTable(dir.Entries()))
		return nil
	},
}

var companyGetCmd = &cobra.Command{
	Use:          "get <name>",
	Short:        "Print the record stored under a company name",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		c := newStorage(ctx)
		defer c.db.Close()

		company, err := c.store.GetByName(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(company)
	},
}

type companyWriter interface {
	AddCompany(ctx context.Context, company *core.Company) (*core.Company, error)
}

func readCompanies(path string) ([]core.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var companies []core.Company
	if err := json.Unmarshal(data, &companies); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return companies, nil
}

// importCompanies adds every record, skipping names whose partition is already taken.
func importCompanies(ctx context.Context, store companyWriter, companies []core.Company) (added, skipped int, err error) {
	logger := log.FromCtx(ctx)

	var addedN, skippedN atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importParallelism)

	for i := range companies {
		company := &companies[i]
		g.Go(func() error {
			created, err := store.AddCompany(gctx, company)
			switch {
			case errors.Is(err, core.ErrDuplicatePartition):
				logger.Warn().Str("company", company.CompanyName).Msg("company already exists, skipping")
				skippedN.Add(1)
				return nil
			case err != nil:
				return fmt.Errorf("failed to import %q: %w", company.CompanyName, err)
			}
			logger.Debug().Str("company", created.CompanyName).Str("id", created.ID).Msg("company imported")
			addedN.Add(1)
			return nil
		})
	}

	err = g.Wait()
	return int(addedN.Load()), int(skippedN.Load()), err
}

func init() {
	companyCmd.AddCommand(companyImportCmd, companyListCmd, companyGetCmd)
	rootCmd.AddCommand(companyCmd)
}
