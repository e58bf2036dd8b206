package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/config"
	"github.com/maktaba/bookcrawler/internal/hash/sha256"
	"github.com/maktaba/bookcrawler/internal/logging"
	"github.com/maktaba/bookcrawler/internal/storage/local"
	"github.com/maktaba/bookcrawler/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify [book-id...]",
		Short: "Audit the archive for damaged or missing page artifacts",
		Long: `Checks every persisted page against the crawl-time validity floor
and reports section gaps. Resume never refetches a page whose file exists,
so a truncated artifact stays broken until it is found and removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit reports as JSON")

	return cmd
}

func runVerify(bookIDs []string, asJSON bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	store, err := local.New(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	v := verify.New(store, sha256.New(), cfg.Crawler.MinBodyBytes, logger.Named("verify"))

	var reports []verify.BookReport
	if len(bookIDs) == 0 {
		reports, err = v.VerifyAll()
		if err != nil {
			return err
		}
	} else {
		for _, id := range bookIDs {
			report, err := v.VerifyBook(id)
			if err != nil {
				return fmt.Errorf("verify book %s: %w", id, err)
			}
			reports = append(reports, report)
		}
	}

	dirty := 0
	for _, report := range reports {
		if !report.Clean() {
			dirty++
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encode reports: %w", err)
		}
	} else {
		for _, report := range reports {
			if report.Clean() {
				logger.Info("book ok",
					zap.String("book_id", report.BookID),
					zap.Int("sections", report.Sections),
				)
				continue
			}
			logger.Warn("book has issues",
				zap.String("book_id", report.BookID),
				zap.Ints("gaps", report.Gaps),
				zap.Any("issues", report.Issues),
			)
		}
	}

	logger.Info("verification finished",
		zap.Int("books", len(reports)),
		zap.Int("with_issues", dirty),
	)
	if dirty > 0 {
		return fmt.Errorf("%d of %d books have archive issues", dirty, len(reports))
	}
	return nil
}
