package main

import (
	"context"
	"fmt"
	"formdesk/internal/catalog"
	"formdesk/internal/config"
	"formdesk/internal/model"
	"formdesk/internal/repository"
	"formdesk/internal/service"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	mongoURI     string
	mongoDB      string
	templateFile string
	onlyIfEmpty  bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load questionnaire templates into the catalog",
	Long: `seed writes questionnaire templates to the MongoDB template catalog.

Without --file the built-in templates are used. Templates with an existing id
are replaced.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	cfg := config.Default()
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		cfg.MongoDB = v
	}
	rootCmd.Flags().StringVar(&mongoURI, "mongo-uri", cfg.MongoURI, "MongoDB connection string")
	rootCmd.Flags().StringVar(&mongoDB, "db", cfg.MongoDB, "database name")
	rootCmd.Flags().StringVarP(&templateFile, "file", "f", "", "YAML template file (default: built-in templates)")
	rootCmd.Flags().BoolVar(&onlyIfEmpty, "if-empty", false, "only seed when the catalog is empty")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func loadTemplates() ([]model.Template, error) {
	if templateFile != "" {
		return catalog.LoadFile(templateFile)
	}
	return catalog.Defaults()
}

func run(ctx context.Context) error {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	templates, err := loadTemplates()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())

	svc := service.NewTemplateService(repository.NewTemplateRepo(client.Database(mongoDB)), logger)
	if onlyIfEmpty {
		seeded, err := svc.EnsureDefaults(ctx, templates)
		if err != nil {
			return err
		}
		if !seeded {
			logger.Info("catalog already populated, nothing written")
		}
		return nil
	}

	if err := svc.Seed(ctx, templates); err != nil {
		return err
	}
	logger.Info("templates seeded", zap.Int("count", len(templates)), zap.String("db", mongoDB))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
