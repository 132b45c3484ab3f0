package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spincycle/backend/internal/config"
	"github.com/spincycle/backend/internal/infrastructure/db"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return f.Fail(err)
			}
			database, err := db.NewConnection(cfg.Database)
			if err != nil {
				return f.Fail(err)
			}
			defer db.Close(database)

			if err := db.RunMigrations(database); err != nil {
				return f.Fail(err)
			}
			result := map[string]string{"driver": cfg.Database.Driver, "status": "migrated"}
			return f.Success(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s migrations applied (%s)\n", newStyles(w).done.Render("ok"), cfg.Database.Driver)
				return err
			})
		},
	}
}
