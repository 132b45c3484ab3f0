package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/spincycle/backend/internal/catalog"
)

func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print and validate the workflow catalog",
		Long: `Load the workflow catalog, validate it against the catalog schema and
its consistency rules, and print it. Uses the built-in catalog unless
--catalog is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			cat, err := catalog.Load(rootOpts.CatalogPath)
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(cat, func(w io.Writer) error {
				return RenderCatalog(w, cat)
			})
		},
	}
}
