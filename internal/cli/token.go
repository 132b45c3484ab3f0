package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spincycle/backend/pkg/utils/keygen"
)

// NewTokenCommand mints values for auth.admin_api_key and
// auth.operator_token.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:       "token <admin|operator>",
		Short:     "Generate an API token for the server config",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"admin", "operator"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			prefix, key := "", ""
			switch args[0] {
			case "admin":
				prefix, key = "adm_", "auth.admin_api_key"
			case "operator":
				prefix, key = "ops_", "auth.operator_token"
			default:
				return f.Fail(fmt.Errorf("unknown role %q: must be admin or operator", args[0]))
			}
			token, err := keygen.GenerateToken(prefix, length)
			if err != nil {
				return f.Fail(err)
			}
			result := map[string]string{"role": args[0], "config_key": key, "token": token}
			return f.Success(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s %s\n%s\n", newStyles(w).label.Render("set"), key, token)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&length, "length", 40, "number of random characters")
	return cmd
}
