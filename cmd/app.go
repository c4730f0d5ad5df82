package cmd

import (
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/spf13/cobra"
)

var (
	appDomainSlug string
	newApp        domain.NewApplication
)

// appCmd groups application commands
var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage applications within a domain.",
}

// appCreateCmd creates an application along with its default groups
var appCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an application and provision its default groups.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		d, err := rt.DomainManager().DomainBySlug(ctx, appDomainSlug)
		if err != nil {
			return err
		}

		a, groups, err := rt.CreateApplication(ctx, d.ID, newApp)
		if err != nil {
			return err
		}

		return printJSON(cmd, map[string]interface{}{
			"application": a,
			"groups":      groups,
		})
	},
}

func init() {
	rootCmd.AddCommand(appCmd)
	appCmd.AddCommand(appCreateCmd)

	f := appCreateCmd.Flags()
	f.StringVar(&appDomainSlug, "domain", "", "domain slug")
	f.StringVar(&newApp.Name, "name", "", "application name")
	f.StringVar(&newApp.Slug, "slug", "", "application slug, derived from the name if omitted")
	f.StringVar(&newApp.OwnerUserID, "owner", "", "owner user id, becomes an app admin")
	f.StringVar(&newApp.Description, "description", "", "description")

	appCreateCmd.MarkFlagRequired("domain")
	appCreateCmd.MarkFlagRequired("name")
}
