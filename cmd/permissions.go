package cmd

import (
	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/spf13/cobra"
)

var (
	permUserID     string
	permKind       string
	permDomainSlug string
	permAppSlug    string
)

// permissionsCmd prints effective permissions of a principal
var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Show effective permissions of a user within a domain or an application.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		d, err := rt.DomainManager().DomainBySlug(ctx, permDomainSlug)
		if err != nil {
			return err
		}

		p, err := accesspolicy.NewPrincipal(permUserID, permKind, d.ID)
		if err != nil {
			return err
		}

		dp, err := rt.Resolver().DomainPermissions(ctx, p, d.ID)
		if err != nil {
			return err
		}

		result := map[string]interface{}{
			"principal":          p,
			"domain":             d.Slug,
			"domain_permissions": dp.List(),
		}

		if permAppSlug != "" {
			a, err := rt.DomainManager().ApplicationBySlug(ctx, d.ID, permAppSlug)
			if err != nil {
				return err
			}

			ap, err := rt.Resolver().AppPermissions(ctx, p, a.ID)
			if err != nil {
				return err
			}

			result["app"] = a.Slug
			result["app_permissions"] = ap.List()
		}

		return printJSON(cmd, result)
	},
}

func init() {
	rootCmd.AddCommand(permissionsCmd)

	f := permissionsCmd.Flags()
	f.StringVar(&permUserID, "user", "", "user id")
	f.StringVar(&permKind, "kind", "DOMAIN_USER", "principal kind: OWNER or DOMAIN_USER")
	f.StringVar(&permDomainSlug, "domain", "", "domain slug")
	f.StringVar(&permAppSlug, "app", "", "application slug")

	permissionsCmd.MarkFlagRequired("user")
	permissionsCmd.MarkFlagRequired("domain")
}
