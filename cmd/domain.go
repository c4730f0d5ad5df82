package cmd

import (
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/spf13/cobra"
)

var newDomain domain.NewDomain

// domainCmd groups domain commands
var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage domains (tenants).",
}

// domainCreateCmd creates a domain along with its default groups
var domainCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a domain and provision its default groups.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		d, groups, err := rt.CreateDomain(cmd.Context(), newDomain)
		if err != nil {
			return err
		}

		return printJSON(cmd, map[string]interface{}{
			"domain": d,
			"groups": groups,
		})
	},
}

func init() {
	rootCmd.AddCommand(domainCmd)
	domainCmd.AddCommand(domainCreateCmd)

	f := domainCreateCmd.Flags()
	f.StringVar(&newDomain.Name, "name", "", "domain name")
	f.StringVar(&newDomain.Slug, "slug", "", "domain slug, derived from the name if omitted")
	f.StringVar(&newDomain.OwnerUserID, "owner", "", "owner user id")
	f.StringVar(&newDomain.Description, "description", "", "description")
	f.StringVar(&newDomain.Industry, "industry", "", "industry")

	domainCreateCmd.MarkFlagRequired("name")
	domainCreateCmd.MarkFlagRequired("owner")
}
