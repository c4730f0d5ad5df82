package cmd

import (
	"os"

	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/workflow"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	importDomainSlug string
	importUserID     string
	importKind       string
)

// workflowCmd groups workflow definition commands
var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Manage workflow definitions.",
}

// workflowImportCmd imports a definition from a YAML document
var workflowImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Validate and store a workflow definition from a YAML file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "failed to open definition file")
		}
		defer f.Close()

		def, err := workflow.LoadDefinitionYAML(f)
		if err != nil {
			return err
		}

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		d, err := rt.DomainManager().DomainBySlug(ctx, importDomainSlug)
		if err != nil {
			return err
		}

		p, err := accesspolicy.NewPrincipal(importUserID, importKind, d.ID)
		if err != nil {
			return err
		}

		// the target domain is given on the command line
		def.DomainID = d.ID

		def, err = rt.CreateWorkflow(ctx, p, def)
		if err != nil {
			return err
		}

		return printJSON(cmd, def)
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowImportCmd)

	f := workflowImportCmd.Flags()
	f.StringVar(&importDomainSlug, "domain", "", "target domain slug")
	f.StringVar(&importUserID, "user", "", "acting user id")
	f.StringVar(&importKind, "kind", "DOMAIN_USER", "acting principal kind: OWNER or DOMAIN_USER")

	workflowImportCmd.MarkFlagRequired("domain")
	workflowImportCmd.MarkFlagRequired("user")
}
