package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/graphapi"
	"github.com/listgraph/listgraph/pkg/pipeline"
)

// tokenEnvVar lets scripts pass the bearer token without putting it on the
// command line, where it would leak into shell history and process lists.
const tokenEnvVar = "LISTGRAPH_TOKEN"

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	token   string // Graph API bearer token (flag or env)
	siteID  string // SharePoint site id
	output  string // output file path
	format  string // png or svg
	baseURL string // Graph API base URL override
}

// generateCommand creates the generate command for one-shot diagram output.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{
		output: "schema.png",
		format: pipeline.FormatPNG,
	}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an entity diagram for a SharePoint site",
		Long: `Fetch the lists and columns of a SharePoint site through the Microsoft
Graph API, infer relationships from lookup columns, and render the schema
as a UML-like entity diagram.

The access token is read from --token or the ` + tokenEnvVar + ` environment
variable. Tokens are used for the single run and never stored.`,
		Example: `  listgraph generate --site-id contoso.sharepoint.com,1234...,5678... --token eyJ0...
  LISTGRAPH_TOKEN=eyJ0... listgraph generate --site-id $SITE -o docs/schema.svg -f svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.token == "" {
				opts.token = os.Getenv(tokenEnvVar)
			}
			if opts.token == "" {
				return errors.New(errors.ErrCodeInvalidInput, "access token required (--token or %s)", tokenEnvVar)
			}
			if opts.siteID == "" {
				return errors.New(errors.ErrCodeInvalidSite, "site id required (--site-id)")
			}
			return c.runGenerate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", "", "Graph API bearer token (or "+tokenEnvVar+")")
	cmd.Flags().StringVar(&opts.siteID, "site-id", "", "SharePoint site id")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file path")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: png (default), svg")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Graph API base URL (default "+graphapi.DefaultBaseURL+")")

	return cmd
}

// runGenerate runs the pipeline once and reports the result.
func (c *CLI) runGenerate(ctx context.Context, opts generateOpts) error {
	runner, err := pipeline.NewGraphRunner(graphapi.Config{
		Token:   opts.token,
		BaseURL: opts.baseURL,
	}, c.Logger)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching schema for %s...", opts.siteID))
	spinner.Start()

	result, err := runner.Run(ctx, pipeline.Options{
		SiteID: opts.siteID,
		Format: opts.format,
		Output: opts.output,
	})
	if err != nil {
		spinner.StopWithError("Diagram generation failed")
		return err
	}
	spinner.Stop()

	printSuccess("Diagram saved")
	printFile(result.Path)
	printStats(result.Stats.ListCount, result.Stats.EdgeCount)
	return nil
}
