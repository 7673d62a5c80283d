package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/chainreader/internal/control"
)

var (
	endpointsFlags chainFlags
	endpointsProbe bool
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Show endpoint order and cooldown state per chain",
	RunE:  runEndpoints,
}

func init() {
	endpointsCmd.Flags().StringSliceVar(&endpointsFlags.chains, "chain", nil, "chain ids or names (default: every configured chain)")
	endpointsCmd.Flags().StringVar(&endpointsFlags.override, "override", "", "endpoint tried before the configured ones")
	endpointsCmd.Flags().BoolVar(&endpointsProbe, "probe", false, "fetch the chain head through the endpoints first")
	rootCmd.AddCommand(endpointsCmd)
}

func runEndpoints(cmd *cobra.Command, args []string) error {
	ids, err := endpointsFlags.apply(appCfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := control.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	for _, id := range ids {
		ch, err := app.Chain(id)
		if err != nil {
			return err
		}
		if endpointsProbe {
			head, err := ch.Engine.LatestBlock(ctx)
			if err != nil {
				fmt.Fprintf(out, "chain %s head: error: %v\n", id, err)
			} else {
				fmt.Fprintf(out, "chain %s head: %d\n", id, head)
			}
		}
		fmt.Fprint(out, ch.Client.Dashboard(ctx))
	}
	return nil
}
