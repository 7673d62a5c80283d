package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/chainreader/internal/control"
	"github.com/vietddude/chainreader/internal/core/domain"
)

var (
	recordsFlags  chainFlags
	recordsQuery  control.RecordQuery
	recordsAsJSON bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List records with the hash of the transaction that created them",
	Long: `records reads the record store of every selected chain and resolves the
creating transaction of each record. Chains are read concurrently; records
within a chain one at a time.`,
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().StringSliceVar(&recordsFlags.chains, "chain", nil, "chain ids or names (default: every configured chain)")
	recordsCmd.Flags().StringVar(&recordsFlags.contract, "contract", "", "record store contract address")
	recordsCmd.Flags().StringVar(&recordsFlags.override, "override", "", "endpoint tried before the configured ones")
	recordsCmd.Flags().Uint64Var(&recordsQuery.Offset, "offset", 0, "first record index")
	recordsCmd.Flags().Uint64Var(&recordsQuery.Limit, "limit", 0, "maximum records per chain (0 = all)")
	recordsCmd.Flags().BoolVar(&recordsQuery.IncludeDeleted, "include-deleted", false, "include deleted records")
	recordsCmd.Flags().BoolVar(&recordsAsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	ids, err := recordsFlags.apply(appCfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := control.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		mu      sync.Mutex
		results = make(map[domain.ChainID][]control.ResolvedRecord, len(ids))
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, id := range ids {
		if ch, _ := app.Chain(id); ch == nil || ch.Records == nil {
			slog.Warn("Skipping chain without contract", "chain", id.String())
			continue
		}
		g.Go(func() error {
			out, err := app.Records(gCtx, id, recordsQuery)
			if err != nil {
				return fmt.Errorf("chain %s: %w", id, err)
			}
			mu.Lock()
			results[id] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if recordsAsJSON {
		byChain := make(map[string][]control.ResolvedRecord, len(results))
		for id, recs := range results {
			byChain[id.String()] = recs
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(byChain)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHAIN\tID\tBLOCK\tTITLE\tTX")
	for _, id := range ids {
		for _, r := range results[id] {
			tx := r.TxHash
			if tx == "" {
				tx = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", id.Name(), r.ID, r.BlockNumber, r.Title, tx)
		}
	}
	return w.Flush()
}
