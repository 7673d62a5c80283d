package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/chainreader/internal/control"
	"github.com/vietddude/chainreader/internal/core/domain"
)

var (
	resolveFlags  chainFlags
	resolveRecord uint64
	resolveBlock  uint64
)

var resolveCmd = &cobra.Command{
	Use:     "resolve",
	Short:   "Find the transaction that created one record",
	Example: `  chainreader resolve --chain base --contract 0x... --record 42 --block 18234001`,
	RunE:    runResolve,
}

func init() {
	resolveCmd.Flags().StringSliceVar(&resolveFlags.chains, "chain", nil, "chain id or name")
	resolveCmd.Flags().StringVar(&resolveFlags.contract, "contract", "", "record store contract address")
	resolveCmd.Flags().StringVar(&resolveFlags.override, "override", "", "endpoint tried before the configured ones")
	resolveCmd.Flags().Uint64Var(&resolveRecord, "record", 0, "record id")
	resolveCmd.Flags().Uint64Var(&resolveBlock, "block", 0, "approximate block the record was written at")
	_ = resolveCmd.MarkFlagRequired("chain")
	_ = resolveCmd.MarkFlagRequired("record")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ids, err := resolveFlags.apply(appCfg)
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("resolve needs exactly one chain, got %d", len(ids))
	}
	chainID := ids[0]
	if ch, _ := appCfg.Chain(chainID); ch.Contract == "" {
		return fmt.Errorf("%w: chain %s, pass --contract", control.ErrNoContract, chainID)
	}

	ctx := cmd.Context()
	app, err := control.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Resolver().Resolve(ctx, chainID, domain.RecordHint{RecordID: resolveRecord, BlockNumber: resolveBlock})
	if err != nil {
		return err
	}

	if !res.Resolved() {
		slog.Warn("Transaction not found", "chain", chainID.String(), "record", resolveRecord, "block", resolveBlock)
		fmt.Fprintln(cmd.OutOrStdout(), "not found")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.TxHash)
	return nil
}
